package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/mstgnz/paybridge/handler"
	"github.com/mstgnz/paybridge/infra/logger"
	"github.com/mstgnz/paybridge/router"
	v1 "github.com/mstgnz/paybridge/router/v1"
)

const (
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 15 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				addr := a.cfg.Addr()
				if port > 0 {
					addr = ":" + strconv.Itoa(port)
				}

				server := &http.Server{
					Addr:              addr,
					Handler:           newHTTPHandler(a),
					ReadTimeout:       requestTimeout,
					WriteTimeout:      requestTimeout + 5*time.Second,
					IdleTimeout:       requestTimeout,
					ReadHeaderTimeout: 10 * time.Second,
				}
				return serve(cmd.Context(), server)
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (default http.port from config)")
	return cmd
}

// newHTTPHandler mounts every handler group over the app's orchestrators
func newHTTPHandler(a *app) http.Handler {
	validate := validator.New()

	return router.New(v1.Handlers{
		Payments:      handler.NewPaymentHandler(a.service.Transactions, validate),
		Customers:     handler.NewCustomerHandler(a.service.Customers, validate),
		Subscriptions: handler.NewSubscriptionHandler(a.service.Subscriptions, a.service.Accounts, validate),
		Health: handler.NewHealthHandler(handler.HealthInfo{
			Version:     version,
			Environment: a.cfg.App.Environment,
			Providers:   a.providers,
			Services:    a.services,
		}),
		Logs: handler.NewLogsHandler(a.audit),
	}, router.Options{
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		Timeout:        requestTimeout,
	})
}

// serve runs server until ctx is canceled, then shuts it down gracefully
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API is running", logger.LogContext{Fields: map[string]any{"addr": server.Addr}})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...", logger.LogContext{Fields: map[string]any{"addr": server.Addr}})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
