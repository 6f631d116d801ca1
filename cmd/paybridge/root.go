package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// openFunc builds the application from the config file at path
type openFunc func(ctx context.Context, path string) (*app, error)

// cli carries what every subcommand shares
type cli struct {
	open       openFunc
	configPath string
}

func newRootCmd(open openFunc) *cobra.Command {
	c := &cli{open: open}

	cmd := &cobra.Command{
		Use:           "paybridge",
		Short:         "Unified card and wallet payments",
		Long:          "PayBridge charges cards through Stripe, runs PayPal redirect payments and manages customers and subscriptions behind one interface.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "path to the YAML config file (default $PAYBRIDGE_CONFIG)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newChargeCmd(c))
	cmd.AddCommand(newRefundCmd(c))
	cmd.AddCommand(newRedirectCmd(c))
	cmd.AddCommand(newCustomerCmd(c))
	cmd.AddCommand(newSubscriptionCmd(c))
	cmd.AddCommand(newPlanCmd(c))
	cmd.AddCommand(newAccountCmd(c))
	cmd.AddCommand(newAuditCmd(c))
	cmd.AddCommand(newServeCmd(c))
	return cmd
}

// run opens the application, hands it to fn and closes it afterwards
func (c *cli) run(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := c.open(cmd.Context(), c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// printJSON writes v as indented JSON to the command's output
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show PayBridge version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "paybridge %s (%s)\n", version, commit)
			return nil
		},
	}
}
