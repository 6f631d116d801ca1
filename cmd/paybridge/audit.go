package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mstgnz/paybridge/provider"
)

func newAuditCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the provider call audit trail",
	}

	var (
		providerName string
		hours        int
	)
	errorsCmd := &cobra.Command{
		Use:   "errors",
		Short: "List failed provider calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if hours <= 0 {
				return provider.InvalidRequestf("audit_errors", "--hours must be positive")
			}
			return c.run(cmd, func(a *app) error {
				if a.audit == nil {
					return provider.InvalidRequestf("audit_errors", "no audit driver is configured")
				}
				entries, err := a.audit.RecentErrors(cmd.Context(), providerName, time.Now().Add(-time.Duration(hours)*time.Hour))
				if err != nil {
					return provider.Wrap(provider.KindProviderUnavailable, "audit_errors", err)
				}
				return printJSON(cmd, entries)
			})
		},
	}
	errorsCmd.Flags().StringVar(&providerName, "provider", "", "only this provider")
	errorsCmd.Flags().IntVar(&hours, "hours", 24, "look back this many hours")

	cmd.AddCommand(errorsCmd)
	return cmd
}
