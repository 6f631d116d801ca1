package main

import (
	"github.com/spf13/cobra"
)

func newCustomerCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Resolve provider customers by email",
	}
	cmd.AddCommand(newCustomerResolveCmd(c))
	cmd.AddCommand(newCustomerFindCmd(c))
	return cmd
}

func newCustomerResolveCmd(c *cli) *cobra.Command {
	var knownID string

	cmd := &cobra.Command{
		Use:   "resolve <email>",
		Short: "Find the customer with this email, creating one if none exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				customer, err := a.service.Customers.Resolve(cmd.Context(), args[0], knownID)
				if err != nil {
					return err
				}
				return printJSON(cmd, customer)
			})
		},
	}

	cmd.Flags().StringVar(&knownID, "id", "", "customer id already on file")
	return cmd
}

func newCustomerFindCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "find <email>",
		Short: "Find the customer with this email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				customer, err := a.service.Customers.FindByEmail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, customer)
			})
		},
	}
}
