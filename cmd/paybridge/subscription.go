package main

import (
	"github.com/spf13/cobra"

	"github.com/mstgnz/paybridge/provider"
)

func newSubscriptionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Manage recurring billing",
	}
	cmd.AddCommand(newSubscriptionGetCmd(c))
	cmd.AddCommand(newSubscriptionChargeCmd(c))
	cmd.AddCommand(newSubscriptionCreateCmd(c))
	cmd.AddCommand(newSubscriptionCancelCmd(c))
	return cmd
}

func newSubscriptionGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <subscriptionId>",
		Short: "Show a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				sub, err := a.service.Subscriptions.GetSubscription(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, sub)
			})
		},
	}
}

func newSubscriptionChargeCmd(c *cli) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "charge <subscriptionId>",
		Short: "End the trial now so the first invoice is charged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				sub, err := a.service.Subscriptions.ChargeSubscription(cmd.Context(), args[0], source)
				if err != nil {
					return err
				}
				return printJSON(cmd, sub)
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "new default payment source")
	return cmd
}

func newSubscriptionCreateCmd(c *cli) *cobra.Command {
	var (
		opts  provider.SubscriptionOptions
		meta  []string
		extra []string
	)

	cmd := &cobra.Command{
		Use:   "create <customerId> <planId>",
		Short: "Subscribe a customer to a plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.Metadata, err = parseMeta(meta); err != nil {
				return err
			}
			if opts.Extra, err = parseExtra(extra); err != nil {
				return err
			}

			return c.run(cmd, func(a *app) error {
				sub, err := a.service.Subscriptions.CreateSubscription(cmd.Context(), args[0], args[1], opts)
				if err != nil {
					return err
				}
				return printJSON(cmd, sub)
			})
		},
	}

	cmd.Flags().Int64Var(&opts.Quantity, "quantity", 0, "plan quantity")
	cmd.Flags().Int64Var(&opts.TrialDays, "trial-days", 0, "trial length in days")
	cmd.Flags().StringVar(&opts.Coupon, "coupon", "", "coupon code")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "metadata key=value, repeatable")
	cmd.Flags().StringArrayVar(&extra, "extra", nil, "additional provider parameter key=value, repeatable")
	return cmd
}

func newSubscriptionCancelCmd(c *cli) *cobra.Command {
	var opts provider.CancelOptions

	cmd := &cobra.Command{
		Use:   "cancel <subscriptionId>",
		Short: "Cancel a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				sub, err := a.service.Subscriptions.CancelSubscription(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return printJSON(cmd, sub)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.AtPeriodEnd, "at-period-end", false, "keep the subscription until the period ends")
	cmd.Flags().BoolVar(&opts.InvoiceNow, "invoice-now", false, "invoice pending usage immediately")
	cmd.Flags().BoolVar(&opts.Prorate, "prorate", false, "prorate the final invoice")
	return cmd
}

func newPlanCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Read billing plans",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <planId>",
		Short: "Show a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				plan, err := a.service.Subscriptions.GetPlan(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, plan)
			})
		},
	})
	return cmd
}

func newAccountCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Open connected merchant accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <email> <country>",
		Short: "Create a deferred connected account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				acct, err := a.service.Accounts.CreateDeferredAccount(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd, acct)
			})
		},
	})
	return cmd
}
