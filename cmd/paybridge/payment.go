package main

import (
	"github.com/spf13/cobra"

	"github.com/mstgnz/paybridge/provider"
)

func newChargeCmd(c *cli) *cobra.Command {
	var (
		destination string
		fee         string
		description string
		key         string
		meta        []string
	)

	cmd := &cobra.Command{
		Use:   "charge <amount> <token> [currency]",
		Short: "Charge a tokenized card",
		Long:  "Charge a card token. The amount is a decimal in major units, e.g. 10.50; currency defaults to usd.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency := provider.DefaultCurrency
			if len(args) == 3 {
				currency = provider.NormalizeCurrency(args[2])
			}

			amount, err := provider.ParseAmount(args[0], currency)
			if err != nil {
				return err
			}
			feeAmount, err := parseOptionalAmount(fee, currency)
			if err != nil {
				return err
			}
			metadata, err := parseMeta(meta)
			if err != nil {
				return err
			}

			req := provider.ChargeRequest{
				Amount:             amount,
				Currency:           currency,
				Source:             args[1],
				DestinationAccount: destination,
				ApplicationFee:     feeAmount,
				Description:        description,
				Metadata:           metadata,
				IdempotencyKey:     key,
			}

			return c.run(cmd, func(a *app) error {
				res, err := a.service.Transactions.Charge(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVar(&destination, "destination", "", "connected account receiving the funds")
	cmd.Flags().StringVar(&fee, "fee", "", "application fee kept by the platform, requires --destination")
	cmd.Flags().StringVar(&description, "description", "", "charge description")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "idempotency key (generated when empty)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "metadata key=value, repeatable")
	return cmd
}

func newRefundCmd(c *cli) *cobra.Command {
	var (
		currency        string
		reason          string
		reverseTransfer bool
		refundFee       bool
		key             string
		meta            []string
	)

	cmd := &cobra.Command{
		Use:   "refund <chargeId> [amount]",
		Short: "Refund all or part of a charge",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var amount int64
			if len(args) == 2 {
				var err error
				if amount, err = provider.ParseAmount(args[1], provider.NormalizeCurrency(currency)); err != nil {
					return err
				}
			}
			metadata, err := parseMeta(meta)
			if err != nil {
				return err
			}

			req := provider.RefundRequest{
				ChargeID:             args[0],
				Amount:               amount,
				Reason:               reason,
				ReverseTransfer:      reverseTransfer,
				RefundApplicationFee: refundFee,
				Metadata:             metadata,
				IdempotencyKey:       key,
			}

			return c.run(cmd, func(a *app) error {
				res, err := a.service.Transactions.Refund(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVar(&currency, "currency", provider.DefaultCurrency, "currency of the amount argument")
	cmd.Flags().StringVar(&reason, "reason", "", "requested_by_customer, duplicate or fraudulent")
	cmd.Flags().BoolVar(&reverseTransfer, "reverse-transfer", false, "pull the funds back from the connected account")
	cmd.Flags().BoolVar(&refundFee, "refund-fee", false, "also refund the application fee")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "idempotency key (generated when empty)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "metadata key=value, repeatable")
	return cmd
}

func newRedirectCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redirect",
		Short: "Run PayPal redirect payments",
	}
	cmd.AddCommand(newRedirectBeginCmd(c))
	cmd.AddCommand(newRedirectCompleteCmd(c))
	cmd.AddCommand(newRedirectGetCmd(c))
	return cmd
}

func newRedirectBeginCmd(c *cli) *cobra.Command {
	var (
		payee       string
		items       []string
		total       string
		currency    string
		invoice     string
		description string
		returnURL   string
		cancelURL   string
		key         string
	)

	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Create a payment the payer approves off-site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			currency = provider.NormalizeCurrency(currency)

			lines := make([]provider.LineItem, 0, len(items))
			for _, raw := range items {
				item, err := parseItem(raw, currency)
				if err != nil {
					return err
				}
				lines = append(lines, item)
			}
			totalAmount, err := provider.ParseAmount(total, currency)
			if err != nil {
				return err
			}

			req := provider.RedirectPaymentRequest{
				PayeeEmail:       payee,
				Items:            lines,
				Total:            totalAmount,
				Currency:         currency,
				InvoiceReference: invoice,
				Description:      description,
				ReturnURL:        returnURL,
				CancelURL:        cancelURL,
				IdempotencyKey:   key,
			}

			return c.run(cmd, func(a *app) error {
				res, err := a.service.Transactions.BeginRedirectPayment(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVar(&payee, "payee", "", "merchant PayPal email")
	cmd.Flags().StringArrayVar(&items, "item", nil, "line item name:sku:price:qty, repeatable")
	cmd.Flags().StringVar(&total, "total", "", "total amount in major units")
	cmd.Flags().StringVar(&currency, "currency", provider.DefaultCurrency, "currency")
	cmd.Flags().StringVar(&invoice, "invoice", "", "caller invoice reference")
	cmd.Flags().StringVar(&description, "description", "", "payment description")
	cmd.Flags().StringVar(&returnURL, "return-url", "", "where the payer lands after approving")
	cmd.Flags().StringVar(&cancelURL, "cancel-url", "", "where the payer lands after canceling")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "idempotency key (generated when empty)")
	for _, name := range []string{"payee", "item", "total", "invoice", "return-url", "cancel-url"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newRedirectCompleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <intentId> <payerId>",
		Short: "Execute an approved redirect payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				res, err := a.service.Transactions.CompleteRedirectPayment(cmd.Context(), args[0], args[1])
				if res != nil {
					if perr := printJSON(cmd, res); perr != nil && err == nil {
						return perr
					}
				}
				return err
			})
		},
	}
}

func newRedirectGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <intentId>",
		Short: "Show the local record of a redirect payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(a *app) error {
				res, err := a.service.Transactions.GetRedirectPayment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}
}
