// Package provider unifies card and wallet payment providers behind one
// operation set.
//
// Adapters live in sub-packages and register themselves with the default
// registry. Each adapter exposes the capabilities it supports as small
// interfaces:
//
//   - Charger and Refunder: one-shot card charges and refunds
//   - CustomerDirectory: remote customer list with cursor pagination
//   - RedirectPayments: create, approve off-site, execute
//   - SubscriptionBilling: subscriptions and plans
//   - AccountCreator: connected merchant accounts
//
// The orchestrators (TransactionService, CustomerResolver,
// SubscriptionService, AccountService) validate requests, generate
// idempotency keys, retry transient failures and keep an audit trail.
// Every failure they return is an *Error carrying one ErrorKind.
//
// # Basic Usage
//
//	stripe, err := provider.Open(ctx, "stripe", map[string]string{
//	    "appId":     "ca_...",
//	    "appSecret": "sk_test_...",
//	    "publicKey": "pk_test_...",
//	})
//	if err != nil {
//	    return err
//	}
//
//	svc := provider.NewPaymentService([]provider.Provider{stripe}, provider.Options{})
//	res, err := svc.Transactions.Charge(ctx, provider.ChargeRequest{
//	    Amount: 1000,
//	    Source: "tok_visa",
//	})
//	if errors.Is(err, provider.ErrDeclined) {
//	    // ask the payer for another card
//	}
//
// # Redirect payments
//
// BeginRedirectPayment returns an approval URL. Once the payer returns,
// CompleteRedirectPayment executes the payment exactly once; completing an
// intent twice yields a Conflict without contacting the provider.
package provider
