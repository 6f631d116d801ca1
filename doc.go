// Package paybridge provides a unified payment layer over a card processor
// (Stripe) and a redirect wallet (PayPal). Callers charge cards, run the
// approve-off-site wallet handshake, resolve customers by email and manage
// subscriptions through one provider-neutral interface.
//
// # Architecture
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Your Apps     │◄──►│   PayBridge     │◄──►│ Stripe / PayPal │
//	│  (CLI, HTTP)    │    │ (Orchestrators) │    │                 │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// The provider package holds the neutral model, the error taxonomy and the
// orchestrators. Adapters in provider/stripe and provider/paypal register
// themselves with the default registry on import.
//
// # Quick Start
//
//	import (
//	    "github.com/mstgnz/paybridge/provider"
//	    _ "github.com/mstgnz/paybridge/provider/stripe" // Import to register provider
//	)
//
//	func main() {
//	    ctx := context.Background()
//
//	    card, err := provider.Open(ctx, "stripe", map[string]string{
//	        "appId":     "acct_123",
//	        "appSecret": "sk_test_123",
//	        "publicKey": "pk_test_123",
//	    })
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    svc := provider.NewPaymentService([]provider.Provider{card}, provider.Options{})
//
//	    res, err := svc.Transactions.Charge(ctx, provider.ChargeRequest{
//	        Amount:   1050, // minor units
//	        Currency: "usd",
//	        Source:   "tok_visa",
//	    })
//	    if provider.KindOf(err) == provider.KindDeclined {
//	        // show the decline to the payer
//	    }
//	    fmt.Println(res.ChargeID)
//	}
//
// # Redirect Payments
//
// BeginRedirectPayment creates a pending payment and returns the approval
// URL. Once the payer approves, CompleteRedirectPayment executes it exactly
// once; the pending payment record moves created, awaiting payer
// confirmation, executing, and then completed or failed.
//
// # Errors
//
// Every failure is a *provider.Error whose kind is one of invalid_request,
// declined, not_found, conflict, transient or provider_unavailable. Only
// transient failures are retried.
//
// # Supporting Services
//
// Optional backends plug into provider.Options:
//
//   - Audit trail of provider calls in SQLite or OpenSearch
//   - Pending payments in BoltDB
//   - Cross-process customer creation lock in Redis
//   - Lifecycle events on NATS
//
// # Command Line and HTTP API
//
// cmd/paybridge wires everything from configuration and exposes the
// operations as commands; "paybridge serve" mounts the same operations on
// /v1 over HTTP.
package paybridge
