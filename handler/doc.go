// Package handler provides the HTTP handlers of the PayBridge API.
//
// Handlers decode and validate the request, call one orchestrator of the
// provider package and write the standard response envelope. Failures are
// written with response.FromError so the error kind decides the status:
//
//	invalid_request       400
//	declined              402
//	not_found             404
//	conflict              409
//	transient             503
//	provider_unavailable  502
//
// # Payment Handler
//
//	paymentHandler := handler.NewPaymentHandler(svc.Transactions, validate)
//
//	r.Post("/v1/charges", paymentHandler.Charge)
//	r.Post("/v1/refunds", paymentHandler.Refund)
//	r.Post("/v1/redirect", paymentHandler.BeginRedirect)
//	r.Get("/v1/redirect/return", paymentHandler.RedirectReturn)
//	r.Get("/v1/redirect/{intentID}", paymentHandler.GetRedirect)
//	r.Post("/v1/redirect/{intentID}/complete", paymentHandler.CompleteRedirect)
//
// Charge, refund and redirect requests accept an Idempotency-Key header
// when the body carries no idempotencyKey:
//
//	POST /v1/charges
//	Idempotency-Key: order-1042
//
//	{
//	  "amount": 2500,
//	  "currency": "usd",
//	  "source": "tok_visa",
//	  "description": "Order 1042"
//	}
//
// A failed redirect completion still returns the invoice reference in the
// data field so the caller can reconcile the order.
//
// # Customer and Subscription Handlers
//
// CustomerHandler resolves a customer by email, creating one when the
// provider has none. SubscriptionHandler covers subscriptions, plans and
// deferred connected accounts.
//
// # Logs Handler
//
// LogsHandler reads failed provider calls back from the audit backend:
//
//	GET /v1/audit/errors?provider=stripe&hours=6
package handler
