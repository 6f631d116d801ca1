package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/paybridge/handler"
)

// Handlers are the v1 endpoint groups. A nil group is not mounted.
type Handlers struct {
	Payments      *handler.PaymentHandler
	Customers     *handler.CustomerHandler
	Subscriptions *handler.SubscriptionHandler
	Health        *handler.HealthHandler
	Logs          *handler.LogsHandler
}

// Routes registers all v1 API routes
func Routes(r chi.Router, h Handlers) {
	if h.Health != nil {
		r.Get("/health", h.Health.CheckHealth)
	}

	if p := h.Payments; p != nil {
		r.Post("/charges", p.Charge)
		r.Post("/refunds", p.Refund)

		r.Route("/redirect", func(r chi.Router) {
			r.Post("/", p.BeginRedirect)
			// the payer's browser lands here; registered before {intentID}
			r.Get("/return", p.RedirectReturn)
			r.Get("/{intentID}", p.GetRedirect)
			r.Post("/{intentID}/complete", p.CompleteRedirect)
		})
	}

	if c := h.Customers; c != nil {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", c.Find)
			r.Post("/resolve", c.Resolve)
			r.Patch("/{customerID}", c.Update)
		})
	}

	if s := h.Subscriptions; s != nil {
		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", s.Create)
			r.Get("/{subscriptionID}", s.Get)
			r.Post("/{subscriptionID}/charge", s.Charge)
			r.Post("/{subscriptionID}/cancel", s.Cancel)
		})
		r.Get("/plans/{planID}", s.GetPlan)
		r.Post("/accounts", s.CreateAccount)
	}

	if h.Logs != nil {
		r.Get("/audit/errors", h.Logs.RecentErrors)
	}
}
