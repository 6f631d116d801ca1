package provider

import "context"

// Lifecycle event types
const (
	EventChargeSucceeded      = "charge.succeeded"
	EventRefundSucceeded      = "refund.succeeded"
	EventRedirectCreated      = "redirect.created"
	EventRedirectCompleted    = "redirect.completed"
	EventRedirectFailed       = "redirect.failed"
	EventCustomerCreated      = "customer.created"
	EventSubscriptionCharged  = "subscription.charged"
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionCanceled = "subscription.canceled"
	EventAccountCreated       = "account.created"
)

// EventPublisher announces payment lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
