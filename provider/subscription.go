package provider

import (
	"context"
	"strings"

	"github.com/mstgnz/paybridge/infra/logger"
)

// SubscriptionOptions are caller fields merged into a subscription create
type SubscriptionOptions struct {
	Quantity  int64    `json:"quantity,omitempty" validate:"gte=0"`
	TrialDays int64    `json:"trialDays,omitempty" validate:"gte=0"`
	Coupon    string   `json:"coupon,omitempty"`
	Metadata  Metadata `json:"metadata,omitempty"`
	// Extra provider parameters. The core keys customer, items and plan
	// are reserved.
	Extra map[string]string `json:"extra,omitempty"`
}

// CancelOptions controls how a subscription ends
type CancelOptions struct {
	AtPeriodEnd bool `json:"atPeriodEnd,omitempty"`
	InvoiceNow  bool `json:"invoiceNow,omitempty"`
	Prorate     bool `json:"prorate,omitempty"`
}

var reservedSubscriptionKeys = []string{"customer", "items", "plan"}

// SubscriptionService runs the subscription lifecycle
type SubscriptionService struct {
	billing SubscriptionBilling
	r       *runner
}

// NewSubscriptionService creates the subscription orchestrator
func NewSubscriptionService(billing SubscriptionBilling, opts Options) *SubscriptionService {
	return &SubscriptionService{billing: billing, r: newRunner(opts)}
}

// GetSubscription retrieves a subscription
func (s *SubscriptionService) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	const op = "get_subscription"
	if s.billing == nil {
		return nil, unsupported(op, "subscriptions")
	}
	if id == "" {
		return nil, InvalidRequestf(op, "subscription id is required")
	}
	return s.get(ctx, id)
}

func (s *SubscriptionService) get(ctx context.Context, id string) (*Subscription, error) {
	return call(ctx, s.r, s.billing.Name(), "get_subscription", map[string]string{"id": id}, true, func(ctx context.Context) (*Subscription, error) {
		return s.billing.GetSubscription(ctx, id)
	})
}

// ChargeSubscription ends a running trial immediately and, when source is
// given, makes it the default payment source, then persists the change
func (s *SubscriptionService) ChargeSubscription(ctx context.Context, subscriptionID, source string) (*Subscription, error) {
	const op = "charge_subscription"
	if s.billing == nil {
		return nil, unsupported(op, "subscriptions")
	}
	if subscriptionID == "" {
		return nil, InvalidRequestf(op, "subscription id is required")
	}

	sub, err := s.get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	change := SubscriptionChange{
		EndTrialNow:    sub.Status == SubscriptionTrialing,
		DefaultSource:  source,
		IdempotencyKey: s.r.idempotencyKey(""),
	}

	updated, err := call(ctx, s.r, s.billing.Name(), op, change, true, func(ctx context.Context) (*Subscription, error) {
		return s.billing.UpdateSubscription(ctx, subscriptionID, change)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("subscription charged", logger.LogContext{
		Provider: s.billing.Name(),
		Fields:   map[string]any{"subscription_id": updated.ID, "status": updated.Status, "trial_ended": change.EndTrialNow},
	})
	s.r.publish(ctx, EventSubscriptionCharged, updated)

	return updated, nil
}

// CreateSubscription subscribes the customer to the plan. The customer and
// plan always come from the arguments; options cannot override them.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, customerID, planID string, opts SubscriptionOptions) (*Subscription, error) {
	const op = "create_subscription"
	if s.billing == nil {
		return nil, unsupported(op, "subscriptions")
	}
	if customerID == "" {
		return nil, InvalidRequestf(op, "customer id is required")
	}
	if planID == "" {
		return nil, InvalidRequestf(op, "plan id is required")
	}
	if err := validateStruct(op, opts); err != nil {
		return nil, err
	}
	for key := range opts.Extra {
		for _, reserved := range reservedSubscriptionKeys {
			if key == reserved || strings.HasPrefix(key, reserved+"[") {
				return nil, InvalidRequestf(op, "option '%s' collides with a core subscription field", key)
			}
		}
	}

	req := SubscriptionCreate{
		CustomerID: customerID,
		PlanID:     planID,
		Quantity:   opts.Quantity,
		TrialDays:  opts.TrialDays,
		Coupon:     opts.Coupon,
		Metadata:   opts.Metadata,
		Extra:      opts.Extra,
	}

	sub, err := call(ctx, s.r, s.billing.Name(), op, req, false, func(ctx context.Context) (*Subscription, error) {
		return s.billing.CreateSubscription(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("subscription created", logger.LogContext{
		Provider: s.billing.Name(),
		Fields:   map[string]any{"subscription_id": sub.ID, "customer_id": customerID, "plan_id": planID},
	})
	s.r.publish(ctx, EventSubscriptionCreated, sub)

	return sub, nil
}

// CancelSubscription retrieves the subscription, then cancels it with the
// given options. AtPeriodEnd schedules the cancellation instead.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, subscriptionID string, opts CancelOptions) (*Subscription, error) {
	const op = "cancel_subscription"
	if s.billing == nil {
		return nil, unsupported(op, "subscriptions")
	}
	if subscriptionID == "" {
		return nil, InvalidRequestf(op, "subscription id is required")
	}

	sub, err := s.get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == SubscriptionCanceled {
		return nil, &Error{Kind: KindConflict, Op: op, Provider: s.billing.Name(), Message: "subscription " + sub.ID + " is already canceled"}
	}

	var canceled *Subscription
	if opts.AtPeriodEnd {
		atPeriodEnd := true
		change := SubscriptionChange{CancelAtPeriodEnd: &atPeriodEnd, IdempotencyKey: s.r.idempotencyKey("")}
		canceled, err = call(ctx, s.r, s.billing.Name(), op, change, true, func(ctx context.Context) (*Subscription, error) {
			return s.billing.UpdateSubscription(ctx, sub.ID, change)
		})
	} else {
		cancel := SubscriptionCancel{InvoiceNow: opts.InvoiceNow, Prorate: opts.Prorate, IdempotencyKey: s.r.idempotencyKey("")}
		canceled, err = call(ctx, s.r, s.billing.Name(), op, cancel, true, func(ctx context.Context) (*Subscription, error) {
			return s.billing.CancelSubscription(ctx, sub.ID, cancel)
		})
	}
	if err != nil {
		return nil, err
	}

	logger.Info("subscription canceled", logger.LogContext{
		Provider: s.billing.Name(),
		Fields:   map[string]any{"subscription_id": canceled.ID, "at_period_end": opts.AtPeriodEnd},
	})
	s.r.publish(ctx, EventSubscriptionCanceled, canceled)

	return canceled, nil
}

// GetPlan looks up a billing plan
func (s *SubscriptionService) GetPlan(ctx context.Context, planID string) (*Plan, error) {
	const op = "get_plan"
	if s.billing == nil {
		return nil, unsupported(op, "plans")
	}
	if planID == "" {
		return nil, InvalidRequestf(op, "plan id is required")
	}

	return call(ctx, s.r, s.billing.Name(), op, map[string]string{"id": planID}, true, func(ctx context.Context) (*Plan, error) {
		return s.billing.GetPlan(ctx, planID)
	})
}
