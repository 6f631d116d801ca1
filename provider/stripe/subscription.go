package stripe

import (
	"context"

	"github.com/mstgnz/paybridge/provider"
	stripe "github.com/stripe/stripe-go/v82"
)

// GetSubscription retrieves a subscription
func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*provider.Subscription, error) {
	const op = "get_subscription"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	s, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, mapError(op, err)
	}
	return toSubscription(s), nil
}

// CreateSubscription subscribes a customer to a plan. Plan ids are
// accepted wherever the API expects a price.
func (p *StripeProvider) CreateSubscription(ctx context.Context, req provider.SubscriptionCreate) (*provider.Subscription, error) {
	const op = "create_subscription"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	item := &stripe.SubscriptionItemsParams{Price: stripe.String(req.PlanID)}
	if req.Quantity > 0 {
		item.Quantity = stripe.Int64(req.Quantity)
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(req.CustomerID),
		Items:    []*stripe.SubscriptionItemsParams{item},
	}
	params.Context = ctx
	if req.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(req.TrialDays)
	}
	if req.Coupon != "" {
		params.AddExtra("discounts[0][coupon]", req.Coupon)
	}
	for key, value := range req.Extra {
		params.AddExtra(key, value)
	}
	addMetadata(&params.Params, req.Metadata)

	s, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, mapError(op, err)
	}
	return toSubscription(s), nil
}

// UpdateSubscription persists trial, source and period-end changes
func (p *StripeProvider) UpdateSubscription(ctx context.Context, id string, change provider.SubscriptionChange) (*provider.Subscription, error) {
	const op = "update_subscription"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	if change.EndTrialNow {
		params.TrialEndNow = stripe.Bool(true)
	}
	if change.DefaultSource != "" {
		params.DefaultSource = stripe.String(change.DefaultSource)
	}
	if change.CancelAtPeriodEnd != nil {
		params.CancelAtPeriodEnd = stripe.Bool(*change.CancelAtPeriodEnd)
	}
	addMetadata(&params.Params, change.Metadata)
	if change.IdempotencyKey != "" {
		params.SetIdempotencyKey(change.IdempotencyKey)
	}

	s, err := p.api.Subscriptions.Update(id, params)
	if err != nil {
		return nil, mapError(op, err)
	}
	return toSubscription(s), nil
}

// CancelSubscription cancels immediately
func (p *StripeProvider) CancelSubscription(ctx context.Context, id string, opts provider.SubscriptionCancel) (*provider.Subscription, error) {
	const op = "cancel_subscription"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if opts.InvoiceNow {
		params.InvoiceNow = stripe.Bool(true)
	}
	if opts.Prorate {
		params.Prorate = stripe.Bool(true)
	}
	if opts.IdempotencyKey != "" {
		params.SetIdempotencyKey(opts.IdempotencyKey)
	}

	s, err := p.api.Subscriptions.Cancel(id, params)
	if err != nil {
		return nil, mapError(op, err)
	}
	return toSubscription(s), nil
}

// GetPlan retrieves a billing plan
func (p *StripeProvider) GetPlan(ctx context.Context, id string) (*provider.Plan, error) {
	const op = "get_plan"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.PlanParams{}
	params.Context = ctx

	pl, err := p.api.Plans.Get(id, params)
	if err != nil {
		return nil, mapError(op, err)
	}

	return &provider.Plan{
		ID:       pl.ID,
		Amount:   pl.Amount,
		Currency: string(pl.Currency),
		Interval: string(pl.Interval),
		Active:   pl.Active,
		Nickname: pl.Nickname,
	}, nil
}

func toSubscription(s *stripe.Subscription) *provider.Subscription {
	out := &provider.Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		TrialEnd:          unixTime(s.TrialEnd),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.DefaultSource != nil {
		out.DefaultSource = s.DefaultSource.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PlanID = s.Items.Data[0].Price.ID
	}
	return out
}
