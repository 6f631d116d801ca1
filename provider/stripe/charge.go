package stripe

import (
	"context"

	"github.com/mstgnz/paybridge/provider"
	stripe "github.com/stripe/stripe-go/v82"
)

// ChargeCard charges a tokenized card. A destination account routes the
// funds through Connect with the application fee kept by the platform.
func (p *StripeProvider) ChargeCard(ctx context.Context, req provider.ChargeRequest) (*provider.ChargeResult, error) {
	const op = "charge"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	params.Context = ctx
	params.AddExtra("source", req.Source)
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.DestinationAccount != "" {
		params.TransferData = &stripe.ChargeTransferDataParams{
			Destination: stripe.String(req.DestinationAccount),
		}
	}
	if req.ApplicationFee > 0 {
		params.ApplicationFeeAmount = stripe.Int64(req.ApplicationFee)
	}
	addMetadata(&params.Params, req.Metadata)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	ch, err := p.api.Charges.New(params)
	if err != nil {
		return nil, mapError(op, err)
	}

	return &provider.ChargeResult{
		ChargeID: ch.ID,
		Status:   mapChargeStatus(ch.Status),
		Amount:   ch.Amount,
		Currency: string(ch.Currency),
		Provider: providerName,
		Raw: map[string]any{
			"paid":     ch.Paid,
			"captured": ch.Captured,
			"livemode": ch.Livemode,
		},
	}, nil
}

// Refund refunds a charge. Amount zero refunds the remaining balance.
func (p *StripeProvider) Refund(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	const op = "refund"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.RefundParams{
		Charge: stripe.String(req.ChargeID),
		Reason: stripe.String(req.Reason),
	}
	params.Context = ctx
	if req.Amount > 0 {
		params.Amount = stripe.Int64(req.Amount)
	}
	if req.ReverseTransfer {
		params.ReverseTransfer = stripe.Bool(true)
	}
	if req.RefundApplicationFee {
		params.RefundApplicationFee = stripe.Bool(true)
	}
	addMetadata(&params.Params, req.Metadata)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	r, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, mapError(op, err)
	}

	chargeID := req.ChargeID
	if r.Charge != nil && r.Charge.ID != "" {
		chargeID = r.Charge.ID
	}

	return &provider.RefundResult{
		RefundID: r.ID,
		ChargeID: chargeID,
		Status:   string(r.Status),
		Amount:   r.Amount,
		Currency: string(r.Currency),
		Provider: providerName,
	}, nil
}

func mapChargeStatus(status stripe.ChargeStatus) provider.ChargeStatus {
	switch status {
	case stripe.ChargeStatusSucceeded:
		return provider.ChargeSucceeded
	case stripe.ChargeStatusPending:
		return provider.ChargePending
	default:
		return provider.ChargeFailed
	}
}
