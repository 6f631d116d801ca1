package stripe

import (
	"context"

	"github.com/mstgnz/paybridge/provider"
	stripe "github.com/stripe/stripe-go/v82"
)

// CreateAccount creates a connected account
func (p *StripeProvider) CreateAccount(ctx context.Context, req provider.AccountRequest) (*provider.Account, error) {
	const op = "create_account"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.AccountParams{
		Country:         stripe.String(req.Country),
		Email:           stripe.String(req.Email),
		Type:            stripe.String(req.Type),
		DefaultCurrency: stripe.String(req.DefaultCurrency),
	}
	params.Context = ctx

	a, err := p.api.Accounts.New(params)
	if err != nil {
		return nil, mapError(op, err)
	}

	return &provider.Account{
		ID:              a.ID,
		Email:           a.Email,
		Country:         a.Country,
		Type:            string(a.Type),
		DefaultCurrency: string(a.DefaultCurrency),
	}, nil
}
