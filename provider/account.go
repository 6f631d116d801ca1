package provider

import (
	"context"
	"strings"

	"github.com/mstgnz/paybridge/infra/logger"
)

// AccountService creates connected merchant accounts
type AccountService struct {
	creator AccountCreator
	r       *runner
}

// NewAccountService creates the account service
func NewAccountService(creator AccountCreator, opts Options) *AccountService {
	return &AccountService{creator: creator, r: newRunner(opts)}
}

// CreateDeferredAccount opens a standard account whose owner completes
// onboarding later. The country is upper-cased and the default currency
// is usd.
func (a *AccountService) CreateDeferredAccount(ctx context.Context, email, country string) (*Account, error) {
	const op = "create_account"
	if a.creator == nil {
		return nil, unsupported(op, "connected accounts")
	}
	if err := Validator().Var(email, "required,email"); err != nil {
		return nil, InvalidRequestf(op, "a valid email is required")
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if err := Validator().Var(country, "len=2,alpha"); err != nil {
		return nil, InvalidRequestf(op, "country must be a two-letter code")
	}

	req := AccountRequest{
		Email:           email,
		Country:         country,
		Type:            "standard",
		DefaultCurrency: DefaultCurrency,
	}

	acct, err := call(ctx, a.r, a.creator.Name(), op, req, false, func(ctx context.Context) (*Account, error) {
		return a.creator.CreateAccount(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("account created", logger.LogContext{
		Provider: a.creator.Name(),
		Fields:   map[string]any{"account_id": acct.ID, "country": acct.Country},
	})
	a.r.publish(ctx, EventAccountCreated, acct)

	return acct, nil
}
