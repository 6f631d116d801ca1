package stripe

import (
	"context"

	"github.com/mstgnz/paybridge/provider"
	stripe "github.com/stripe/stripe-go/v82"
)

// GetCustomer retrieves a customer by id. Deleted customers are returned
// with Deleted set.
func (p *StripeProvider) GetCustomer(ctx context.Context, id string) (*provider.Customer, error) {
	const op = "get_customer"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := p.api.Customers.Get(id, params)
	if err != nil {
		return nil, mapError(op, err)
	}
	return toCustomer(c), nil
}

// ListCustomers fetches exactly one page of the customer list
func (p *StripeProvider) ListCustomers(ctx context.Context, query provider.CustomerListQuery) (*provider.CustomerPage, error) {
	const op = "list_customers"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	limit := query.Limit
	if limit <= 0 || limit > provider.CustomerPageSize {
		limit = provider.CustomerPageSize
	}

	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(int64(limit))
	params.Single = true
	if query.StartingAfter != "" {
		params.StartingAfter = stripe.String(query.StartingAfter)
	}

	it := p.api.Customers.List(params)
	page := &provider.CustomerPage{}
	for it.Next() {
		page.Customers = append(page.Customers, *toCustomer(it.Customer()))
	}
	if err := it.Err(); err != nil {
		return nil, mapError(op, err)
	}
	if meta := it.Meta(); meta != nil {
		page.HasMore = meta.HasMore
	}

	return page, nil
}

// CreateCustomer creates a customer with the given email
func (p *StripeProvider) CreateCustomer(ctx context.Context, email string) (*provider.Customer, error) {
	const op = "create_customer"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx

	c, err := p.api.Customers.New(params)
	if err != nil {
		return nil, mapError(op, err)
	}
	return toCustomer(c), nil
}

// UpdateCustomer applies the non-nil fields of update
func (p *StripeProvider) UpdateCustomer(ctx context.Context, id string, update provider.CustomerUpdate) (*provider.Customer, error) {
	const op = "update_customer"
	if err := p.ready(op); err != nil {
		return nil, err
	}
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	params := &stripe.CustomerParams{
		Email:       update.Email,
		Name:        update.Name,
		Description: update.Description,
	}
	params.Context = ctx
	if update.Source != nil {
		params.AddExtra("source", *update.Source)
	}
	addMetadata(&params.Params, update.Metadata)

	c, err := p.api.Customers.Update(id, params)
	if err != nil {
		return nil, mapError(op, err)
	}
	return toCustomer(c), nil
}

func toCustomer(c *stripe.Customer) *provider.Customer {
	return &provider.Customer{
		ID:          c.ID,
		Email:       c.Email,
		Name:        c.Name,
		Description: c.Description,
		Metadata:    c.Metadata,
		Deleted:     c.Deleted,
	}
}
