package provider

import (
	"context"

	"github.com/mstgnz/paybridge/infra/logger"
)

// CustomerPageSize is the page size used when scanning the customer list
const CustomerPageSize = 100

// CustomerResolver finds customers by id or email and creates them only on
// a miss
type CustomerResolver struct {
	directory CustomerDirectory
	r         *runner
}

// NewCustomerResolver creates a resolver over the provider's directory
func NewCustomerResolver(directory CustomerDirectory, opts Options) *CustomerResolver {
	return &CustomerResolver{directory: directory, r: newRunner(opts)}
}

// Resolve returns the customer with knownID when it still exists, otherwise
// the first customer whose email matches exactly, otherwise a new customer
// with that email. Creation for one email is serialized through the
// configured Locker; the provider itself offers no uniqueness guarantee.
func (c *CustomerResolver) Resolve(ctx context.Context, email, knownID string) (*Customer, error) {
	const op = "resolve_customer"
	if c.directory == nil {
		return nil, unsupported(op, "customers")
	}
	name := c.directory.Name()

	if knownID != "" {
		cust, err := call(ctx, c.r, name, "get_customer", map[string]string{"id": knownID}, true, func(ctx context.Context) (*Customer, error) {
			return c.directory.GetCustomer(ctx, knownID)
		})
		switch {
		case err == nil && !cust.Deleted:
			return cust, nil
		case err != nil && KindOf(err) != KindNotFound:
			return nil, err
		}
		logger.Debug("known customer missing, searching by email", logger.LogContext{
			Provider: name,
			Fields:   map[string]any{"customer_id": knownID},
		})
	}

	if err := Validator().Var(email, "required,email"); err != nil {
		return nil, InvalidRequestf(op, "a valid email is required")
	}

	if cust, err := c.FindByEmail(ctx, email); err != nil || cust != nil {
		return cust, err
	}

	unlock, err := c.r.opts.Locker.Lock(ctx, "customer:"+name+":"+email)
	if err != nil {
		return nil, withOp(err, op, name)
	}
	defer unlock()

	// another caller may have created it while we waited
	if cust, err := c.FindByEmail(ctx, email); err != nil || cust != nil {
		return cust, err
	}

	created, err := call(ctx, c.r, name, "create_customer", map[string]string{"email": email}, false, func(ctx context.Context) (*Customer, error) {
		return c.directory.CreateCustomer(ctx, email)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("customer created", logger.LogContext{
		Provider: name,
		Fields:   map[string]any{"customer_id": created.ID},
	})
	c.r.publish(ctx, EventCustomerCreated, created)

	return created, nil
}

// FindByEmail scans the customer list page by page and returns the first
// exact, case-sensitive email match, or nil when there is none
func (c *CustomerResolver) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	const op = "find_customer"
	if c.directory == nil {
		return nil, unsupported(op, "customers")
	}
	if email == "" {
		return nil, InvalidRequestf(op, "email is required")
	}
	name := c.directory.Name()

	cursor := ""
	for {
		query := CustomerListQuery{Limit: CustomerPageSize, StartingAfter: cursor}
		page, err := call(ctx, c.r, name, "list_customers", query, true, func(ctx context.Context) (*CustomerPage, error) {
			return c.directory.ListCustomers(ctx, query)
		})
		if err != nil {
			return nil, err
		}

		for i := range page.Customers {
			cust := page.Customers[i]
			if cust.Email == email && !cust.Deleted {
				return &cust, nil
			}
		}

		if !page.HasMore || len(page.Customers) == 0 {
			return nil, nil
		}
		cursor = page.Customers[len(page.Customers)-1].ID
	}
}

// UpdateCustomer changes mutable customer fields
func (c *CustomerResolver) UpdateCustomer(ctx context.Context, id string, update CustomerUpdate) (*Customer, error) {
	const op = "update_customer"
	if c.directory == nil {
		return nil, unsupported(op, "customers")
	}
	if id == "" {
		return nil, InvalidRequestf(op, "customer id is required")
	}
	if err := validateStruct(op, update); err != nil {
		return nil, err
	}

	return call(ctx, c.r, c.directory.Name(), op, update, true, func(ctx context.Context) (*Customer, error) {
		return c.directory.UpdateCustomer(ctx, id, update)
	})
}
