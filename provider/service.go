package provider

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/paybridge/infra/logger"
)

// Options carries the collaborators shared by the orchestrators. Zero
// values fall back to no-op or in-process implementations.
type Options struct {
	Logger  PaymentLogger
	Events  EventPublisher
	Retry   RetryPolicy
	Locker  Locker
	Intents IntentStore
	// NewKey generates idempotency keys
	NewKey func() string
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = NopPaymentLogger{}
	}
	if o.Events == nil {
		o.Events = NopPublisher{}
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = DefaultRetryPolicy()
	}
	if o.Locker == nil {
		o.Locker = NewKeyedMutex()
	}
	if o.Intents == nil {
		o.Intents = NewMemoryIntentStore()
	}
	if o.NewKey == nil {
		o.NewKey = func() string { return uuid.New().String() }
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// runner wraps provider calls with audit logging, retry and events
type runner struct {
	opts Options
}

func newRunner(opts Options) *runner {
	return &runner{opts: opts.withDefaults()}
}

// call executes one provider operation. Only calls marked retryable are
// retried, and only on transient failures.
func call[T any](ctx context.Context, r *runner, providerName, op string, request any, retryable bool, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()

	logID, logErr := r.opts.Logger.LogRequest(ctx, providerName, op, SanitizeForLog(request))
	if logErr != nil {
		logger.Warn("audit request log failed", logger.LogContext{
			Provider: providerName,
			Fields:   map[string]any{"operation": op, "error": logErr.Error()},
		})
	}

	policy := r.opts.Retry
	if !retryable {
		policy = NoRetry()
	}

	var out T
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			logger.Warn("retrying provider call", logger.LogContext{
				Provider: providerName,
				Fields:   map[string]any{"operation": op, "attempt": attempt},
			})
		}
		var callErr error
		out, callErr = fn(ctx)
		return callErr
	})
	processingMs := time.Since(start).Milliseconds()

	if err != nil {
		err = withOp(err, op, providerName)
		kind := KindOf(err)
		if logErr == nil {
			_ = r.opts.Logger.LogError(ctx, logID, string(kind), err.Error(), processingMs)
		}

		fields := map[string]any{"operation": op, "kind": string(kind), "processing_ms": processingMs, "error": err.Error()}
		if pe, ok := err.(*Error); ok && pe.Code != "" {
			fields["code"] = pe.Code
		}
		logger.Warn("provider call failed", logger.LogContext{Provider: providerName, Fields: fields})

		var zero T
		return zero, err
	}

	if logErr == nil {
		_ = r.opts.Logger.LogResponse(ctx, logID, SanitizeForLog(out), processingMs)
	}
	logger.Debug("provider call succeeded", logger.LogContext{
		Provider: providerName,
		Fields:   map[string]any{"operation": op, "processing_ms": processingMs},
	})

	return out, nil
}

func (r *runner) publish(ctx context.Context, eventType string, payload any) {
	if err := r.opts.Events.Publish(ctx, eventType, payload); err != nil {
		logger.Warn("event publish failed", logger.LogContext{
			Fields: map[string]any{"event": eventType, "error": err.Error()},
		})
	}
}

func (r *runner) idempotencyKey(given string) string {
	if given != "" {
		return given
	}
	return r.opts.NewKey()
}

func unsupported(op, capability string) error {
	return InvalidRequestf(op, "no configured provider supports %s", capability)
}

// PaymentService bundles the orchestrators over a set of initialized
// providers. Each capability is served by the first provider that offers it.
type PaymentService struct {
	Transactions  *TransactionService
	Customers     *CustomerResolver
	Subscriptions *SubscriptionService
	Accounts      *AccountService
}

// NewPaymentService wires the orchestrators to the providers' capabilities
func NewPaymentService(providers []Provider, opts Options) *PaymentService {
	var (
		charger   Charger
		refunder  Refunder
		directory CustomerDirectory
		wallet    RedirectPayments
		billing   SubscriptionBilling
		accounts  AccountCreator
	)

	for _, p := range providers {
		if c, ok := p.(Charger); ok && charger == nil {
			charger = c
		}
		if c, ok := p.(Refunder); ok && refunder == nil {
			refunder = c
		}
		if c, ok := p.(CustomerDirectory); ok && directory == nil {
			directory = c
		}
		if c, ok := p.(RedirectPayments); ok && wallet == nil {
			wallet = c
		}
		if c, ok := p.(SubscriptionBilling); ok && billing == nil {
			billing = c
		}
		if c, ok := p.(AccountCreator); ok && accounts == nil {
			accounts = c
		}
	}

	return &PaymentService{
		Transactions:  NewTransactionService(charger, refunder, wallet, opts),
		Customers:     NewCustomerResolver(directory, opts),
		Subscriptions: NewSubscriptionService(billing, opts),
		Accounts:      NewAccountService(accounts, opts),
	}
}
