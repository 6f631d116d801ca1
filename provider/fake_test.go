package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// fakeCard is an in-memory card provider with scripted failures
type fakeCard struct {
	mu sync.Mutex

	chargeErrs []error
	charges    []ChargeRequest

	refundErrs []error
	refunds    []RefundRequest

	customers  []Customer
	getErrs    map[string]error
	listCalls  []CustomerListQuery
	createCnt  int
	updateReqs []CustomerUpdate

	subs         map[string]*Subscription
	subCreates   []SubscriptionCreate
	subChanges   []SubscriptionChange
	subCancels   []SubscriptionCancel
	plans        map[string]*Plan
	accountsReqs []AccountRequest

	// returned after the change is applied, like a timeout on the response
	subChangeErrs []error
	subCancelErrs []error
}

func newFakeCard() *fakeCard {
	return &fakeCard{
		getErrs: map[string]error{},
		subs:    map[string]*Subscription{},
		plans:   map[string]*Plan{},
	}
}

func (f *fakeCard) Name() string { return "fakecard" }

func (f *fakeCard) Initialize(context.Context, map[string]string) error { return nil }

func (f *fakeCard) GetRequiredConfig() []ConfigField {
	return []ConfigField{{Key: "apiKey", Required: true, Type: "string"}}
}

func (f *fakeCard) ValidateConfig(conf map[string]string) error {
	return ValidateConfigFields(f.Name(), conf, f.GetRequiredConfig())
}

func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakeCard) ChargeCard(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges = append(f.charges, req)
	if err := popErr(&f.chargeErrs); err != nil {
		return nil, err
	}
	return &ChargeResult{
		ChargeID: fmt.Sprintf("ch_%d", len(f.charges)),
		Status:   ChargeSucceeded,
		Amount:   req.Amount,
		Currency: req.Currency,
		Provider: f.Name(),
	}, nil
}

func (f *fakeCard) Refund(_ context.Context, req RefundRequest) (*RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = append(f.refunds, req)
	if err := popErr(&f.refundErrs); err != nil {
		return nil, err
	}
	return &RefundResult{RefundID: "re_1", ChargeID: req.ChargeID, Status: "succeeded", Amount: req.Amount, Provider: f.Name()}, nil
}

func (f *fakeCard) GetCustomer(_ context.Context, id string) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErrs[id]; err != nil {
		return nil, err
	}
	for _, c := range f.customers {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, &Error{Kind: KindNotFound, Message: "no such customer"}
}

func (f *fakeCard) ListCustomers(_ context.Context, q CustomerListQuery) (*CustomerPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, q)

	start := 0
	if q.StartingAfter != "" {
		for i, c := range f.customers {
			if c.ID == q.StartingAfter {
				start = i + 1
				break
			}
		}
	}
	end := start + q.Limit
	if end > len(f.customers) {
		end = len(f.customers)
	}
	page := append([]Customer(nil), f.customers[start:end]...)
	return &CustomerPage{Customers: page, HasMore: end < len(f.customers)}, nil
}

func (f *fakeCard) CreateCustomer(_ context.Context, email string) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCnt++
	c := Customer{ID: fmt.Sprintf("cus_new_%d", f.createCnt), Email: email}
	f.customers = append(f.customers, c)
	return &c, nil
}

func (f *fakeCard) UpdateCustomer(_ context.Context, id string, update CustomerUpdate) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateReqs = append(f.updateReqs, update)
	for i := range f.customers {
		if f.customers[i].ID == id {
			if update.Email != nil {
				f.customers[i].Email = *update.Email
			}
			c := f.customers[i]
			return &c, nil
		}
	}
	return nil, &Error{Kind: KindNotFound, Message: "no such customer"}
}

func (f *fakeCard) GetSubscription(_ context.Context, id string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Message: "no such subscription"}
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeCard) CreateSubscription(_ context.Context, req SubscriptionCreate) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCreates = append(f.subCreates, req)
	sub := &Subscription{ID: "sub_new", CustomerID: req.CustomerID, PlanID: req.PlanID, Status: SubscriptionActive}
	f.subs[sub.ID] = sub
	cp := *sub
	return &cp, nil
}

func (f *fakeCard) UpdateSubscription(_ context.Context, id string, change SubscriptionChange) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subChanges = append(f.subChanges, change)
	sub, ok := f.subs[id]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Message: "no such subscription"}
	}
	if change.EndTrialNow {
		sub.Status = SubscriptionActive
	}
	if change.DefaultSource != "" {
		sub.DefaultSource = change.DefaultSource
	}
	if change.CancelAtPeriodEnd != nil {
		sub.CancelAtPeriodEnd = *change.CancelAtPeriodEnd
	}
	if err := popErr(&f.subChangeErrs); err != nil {
		return nil, err
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeCard) CancelSubscription(_ context.Context, id string, opts SubscriptionCancel) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCancels = append(f.subCancels, opts)
	sub, ok := f.subs[id]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Message: "no such subscription"}
	}
	sub.Status = SubscriptionCanceled
	if err := popErr(&f.subCancelErrs); err != nil {
		return nil, err
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeCard) GetPlan(_ context.Context, id string) (*Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Message: "no such plan"}
	}
	return p, nil
}

func (f *fakeCard) CreateAccount(_ context.Context, req AccountRequest) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountsReqs = append(f.accountsReqs, req)
	return &Account{ID: "acct_1", Email: req.Email, Country: req.Country, Type: req.Type, DefaultCurrency: req.DefaultCurrency}, nil
}

// fakeWallet is an in-memory redirect wallet
type fakeWallet struct {
	mu sync.Mutex

	created  int
	specs    []PendingPaymentSpec
	payments map[string]*PendingPaymentDetails
	execErrs []error
	executes []string
	keys     []string
	lookups  int
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{payments: map[string]*PendingPaymentDetails{}}
}

func (w *fakeWallet) Name() string { return "fakewallet" }

func (w *fakeWallet) Initialize(context.Context, map[string]string) error { return nil }

func (w *fakeWallet) GetRequiredConfig() []ConfigField { return nil }

func (w *fakeWallet) ValidateConfig(map[string]string) error { return nil }

func (w *fakeWallet) CreatePendingPayment(_ context.Context, spec PendingPaymentSpec, _ string) (*PendingPaymentCreated, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.created++
	w.specs = append(w.specs, spec)
	id := fmt.Sprintf("PAY-%d", w.created)
	w.payments[id] = &PendingPaymentDetails{IntentID: id, State: IntentAwaitingPayerConfirmation, InvoiceReference: spec.InvoiceReference, Total: spec.Total}
	return &PendingPaymentCreated{IntentID: id, ApprovalURL: "https://wallet.test/approve?token=" + id, State: "created"}, nil
}

func (w *fakeWallet) LookupPendingPayment(_ context.Context, intentID string) (*PendingPaymentDetails, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lookups++
	p, ok := w.payments[intentID]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Message: "no such payment"}
	}
	cp := *p
	return &cp, nil
}

func (w *fakeWallet) ExecutePendingPayment(_ context.Context, intentID, payerID, key string) (*ChargeResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.executes = append(w.executes, intentID+"/"+payerID)
	w.keys = append(w.keys, key)
	if err := popErr(&w.execErrs); err != nil {
		return nil, err
	}
	p, ok := w.payments[intentID]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Message: "no such payment"}
	}
	p.State = IntentCompleted
	return &ChargeResult{ChargeID: "SALE-" + intentID, Status: ChargeSucceeded, Amount: p.Total.Amount, Currency: p.Total.Currency, Provider: w.Name()}, nil
}

// failingCompletionStore refuses to record completed intents
type failingCompletionStore struct {
	*MemoryIntentStore
}

func (s failingCompletionStore) Transition(ctx context.Context, intentID string, allowed []IntentState, next IntentState, mutate func(*PendingPayment)) (*PendingPayment, error) {
	if next == IntentCompleted {
		return nil, Wrap(KindTransient, "transition_pending_payment", errors.New("disk full"))
	}
	return s.MemoryIntentStore.Transition(ctx, intentID, allowed, next, mutate)
}

// recordingPublisher captures published event types
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func testOptions() Options {
	return Options{Retry: RetryPolicy{MaxAttempts: 3}}
}
