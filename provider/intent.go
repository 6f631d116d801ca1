package provider

import (
	"context"
	"sync"
	"time"
)

// IntentStore persists pending payments across the redirect handshake
type IntentStore interface {
	Save(ctx context.Context, p *PendingPayment) error
	Get(ctx context.Context, intentID string) (*PendingPayment, error)
	// Transition atomically moves the intent from one of the allowed states
	// to next. It fails with Conflict when the stored state is not allowed
	// and with NotFound when the intent is unknown.
	Transition(ctx context.Context, intentID string, allowed []IntentState, next IntentState, mutate func(*PendingPayment)) (*PendingPayment, error)
}

// CheckTransition validates a state move and returns a Conflict error when
// the current state is not in allowed
func CheckTransition(p *PendingPayment, allowed []IntentState) error {
	for _, s := range allowed {
		if p.State == s {
			return nil
		}
	}
	if p.State.IsTerminal() {
		return &Error{Kind: KindConflict, Op: "complete_redirect_payment", Code: string(p.State),
			Message: "pending payment " + p.IntentID + " is already " + string(p.State)}
	}
	return &Error{Kind: KindConflict, Op: "complete_redirect_payment", Code: string(p.State),
		Message: "pending payment " + p.IntentID + " is " + string(p.State)}
}

// MemoryIntentStore is an in-process IntentStore
type MemoryIntentStore struct {
	mu      sync.Mutex
	intents map[string]PendingPayment
}

// NewMemoryIntentStore creates an empty store
func NewMemoryIntentStore() *MemoryIntentStore {
	return &MemoryIntentStore{intents: make(map[string]PendingPayment)}
}

func (s *MemoryIntentStore) Save(_ context.Context, p *PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[p.IntentID] = *p
	return nil
}

func (s *MemoryIntentStore) Get(_ context.Context, intentID string) (*PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.intents[intentID]
	if !ok {
		return nil, NewError(KindNotFound, "get_pending_payment", "pending payment "+intentID+" not found")
	}
	return &p, nil
}

func (s *MemoryIntentStore) Transition(_ context.Context, intentID string, allowed []IntentState, next IntentState, mutate func(*PendingPayment)) (*PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.intents[intentID]
	if !ok {
		return nil, NewError(KindNotFound, "get_pending_payment", "pending payment "+intentID+" not found")
	}
	if err := CheckTransition(&p, allowed); err != nil {
		return nil, err
	}

	p.State = next
	p.UpdatedAt = time.Now().UTC()
	if mutate != nil {
		mutate(&p)
	}
	s.intents[intentID] = p
	return &p, nil
}
