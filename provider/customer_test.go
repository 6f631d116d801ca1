package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCustomers(f *fakeCard, n int) {
	for i := 0; i < n; i++ {
		f.customers = append(f.customers, Customer{
			ID:    fmt.Sprintf("cus_%03d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
		})
	}
}

func TestCustomerResolver_FindsAcrossPages(t *testing.T) {
	card := newFakeCard()
	seedCustomers(card, 250)
	r := NewCustomerResolver(card, testOptions())

	cust, err := r.Resolve(context.Background(), "user230@example.com", "")
	require.NoError(t, err)

	assert.Equal(t, "cus_230", cust.ID)
	require.Len(t, card.listCalls, 3)
	assert.Equal(t, CustomerListQuery{Limit: 100}, card.listCalls[0])
	assert.Equal(t, "cus_099", card.listCalls[1].StartingAfter)
	assert.Equal(t, "cus_199", card.listCalls[2].StartingAfter)
	assert.Zero(t, card.createCnt)
}

func TestCustomerResolver_NoMatchCreatesOnce(t *testing.T) {
	card := newFakeCard()
	seedCustomers(card, 150)
	events := &recordingPublisher{}
	opts := testOptions()
	opts.Events = events
	r := NewCustomerResolver(card, opts)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "new@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, 1, card.createCnt)
	// two pages before the lock, two after
	assert.Len(t, card.listCalls, 4)

	second, err := r.Resolve(ctx, "new@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, card.createCnt)
	assert.Equal(t, []string{EventCustomerCreated}, events.events)
}

func TestCustomerResolver_EmailMatchIsExact(t *testing.T) {
	card := newFakeCard()
	card.customers = []Customer{{ID: "cus_upper", Email: "Alice@Example.com"}}
	r := NewCustomerResolver(card, testOptions())

	cust, err := r.Resolve(context.Background(), "alice@example.com", "")
	require.NoError(t, err)
	assert.NotEqual(t, "cus_upper", cust.ID)
	assert.Equal(t, 1, card.createCnt)
}

func TestCustomerResolver_KnownID(t *testing.T) {
	tests := []struct {
		name       string
		knownID    string
		customers  []Customer
		getErr     error
		wantID     string
		wantErr    error
		wantLists  int
		wantCreate int
	}{
		{
			name:      "retrieved directly",
			knownID:   "cus_known",
			customers: []Customer{{ID: "cus_known", Email: "other@example.com"}},
			wantID:    "cus_known",
		},
		{
			name:      "missing falls back to search",
			knownID:   "cus_gone",
			customers: []Customer{{ID: "cus_1", Email: "a@example.com"}},
			wantID:    "cus_1",
			wantLists: 1,
		},
		{
			name:      "deleted falls back to search",
			knownID:   "cus_del",
			customers: []Customer{{ID: "cus_del", Email: "a@example.com", Deleted: true}, {ID: "cus_2", Email: "a@example.com"}},
			wantID:    "cus_2",
			wantLists: 1,
		},
		{
			name:    "provider outage surfaces",
			knownID: "cus_x",
			getErr:  &Error{Kind: KindProviderUnavailable},
			wantErr: ErrProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := newFakeCard()
			card.customers = tt.customers
			if tt.getErr != nil {
				card.getErrs[tt.knownID] = tt.getErr
			}
			r := NewCustomerResolver(card, testOptions())

			cust, err := r.Resolve(context.Background(), "a@example.com", tt.knownID)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, cust.ID)
			assert.Len(t, card.listCalls, tt.wantLists)
			assert.Equal(t, tt.wantCreate, card.createCnt)
		})
	}
}

func TestCustomerResolver_InvalidEmail(t *testing.T) {
	card := newFakeCard()
	r := NewCustomerResolver(card, testOptions())

	for _, email := range []string{"", "not-an-email"} {
		_, err := r.Resolve(context.Background(), email, "")
		assert.True(t, errors.Is(err, ErrInvalidRequest), "email %q", email)
	}
	assert.Empty(t, card.listCalls)
}

func TestCustomerResolver_ConcurrentResolveCreatesOnce(t *testing.T) {
	card := newFakeCard()
	seedCustomers(card, 20)
	r := NewCustomerResolver(card, testOptions())

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cust, err := r.Resolve(context.Background(), "race@example.com", "")
			if assert.NoError(t, err) {
				ids[i] = cust.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, card.createCnt)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCustomerResolver_PageCountBound(t *testing.T) {
	for _, n := range []int{0, 1, 100, 101, 399} {
		t.Run(fmt.Sprintf("%d customers", n), func(t *testing.T) {
			card := newFakeCard()
			seedCustomers(card, n)
			r := NewCustomerResolver(card, testOptions())

			cust, err := r.FindByEmail(context.Background(), "absent@example.com")
			require.NoError(t, err)
			assert.Nil(t, cust)

			maxPages := (n + CustomerPageSize - 1) / CustomerPageSize
			if maxPages == 0 {
				maxPages = 1
			}
			assert.LessOrEqual(t, len(card.listCalls), maxPages)

			seen := map[string]bool{}
			for _, q := range card.listCalls {
				assert.False(t, seen[q.StartingAfter], "page fetched twice")
				seen[q.StartingAfter] = true
			}
		})
	}
}

func TestCustomerResolver_UpdateCustomer(t *testing.T) {
	card := newFakeCard()
	card.customers = []Customer{{ID: "cus_1", Email: "old@example.com"}}
	r := NewCustomerResolver(card, testOptions())

	email := "new@example.com"
	cust, err := r.UpdateCustomer(context.Background(), "cus_1", CustomerUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", cust.Email)

	bad := "bad"
	_, err = r.UpdateCustomer(context.Background(), "cus_1", CustomerUpdate{Email: &bad})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = r.UpdateCustomer(context.Background(), "", CustomerUpdate{})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}
