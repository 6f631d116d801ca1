// Package store keeps pending redirect payments in a BoltDB file so the
// redirect handshake survives a process restart.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/mstgnz/paybridge/provider"
)

const bucketName = "pending_payments"

// IntentStore is a provider.IntentStore backed by BoltDB
type IntentStore struct {
	db  *bolt.DB
	now func() time.Time
}

var _ provider.IntentStore = (*IntentStore)(nil)

// Open opens (or creates) the database at path and ensures the bucket exists
func Open(path string) (*IntentStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, provider.Wrap(provider.KindProviderUnavailable, "open_intent_store", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, provider.Wrap(provider.KindProviderUnavailable, "open_intent_store", err)
	}

	return &IntentStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the database file lock
func (s *IntentStore) Close() error {
	return s.db.Close()
}

// Save writes p, replacing any record with the same intent id
func (s *IntentStore) Save(_ context.Context, p *provider.PendingPayment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return storageError("save_pending_payment", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(p.IntentID), data)
	})
	return storageError("save_pending_payment", err)
}

// Get loads one intent; unknown ids fail with NotFound
func (s *IntentStore) Get(_ context.Context, intentID string) (*provider.PendingPayment, error) {
	var p provider.PendingPayment

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(intentID))
		if v == nil {
			return notFound(intentID)
		}
		return json.Unmarshal(v, &p)
	})
	if err != nil {
		return nil, storageError("get_pending_payment", err)
	}

	return &p, nil
}

// Transition moves the intent to next inside a single write transaction, so
// two completions racing on the same intent cannot both leave the allowed
// states
func (s *IntentStore) Transition(_ context.Context, intentID string, allowed []provider.IntentState, next provider.IntentState, mutate func(*provider.PendingPayment)) (*provider.PendingPayment, error) {
	var p provider.PendingPayment

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		v := b.Get([]byte(intentID))
		if v == nil {
			return notFound(intentID)
		}
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}

		if err := provider.CheckTransition(&p, allowed); err != nil {
			return err
		}

		p.State = next
		p.UpdatedAt = s.now()
		if mutate != nil {
			mutate(&p)
		}

		data, err := json.Marshal(&p)
		if err != nil {
			return err
		}
		return b.Put([]byte(intentID), data)
	})
	if err != nil {
		return nil, storageError("transition_pending_payment", err)
	}

	return &p, nil
}

// List returns every stored intent in key order
func (s *IntentStore) List(_ context.Context) ([]provider.PendingPayment, error) {
	var items []provider.PendingPayment

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(_, v []byte) error {
			var p provider.PendingPayment
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			items = append(items, p)
			return nil
		})
	})
	if err != nil {
		return nil, storageError("list_pending_payments", err)
	}

	if items == nil {
		items = []provider.PendingPayment{}
	}
	return items, nil
}

// storageError keeps normalized errors such as NotFound and Conflict and
// reports anything else from the database as transient
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *provider.Error
	if errors.As(err, &pe) {
		return err
	}
	return provider.Wrap(provider.KindTransient, op, err)
}

func notFound(intentID string) error {
	return provider.NewError(provider.KindNotFound, "get_pending_payment", "pending payment "+intentID+" not found")
}
