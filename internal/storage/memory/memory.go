// Package memory is an in-process payment store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"faxina/internal/core"
	"faxina/internal/storage"

	"github.com/google/uuid"
)

// Store is a thread-safe in-memory implementation of storage.Repository.
type Store struct {
	mu       sync.RWMutex
	payments map[string]core.Payment
	failWith error
}

var _ storage.Repository = (*Store)(nil)

func NewStore() *Store {
	return &Store{payments: make(map[string]core.Payment)}
}

// FailWith makes every subsequent call fail with err wrapped in
// core.ErrStorageUnavailable. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) check(op string) error {
	if s.failWith != nil {
		return fmt.Errorf("%s: %w: %w", op, core.ErrStorageUnavailable, s.failWith)
	}
	return nil
}

func (s *Store) Insert(_ context.Context, p core.Payment) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("insert payment"); err != nil {
		return core.Payment{}, err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	s.payments[p.ID] = clone(p)
	return clone(p), nil
}

func (s *Store) Get(_ context.Context, id string) (core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("get payment"); err != nil {
		return core.Payment{}, err
	}

	p, ok := s.payments[id]
	if !ok {
		return core.Payment{}, fmt.Errorf("get payment %s: %w", id, core.ErrNotFound)
	}
	return clone(p), nil
}

func (s *Store) Update(_ context.Context, p core.Payment) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("update payment"); err != nil {
		return core.Payment{}, err
	}

	old, ok := s.payments[p.ID]
	if !ok {
		return core.Payment{}, fmt.Errorf("update payment %s: %w", p.ID, core.ErrNotFound)
	}
	p.CreatedAt = old.CreatedAt
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	s.payments[p.ID] = clone(p)
	return clone(p), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("delete payment"); err != nil {
		return err
	}

	if _, ok := s.payments[id]; !ok {
		return fmt.Errorf("delete payment %s: %w", id, core.ErrNotFound)
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) List(_ context.Context, r storage.Range) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("list payments"); err != nil {
		return nil, err
	}

	out := make([]core.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if r.From != nil && p.ServiceDate.Before(*r.From) {
			continue
		}
		if r.To != nil && p.ServiceDate.After(*r.To) {
			continue
		}
		out = append(out, clone(p))
	}
	core.SortByServiceDate(out)
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check("ping")
}

func (s *Store) Close() error { return nil }

// Len returns the number of stored payments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

// clone detaches the PaymentDate pointer from the caller's copy.
func clone(p core.Payment) core.Payment {
	if p.PaymentDate != nil {
		d := *p.PaymentDate
		p.PaymentDate = &d
	}
	return p
}
