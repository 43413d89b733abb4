// Package ledger keeps the dispatch records created during the process
// lifetime. Records are never evicted.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/voicedispatch/core/model"
)

var (
	// ErrNotFound is returned when an order identity is unknown.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateKey is returned when creating an order whose identity exists.
	ErrDuplicateKey = errors.New("order already exists")
)

// Store persists orders.
type Store interface {
	Create(model.Order) error
	Get(id string) (model.Order, error)
	List() []model.Order
	UpdateStatus(id, status string) error
	AttachTranscript(id, transcript string, duration float64) error
	// FindDispatchedSince returns the oldest order still in the dispatched
	// state that was created at or after since.
	FindDispatchedSince(since time.Time) (model.Order, bool)
	Count() int
}

// MemoryStore is an in-memory Store safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]model.Order
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]model.Order{}}
}

func (s *MemoryStore) Create(o model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[o.OrderID]; ok {
		return fmt.Errorf("create %s: %w", o.OrderID, ErrDuplicateKey)
	}
	s.data[o.OrderID] = o
	s.order = append(s.order, o.OrderID)
	return nil
}

func (s *MemoryStore) Get(id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.data[id]
	if !ok {
		return model.Order{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return o, nil
}

// List returns every order in creation order.
func (s *MemoryStore) List() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Order, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.data[id])
	}
	return res
}

func (s *MemoryStore) UpdateStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.data[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	o.Status = status
	s.data[id] = o
	return nil
}

func (s *MemoryStore) AttachTranscript(id, transcript string, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.data[id]
	if !ok {
		return fmt.Errorf("attach transcript %s: %w", id, ErrNotFound)
	}
	o.Transcript = transcript
	o.CallDuration = duration
	s.data[id] = o
	return nil
}

func (s *MemoryStore) FindDispatchedSince(since time.Time) (model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		o := s.data[id]
		if o.Status == model.OrderStatusDispatched && !o.Timestamp.Before(since) {
			return o, true
		}
	}
	return model.Order{}, false
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
