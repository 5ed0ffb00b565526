package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rap-order-service/internal/apperr"
	"rap-order-service/internal/model"
)

// MemoryOrderRepository keeps orders in process memory. Orders older than
// ttl are dropped; a ttl <= 0 keeps them until the process exits.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]model.Order
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryOrderRepository(ttl time.Duration) *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]model.Order), ttl: ttl, now: time.Now}
}

func (r *MemoryOrderRepository) expired(o model.Order, now time.Time) bool {
	return r.ttl > 0 && !o.CreatedAt.After(now.Add(-r.ttl))
}

// evictLocked must be called with the write lock held.
func (r *MemoryOrderRepository) evictLocked() {
	if r.ttl <= 0 {
		return
	}
	now := r.now()
	for id, o := range r.orders {
		if r.expired(o, now) {
			delete(r.orders, id)
		}
	}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked()
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("insert order id=%s: duplicate id", order.ID)
	}
	r.orders[order.ID] = order
	return nil
}

func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok || r.expired(order, r.now()) {
		return model.Order{}, fmt.Errorf("order id=%s: %w", id, apperr.ErrNotFound)
	}
	return order, nil
}

func (r *MemoryOrderRepository) List(_ context.Context, limit, offset int) ([]model.Order, error) {
	r.mu.Lock()
	r.evictLocked()
	all := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, o)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []model.Order{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MemoryOrderRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()
	return len(r.orders), nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id, status string) error {
	return r.mutate(id, func(o *model.Order) { o.Status = status })
}

func (r *MemoryOrderRepository) SetAudioURL(_ context.Context, id, audioURL string) error {
	return r.mutate(id, func(o *model.Order) { o.AudioURL = audioURL })
}

func (r *MemoryOrderRepository) mutate(id string, fn func(*model.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || r.expired(order, r.now()) {
		return fmt.Errorf("order id=%s: %w", id, apperr.ErrNotFound)
	}
	fn(&order)
	order.UpdatedAt = r.now().UTC()
	r.orders[id] = order
	return nil
}
