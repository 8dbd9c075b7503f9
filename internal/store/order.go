package store

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/HammerGPT/Hyper-Alpha-Arena/internal/domain"
)

// pendingEntry is an order awaiting evaluation, keyed for the sweep index.
type pendingEntry struct {
	CreatedAt time.Time
	OrderNo   string
	Order     *domain.Order
}

// pendingLess orders the sweep index by created_at ascending, then
// order_no ascending, so Ascend visits orders in submission order.
func pendingLess(a, b pendingEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderNo < b.OrderNo
}

// OrderStore is a thread-safe in-memory store for orders with a primary
// index by order_no, a secondary index by account ID, and a B-tree sweep
// index over pending orders ordered by creation time.
type OrderStore struct {
	mu            sync.RWMutex
	orders        map[string]*domain.Order
	accountOrders map[string][]*domain.Order // account_id → orders (append-only)
	pending       *btree.BTreeG[pendingEntry]
	pendingIdx    map[string]pendingEntry // order_no → pending entry
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	const degree = 32
	return &OrderStore{
		orders:        make(map[string]*domain.Order),
		accountOrders: make(map[string][]*domain.Order),
		pending:       btree.NewG[pendingEntry](degree, pendingLess),
		pendingIdx:    make(map[string]pendingEntry),
	}
}

// Create adds an order to the store, appends it to the account's
// secondary index, and tracks it in the pending sweep index while its
// status is PENDING.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderNo] = o
	s.accountOrders[o.AccountID] = append(s.accountOrders[o.AccountID], o)

	if o.Status == domain.OrderStatusPending {
		entry := pendingEntry{CreatedAt: o.CreatedAt, OrderNo: o.OrderNo, Order: o}
		s.pending.ReplaceOrInsert(entry)
		s.pendingIdx[o.OrderNo] = entry
	}
}

// Get retrieves an order by order_no. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(orderNo string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderNo]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// RemovePending drops an order from the sweep index once it leaves the
// PENDING state. No-op for orders not tracked.
func (s *OrderStore) RemovePending(orderNo string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pendingIdx[orderNo]
	if !ok {
		return
	}
	delete(s.pendingIdx, orderNo)
	s.pending.Delete(entry)
}

// PendingOrders returns pending orders in submission order. When accountID
// is non-nil only that account's orders are included. Orders whose status
// has already moved off PENDING are skipped and lazily dropped from the
// index.
func (s *OrderStore) PendingOrders(accountID *string) []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Order
	var stale []pendingEntry
	s.pending.Ascend(func(entry pendingEntry) bool {
		if entry.Order.Terminal() {
			stale = append(stale, entry)
			return true
		}
		if accountID != nil && entry.Order.AccountID != *accountID {
			return true
		}
		out = append(out, entry.Order)
		return true
	})
	for _, entry := range stale {
		delete(s.pendingIdx, entry.OrderNo)
		s.pending.Delete(entry)
	}
	return out
}

// PendingCount returns the number of orders tracked in the sweep index.
func (s *OrderStore) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.Len()
}

// ListByAccount returns orders for an account in reverse chronological
// order (newest first). If status is non-nil, only orders matching that
// status are included. Pagination is 1-based. Returns the matching orders
// for the requested page and the total count of matching orders (before
// pagination).
func (s *OrderStore) ListByAccount(accountID string, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.accountOrders[accountID]

	// Filter by status if provided, collecting in reverse order. Status
	// is read through the order mutex: settlement may be moving orders
	// off PENDING while we list.
	filtered := make([]*domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].CurrentStatus() != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)

	// Apply pagination.
	start := (page - 1) * limit
	if start >= total {
		return []*domain.Order{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return filtered[start:end], total
}
