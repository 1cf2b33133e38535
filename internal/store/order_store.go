// Package store keeps the server-side context of a gateway order between
// order creation and payment verification.  The verify step reads the
// seats, attendee and price from here instead of trusting the client.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// ErrOrderNotFound is returned for unknown or expired orders.
var ErrOrderNotFound = errors.New("order not found")

// PendingOrder is the checkout context recorded when a gateway order is
// opened.
type PendingOrder struct {
	OrderID     string         `json:"order_id"`
	EventID     string         `json:"event_id"`
	UserID      string         `json:"user_id"`
	Seats       []string       `json:"seats"`
	Attendee    model.Attendee `json:"attendee"`
	TicketPrice int64          `json:"ticket_price"`
	Amount      int64          `json:"amount"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    string         `json:"currency"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RedisOrderStore keeps pending orders as JSON strings with a TTL.
type RedisOrderStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisOrderStore returns a store writing under prefix:<orderID>.
func NewRedisOrderStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisOrderStore {
	if prefix == "" {
		prefix = "order"
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisOrderStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisOrderStore) key(orderID string) string { return s.prefix + ":" + orderID }

func (s *RedisOrderStore) Put(ctx context.Context, o PendingOrder) error {
	bs, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return s.rdb.SetEx(ctx, s.key(o.OrderID), bs, s.ttl).Err()
}

func (s *RedisOrderStore) Get(ctx context.Context, orderID string) (PendingOrder, error) {
	bs, err := s.rdb.Get(ctx, s.key(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingOrder{}, ErrOrderNotFound
	}
	if err != nil {
		return PendingOrder{}, err
	}
	var o PendingOrder
	if err := json.Unmarshal(bs, &o); err != nil {
		return PendingOrder{}, err
	}
	return o, nil
}

func (s *RedisOrderStore) Delete(ctx context.Context, orderID string) error {
	return s.rdb.Del(ctx, s.key(orderID)).Err()
}

// MemoryOrderStore is the single-process fallback used when Redis is not
// reachable at startup.
type MemoryOrderStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	clk   clock.Clock
	items map[string]memEntry
}

type memEntry struct {
	order   PendingOrder
	expires time.Time
}

// NewMemoryOrderStore returns an empty in-process store.
func NewMemoryOrderStore(ttl time.Duration, clk clock.Clock) *MemoryOrderStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &MemoryOrderStore{ttl: ttl, clk: clk, items: make(map[string]memEntry)}
}

func (s *MemoryOrderStore) Put(_ context.Context, o PendingOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clk.Now()
	// expired entries are dropped on write so the map stays bounded
	for k, e := range s.items {
		if now.After(e.expires) {
			delete(s.items, k)
		}
	}
	s.items[o.OrderID] = memEntry{order: o, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryOrderStore) Get(_ context.Context, orderID string) (PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[orderID]
	if !ok || s.clk.Now().After(e.expires) {
		return PendingOrder{}, ErrOrderNotFound
	}
	return e.order, nil
}

func (s *MemoryOrderStore) Delete(_ context.Context, orderID string) error {
	s.mu.Lock()
	delete(s.items, orderID)
	s.mu.Unlock()
	return nil
}
