package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CartStore keeps one active cart per owner in Redis.
type CartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewCartStore constructs a CartStore. Carts expire ttl after their last save.
func NewCartStore(client redis.UniversalClient, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl, now: time.Now}
}

func cartKey(owner uuid.UUID) string {
	return "retailpad:cart:" + owner.String()
}

// Load returns the owner's cart, or a new empty cart when none is stored.
func (s *CartStore) Load(ctx context.Context, owner uuid.UUID) (*Cart, error) {
	data, err := s.client.Get(ctx, cartKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("sales: load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("sales: decode cart: %w", err)
	}
	if cart.CommitToken == "" {
		cart.CommitToken = uuid.NewString()
	}
	return &cart, nil
}

// Save stores the cart and refreshes its expiry.
func (s *CartStore) Save(ctx context.Context, owner uuid.UUID, cart *Cart) error {
	cart.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("sales: encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(owner), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("sales: save cart: %w", err)
	}
	return nil
}

// Discard deletes the owner's cart.
func (s *CartStore) Discard(ctx context.Context, owner uuid.UUID) error {
	if err := s.client.Del(ctx, cartKey(owner)).Err(); err != nil {
		return fmt.Errorf("sales: discard cart: %w", err)
	}
	return nil
}
