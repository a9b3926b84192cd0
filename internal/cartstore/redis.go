package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	pkgredis "github.com/mvaldez-dev/storefront-checkout/pkg/redis"
)

// RedisStore persists session carts and address selections as JSON
// values with a TTL.
type RedisStore struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisStore builds a redis-backed session store.
func NewRedisStore(client *pkgredis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	raw, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return &Cart{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored cart")
	}
	return &cart, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID string, cart *Cart) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if cart == nil {
		cart = &Cart{}
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.client.Set(ctx, s.client.CartKey(sessionID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cart")
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.client.Del(ctx, s.client.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *RedisStore) GetSelectedAddress(ctx context.Context, sessionID string) (*SelectedAddress, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	raw, err := s.client.Get(ctx, s.client.SelectedAddressKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load selected address")
	}
	var addr SelectedAddress
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode selected address")
	}
	return &addr, nil
}

func (s *RedisStore) SetSelectedAddress(ctx context.Context, sessionID string, addr *SelectedAddress) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if addr == nil {
		return s.ClearSelectedAddress(ctx, sessionID)
	}
	payload, err := json.Marshal(addr)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode selected address")
	}
	if err := s.client.Set(ctx, s.client.SelectedAddressKey(sessionID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store selected address")
	}
	return nil
}

func (s *RedisStore) ClearSelectedAddress(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.client.Del(ctx, s.client.SelectedAddressKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear selected address")
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
