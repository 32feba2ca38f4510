package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/redis/go-redis/v9"
)

var _ ports.ClaimsCache = (*ClaimsCache)(nil)

// ClaimsCache claims serializados en JSON bajo claims:<userID>.
type ClaimsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClaimsCache(client *redis.Client, ttl time.Duration) *ClaimsCache {
	return &ClaimsCache{client: client, ttl: ttl}
}

func claimsKey(userID string) string { return "claims:" + userID }

func (c *ClaimsCache) Get(ctx context.Context, userID string) (*access.Claims, error) {
	raw, err := c.client.Get(ctx, claimsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claims cache get: %w", err)
	}
	var claims access.Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("claims cache decode: %w", err)
	}
	return &claims, nil
}

func (c *ClaimsCache) Set(ctx context.Context, claims *access.Claims) error {
	raw, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("claims cache encode: %w", err)
	}
	if err := c.client.Set(ctx, claimsKey(claims.UserID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("claims cache set: %w", err)
	}
	return nil
}

// Invalidate borra las entradas de los usuarios dados; sin IDs no hace nada.
func (c *ClaimsCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = claimsKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("claims cache invalidate: %w", err)
	}
	return nil
}
