package cache

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/redis/go-redis/v9"
)

var _ ports.TokenBlacklist = (*TokenBlacklist)(nil)

// TokenBlacklist guarda el HMAC del token (nunca el token) hasta su expiración.
type TokenBlacklist struct {
	client *redis.Client
	secret []byte
	now    func() time.Time
}

func NewTokenBlacklist(client *redis.Client, secret string) *TokenBlacklist {
	return &TokenBlacklist{client: client, secret: []byte(secret), now: time.Now}
}

func (b *TokenBlacklist) key(token string) string {
	mac := hmac.New(sha256.New, b.secret)
	mac.Write([]byte(token))
	return "blacklist:" + hex.EncodeToString(mac.Sum(nil))
}

// Add no guarda tokens ya expirados.
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.key(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist add: %w", err)
	}
	return nil
}

func (b *TokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist contains: %w", err)
	}
	return n > 0, nil
}
