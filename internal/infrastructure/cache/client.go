// Package cache adaptadores Redis de los puertos ClaimsCache, ReportCache y TokenBlacklist.
// Sin Redis configurado se usan las variantes nulas de nop.go.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jhoicas/form-reporting-api/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const connectRetryDelay = 2 * time.Second

// NewClient abre el cliente y reintenta el primer PING.
func NewClient(ctx context.Context, cfg config.RedisConfig, retries int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	attempt := 0
	ping := func() error {
		attempt++
		err := client.Ping(ctx).Err()
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("redis: ping fallido")
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(connectRetryDelay), uint64(max(retries, 0))), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
