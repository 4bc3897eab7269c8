package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"vivbliss/mongo-init/internal/config"
	"vivbliss/mongo-init/internal/orchestrator"
)

const redisProbeName = "redis"

// redisPinger is the interface used by RedisClient for health probing.
// It is implemented by the real go-redis client and by test doubles.
type redisPinger interface {
	PingResult(ctx context.Context) (string, error)
	Close() error
}

// realRedisPinger adapts *redis.Client to redisPinger so tests don't need to
// construct a real *redis.StatusCmd.
type realRedisPinger struct {
	client *redis.Client
}

func (r *realRedisPinger) PingResult(ctx context.Context) (string, error) {
	return r.client.Ping(ctx).Result()
}

func (r *realRedisPinger) Close() error {
	return r.client.Close()
}

// RedisClient probes the application's task broker so deep health covers the
// whole stack the provisioned account will serve.
type RedisClient struct {
	opts   *redis.Options
	cb     *gobreaker.CircuitBreaker
	pinger redisPinger
}

// NewRedisClient parses cfg.URL. It returns (nil, nil) when no URL is
// configured. No connection is opened at construction time.
func NewRedisClient(cfg config.RedisConfig, cb *gobreaker.CircuitBreaker) (*RedisClient, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &RedisClient{
		opts: opts,
		cb:   cb,
	}, nil
}

// Probe sends a PING command to Redis and validates the PONG response.
func (c *RedisClient) Probe(ctx context.Context) orchestrator.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		p := c.pinger
		if p == nil {
			p = &realRedisPinger{client: redis.NewClient(c.opts)}
			defer p.Close() //nolint:errcheck
		}

		val, err := p.PingResult(ctx)
		if err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		if val != "PONG" {
			return nil, fmt.Errorf("unexpected PING response: %q", val)
		}
		return nil, nil
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return orchestrator.ProbeResult{
			Name:      redisProbeName,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return orchestrator.ProbeResult{
		Name:      redisProbeName,
		OK:        true,
		LatencyMs: latency,
	}
}
