package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/perfoevolution-backend/internal/platform/envutil"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
)

// EventDedup remembers webhook event IDs so redelivered events become no-ops
// before they reach the database. Reconciliation itself is idempotent-enough
// for plans; this guard exists for the add-on path where a replay would
// double-grant.
type EventDedup interface {
	// MarkIfNew records the event ID and reports whether it was unseen.
	MarkIfNew(ctx context.Context, eventID string) (bool, error)
}

type redisEventDedup struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisEventDedup(baseLog *logger.Logger) (EventDedup, error) {
	addr := envutil.String("REDIS_ADDR", "localhost:6379")
	password := envutil.String("REDIS_PASSWORD", "")
	db := envutil.Int("REDIS_DB", 0)
	ttlHours := envutil.Int("STRIPE_EVENT_DEDUP_TTL_HOURS", 72)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisEventDedup{
		client: client,
		ttl:    time.Duration(ttlHours) * time.Hour,
		log:    baseLog.With("service", "EventDedup"),
	}, nil
}

func (d *redisEventDedup) MarkIfNew(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	key := "stripe:event:" + eventID
	fresh, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	if !fresh {
		d.log.Info("Duplicate webhook event dropped", "event_id", eventID)
	}
	return fresh, nil
}
