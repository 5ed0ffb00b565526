package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisClient "github.com/go-redis/redis/v8"

	"rap-order-service/internal/apperr"
	"rap-order-service/internal/model"
)

const (
	redisOrderPrefix = "order:"
	redisOrderIndex  = "orders:by_created"
)

// RedisOrderRepository stores each order as a JSON blob with a TTL and keeps
// a sorted set of ids by creation time for listing.
type RedisOrderRepository struct {
	client *redisClient.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisOrderRepository(client *redisClient.Client, ttl time.Duration) *RedisOrderRepository {
	return &RedisOrderRepository{client: client, ttl: ttl, now: time.Now}
}

// OpenRedis parses a redis:// or rediss:// URL and pings the server.
func OpenRedis(ctx context.Context, rawURL string) (*redisClient.Client, error) {
	opt, err := redisClient.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redisClient.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisOrderRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisOrderRepository) Create(ctx context.Context, order model.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order id=%s: %w", order.ID, err)
	}

	created, err := r.client.SetNX(ctx, redisOrderPrefix+order.ID, data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("insert order id=%s: %w", order.ID, err)
	}
	if !created {
		return fmt.Errorf("insert order id=%s: duplicate id", order.ID)
	}

	member := &redisClient.Z{Score: float64(order.CreatedAt.UnixMilli()), Member: order.ID}
	if err := r.client.ZAdd(ctx, redisOrderIndex, member).Err(); err != nil {
		return fmt.Errorf("index order id=%s: %w", order.ID, err)
	}
	return nil
}

func (r *RedisOrderRepository) GetByID(ctx context.Context, id string) (model.Order, error) {
	data, err := r.client.Get(ctx, redisOrderPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redisClient.Nil) {
			return model.Order{}, fmt.Errorf("order id=%s: %w", id, apperr.ErrNotFound)
		}
		return model.Order{}, fmt.Errorf("get order id=%s: %w", id, err)
	}

	var order model.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return model.Order{}, fmt.Errorf("decode order id=%s: %w", id, err)
	}
	return order, nil
}

// List walks the index newest-first, dropping ids whose blob has expired.
func (r *RedisOrderRepository) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	ids, err := r.client.ZRevRange(ctx, redisOrderIndex, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list orders limit=%d offset=%d: %w", limit, offset, err)
	}

	orders := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		order, err := r.GetByID(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			r.client.ZRem(ctx, redisOrderIndex, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Count prunes index entries older than the TTL before counting.
func (r *RedisOrderRepository) Count(ctx context.Context) (int, error) {
	if r.ttl > 0 {
		cutoff := r.now().Add(-r.ttl).UnixMilli()
		if err := r.client.ZRemRangeByScore(ctx, redisOrderIndex, "-inf", fmt.Sprintf("(%d", cutoff)).Err(); err != nil {
			return 0, fmt.Errorf("prune order index: %w", err)
		}
	}
	n, err := r.client.ZCard(ctx, redisOrderIndex).Result()
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return int(n), nil
}

func (r *RedisOrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.mutate(ctx, id, func(o *model.Order) { o.Status = status })
}

func (r *RedisOrderRepository) SetAudioURL(ctx context.Context, id, audioURL string) error {
	return r.mutate(ctx, id, func(o *model.Order) { o.AudioURL = audioURL })
}

// mutate rewrites the blob keeping its TTL. Each order has a single writer
// (its delivery pipeline), so no optimistic locking is used.
func (r *RedisOrderRepository) mutate(ctx context.Context, id string, fn func(*model.Order)) error {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	fn(&order)
	order.UpdatedAt = r.now().UTC()

	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order id=%s: %w", id, err)
	}
	ok, err := r.client.SetXX(ctx, redisOrderPrefix+id, data, redisClient.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("update order id=%s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("order id=%s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
