package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis defines a public type used by MaxiTaxi client APIs.
//
// Redis keeps the session pair under two prefixed keys so headless
// deployments (dispatch consoles, fleet daemons) can share one session
// across processes. Each entry is written with a single SET, which preserves
// the atomic-replacement guarantee of the [Store] contract.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis describes the newredis operation and its observable behavior.
//
// NewRedis does not mutate shared global state; the returned store is as
// concurrency-safe as the supplied client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "mxtx"
	}
	return &Redis{client: client, prefix: prefix}
}

// Token describes the token operation and its observable behavior.
func (r *Redis) Token(ctx context.Context) (string, error) {
	tok, err := r.client.Get(ctx, r.key("token")).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: read token: %w", err)
	}
	return tok, nil
}

// SetToken describes the settoken operation and its observable behavior.
func (r *Redis) SetToken(ctx context.Context, tok string) error {
	if err := r.client.Set(ctx, r.key("token"), tok, 0).Err(); err != nil {
		return fmt.Errorf("store: write token: %w", err)
	}
	return nil
}

// RoleID describes the roleid operation and its observable behavior.
func (r *Redis) RoleID(ctx context.Context) (int, error) {
	raw, err := r.client.Get(ctx, r.key("role")).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: read role: %w", err)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return id, nil
}

// SetRoleID describes the setroleid operation and its observable behavior.
func (r *Redis) SetRoleID(ctx context.Context, id int) error {
	if err := r.client.Set(ctx, r.key("role"), strconv.Itoa(id), 0).Err(); err != nil {
		return fmt.Errorf("store: write role: %w", err)
	}
	return nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear is idempotent.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key("token"), r.key("role")).Err(); err != nil {
		return fmt.Errorf("store: clear session: %w", err)
	}
	return nil
}

func (r *Redis) key(suffix string) string {
	return r.prefix + ":session:" + suffix
}
