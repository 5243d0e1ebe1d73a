package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	redisclient "wsbpanel/internal/adapters/redis"
)

// RedisTestHelper scopes checkpoint and lock keys to one throwaway namespace
type RedisTestHelper struct {
	client    *redisclient.Client
	namespace string
}

// NewTestRedis connects through the application client and allocates a
// namespace whose keys are deleted when the test ends. Other keys in the
// database are left alone.
func NewTestRedis(t *testing.T) *RedisTestHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := redisclient.NewClient(ctx, RedisConfig(t))
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	h := &RedisTestHelper{client: client, namespace: UniqueRunID()}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.deleteMatching(ctx, "*"+h.namespace+"*")
		_ = client.Close()
	})

	return h
}

// Namespace is the subreddit or lock key the test should use
func (h *RedisTestHelper) Namespace() string {
	return h.namespace
}

// Client exposes the application client (locks, health)
func (h *RedisTestHelper) Client() *redisclient.Client {
	return h.client
}

// Raw exposes the go-redis client for repositories
func (h *RedisTestHelper) Raw() *redis.Client {
	return h.client.Client()
}

func (h *RedisTestHelper) deleteMatching(ctx context.Context, pattern string) {
	iter := h.Raw().Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = h.Raw().Del(ctx, keys...).Err()
	}
}
