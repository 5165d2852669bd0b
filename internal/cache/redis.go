// Package cache provides the cross-node route cache and the bounded
// in-memory standings cache spec §4.4's Session Manager relies on,
// grounded on the teacher's common/database package: RedisManager's
// single-client/cluster-client duality and EvalScript SHA caching
// for Redis, and a dgraph-io/ristretto hot cache for read-mostly
// finished-game standings.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisManager wraps a single redis.Client or a redis.ClusterClient
// behind one Cmdable-returning accessor, the way the teacher's
// RedisManager picks between redis.NewClient and redis.NewClusterClient
// based on whether ClusterAddrs is configured.
type RedisManager struct {
	client redis.Cmdable

	mu         sync.Mutex
	scriptSHAs map[string]string
}

// NewRedisManager dials addrs as a single client, or clusterAddrs (if
// non-empty) as a cluster client.
func NewRedisManager(addrs []string, clusterAddrs []string, password string, db int) *RedisManager {
	rm := &RedisManager{scriptSHAs: make(map[string]string)}
	if len(clusterAddrs) > 0 {
		rm.client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    clusterAddrs,
			Password: password,
		})
		return rm
	}
	addr := "127.0.0.1:6379"
	if len(addrs) > 0 {
		addr = addrs[0]
	}
	rm.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return rm
}

// GetClient returns the underlying Cmdable, erroring if the manager
// was never dialed.
func (rm *RedisManager) GetClient() (redis.Cmdable, error) {
	if rm.client == nil {
		return nil, errors.New("cache: redis client not initialized")
	}
	return rm.client, nil
}

func (rm *RedisManager) Ping(ctx context.Context) error {
	return rm.client.Ping(ctx).Err()
}

func (rm *RedisManager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rm.client.Set(ctx, key, value, ttl).Err()
}

func (rm *RedisManager) Get(ctx context.Context, key string) (string, error) {
	return rm.client.Get(ctx, key).Result()
}

func (rm *RedisManager) Del(ctx context.Context, keys ...string) error {
	return rm.client.Del(ctx, keys...).Err()
}

func (rm *RedisManager) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rm.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (rm *RedisManager) Incr(ctx context.Context, key string) (int64, error) {
	return rm.client.Incr(ctx, key).Result()
}

// EvalScript runs script, caching its SHA so repeat calls use EVALSHA
// and falling back to a fresh load on NOSCRIPT, the way the teacher's
// EvalScript does.
func (rm *RedisManager) EvalScript(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	sum := sha1.Sum([]byte(script))
	sha := hex.EncodeToString(sum[:])

	rm.mu.Lock()
	_, known := rm.scriptSHAs[sha]
	rm.mu.Unlock()

	if !known {
		loaded, err := rm.client.ScriptLoad(ctx, script).Result()
		if err != nil {
			return nil, fmt.Errorf("cache: script load: %w", err)
		}
		rm.mu.Lock()
		rm.scriptSHAs[sha] = loaded
		rm.mu.Unlock()
		sha = loaded
	}

	result, err := rm.client.EvalSha(ctx, sha, keys, args...).Result()
	if err != nil && errors.Is(err, redis.Nil) {
		return nil, err
	}
	if err != nil && isNoScript(err) {
		loaded, loadErr := rm.client.ScriptLoad(ctx, script).Result()
		if loadErr != nil {
			return nil, fmt.Errorf("cache: script reload: %w", loadErr)
		}
		rm.mu.Lock()
		rm.scriptSHAs[sha] = loaded
		rm.mu.Unlock()
		return rm.client.EvalSha(ctx, loaded, keys, args...).Result()
	}
	return result, err
}

func isNoScript(err error) bool {
	return err != nil && len(err.Error()) >= 8 && err.Error()[:8] == "NOSCRIPT"
}

// routeKey namespaces a player's connector route under their session
// token, per spec §4.4's cross-node reconnect routing.
func routeKey(token string) string {
	return "route:" + token
}

// SaveRoute records which connector node currently owns token's
// connection.
func (rm *RedisManager) SaveRoute(ctx context.Context, token, connectorNodeID string, ttl time.Duration) error {
	return rm.Set(ctx, routeKey(token), connectorNodeID, ttl)
}

// LookupRoute returns the connector node owning token, if any.
func (rm *RedisManager) LookupRoute(ctx context.Context, token string) (string, error) {
	return rm.Get(ctx, routeKey(token))
}

func (rm *RedisManager) ClearRoute(ctx context.Context, token string) error {
	return rm.Del(ctx, routeKey(token))
}
