package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	json "github.com/goccy/go-json"
)

const keyPrefix = "cityguide:"

// maxKeyLen is below the memcached protocol limit of 250 bytes.
const maxKeyLen = 200

// MemcachedCache implements Cache using memcached with JSON-encoded values.
// namespace separates caches that share one server pool.
type MemcachedCache[T any] struct {
	client    *memcache.Client
	namespace string
}

// NewMemcachedClient creates a client shared by every MemcachedCache. addrs is a
// comma-separated list (e.g. "localhost:11211" or "host1:11211,host2:11211").
// timeout and maxIdleConns use package defaults if zero.
func NewMemcachedClient(addrs string, timeout time.Duration, maxIdleConns int) *memcache.Client {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return client
}

// NewMemcachedCache wraps client for values of type T under namespace.
func NewMemcachedCache[T any](client *memcache.Client, namespace string) *MemcachedCache[T] {
	return &MemcachedCache[T]{client: client, namespace: namespace}
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// key maps k to a protocol-safe key. Keys with spaces, control characters or
// excessive length are hashed.
func (c *MemcachedCache[T]) key(k string) string {
	full := keyPrefix + c.namespace + ":" + k
	if len(full) <= maxKeyLen && !strings.ContainsFunc(full, func(r rune) bool { return r <= ' ' || r == 0x7f }) {
		return full
	}
	sum := sha256.Sum256([]byte(k))
	return keyPrefix + c.namespace + ":h:" + hex.EncodeToString(sum[:])
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var data T
	if ctx.Err() != nil {
		return data, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return data, false, nil
		}
		return data, false, err
	}
	if err := json.Unmarshal(item.Value, &data); err != nil {
		var zero T
		return zero, false, err
	}
	return data, true, nil
}

// Set implements Cache.Set.
func (c *MemcachedCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: expirationSeconds(ttl),
	})
}

func expirationSeconds(ttl time.Duration) int32 {
	const maxRelativeExp = 30 * 24 * 60 * 60 // 30 days
	expSec := int32(ttl.Seconds())
	if expSec <= 0 || expSec > maxRelativeExp {
		expSec = 300
	}
	return expSec
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache[T]) Ping() error {
	return c.client.Ping()
}
