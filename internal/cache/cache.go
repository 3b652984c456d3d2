package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a byte-value cache with expiry-only invalidation. Entries expire
// after the TTL fixed at construction; there is no active invalidation, so a
// stale window up to the TTL is expected by callers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
}

type ttlCache struct {
	lru *expirable.LRU[string, []byte]
}

func NewTTLCache(size int, ttl time.Duration) Cache {
	return &ttlCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *ttlCache) Get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *ttlCache) Put(key string, value []byte) {
	c.lru.Add(key, value)
}
