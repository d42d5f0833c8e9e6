// Package cache provides a Redis-backed classification cache, letting
// repeated runs against the same lexicon skip ancestry traversals. Keys are
// namespaced by a checksum of the lexicon source so a lexicon update
// invalidates prior results naturally.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/klarsson/saldo-animacy/internal/ancestry"
	"github.com/klarsson/saldo-animacy/pkg/logger"
	pkgredis "github.com/klarsson/saldo-animacy/pkg/redis"
)

const keyPrefix = "animacy:"

// Redis caches ancestry classifications in Redis. It satisfies
// aggregate.Cache. Failures degrade to cache misses; the pipeline never
// fails because the cache is unavailable mid-run.
type Redis struct {
	client *pkgredis.Client
	ttl    time.Duration
	ns     string
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis creates a classification cache namespaced by the given lexicon
// checksum.
func NewRedis(client *pkgredis.Client, ttl time.Duration, lexiconSum string) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		ns:     keyPrefix + lexiconSum + ":",
		logger: logger.WithComponent("classification-cache"),
	}
}

// LexiconChecksum returns the hex SHA-256 of the lexicon file at path.
func LexiconChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening lexicon for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing lexicon: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Get returns the cached classification for a lemgram, if present.
func (c *Redis) Get(ctx context.Context, id string) (ancestry.Classification, bool) {
	data, err := c.client.Get(ctx, c.ns+id)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "id", id, "error", err)
		}
		c.misses.Add(1)
		return ancestry.Classification{}, false
	}
	var cl ancestry.Classification
	if err := json.Unmarshal([]byte(data), &cl); err != nil {
		c.logger.Error("cache unmarshal failed", "id", id, "error", err)
		c.misses.Add(1)
		return ancestry.Classification{}, false
	}
	c.hits.Add(1)
	return cl, true
}

// Put stores a classification with the configured TTL.
func (c *Redis) Put(ctx context.Context, id string, cl ancestry.Classification) {
	data, err := json.Marshal(cl)
	if err != nil {
		c.logger.Error("cache marshal failed", "id", id, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.ns+id, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "id", id, "error", err)
	}
}

// Flush deletes every cached classification for this lexicon namespace and
// returns the number of keys removed.
func (c *Redis) Flush(ctx context.Context) (int64, error) {
	return c.client.FlushByPattern(ctx, c.ns+"*")
}

// Counters reports cache hits and misses since construction.
func (c *Redis) Counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
