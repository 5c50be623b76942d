// Package snapshot owns the time-bounded cache of the full remote
// outline. The remote service allows roughly one full export per
// minute, so every read view is served from the cached snapshot and a
// rate-limited refresh degrades to the stale copy instead of failing.
package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// DefaultFreshness is the default maximum snapshot age. It must stay
// above the remote export limit (one call per ~60s) with some margin.
const DefaultFreshness = 90 * time.Second

// Exporter is the single remote call the cache depends on.
type Exporter interface {
	ExportAll(ctx context.Context) ([]models.Node, error)
}

// Meta describes the snapshot a read was served from. Stale is true
// only when a refresh was rate-limited and the previous snapshot was
// served instead. Age is surfaced on every response so stale data is
// always distinguishable from a fresh read.
type Meta struct {
	FetchedAt  time.Time `json:"fetched_at"`
	AgeSeconds int       `json:"age_seconds"`
	Stale      bool      `json:"stale"`
}

// Cache holds at most one full-outline snapshot together with its
// fetch time. The mutex serializes the whole check-fetch-store
// sequence, so data and timestamp are always visible as a pair and two
// concurrent refreshes cannot interleave.
type Cache struct {
	exporter  Exporter
	freshness time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	nodes     []models.Node
	fetchedAt time.Time
	valid     bool
}

// New creates an empty cache. A freshness of zero or below falls back
// to DefaultFreshness.
func New(exporter Exporter, freshness time.Duration, logger *slog.Logger) *Cache {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		exporter:  exporter,
		freshness: freshness,
		logger:    logger,
	}
}

// Get returns the current snapshot. A snapshot younger than the
// freshness window is served without any remote call unless
// forceRefresh is set. On a rate-limited refresh the previous snapshot
// is served unchanged, its timestamp untouched; the call fails with
// RateLimitedError only when there is no previous snapshot to fall
// back on. Any other exporter failure propagates untouched. The
// returned nodes are clones and never alias the cached entry.
func (c *Cache) Get(ctx context.Context, forceRefresh bool) ([]models.Node, Meta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && !forceRefresh {
		if age := time.Since(c.fetchedAt); age < c.freshness {
			return c.cloneNodes(), Meta{FetchedAt: c.fetchedAt, AgeSeconds: int(age / time.Second)}, nil
		}
	}

	nodes, err := c.exporter.ExportAll(ctx)
	if err == nil {
		c.nodes = nodes
		c.fetchedAt = time.Now()
		c.valid = true
		return c.cloneNodes(), Meta{FetchedAt: c.fetchedAt}, nil
	}

	var rl *apperr.RateLimitedError
	if errors.As(err, &rl) && c.valid {
		age := time.Since(c.fetchedAt)
		c.logger.Warn("outline export rate limited, serving stale snapshot",
			slog.Duration("age", age),
			slog.Int("retry_after_seconds", rl.RetryAfter))
		return c.cloneNodes(), Meta{FetchedAt: c.fetchedAt, AgeSeconds: int(age / time.Second), Stale: true}, nil
	}
	return nil, Meta{}, err
}

// Invalidate drops the snapshot outright, data and timestamp both.
// The mutation coordinator calls this once per successful write, and
// only after the remote service confirmed it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = nil
	c.fetchedAt = time.Time{}
	c.valid = false
}

func (c *Cache) cloneNodes() []models.Node {
	out := make([]models.Node, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = n.Clone()
	}
	return out
}
