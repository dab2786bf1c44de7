// Package cache memoizes built reports in Redis, keyed on the dataset and the
// date range.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sales-rfm/pkg/logger"
	"sales-rfm/pkg/metrics"
	"sales-rfm/pkg/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultTTL    = 10 * time.Minute
	DefaultPrefix = "sales-rfm:report:"
)

// Options configures a ReportCache.
type Options struct {
	TTL    time.Duration
	Prefix string
	// Variant separates reports built with different scoring options.
	Variant string
	// Dataset separates reports built from different loaded data.
	Dataset string
}

// ReportCache stores serialized reports. A nil client disables it: every
// lookup misses and every store is a no-op.
type ReportCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func New(client redis.UniversalClient, opts Options) *ReportCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	prefix := opts.Prefix
	if opts.Variant != "" {
		prefix += opts.Variant + ":"
	}
	if opts.Dataset != "" {
		prefix += opts.Dataset + ":"
	}
	return &ReportCache{client: client, ttl: opts.TTL, prefix: prefix}
}

// ForDataset returns a cache whose keys are scoped to dataset. It is nil-safe.
func (c *ReportCache) ForDataset(dataset string) *ReportCache {
	if c == nil || dataset == "" {
		return c
	}
	scoped := *c
	scoped.prefix += dataset + ":"
	return &scoped
}

// NewClient opens a Redis client and checks it answers.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (c *ReportCache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *ReportCache) Key(rng models.DateRange) string {
	return c.prefix + rng.String()
}

// Get returns the cached report for rng. A miss is (nil, false, nil).
func (c *ReportCache) Get(ctx context.Context, rng models.DateRange) (*models.Report, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, c.Key(rng)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &report, true, nil
}

func (c *ReportCache) Set(ctx context.Context, rng models.DateRange, report *models.Report) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return c.client.Set(ctx, c.Key(rng), data, c.ttl).Err()
}

// GetOrBuild serves rng from the cache, falling back to build. Cache failures
// are logged and never fail the request.
func (c *ReportCache) GetOrBuild(ctx context.Context, rng models.DateRange, build func() (*models.Report, error)) (*models.Report, error) {
	if !c.Enabled() {
		return build()
	}

	report, ok, err := c.Get(ctx, rng)
	switch {
	case err != nil:
		metrics.CacheResult("error")
		logger.WithContext(ctx).Warn("report cache read failed", zap.String("key", c.Key(rng)), zap.Error(err))
	case ok:
		metrics.CacheResult("hit")
		return report, nil
	default:
		metrics.CacheResult("miss")
	}

	report, err = build()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, rng, report); err != nil {
		logger.WithContext(ctx).Warn("report cache write failed", zap.String("key", c.Key(rng)), zap.Error(err))
	}
	return report, nil
}
