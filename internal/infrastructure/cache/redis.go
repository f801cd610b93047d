package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/logger"
)

const catalogKey = "taxdesk:catalog:packages"

func NewRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}

// Catalog caches the active package list. A nil client disables it.
type Catalog struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewCatalog(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Catalog {
	return &Catalog{rdb: rdb, ttl: ttl, log: log}
}

func (c *Catalog) Packages(ctx context.Context) ([]domain.Package, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("catalog cache read failed", "error", err)
		}
		return nil, false
	}
	var out []domain.Package
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("catalog cache decode failed", "error", err)
		return nil, false
	}
	return out, true
}

func (c *Catalog) StorePackages(ctx context.Context, pkgs []domain.Package) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(pkgs)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, catalogKey, data, c.ttl).Err(); err != nil {
		c.log.Warn("catalog cache write failed", "error", err)
	}
}

func (c *Catalog) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, catalogKey).Err(); err != nil {
		c.log.Warn("catalog cache invalidate failed", "error", err)
	}
}
