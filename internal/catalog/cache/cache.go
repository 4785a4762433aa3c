// Package cache provides a Redis read-through cache for interactive barcode
// lookups. Cached records only feed the scanning UI (display name/price at
// add time); invoice assembly always resolves against the live catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scanpos_backend/internal/catalog/repository"
)

// ErrMiss is returned when the barcode is not in the cache.
var ErrMiss = errors.New("barcode cache miss")

// BarcodeCache caches catalog products keyed by barcode.
type BarcodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a barcode cache backed by the given Redis client.
func New(client *redis.Client, ttl time.Duration) *BarcodeCache {
	return &BarcodeCache{client: client, ttl: ttl}
}

func key(barcode string) string {
	return "catalog:barcode:" + barcode
}

// Get returns the cached product for a barcode, or ErrMiss.
func (c *BarcodeCache) Get(ctx context.Context, barcode string) (repository.Product, error) {
	data, err := c.client.Get(ctx, key(barcode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return repository.Product{}, ErrMiss
		}
		return repository.Product{}, fmt.Errorf("barcode cache get: %w", err)
	}

	var product repository.Product
	if err := json.Unmarshal(data, &product); err != nil {
		// A corrupt entry behaves like a miss; the caller will refresh it.
		return repository.Product{}, ErrMiss
	}
	return product, nil
}

// Set stores a product under its barcode with the configured TTL.
func (c *BarcodeCache) Set(ctx context.Context, product repository.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("barcode cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, key(product.Barcode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("barcode cache set: %w", err)
	}
	return nil
}

// Invalidate drops the entries for the given barcodes.
func (c *BarcodeCache) Invalidate(ctx context.Context, barcodes ...string) error {
	keys := make([]string, 0, len(barcodes))
	for _, b := range barcodes {
		if b != "" {
			keys = append(keys, key(b))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("barcode cache invalidate: %w", err)
	}
	return nil
}
