package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options selects how a fetched resource is transformed before caching.
// Extend by adding named fields, never by inspecting arbitrary keys.
type Options struct {
	// ActiveOnly keeps only list elements whose "active" field is true,
	// preserving their original order. Non-list resources pass through.
	ActiveOnly bool
}

func (o Options) key(resourcePath string) string {
	if o.ActiveOnly {
		return resourcePath + "?active=1"
	}
	return resourcePath
}

// Cache memoizes catalog resources for the lifetime of the process. Each
// (path, options) pair is fetched at most once; failures are returned to
// the caller but never cached, so the next call retries.
type Cache struct {
	src Source
	log *zap.Logger

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

func NewCache(src Source, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		src:     src,
		log:     log,
		entries: map[string]json.RawMessage{},
	}
}

// Load returns the cached value for (resourcePath, opts), fetching and
// filtering it first if this is the first call for that key. Concurrent
// first-time loads of the same key share a single fetch.
func (c *Cache) Load(ctx context.Context, resourcePath string, opts Options) (json.RawMessage, error) {
	key := opts.key(resourcePath)

	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	out, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		raw, err := c.src.Fetch(ctx, resourcePath)
		if err != nil {
			c.log.Warn("resource fetch failed",
				zap.String("path", resourcePath),
				zap.Error(err),
			)
			return nil, err
		}

		val, err := applyOptions(raw, opts)
		if err != nil {
			c.log.Warn("resource decode failed",
				zap.String("path", resourcePath),
				zap.Error(err),
			)
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = val
		c.mu.Unlock()
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(json.RawMessage), nil
}

// Invalidate drops every cached variant of a resource path. Used after the
// admin catalog write-back; read-only deployments never call it.
func (c *Cache) Invalidate(resourcePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k == resourcePath || strings.HasPrefix(k, resourcePath+"?") {
			delete(c.entries, k)
		}
	}
}

// Ready reports whether the underlying source can serve the settings
// resource; it warms the cache as a side effect.
func (c *Cache) Ready(ctx context.Context) error {
	_, err := c.Load(ctx, PathSettings, Options{})
	return err
}

func applyOptions(raw []byte, opts Options) (json.RawMessage, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrUnavailable)
	}
	if !opts.ActiveOnly {
		return json.RawMessage(raw), nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		// Not an ordered sequence; the filter does not apply.
		return json.RawMessage(raw), nil
	}

	kept := make([]json.RawMessage, 0, len(elems))
	for _, e := range elems {
		var probe struct {
			Active bool `json:"active"`
		}
		if err := json.Unmarshal(e, &probe); err == nil && probe.Active {
			kept = append(kept, e)
		}
	}

	return json.Marshal(kept)
}

// Products returns the product list; pass Options{ActiveOnly: true} for the
// end-user view, zero Options for the admin view.
func (c *Cache) Products(ctx context.Context, opts Options) ([]Product, error) {
	raw, err := c.Load(ctx, PathProducts, opts)
	if err != nil {
		return nil, err
	}
	var out []Product
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Product looks up one active product by id.
func (c *Cache) Product(ctx context.Context, id string) (Product, bool, error) {
	list, err := c.Products(ctx, Options{ActiveOnly: true})
	if err != nil {
		return Product{}, false, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

func (c *Cache) Categories(ctx context.Context) ([]Category, error) {
	raw, err := c.Load(ctx, PathCategories, Options{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	var out []Category
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cache) Settings(ctx context.Context) (Settings, error) {
	raw, err := c.Load(ctx, PathSettings, Options{})
	if err != nil {
		return Settings{}, err
	}
	var out Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return Settings{}, err
	}
	return out, nil
}

func (c *Cache) Socials(ctx context.Context) ([]Social, error) {
	raw, err := c.Load(ctx, PathSocials, Options{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	var out []Social
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
