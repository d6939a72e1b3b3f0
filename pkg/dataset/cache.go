package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// CacheTTLDefault is how long a loaded workbook stays memoized.
	CacheTTLDefault = 10 * time.Minute
)

// Cache memoizes LoadAndClean results keyed by path, sheet, size and mtime,
// so an edited workbook is reloaded on the next call.
type Cache struct {
	c *cache.Cache
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = CacheTTLDefault
	}
	return &Cache{c: cache.New(ttl, 2*ttl)}
}

// LoadAndClean returns the cached table for the current file content,
// loading it on a miss. Errors are never cached.
func (c *Cache) LoadAndClean(path, sheet string) (*Table, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}

	info, err := os.Stat(path)
	if err != nil {
		return LoadAndClean(path, sheet)
	}

	key := fmt.Sprintf("%s|%s|%d|%d", path, sheet, info.Size(), info.ModTime().UnixNano())
	if v, ok := c.c.Get(key); ok {
		slog.Debug("table cache hit", "path", path, "sheet", sheet)
		return v.(*Table), nil
	}

	t, err := LoadAndClean(path, sheet)
	if err != nil {
		return nil, err
	}

	c.c.SetDefault(key, t)
	return t, nil
}

// Flush drops every cached table.
func (c *Cache) Flush() {
	c.c.Flush()
}
