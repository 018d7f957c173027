// Package assets handles asset loading, caching and change notification.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/logger"
	"github.com/Faultbox/birdylook/pkg/formats"
)

// Manager loads files relative to an asset root directory.
type Manager struct {
	root  string
	cache *Cache
	mu    sync.RWMutex
	log   *zap.Logger
}

// NewManager creates a manager reading from root.
func NewManager(root string) *Manager {
	return &Manager{
		root:  root,
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// Root returns the asset root directory.
func (m *Manager) Root() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root
}

// Path resolves name against the asset root. Absolute names are returned as-is.
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.Root(), filepath.FromSlash(name))
}

// Load reads a file, serving repeated reads from the cache.
func (m *Manager) Load(name string) ([]byte, error) {
	if data, ok := m.cache.Get(name); ok {
		return data, nil
	}

	data, err := os.ReadFile(m.Path(name))
	if err != nil {
		return nil, fmt.Errorf("loading asset %s: %w", name, err)
	}
	m.cache.Set(name, data)
	return data, nil
}

// Invalidate drops name from the cache so the next Load reads the file again.
func (m *Manager) Invalidate(name string) {
	m.cache.Delete(name)
}

// LoadPlacement reads and decodes a placement map. Decode failures wrap formats.ErrDecode.
func (m *Manager) LoadPlacement(name string) (*formats.PlacementMap, error) {
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}
	pm, err := formats.ParsePlacementMap(data)
	if err != nil {
		// A broken file should be re-read once fixed.
		m.Invalidate(name)
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	m.log.Info("placement map loaded",
		zap.String("path", name),
		zap.Stringer("encoding", pm.Encoding),
		zap.Int("records", len(pm.Records)))
	return pm, nil
}

// Close drops every cached asset.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
