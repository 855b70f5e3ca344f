package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// Cache memoizes validation results by SHA-256(secret), so the same
// credential appearing at many locations is only probed once per scan.
type Cache struct {
	mu      sync.RWMutex
	results map[string]*types.ValidationResult
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{results: make(map[string]*types.ValidationResult)}
}

// Get returns the cached result for secret, or nil if not yet validated.
func (c *Cache) Get(secret []byte) *types.ValidationResult {
	key := cacheKey(secret)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.results[key]
}

// Set records a result for secret.
func (c *Cache) Set(secret []byte, result *types.ValidationResult) {
	key := cacheKey(secret)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = result
}

func cacheKey(secret []byte) string {
	h := sha256.Sum256(secret)
	return hex.EncodeToString(h[:])
}
