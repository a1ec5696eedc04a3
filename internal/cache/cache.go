package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching assembled timeline views
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from an arbitrary identity string
func Key(identity string) string {
	hash := sha256.Sum256([]byte(identity))
	return "annals:v1:" + hex.EncodeToString(hash[:])
}
