package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// keyVersion changes whenever the cached page encoding changes
const keyVersion = "roster:page:v1:"

// Cache stores parsed pages by content key
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey derives a cache key from page file content and its parser format.
// Moving or renaming a file keeps its key.
func PageKey(content []byte, format string) string {
	h := sha256.New()
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write(content)
	return keyVersion + hex.EncodeToString(h.Sum(nil))
}
