// Package cache stores fetched sources and finished analyses between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

const keyPrefix = "inclusify:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// SourceKey generates the cache key for a fetched URL
func SourceKey(url string) string {
	return keyPrefix + "src:" + digest(url)
}

// AnalysisKey generates the cache key for the analysis of text under the
// rule table with the given fingerprint
func AnalysisKey(fingerprint, text string) string {
	return keyPrefix + "ana:" + fingerprint + ":" + digest(text)
}

func digest(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

// GetJSON reads key and decodes it into v. A value that no longer decodes
// is treated as a miss.
func GetJSON(c Cache, key string, v interface{}) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v and stores it under key
func SetJSON(c Cache, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}

// Nop is a Cache that stores nothing
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
