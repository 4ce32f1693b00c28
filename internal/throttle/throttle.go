// Package throttle rate-limits login attempts per subject.
//
// Counters live in a TTL cache, so a bucket that stops failing simply
// ages out; eviction is the window reset. The limit is approximate
// under heavy concurrency, which is fine for slowing down guessing.
package throttle

import (
	"encoding/binary"
	"errors"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
)

type (
	// Limiter counts failures per key and blocks keys that failed
	// more than max times within the window.
	Limiter struct {
		cache *bigcache.BigCache
		max   int
	}
)

const (
	DefaultWindow = 10 * time.Minute
	DefaultMax    = 10
)

// New builds a Limiter allowing up to max failures per window.
func New(window time.Duration, max int) *Limiter {
	cache, _ := bigcache.NewBigCache(bigcache.DefaultConfig(window))
	return &Limiter{cache: cache, max: max}
}

// Allow reports whether key may attempt another login.
func (l *Limiter) Allow(key string) bool {
	return l.count(key) < uint32(l.max)
}

// Fail records one failed attempt for key.
func (l *Limiter) Fail(key string) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], l.count(key)+1)
	l.cache.Set(bucket(key), buf[:])
}

// Reset clears the failure count for key, typically after a
// successful login.
func (l *Limiter) Reset(key string) {
	l.cache.Delete(bucket(key))
}

func (l *Limiter) count(key string) uint32 {
	raw, err := l.cache.Get(bucket(key))
	if errors.Is(err, bigcache.ErrEntryNotFound) || len(raw) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(raw)
}

// bucket keeps raw usernames and client addresses out of the cache.
func bucket(key string) string {
	return strconv.FormatUint(xxhash.Sum64String(key), 16)
}
