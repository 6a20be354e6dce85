package ratelimit

import (
	"sync"
	"time"
)

// DropRecorder is notified when a key is rate limited.
type DropRecorder interface {
	RecordRateLimiterDrop(limiterType string)
}

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	// Name labels drops in metrics ("user", "post").
	Name string

	// Token bucket per key. Zero Burst disables the bucket.
	Burst      float64
	RefillRate float64

	// Optional rolling limit per key (0 = disabled).
	WindowLimit int
	Window      time.Duration

	// How often idle keys are forgotten. Zero disables cleanup.
	CleanupPeriod time.Duration

	Metrics DropRecorder
}

// KeyedLimiter keeps a token bucket and an optional rolling-window quota per
// key (for example a Telegram user id). Idle keys are removed periodically.
type KeyedLimiter[K comparable] struct {
	mu      sync.RWMutex
	entries map[K]*keyedEntry
	config  KeyedConfig
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// keyedEntry's mutex makes the two-layer check-then-consume atomic.
type keyedEntry struct {
	mu     sync.Mutex
	bucket *Limiter
	window *SlidingWindowCounter
}

// NewKeyedLimiter creates the limiter and starts its cleanup loop. Call Stop when done.
//
// Example:
//
//	users := ratelimit.NewKeyedLimiter[int64](ratelimit.KeyedConfig{
//	    Name:          "user",
//	    Burst:         10,
//	    RefillRate:    0.5,
//	    CleanupPeriod: 5 * time.Minute,
//	})
//	defer users.Stop()
func NewKeyedLimiter[K comparable](cfg KeyedConfig) *KeyedLimiter[K] {
	kl := newKeyedWithClock[K](cfg, time.Now)
	if cfg.CleanupPeriod > 0 {
		go kl.cleanupLoop()
	}
	return kl
}

func newKeyedWithClock[K comparable](cfg KeyedConfig, now func() time.Time) *KeyedLimiter[K] {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	return &KeyedLimiter[K]{
		entries: make(map[K]*keyedEntry),
		config:  cfg,
		now:     now,
		stopCh:  make(chan struct{}),
	}
}

// Allow reports whether key may proceed, consuming from both layers only
// when both have room.
func (kl *KeyedLimiter[K]) Allow(key K) bool {
	entry := kl.entry(key)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.window.check() || (entry.bucket != nil && !entry.bucket.check()) {
		if kl.config.Metrics != nil {
			kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name)
		}
		return false
	}

	entry.window.consume()
	if entry.bucket != nil {
		entry.bucket.consume()
	}
	return true
}

// Remaining returns the rolling quota left for key, or -1 when no window limit is set.
func (kl *KeyedLimiter[K]) Remaining(key K) int {
	if kl.config.WindowLimit <= 0 {
		return -1
	}
	kl.mu.RLock()
	entry, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return kl.config.WindowLimit
	}
	return entry.window.Remaining()
}

func (kl *KeyedLimiter[K]) entry(key K) *keyedEntry {
	kl.mu.RLock()
	entry, ok := kl.entries[key]
	kl.mu.RUnlock()
	if ok {
		return entry
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, ok = kl.entries[key]; ok {
		return entry
	}
	entry = &keyedEntry{
		window: newSlidingWindowWithClock(kl.config.WindowLimit, kl.config.Window, kl.now),
	}
	if kl.config.Burst > 0 {
		entry.bucket = newWithClock(kl.config.Burst, kl.config.RefillRate, kl.now)
	}
	kl.entries[key] = entry
	return entry
}

// Cleanup forgets keys whose bucket is full and whose window is empty.
func (kl *KeyedLimiter[K]) Cleanup() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	removed := 0
	for key, entry := range kl.entries {
		if (entry.bucket == nil || entry.bucket.IsFull()) && entry.window.Idle() {
			delete(kl.entries, key)
			removed++
		}
	}
	return removed
}

func (kl *KeyedLimiter[K]) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.Cleanup()
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call multiple times.
func (kl *KeyedLimiter[K]) Stop() {
	kl.once.Do(func() { close(kl.stopCh) })
}
