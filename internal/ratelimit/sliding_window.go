package ratelimit

import (
	"math"
	"sync"
	"time"
)

// SlidingWindowCounter approximates a rolling window with two fixed windows:
//
//	effective = current + previous × (time left in current window / window)
//
// It uses constant memory per key. A nil counter allows everything.
type SlidingWindowCounter struct {
	mu              sync.Mutex
	currCount       int
	prevCount       int
	currWindowStart time.Time
	windowDuration  time.Duration
	maxRequests     int
	now             func() time.Time
}

// NewSlidingWindowCounter returns nil (disabled) when maxRequests <= 0.
func NewSlidingWindowCounter(maxRequests int, windowDuration time.Duration) *SlidingWindowCounter {
	return newSlidingWindowWithClock(maxRequests, windowDuration, time.Now)
}

func newSlidingWindowWithClock(maxRequests int, windowDuration time.Duration, now func() time.Time) *SlidingWindowCounter {
	if maxRequests <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		currWindowStart: now(),
		windowDuration:  windowDuration,
		maxRequests:     maxRequests,
		now:             now,
	}
}

// Allow counts a request if it fits in the window.
func (swc *SlidingWindowCounter) Allow() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weighted() >= float64(swc.maxRequests) {
		return false
	}
	swc.currCount++
	return true
}

func (swc *SlidingWindowCounter) check() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weighted() < float64(swc.maxRequests)
}

func (swc *SlidingWindowCounter) consume() {
	if swc == nil {
		return
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weighted() < float64(swc.maxRequests) {
		swc.currCount++
	}
}

// rotate moves to the window containing now. Must be called with mu held.
func (swc *SlidingWindowCounter) rotate() {
	elapsed := swc.now().Sub(swc.currWindowStart)
	if elapsed < swc.windowDuration {
		return
	}

	windowsPassed := int(elapsed / swc.windowDuration)
	if windowsPassed == 1 {
		swc.prevCount = swc.currCount
	} else {
		// The previous window is entirely outside the rolling range
		swc.prevCount = 0
	}
	swc.currCount = 0
	swc.currWindowStart = swc.currWindowStart.Add(time.Duration(windowsPassed) * swc.windowDuration)
}

// weighted must be called with mu held.
func (swc *SlidingWindowCounter) weighted() float64 {
	elapsed := swc.now().Sub(swc.currWindowStart)
	overlap := float64(swc.windowDuration-elapsed) / float64(swc.windowDuration)
	overlap = min(max(overlap, 0), 1)
	return float64(swc.currCount) + float64(swc.prevCount)*overlap
}

// Remaining returns the quota left, rounded up so it is positive exactly
// when Allow would succeed, or -1 when disabled.
func (swc *SlidingWindowCounter) Remaining() int {
	if swc == nil {
		return -1
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return max(int(math.Ceil(float64(swc.maxRequests)-swc.weighted())), 0)
}

// Idle reports whether nothing in the rolling window has been counted.
func (swc *SlidingWindowCounter) Idle() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weighted() == 0
}
