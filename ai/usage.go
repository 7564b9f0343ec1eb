// ABOUTME: Daily usage guard for metered AI calls
// ABOUTME: Tracks per-date call counts with an injected clock and input bounds
package ai

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultDailyLimit  = 25
	defaultMinInputLen = 40
	defaultMaxInputLen = 6000

	truncationMarker = "\n[truncated]"
)

// UsageConfig bounds the metered AI surface.
type UsageConfig struct {
	DailyLimit  int
	MinInputLen int
	MaxInputLen int
}

// DefaultUsageConfig returns the standard limits.
func DefaultUsageConfig() UsageConfig {
	return UsageConfig{
		DailyLimit:  defaultDailyLimit,
		MinInputLen: defaultMinInputLen,
		MaxInputLen: defaultMaxInputLen,
	}
}

// RateLimitStatus reports whether a metered call may proceed.
type RateLimitStatus struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
}

// UsageGuard rate-limits metered AI calls to a daily ceiling. The count
// resets when the wall-clock date advances. Constructed once per process
// and passed by reference to every metered call site; the injected clock
// keeps tests deterministic.
type UsageGuard struct {
	cfg UsageConfig
	now func() time.Time

	mu    sync.Mutex
	date  string
	count int
}

// NewUsageGuard creates a guard with the given config and clock. A nil
// clock uses time.Now.
func NewUsageGuard(cfg UsageConfig, now func() time.Time) *UsageGuard {
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = defaultDailyLimit
	}
	if cfg.MinInputLen <= 0 {
		cfg.MinInputLen = defaultMinInputLen
	}
	if cfg.MaxInputLen <= cfg.MinInputLen {
		cfg.MaxInputLen = defaultMaxInputLen
	}
	if now == nil {
		now = time.Now
	}
	return &UsageGuard{cfg: cfg, now: now}
}

// CheckRateLimit reports whether another metered call is allowed today.
// Never returns an error; exhaustion is a structured result.
func (g *UsageGuard) CheckRateLimit() RateLimitStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollDate()

	remaining := g.cfg.DailyLimit - g.count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitStatus{
		Allowed:   remaining > 0,
		Remaining: remaining,
		Limit:     g.cfg.DailyLimit,
	}
}

// RecordUsage increments the daily counter. Call only after a metered
// call succeeds.
func (g *UsageGuard) RecordUsage() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollDate()
	g.count++
}

// PrepareInput validates and bounds text before a metered call. Inputs
// below the minimum length are rejected; inputs above the ceiling are
// truncated deterministically with an explicit marker.
func (g *UsageGuard) PrepareInput(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < g.cfg.MinInputLen {
		return "", fmt.Errorf("input too short for enrichment: %d chars (minimum %d)",
			len(trimmed), g.cfg.MinInputLen)
	}
	if len(trimmed) > g.cfg.MaxInputLen {
		return trimmed[:g.cfg.MaxInputLen] + truncationMarker, nil
	}
	return trimmed, nil
}

// rollDate resets the counter when the date has advanced. Caller holds mu.
func (g *UsageGuard) rollDate() {
	today := g.now().Format("2006-01-02")
	if g.date != today {
		g.date = today
		g.count = 0
	}
}
