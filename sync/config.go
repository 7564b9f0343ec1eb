// ABOUTME: Engine configuration with tunable matching and dedup windows
// ABOUTME: Defaults mirror production values; everything is overridable
package sync

import (
	"strings"
	"time"
)

const (
	defaultCalendarProximity = 3 * time.Hour
	defaultEventDedupWindow  = 24 * time.Hour
	defaultBatchCap          = 10
	defaultExistenceChunk    = 100
	defaultBodyMatchWindow   = 2000
)

// defaultPersonalDomains are consumer mail providers that never resolve
// to an account.
var defaultPersonalDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "icloud.com",
	"aol.com", "protonmail.com", "me.com", "live.com", "msn.com",
}

// Config tunes the sync engine. Zero values fall back to defaults in
// NewEngine; InternalDomains has no default and must name at least the
// owning organization's domain.
type Config struct {
	// InternalDomains are the owning organization's email domains.
	// Attendees at these domains are never synced as contacts.
	InternalDomains []string

	// PersonalDomains are consumer providers excluded from account
	// resolution and gap analysis.
	PersonalDomains []string

	// CalendarProximity is the window around a signal's date in which a
	// calendar event with an account reference counts as a match.
	CalendarProximity time.Duration

	// EventDedupWindow is the window around a meeting start searched for
	// duplicate events before writing.
	EventDedupWindow time.Duration

	// BatchCap bounds contact writes per batch call.
	BatchCap int

	// ExistenceChunk bounds identifiers per contact existence query.
	ExistenceChunk int

	// BodyMatchWindow bounds how much body text keyword matching reads.
	BodyMatchWindow int
}

// DefaultConfig returns the production defaults. InternalDomains must
// still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		PersonalDomains:   defaultPersonalDomains,
		CalendarProximity: defaultCalendarProximity,
		EventDedupWindow:  defaultEventDedupWindow,
		BatchCap:          defaultBatchCap,
		ExistenceChunk:    defaultExistenceChunk,
		BodyMatchWindow:   defaultBodyMatchWindow,
	}
}

func (c *Config) applyDefaults() {
	if len(c.PersonalDomains) == 0 {
		c.PersonalDomains = defaultPersonalDomains
	}
	if c.CalendarProximity <= 0 {
		c.CalendarProximity = defaultCalendarProximity
	}
	if c.EventDedupWindow <= 0 {
		c.EventDedupWindow = defaultEventDedupWindow
	}
	if c.BatchCap <= 0 {
		c.BatchCap = defaultBatchCap
	}
	if c.ExistenceChunk <= 0 {
		c.ExistenceChunk = defaultExistenceChunk
	}
	if c.BodyMatchWindow <= 0 {
		c.BodyMatchWindow = defaultBodyMatchWindow
	}
}

// IsInternalDomain reports whether the domain belongs to the owning org.
func (c Config) IsInternalDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, d := range c.InternalDomains {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

// IsPersonalDomain reports whether the domain is a consumer mail provider.
func (c Config) IsPersonalDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, d := range c.PersonalDomains {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

// emailDomain extracts the domain of an email address, empty when the
// address is malformed.
func emailDomain(email string) string {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return strings.ToLower(parts[1])
}
