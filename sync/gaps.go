// ABOUTME: Gap analysis surfacing external attendees with no CRM contact
// ABOUTME: Aggregates a window of meetings, cross-checks existence, enriches the rest
package sync

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/blsync/blsync/models"
)

// GapOptions controls a gap analysis run.
type GapOptions struct {
	// WindowDays bounds how far back meetings are considered.
	WindowDays int

	// MinMeetings filters out attendees seen fewer times.
	MinMeetings int

	// Owners restricts analysis to meetings owned by these emails.
	// Empty tracks every owner.
	Owners []string

	// Events is the window of parsed calendar events to analyze.
	Events []models.CalendarEvent

	// Now anchors the window; zero uses the wall clock.
	Now time.Time
}

type attendeeStats struct {
	name  string
	count int
	last  time.Time
}

// AnalyzeContactGaps aggregates unique external attendees across the
// window, resolves their domains to owned accounts, drops attendees whose
// contacts already exist, and enriches the remainder. The report is
// best-effort: per-item failures land in the summary error list and never
// abort the run. No CRM or enrichment writes happen here; creation is a
// separate explicit call.
func (e *Engine) AnalyzeContactGaps(ctx context.Context, opts GapOptions) (models.GapReport, error) {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 30
	}
	if opts.MinMeetings <= 0 {
		opts.MinMeetings = 1
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.AddDate(0, 0, -opts.WindowDays)

	report := models.GapReport{
		GeneratedAt: now,
		WindowDays:  opts.WindowDays,
	}

	owners := make(map[string]bool, len(opts.Owners))
	for _, o := range opts.Owners {
		owners[strings.ToLower(strings.TrimSpace(o))] = true
	}

	// Aggregate unique external attendees with meeting counts.
	stats := make(map[string]*attendeeStats)
	for _, ev := range opts.Events {
		if ev.StartDateTime.Before(cutoff) || ev.StartDateTime.After(now) {
			continue
		}
		if len(owners) > 0 && !owners[strings.ToLower(ev.OwnerEmail)] {
			continue
		}
		for _, a := range ev.ExternalAttendees {
			report.Summary.AttendeesSeen++
			email := strings.ToLower(strings.TrimSpace(a.Email))
			domain := emailDomain(email)
			if domain == "" || e.cfg.IsInternalDomain(domain) || e.cfg.IsPersonalDomain(domain) {
				continue
			}
			s, ok := stats[email]
			if !ok {
				s = &attendeeStats{name: a.Name}
				stats[email] = s
			}
			s.count++
			if ev.StartDateTime.After(s.last) {
				s.last = ev.StartDateTime
			}
			if s.name == "" {
				s.name = a.Name
			}
		}
	}
	report.Summary.ExternalUnique = len(stats)

	// Resolve each attendee's domain to an owned account, one lookup per
	// unique domain.
	accountsByDomain := make(map[string]*AccountMatch)
	var candidates []models.MissingContact
	for email, s := range stats {
		if s.count < opts.MinMeetings {
			report.Summary.BelowMinMeetings++
			continue
		}
		domain := emailDomain(email)
		match, seen := accountsByDomain[domain]
		if !seen {
			var err error
			match, err = e.ResolveAccountByDomain(ctx, email)
			if err != nil {
				report.Summary.Errors = append(report.Summary.Errors, err.Error())
				continue
			}
			accountsByDomain[domain] = match
		}
		if match == nil {
			continue
		}
		candidates = append(candidates, models.MissingContact{
			Email:        email,
			AccountID:    match.AccountID,
			AccountName:  match.AccountName,
			MeetingCount: s.count,
			LastMeeting:  s.last,
		})
	}
	report.Summary.AccountResolved = len(candidates)

	// Chunked existence check against existing contacts.
	existing, errs := e.existingContactEmails(ctx, candidates)
	report.Summary.Errors = append(report.Summary.Errors, errs...)

	for _, c := range candidates {
		if existing[c.Email] {
			report.Summary.AlreadyInCRM++
			continue
		}
		identity := e.resolver.Resolve(ctx, c.Email, stats[c.Email].name, "")
		c.FirstName = identity.FirstName
		c.LastName = identity.LastName
		c.Title = identity.Title
		c.EnrichmentSource = identity.Source
		report.MissingContacts = append(report.MissingContacts, c)
	}
	report.Summary.MissingContacts = len(report.MissingContacts)

	sort.SliceStable(report.MissingContacts, func(i, j int) bool {
		a, b := report.MissingContacts[i], report.MissingContacts[j]
		if a.MeetingCount != b.MeetingCount {
			return a.MeetingCount > b.MeetingCount
		}
		return a.LastMeeting.After(b.LastMeeting)
	})

	return report, nil
}

// existingContactEmails checks which candidate emails already have CRM
// contacts, chunked to bound query size. Chunk failures degrade to
// best-effort partial data.
func (e *Engine) existingContactEmails(ctx context.Context, candidates []models.MissingContact) (map[string]bool, []string) {
	existing := make(map[string]bool)
	var errs []string

	emails := make([]string, 0, len(candidates))
	for _, c := range candidates {
		emails = append(emails, c.Email)
	}

	for start := 0; start < len(emails); start += e.cfg.ExistenceChunk {
		end := start + e.cfg.ExistenceChunk
		if end > len(emails) {
			end = len(emails)
		}
		contacts, err := e.store.ContactsByEmails(ctx, emails[start:end])
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		for _, c := range contacts {
			existing[c.Email] = true
		}
	}

	return existing, errs
}
