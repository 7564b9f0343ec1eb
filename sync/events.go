// ABOUTME: Meeting event creation with dedup-before-write
// ABOUTME: Searches a window around the start time so repeated syncs are no-ops
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blsync/blsync/crm"
	"github.com/blsync/blsync/models"
)

// ReasonDuplicateEvent marks an event skipped because an equivalent one
// already exists in the dedup window.
const ReasonDuplicateEvent = "duplicate_event"

// EventParams describes one meeting event to create.
type EventParams struct {
	Subject     string
	Description string
	Start       time.Time
	End         time.Time
	ContactID   string
	AccountID   string

	// SkipDedupCheck bypasses the duplicate search. Only explicit callers
	// set it; the default path always reads before writing.
	SkipDedupCheck bool
}

// CreateEvent writes a meeting event, preceded by a dedup read over the
// configured window. A duplicate returns the existing event's id tagged
// as skipped instead of writing again.
func (e *Engine) CreateEvent(ctx context.Context, p EventParams) (models.EventOutcome, error) {
	if p.End.Before(p.Start) || p.End.Equal(p.Start) {
		p.End = p.Start.Add(time.Hour)
	}

	if !p.SkipDedupCheck {
		existing, err := e.findDuplicateEvent(ctx, p)
		if err != nil {
			return models.EventOutcome{}, fmt.Errorf("event dedup check failed: %w", err)
		}
		if existing != nil {
			return models.EventOutcome{
				ID:      existing.ID,
				Skipped: true,
				Reason:  ReasonDuplicateEvent,
			}, nil
		}
	}

	id, err := e.store.CreateEvent(ctx, crm.Event{
		Subject:       p.Subject,
		Description:   p.Description,
		StartDateTime: p.Start,
		EndDateTime:   p.End,
		WhoID:         p.ContactID,
		WhatID:        p.AccountID,
	})
	if err != nil {
		return models.EventOutcome{}, fmt.Errorf("event create failed: %w", err)
	}

	return models.EventOutcome{ID: id, Created: true}, nil
}

// findDuplicateEvent looks for an event in the dedup window matching the
// same contact (preferred) or account, with a similar subject. Events
// with no contact or account link dedup on subject alone, so re-syncing
// an unmatched meeting stays idempotent.
func (e *Engine) findDuplicateEvent(ctx context.Context, p EventParams) (*crm.Event, error) {
	events, err := e.store.EventsBetween(ctx,
		p.Start.Add(-e.cfg.EventDedupWindow), p.Start.Add(e.cfg.EventDedupWindow))
	if err != nil {
		return nil, err
	}

	for i := range events {
		ev := &events[i]
		switch {
		case p.ContactID != "" && ev.WhoID == p.ContactID:
		case p.AccountID != "" && ev.WhatID == p.AccountID:
		case p.ContactID == "" && p.AccountID == "":
		default:
			continue
		}
		if subjectPrefixMatch(ev.Subject, p.Subject) {
			return ev, nil
		}
	}
	return nil, nil
}

// subjectPrefixMatch compares the first three words of two subjects,
// case-insensitively.
func subjectPrefixMatch(a, b string) bool {
	return subjectPrefix(a) == subjectPrefix(b)
}

func subjectPrefix(subject string) string {
	words := strings.Fields(strings.ToLower(subject))
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}
