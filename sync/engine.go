// ABOUTME: Meeting sync orchestration from signal to CRM writes
// ABOUTME: Privacy filter, account match, contact sync, then deduped event creation
package sync

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/blsync/blsync/crm"
	"github.com/blsync/blsync/enrich"
	"github.com/blsync/blsync/models"
)

// Engine links meeting signals to CRM accounts and writes enrichment back
// exactly once per logical meeting.
type Engine struct {
	store    *crm.Store
	resolver *enrich.Resolver
	cfg      Config
}

// NewEngine creates an engine over the given CRM store and identity
// resolver. Zero config fields fall back to defaults.
func NewEngine(store *crm.Store, resolver *enrich.Resolver, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{store: store, resolver: resolver, cfg: cfg}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// BuildMatchContext assembles a match context from the CRM's owned
// accounts plus an optional window of calendar events.
func (e *Engine) BuildMatchContext(ctx context.Context, events []models.CalendarEvent, ownerEmail string) (MatchContext, error) {
	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return MatchContext{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	domains := make(map[string]string)
	for _, a := range accounts {
		if a.Domain != "" {
			domains[a.Domain] = a.ID
		}
	}

	return MatchContext{
		CalendarEvents:  events,
		OwnedAccounts:   accounts,
		DomainToAccount: domains,
		OwnerEmail:      ownerEmail,
	}, nil
}

// MatchToAccount resolves a signal against the supplied match context.
func (e *Engine) MatchToAccount(sig models.Signal, mctx MatchContext) models.MatchResult {
	return MatchToAccount(sig, mctx, e.cfg)
}

// MeetingParams describes one logical meeting to sync.
type MeetingParams struct {
	Signal  models.Signal
	Match   MatchContext
	Subject string
	Start   time.Time
	End     time.Time
	Body    string

	// AccountNote, when set, is written to the matched account as a
	// best-effort side call after the event lands.
	AccountNote string
}

// SyncMeeting runs the full pipeline for one meeting: privacy filter,
// account matching with domain fallback, contact find-or-create per
// attendee, then deduped event creation. Contact resolution completes
// before the event write because the event links the first contact.
// Per-attendee failures are recorded and never abort siblings; only total
// CRM unavailability fails the call.
func (e *Engine) SyncMeeting(ctx context.Context, p MeetingParams) (models.SyncResult, error) {
	result := models.SyncResult{RunID: newRunID()}

	if decision := ShouldSkipNote(p.Signal, p.Signal.Path()); decision.Skip {
		result.Event = models.EventOutcome{Skipped: true, Reason: decision.Reason}
		return result, nil
	}

	match := e.MatchToAccount(p.Signal, p.Match)

	// Domain fallback when no strategy produced an account.
	if !match.Matched() {
		for _, attendee := range p.Signal.SignalAttendees() {
			am, err := e.ResolveAccountByDomain(ctx, attendee.Email)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			if am != nil {
				match = models.MatchResult{
					AccountID:   am.AccountID,
					AccountName: am.AccountName,
					Confidence:  models.ConfidenceMedium,
					Method:      am.MatchMethod,
				}
				break
			}
		}
	}

	firstContactID := ""
	for _, attendee := range p.Signal.SignalAttendees() {
		outcome, err := e.FindOrCreateContact(ctx, ContactParams{
			Email:     attendee.Email,
			Name:      attendee.Name,
			AccountID: match.AccountID,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", attendee.Email, err))
			continue
		}
		switch {
		case outcome.Created:
			result.ContactsCreated = append(result.ContactsCreated, outcome)
		case outcome.Skipped:
			result.ContactsSkipped = append(result.ContactsSkipped, outcome)
		default:
			result.ContactsFound = append(result.ContactsFound, outcome)
		}
		if firstContactID == "" && outcome.ContactID != "" {
			firstContactID = outcome.ContactID
		}
	}

	subject := p.Subject
	if subject == "" {
		subject = p.Signal.Title()
	}
	start := p.Start
	if start.IsZero() {
		start = p.Signal.Date()
	}

	event, err := e.CreateEvent(ctx, EventParams{
		Subject:     subject,
		Description: p.Body,
		Start:       start,
		End:         p.End,
		ContactID:   firstContactID,
		AccountID:   match.AccountID,
	})
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}
	result.Event = event

	// Fire-and-forget account note; failures are logged, never propagated.
	if p.AccountNote != "" && match.AccountID != "" && event.Created {
		if err := e.store.AppendAccountNote(ctx, match.AccountID, p.AccountNote); err != nil {
			fmt.Printf("  ⚠ Account note for %s failed: %v\n", match.AccountName, err)
		}
	}

	return result, nil
}

var runIDEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

func newRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), runIDEntropy).String()
}
