// ABOUTME: End-to-end tests for the meeting sync pipeline
// ABOUTME: Covers idempotent re-sync, privacy short-circuit, and failure isolation
package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blsync/blsync/crm"
	"github.com/blsync/blsync/models"
)

func meetingNote(attendees ...models.Attendee) models.Signal {
	return models.NewNoteSignal(models.NoteInfo{
		Path:      "Meetings/2026-01-20 Acme Discovery Call.md",
		Date:      dedupStart,
		Title:     "Acme Discovery Call",
		Attendees: attendees,
		RawBody:   "Walked through the rollout plan.",
	})
}

func TestSyncMeetingHappyPath(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	sig := meetingNote(models.Attendee{Name: "Jane Smith", Email: "jane@acme.com"})

	result, err := engine.SyncMeeting(ctx, MeetingParams{Signal: sig})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.ContactsCreated, 1)
	assert.Equal(t, "jane@acme.com", result.ContactsCreated[0].Email)
	assert.True(t, result.Event.Created)
	assert.Empty(t, result.Errors)

	contacts := conn.Records(crm.ObjectContact)
	require.Len(t, contacts, 1)
	assert.Equal(t, acctID, contacts[0].Str("AccountId"))

	events := conn.Records(crm.ObjectEvent)
	require.Len(t, events, 1)
	assert.Equal(t, "Acme Discovery Call", events[0].Str("Subject"))
	assert.Equal(t, result.ContactsCreated[0].ContactID, events[0].Str("WhoId"))
	assert.Equal(t, acctID, events[0].Str("WhatId"))
}

func TestSyncMeetingIdempotent(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")
	sig := meetingNote(models.Attendee{Name: "Jane Smith", Email: "jane@acme.com"})
	params := MeetingParams{Signal: sig}

	first, err := engine.SyncMeeting(ctx, params)
	require.NoError(t, err)
	require.True(t, first.Event.Created)

	second, err := engine.SyncMeeting(ctx, params)
	require.NoError(t, err)

	// The re-run finds the contact instead of creating it and the event
	// dedups against the first write.
	assert.Empty(t, second.ContactsCreated)
	require.Len(t, second.ContactsFound, 1)
	assert.True(t, second.Event.Skipped)
	assert.Equal(t, ReasonDuplicateEvent, second.Event.Reason)
	assert.Equal(t, first.Event.ID, second.Event.ID)

	assert.Len(t, conn.Records(crm.ObjectContact), 1)
	assert.Len(t, conn.Records(crm.ObjectEvent), 1)
}

func TestSyncMeetingPrivacySkipBlocksAllWrites(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")
	sig := models.NewNoteSignal(models.NoteInfo{
		Path:        "Meetings/2026-01-20 Acme Discovery Call.md",
		Date:        dedupStart,
		Title:       "Acme Discovery Call",
		Attendees:   []models.Attendee{{Email: "jane@acme.com"}},
		Frontmatter: map[string]any{"sync": false},
	})
	queriesBefore := conn.QueryCount

	result, err := engine.SyncMeeting(ctx, MeetingParams{Signal: sig})
	require.NoError(t, err)

	assert.True(t, result.Event.Skipped)
	assert.NotEmpty(t, result.Event.Reason)
	assert.Empty(t, result.ContactsCreated)
	assert.Equal(t, 0, conn.CreateCount)
	assert.Equal(t, queriesBefore, conn.QueryCount, "a privacy skip must not touch the CRM")
}

func TestSyncMeetingSiblingIsolation(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")
	sig := meetingNote(
		models.Attendee{Name: "Colleague", Email: "colleague@blsync.io"},
		models.Attendee{Name: "Jane Smith", Email: "jane@acme.com"},
	)

	result, err := engine.SyncMeeting(ctx, MeetingParams{Signal: sig})
	require.NoError(t, err)

	require.Len(t, result.ContactsSkipped, 1)
	assert.Equal(t, ReasonInternalDomain, result.ContactsSkipped[0].Reason)
	require.Len(t, result.ContactsCreated, 1)
	assert.Equal(t, "jane@acme.com", result.ContactsCreated[0].Email)
	assert.True(t, result.Event.Created)
}

func TestSyncMeetingAccountNote(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	sig := meetingNote(models.Attendee{Name: "Jane Smith", Email: "jane@acme.com"})

	result, err := engine.SyncMeeting(ctx, MeetingParams{
		Signal:      sig,
		AccountNote: "Synced meeting 2026-01-20",
	})
	require.NoError(t, err)
	require.True(t, result.Event.Created)

	accounts := conn.Records(crm.ObjectAccount)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Synced meeting 2026-01-20", accounts[0].Str("Description"))
	assert.Equal(t, acctID, accounts[0].Str("Id"))
}

func TestSyncMeetingAccountNoteFailureIsSwallowed(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")
	conn.UpdateErr = errors.New("account locked")
	sig := meetingNote(models.Attendee{Name: "Jane Smith", Email: "jane@acme.com"})

	result, err := engine.SyncMeeting(ctx, MeetingParams{
		Signal:      sig,
		AccountNote: "Synced meeting",
	})
	require.NoError(t, err, "a note failure must not fail the sync")
	assert.True(t, result.Event.Created)
}

func TestSyncMeetingUnresolvedAccount(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	// No accounts at all; the attendee skips as a would-be orphan but the
	// event still lands, unlinked to any account.
	sig := meetingNote(models.Attendee{Name: "Jane Smith", Email: "jane@unknowncorp.com"})

	result, err := engine.SyncMeeting(ctx, MeetingParams{Signal: sig})
	require.NoError(t, err)

	require.Len(t, result.ContactsSkipped, 1)
	assert.Equal(t, ReasonNoOrphanContact, result.ContactsSkipped[0].Reason)
	assert.True(t, result.Event.Created)

	events := conn.Records(crm.ObjectEvent)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Str("WhoId"))
	assert.Empty(t, events[0].Str("WhatId"))
}

func TestSyncMeetingUnresolvedIsIdempotent(t *testing.T) {
	// Re-syncing a meeting that resolves to no account and no contact
	// must not stack up unlinked events.
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	sig := meetingNote(models.Attendee{Name: "Pat", Email: "pat@gmail.com"})

	first, err := engine.SyncMeeting(ctx, MeetingParams{Signal: sig})
	require.NoError(t, err)
	require.True(t, first.Event.Created)

	second, err := engine.SyncMeeting(ctx, MeetingParams{Signal: sig})
	require.NoError(t, err)

	assert.True(t, second.Event.Skipped)
	assert.Equal(t, ReasonDuplicateEvent, second.Event.Reason)
	assert.Equal(t, first.Event.ID, second.Event.ID)
	require.Len(t, conn.Records(crm.ObjectEvent), 1)
}

func TestSyncMeetingExplicitTimes(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")
	sig := meetingNote(models.Attendee{Name: "Jane Smith", Email: "jane@acme.com"})
	start := dedupStart.Add(3 * time.Hour)

	result, err := engine.SyncMeeting(ctx, MeetingParams{
		Signal:  sig,
		Subject: "Acme Rollout Review",
		Start:   start,
		End:     start.Add(45 * time.Minute),
	})
	require.NoError(t, err)
	require.True(t, result.Event.Created)

	events := conn.Records(crm.ObjectEvent)
	require.Len(t, events, 1)
	assert.Equal(t, "Acme Rollout Review", events[0].Str("Subject"))
	assert.Equal(t, crm.FormatDateTime(start), events[0].Str("StartDateTime"))
	assert.Equal(t, crm.FormatDateTime(start.Add(45*time.Minute)), events[0].Str("EndDateTime"))
}
