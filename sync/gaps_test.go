// ABOUTME: Tests for contact gap analysis
// ABOUTME: Covers window and owner filters, existence checks, and sort order
package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blsync/blsync/models"
)

var gapNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func gapEvent(daysAgo int, owner string, attendees ...models.Attendee) models.CalendarEvent {
	start := gapNow.AddDate(0, 0, -daysAgo)
	return models.CalendarEvent{
		OwnerEmail:        owner,
		StartDateTime:     start,
		EndDateTime:       start.Add(time.Hour),
		Subject:           "Customer Meeting",
		ExternalAttendees: attendees,
	}
}

func TestAnalyzeContactGaps(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	conn.SeedContact("Sam", "Lee", "sam@acme.com", "", acctID)

	jane := models.Attendee{Name: "Jane Smith", Email: "jane@acme.com"}
	sam := models.Attendee{Name: "Sam Lee", Email: "sam@acme.com"}
	pat := models.Attendee{Name: "Pat Doe", Email: "pat@acme.com"}

	report, err := engine.AnalyzeContactGaps(ctx, GapOptions{
		Now: gapNow,
		Events: []models.CalendarEvent{
			gapEvent(10, "me@blsync.io", jane, sam),
			gapEvent(5, "me@blsync.io", jane),
			gapEvent(3, "me@blsync.io", jane, pat),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, report.WindowDays)
	assert.Equal(t, 3, report.Summary.ExternalUnique)
	assert.Equal(t, 1, report.Summary.AlreadyInCRM, "sam already has a contact")

	require.Len(t, report.MissingContacts, 2)
	// Sorted by meeting count descending.
	assert.Equal(t, "jane@acme.com", report.MissingContacts[0].Email)
	assert.Equal(t, 3, report.MissingContacts[0].MeetingCount)
	assert.Equal(t, "pat@acme.com", report.MissingContacts[1].Email)

	first := report.MissingContacts[0]
	assert.Equal(t, acctID, first.AccountID)
	assert.Equal(t, "Acme", first.AccountName)
	assert.Equal(t, "Jane", first.FirstName)
	assert.Equal(t, "Smith", first.LastName)
	assert.Equal(t, gapNow.AddDate(0, 0, -3), first.LastMeeting)
}

func TestAnalyzeContactGapsExcludesInternalAndPersonal(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")

	report, err := engine.AnalyzeContactGaps(ctx, GapOptions{
		Now: gapNow,
		Events: []models.CalendarEvent{
			gapEvent(5, "me@blsync.io",
				models.Attendee{Email: "colleague@blsync.io"},
				models.Attendee{Email: "friend@gmail.com"},
				models.Attendee{Email: "jane@acme.com"},
			),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Summary.AttendeesSeen)
	assert.Equal(t, 1, report.Summary.ExternalUnique)
	require.Len(t, report.MissingContacts, 1)
	assert.Equal(t, "jane@acme.com", report.MissingContacts[0].Email)
}

func TestAnalyzeContactGapsWindow(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")
	jane := models.Attendee{Email: "jane@acme.com"}

	report, err := engine.AnalyzeContactGaps(ctx, GapOptions{
		Now:        gapNow,
		WindowDays: 7,
		Events: []models.CalendarEvent{
			gapEvent(10, "me@blsync.io", jane),
			gapEvent(3, "me@blsync.io", jane),
		},
	})
	require.NoError(t, err)

	require.Len(t, report.MissingContacts, 1)
	assert.Equal(t, 1, report.MissingContacts[0].MeetingCount, "only the in-window meeting counts")
}

func TestAnalyzeContactGapsOwnerFilter(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")

	report, err := engine.AnalyzeContactGaps(ctx, GapOptions{
		Now:    gapNow,
		Owners: []string{"me@blsync.io"},
		Events: []models.CalendarEvent{
			gapEvent(5, "me@blsync.io", models.Attendee{Email: "jane@acme.com"}),
			gapEvent(5, "other@blsync.io", models.Attendee{Email: "pat@acme.com"}),
		},
	})
	require.NoError(t, err)

	require.Len(t, report.MissingContacts, 1)
	assert.Equal(t, "jane@acme.com", report.MissingContacts[0].Email)
}

func TestAnalyzeContactGapsMinMeetings(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.SeedAccount("Acme", "https://acme.com")
	jane := models.Attendee{Email: "jane@acme.com"}

	report, err := engine.AnalyzeContactGaps(ctx, GapOptions{
		Now:         gapNow,
		MinMeetings: 2,
		Events: []models.CalendarEvent{
			gapEvent(5, "me@blsync.io", jane, models.Attendee{Email: "pat@acme.com"}),
			gapEvent(3, "me@blsync.io", jane),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.BelowMinMeetings)
	require.Len(t, report.MissingContacts, 1)
	assert.Equal(t, "jane@acme.com", report.MissingContacts[0].Email)
}

func TestAnalyzeContactGapsUnresolvedDomain(t *testing.T) {
	engine, _ := testEngine(Config{})
	ctx := context.Background()

	report, err := engine.AnalyzeContactGaps(ctx, GapOptions{
		Now: gapNow,
		Events: []models.CalendarEvent{
			gapEvent(5, "me@blsync.io", models.Attendee{Email: "jane@unknowncorp.com"}),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.ExternalUnique)
	assert.Equal(t, 0, report.Summary.AccountResolved)
	assert.Empty(t, report.MissingContacts)
}

func TestAnalyzeContactGapsChunkedExistence(t *testing.T) {
	engine, conn := testEngine(Config{ExistenceChunk: 1})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	conn.SeedContact("Sam", "Lee", "sam@acme.com", "", acctID)

	report, err := engine.AnalyzeContactGaps(ctx, GapOptions{
		Now: gapNow,
		Events: []models.CalendarEvent{
			gapEvent(5, "me@blsync.io",
				models.Attendee{Email: "jane@acme.com"},
				models.Attendee{Email: "sam@acme.com"},
			),
		},
	})
	require.NoError(t, err)

	// A chunk size of one still classifies both candidates correctly.
	assert.Equal(t, 1, report.Summary.AlreadyInCRM)
	require.Len(t, report.MissingContacts, 1)
	assert.Equal(t, "jane@acme.com", report.MissingContacts[0].Email)
}

func TestAnalyzeContactGapsCRMFailureDegrades(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	conn.QueryErr = errors.New("crm down")

	report, err := engine.AnalyzeContactGaps(ctx, GapOptions{
		Now: gapNow,
		Events: []models.CalendarEvent{
			gapEvent(5, "me@blsync.io", models.Attendee{Email: "jane@acme.com"}),
		},
	})
	require.NoError(t, err, "CRM failures degrade to a partial report")

	assert.NotEmpty(t, report.Summary.Errors)
	assert.Empty(t, report.MissingContacts)
}
