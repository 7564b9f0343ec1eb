// ABOUTME: Tests for calendar event conversion
// ABOUTME: Verifies skip filters and attendee extraction
package calendar

import (
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
)

func meetingEvent() *calendar.Event {
	return &calendar.Event{
		Summary: "Acme Discovery Call",
		Status:  "confirmed",
		Start:   &calendar.EventDateTime{DateTime: "2026-01-20T14:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2026-01-20T15:00:00Z"},
		Attendees: []*calendar.EventAttendee{
			{Email: "me@blsync.io", Self: true, ResponseStatus: "accepted"},
			{Email: "Jane@Acme.com", DisplayName: "Jane Smith"},
		},
	}
}

func TestShouldSkipEvent(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*calendar.Event)
		wantSkip   bool
		wantReason string
	}{
		{"normal meeting", func(e *calendar.Event) {}, false, ""},
		{"missing start", func(e *calendar.Event) { e.Start = nil }, true, "missing start time"},
		{"all-day", func(e *calendar.Event) {
			e.Start = &calendar.EventDateTime{Date: "2026-01-20"}
		}, true, "all-day event"},
		{"cancelled", func(e *calendar.Event) { e.Status = "cancelled" }, true, "cancelled"},
		{"declined by self", func(e *calendar.Event) {
			e.Attendees[0].ResponseStatus = "declined"
		}, true, "declined"},
		{"solo", func(e *calendar.Event) {
			e.Attendees = e.Attendees[:1]
		}, true, "solo event (1 attendee)"},
		{"no attendees", func(e *calendar.Event) {
			e.Attendees = nil
		}, true, "solo event (0 attendees)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := meetingEvent()
			tt.mutate(event)

			skip, reason := ShouldSkipEvent(event, "me@blsync.io")
			if skip != tt.wantSkip {
				t.Errorf("skip = %v, want %v", skip, tt.wantSkip)
			}
			if reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestShouldSkipNilEvent(t *testing.T) {
	skip, reason := ShouldSkipEvent(nil, "me@blsync.io")
	if !skip || reason != "nil event" {
		t.Errorf("got (%v, %q), want (true, \"nil event\")", skip, reason)
	}
}

func TestConvertEvent(t *testing.T) {
	ev, reason := ConvertEvent(meetingEvent(), "Me@Blsync.io")
	if ev == nil {
		t.Fatalf("expected converted event, got skip: %s", reason)
	}

	if ev.Subject != "Acme Discovery Call" {
		t.Errorf("subject = %q", ev.Subject)
	}
	if ev.OwnerEmail != "me@blsync.io" {
		t.Errorf("owner = %q, want lowercase", ev.OwnerEmail)
	}
	wantStart := time.Date(2026, 1, 20, 14, 0, 0, 0, time.UTC)
	if !ev.StartDateTime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", ev.StartDateTime, wantStart)
	}
	if !ev.EndDateTime.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("end = %v", ev.EndDateTime)
	}

	if len(ev.ExternalAttendees) != 1 {
		t.Fatalf("attendees = %d, want 1 (owner excluded)", len(ev.ExternalAttendees))
	}
	if ev.ExternalAttendees[0].Email != "jane@acme.com" {
		t.Errorf("attendee email = %q, want lowercase", ev.ExternalAttendees[0].Email)
	}
	if ev.ExternalAttendees[0].Name != "Jane Smith" {
		t.Errorf("attendee name = %q", ev.ExternalAttendees[0].Name)
	}
}

func TestConvertEventExcludesResources(t *testing.T) {
	event := meetingEvent()
	event.Attendees = append(event.Attendees, &calendar.EventAttendee{
		Email: "room-4a@resource.calendar.google.com", Resource: true,
	})

	ev, _ := ConvertEvent(event, "me@blsync.io")
	if ev == nil {
		t.Fatal("expected converted event")
	}
	if len(ev.ExternalAttendees) != 1 {
		t.Errorf("attendees = %d, want 1 (resource excluded)", len(ev.ExternalAttendees))
	}
}

func TestConvertEventMissingEnd(t *testing.T) {
	event := meetingEvent()
	event.End = nil

	ev, _ := ConvertEvent(event, "me@blsync.io")
	if ev == nil {
		t.Fatal("expected converted event")
	}
	if !ev.EndDateTime.Equal(ev.StartDateTime.Add(time.Hour)) {
		t.Errorf("end = %v, want start + 1h", ev.EndDateTime)
	}
}

func TestConvertEventDefaultsEndOnBadParse(t *testing.T) {
	event := meetingEvent()
	event.End = &calendar.EventDateTime{DateTime: "not a time"}

	ev, _ := ConvertEvent(event, "me@blsync.io")
	if ev == nil {
		t.Fatal("expected converted event")
	}
	if !ev.EndDateTime.Equal(ev.StartDateTime.Add(time.Hour)) {
		t.Errorf("end = %v, want start + 1h", ev.EndDateTime)
	}
}
