// ABOUTME: Calendar event importer from Google Calendar API
// ABOUTME: Converts API events to meeting signals, with pagination and skip filters
package calendar

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/blsync/blsync/models"
)

const maxResults = 250 // Google Calendar API max per page

// ShouldSkipEvent determines if a calendar event should be skipped.
// Returns (true, reason) if the event should be skipped, (false, "") otherwise.
func ShouldSkipEvent(event *calendar.Event, ownerEmail string) (bool, string) {
	if event == nil {
		return true, "nil event"
	}
	if event.Start == nil {
		return true, "missing start time"
	}

	// All-day events set Start.Date instead of DateTime.
	if event.Start.Date != "" {
		return true, "all-day event"
	}

	if event.Status == "cancelled" {
		return true, "cancelled"
	}

	// Skip events the owner declined.
	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return true, "declined"
		}
	}

	// Skip solo events (0 or 1 attendees).
	attendeeCount := len(event.Attendees)
	if attendeeCount <= 1 {
		return true, fmt.Sprintf("solo event (%d attendee%s)", attendeeCount, pluralize(attendeeCount))
	}

	return false, ""
}

// pluralize returns "s" if count != 1, otherwise ""
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

// ConvertEvent converts an API event to a meeting signal. Returns nil
// with a reason when the event is skipped. Attendees exclude the owner
// and meeting-room resources; internal colleagues are filtered
// downstream by the sync engine.
func ConvertEvent(event *calendar.Event, ownerEmail string) (*models.CalendarEvent, string) {
	if skip, reason := ShouldSkipEvent(event, ownerEmail); skip {
		return nil, reason
	}

	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return nil, "unparseable start time"
	}
	end := start.Add(time.Hour)
	if event.End != nil && event.End.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
			end = t
		}
	}

	ev := &models.CalendarEvent{
		OwnerEmail:    strings.ToLower(ownerEmail),
		StartDateTime: start,
		EndDateTime:   end,
		Subject:       event.Summary,
	}

	for _, a := range event.Attendees {
		if a.Self || a.Resource {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if email == "" || email == ev.OwnerEmail {
			continue
		}
		ev.ExternalAttendees = append(ev.ExternalAttendees, models.Attendee{
			Name:  a.DisplayName,
			Email: email,
		})
	}

	return ev, ""
}

// FetchWindow fetches the owner's primary-calendar events for the last
// N days, converting as it pages. Skipped events are counted and
// summarized, matching the importer's progress output.
func FetchWindow(svc *calendar.Service, ownerEmail string, days int) ([]models.CalendarEvent, error) {
	if days <= 0 {
		days = 30
	}
	now := time.Now()

	call := svc.Events.List("primary").
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(now.AddDate(0, 0, -days).Format(time.RFC3339)).
		TimeMax(now.Format(time.RFC3339))

	var converted []models.CalendarEvent
	skipCounts := make(map[string]int)
	totalEvents := 0
	pageToken := ""

	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
		}

		eventCount := len(events.Items)
		totalEvents += eventCount
		if eventCount > 0 {
			pageNum := (totalEvents-eventCount)/maxResults + 1
			fmt.Printf("  → Fetched %d events (page %d)\n", eventCount, pageNum)
		}

		for _, event := range events.Items {
			ev, reason := ConvertEvent(event, ownerEmail)
			if ev == nil {
				skipCounts[reason]++
				continue
			}
			converted = append(converted, *ev)
		}

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	fmt.Printf("\n✓ Fetched %d events, %d usable\n", totalEvents, len(converted))
	if len(skipCounts) > 0 {
		for reason, count := range skipCounts {
			fmt.Printf("  → Skipped %d: %s\n", count, reason)
		}
	}

	return converted, nil
}
