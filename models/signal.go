// ABOUTME: Signal variants unifying calendar events and notes for matching
// ABOUTME: Defines the Signal interface plus CalendarSignal and NoteSignal
package models

import "time"

// Signal is any artifact that may describe a customer meeting. The matcher
// is origin-agnostic: both calendar events and notes present the same
// surface. Signals are ephemeral and never persisted beyond one sync run.
type Signal interface {
	// Date is the meeting time the signal describes.
	Date() time.Time
	// Path is the source location, empty for calendar signals.
	Path() string
	// Title is the meeting subject or note title.
	Title() string
	// ExplicitAccountRef is an account name the author stated directly,
	// empty if none.
	ExplicitAccountRef() string
	// SignalAttendees lists known participants.
	SignalAttendees() []Attendee
	// RawText is the unstructured body available for matching.
	RawText() string
	// Frontmatter exposes source flags such as sync or private.
	Frontmatter() map[string]any
}

// CalendarSignal wraps a CalendarEvent as a Signal.
type CalendarSignal struct {
	Event CalendarEvent
}

// NewCalendarSignal builds a Signal from a parsed calendar event.
func NewCalendarSignal(ev CalendarEvent) CalendarSignal {
	return CalendarSignal{Event: ev}
}

func (s CalendarSignal) Date() time.Time { return s.Event.StartDateTime }
func (s CalendarSignal) Path() string { return "" }
func (s CalendarSignal) Title() string { return s.Event.Subject }
func (s CalendarSignal) ExplicitAccountRef() string { return s.Event.AccountName }
func (s CalendarSignal) SignalAttendees() []Attendee { return s.Event.ExternalAttendees }
func (s CalendarSignal) RawText() string { return s.Event.Subject }
func (s CalendarSignal) Frontmatter() map[string]any { return nil }

// NoteSignal wraps a NoteInfo as a Signal.
type NoteSignal struct {
	Note NoteInfo
}

// NewNoteSignal builds a Signal from a parsed note.
func NewNoteSignal(n NoteInfo) NoteSignal {
	return NoteSignal{Note: n}
}

func (s NoteSignal) Date() time.Time { return s.Note.Date }
func (s NoteSignal) Path() string { return s.Note.Path }
func (s NoteSignal) Title() string { return s.Note.Title }
func (s NoteSignal) ExplicitAccountRef() string { return s.Note.Account }
func (s NoteSignal) SignalAttendees() []Attendee { return s.Note.Attendees }
func (s NoteSignal) RawText() string { return s.Note.RawBody }
func (s NoteSignal) Frontmatter() map[string]any { return s.Note.Frontmatter }
