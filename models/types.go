// ABOUTME: Data models for CRM entities and sync outcomes
// ABOUTME: Defines Account, Contact, MatchResult, SyncResult, GapReport and friends
package models

import "time"

// Account is a CRM account. Owned by the CRM; read-only to this engine.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

// Contact is a CRM contact. AccountID is never empty for contacts this
// engine creates; an orphan contact is a forbidden state.
type Contact struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Title     string `json:"title,omitempty"`
	AccountID string `json:"account_id"`
}

// Attendee is a meeting participant as reported by a signal source.
type Attendee struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// EnrichmentRecord holds third-party identity data for a person,
// keyed by lowercase email.
type EnrichmentRecord struct {
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	Title       string    `json:"title,omitempty"`
	Company     string    `json:"company,omitempty"`
	LinkedInURL string    `json:"linkedin_url,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Confidence tiers for account matching.
const (
	ConfidenceNone   = 0.0
	ConfidenceLow    = 0.3
	ConfidenceMedium = 0.6
	ConfidenceHigh   = 0.9
)

// Match method names.
const (
	MethodNone            = "none"
	MethodExplicitRef     = "explicit_ref"
	MethodCalendarMatch   = "calendar_match"
	MethodFolderStructure = "folder_structure"
	MethodEmailDomain     = "email_domain"
	MethodKeywordMatch    = "keyword_match"
)

// MatchResult is the outcome of resolving a signal to an account.
// Confidence is 0 when no account could be resolved.
type MatchResult struct {
	AccountID   string  `json:"account_id,omitempty"`
	AccountName string  `json:"account_name,omitempty"`
	Confidence  float64 `json:"confidence"`
	Method      string  `json:"method"`
}

// Matched reports whether the result carries a resolved account.
func (m MatchResult) Matched() bool {
	return m.AccountID != "" && m.Confidence > 0
}

// ContactOutcome is the per-attendee result of contact sync.
type ContactOutcome struct {
	Email     string `json:"email"`
	ContactID string `json:"contact_id,omitempty"`
	Created   bool   `json:"created"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
}

// EventOutcome is the result of event sync for one meeting.
type EventOutcome struct {
	ID      string `json:"id,omitempty"`
	Created bool   `json:"created"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// SyncResult is the per-meeting outcome of a full sync pass.
type SyncResult struct {
	RunID           string           `json:"run_id"`
	ContactsCreated []ContactOutcome `json:"contacts_created"`
	ContactsFound   []ContactOutcome `json:"contacts_found"`
	ContactsSkipped []ContactOutcome `json:"contacts_skipped"`
	Event           EventOutcome     `json:"event"`
	Errors          []string         `json:"errors,omitempty"`
}

// MissingContact is one row of a gap report: an external attendee seen in
// meetings who has no CRM contact yet.
type MissingContact struct {
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Title            string    `json:"title,omitempty"`
	AccountID        string    `json:"account_id"`
	AccountName      string    `json:"account_name"`
	MeetingCount     int       `json:"meeting_count"`
	LastMeeting      time.Time `json:"last_meeting"`
	EnrichmentSource string    `json:"enrichment_source,omitempty"`
}

// GapSummary carries aggregate counts for a gap report.
type GapSummary struct {
	AttendeesSeen    int      `json:"attendees_seen"`
	ExternalUnique   int      `json:"external_unique"`
	AccountResolved  int      `json:"account_resolved"`
	AlreadyInCRM     int      `json:"already_in_crm"`
	MissingContacts  int      `json:"missing_contacts"`
	BelowMinMeetings int      `json:"below_min_meetings"`
	Errors           []string `json:"errors,omitempty"`
}

// GapReport is regenerated on demand and never persisted.
type GapReport struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	WindowDays      int              `json:"window_days"`
	Summary         GapSummary       `json:"summary"`
	MissingContacts []MissingContact `json:"missing_contacts"`
}

// BatchResult is the per-item outcome of a batch contact creation.
type BatchResult struct {
	DryRun  bool             `json:"dry_run"`
	Created []ContactOutcome `json:"created"`
	Skipped []ContactOutcome `json:"skipped"`
	Failed  []ContactOutcome `json:"failed"`
}

// CalendarEvent is the parsed shape emitted by the calendar source.
type CalendarEvent struct {
	OwnerEmail        string     `json:"owner_email"`
	StartDateTime     time.Time  `json:"start_date_time"`
	EndDateTime       time.Time  `json:"end_date_time"`
	Subject           string     `json:"subject"`
	AccountID         string     `json:"account_id,omitempty"`
	AccountName       string     `json:"account_name,omitempty"`
	ExternalAttendees []Attendee `json:"external_attendees"`
}

// NoteInfo is the parsed shape emitted by the note source.
type NoteInfo struct {
	Path        string         `json:"path"`
	Date        time.Time      `json:"date"`
	Title       string         `json:"title"`
	Account     string         `json:"account,omitempty"`
	Attendees   []Attendee     `json:"attendees"`
	RawBody     string         `json:"raw_body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}
