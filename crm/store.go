// ABOUTME: Typed CRM accessors built on the raw connector
// ABOUTME: Maps Account, Contact and Event records to and from query/create calls
package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blsync/blsync/models"
)

const (
	contactFields = "Id, FirstName, LastName, Email, Title, AccountId"
	accountFields = "Id, Name, Website"
	eventFields   = "Id, Subject, StartDateTime, EndDateTime, WhoId, WhatId"
)

// Event is a CRM meeting event. WhoID links a contact, WhatID an account.
type Event struct {
	ID            string    `json:"id"`
	Subject       string    `json:"subject"`
	Description   string    `json:"description,omitempty"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	WhoID         string    `json:"who_id,omitempty"`
	WhatID        string    `json:"what_id,omitempty"`
}

// Store wraps a Connector with typed accessors for the objects the sync
// engine touches.
type Store struct {
	conn Connector
}

// NewStore creates a Store over the given connector.
func NewStore(conn Connector) *Store {
	return &Store{conn: conn}
}

// Connector exposes the underlying raw connector.
func (s *Store) Connector() Connector {
	return s.conn
}

// ListAccounts returns all accounts visible to the connector.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	records, err := s.conn.Query(ctx, fmt.Sprintf("SELECT %s FROM Account", accountFields))
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	accounts := make([]models.Account, 0, len(records))
	for _, r := range records {
		accounts = append(accounts, recordToAccount(r))
	}
	return accounts, nil
}

// AccountByWebsiteDomain finds an account whose canonical web domain
// matches the given email domain. Returns nil when no account matches.
func (s *Store) AccountByWebsiteDomain(ctx context.Context, domain string) (*models.Account, error) {
	soql := fmt.Sprintf("SELECT %s FROM Account WHERE Website LIKE '%%%s%%' LIMIT 10",
		accountFields, EscapeSOQL(domain))
	records, err := s.conn.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by domain: %w", err)
	}
	// LIKE is a substring match; confirm the domain component exactly so
	// acme.com never matches notacme.com.
	for _, r := range records {
		acct := recordToAccount(r)
		if websiteDomain(acct.Domain) == domain {
			return &acct, nil
		}
	}
	return nil, nil
}

// ContactByEmail returns the contact with the given email, nil if none.
func (s *Store) ContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	soql := fmt.Sprintf("SELECT %s FROM Contact WHERE Email = '%s' LIMIT 1",
		contactFields, EscapeSOQL(strings.ToLower(email)))
	records, err := s.conn.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact by email: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	contact := recordToContact(records[0])
	return &contact, nil
}

// ContactsByEmails returns existing contacts for any of the given emails.
// Callers chunk the list; this issues a single IN query.
func (s *Store) ContactsByEmails(ctx context.Context, emails []string) ([]models.Contact, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	quoted := make([]string, 0, len(emails))
	for _, e := range emails {
		quoted = append(quoted, "'"+EscapeSOQL(strings.ToLower(e))+"'")
	}
	soql := fmt.Sprintf("SELECT %s FROM Contact WHERE Email IN (%s)",
		contactFields, strings.Join(quoted, ", "))
	records, err := s.conn.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts by emails: %w", err)
	}
	contacts := make([]models.Contact, 0, len(records))
	for _, r := range records {
		contacts = append(contacts, recordToContact(r))
	}
	return contacts, nil
}

// ContactsByEmailDomain returns contacts whose email ends in @domain.
func (s *Store) ContactsByEmailDomain(ctx context.Context, domain string) ([]models.Contact, error) {
	soql := fmt.Sprintf("SELECT %s FROM Contact WHERE Email LIKE '%%@%s' LIMIT 25",
		contactFields, EscapeSOQL(domain))
	records, err := s.conn.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts by domain: %w", err)
	}
	contacts := make([]models.Contact, 0, len(records))
	for _, r := range records {
		contacts = append(contacts, recordToContact(r))
	}
	return contacts, nil
}

// CreateContact writes a new contact and returns its CRM id.
func (s *Store) CreateContact(ctx context.Context, c models.Contact) (string, error) {
	fields := map[string]any{
		"FirstName": c.FirstName,
		"LastName":  c.LastName,
		"Email":     strings.ToLower(c.Email),
		"AccountId": c.AccountID,
	}
	if c.Title != "" {
		fields["Title"] = c.Title
	}
	result, err := s.conn.Create(ctx, ObjectContact, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create contact: %w", err)
	}
	if !result.Success {
		return "", fmt.Errorf("contact create rejected by CRM")
	}
	return result.ID, nil
}

// EventsBetween returns events starting within [from, to].
func (s *Store) EventsBetween(ctx context.Context, from, to time.Time) ([]Event, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Event WHERE StartDateTime >= %s AND StartDateTime <= %s",
		eventFields, FormatDateTime(from), FormatDateTime(to))
	records, err := s.conn.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	events := make([]Event, 0, len(records))
	for _, r := range records {
		events = append(events, recordToEvent(r))
	}
	return events, nil
}

// CreateEvent writes a new meeting event and returns its CRM id.
func (s *Store) CreateEvent(ctx context.Context, e Event) (string, error) {
	fields := map[string]any{
		"Subject":       e.Subject,
		"StartDateTime": FormatDateTime(e.StartDateTime),
		"EndDateTime":   FormatDateTime(e.EndDateTime),
	}
	if e.Description != "" {
		fields["Description"] = e.Description
	}
	if e.WhoID != "" {
		fields["WhoId"] = e.WhoID
	}
	if e.WhatID != "" {
		fields["WhatId"] = e.WhatID
	}
	result, err := s.conn.Create(ctx, ObjectEvent, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	if !result.Success {
		return "", fmt.Errorf("event create rejected by CRM")
	}
	return result.ID, nil
}

// AppendAccountNote updates an account's description field. Best-effort
// side write; callers log and swallow failures.
func (s *Store) AppendAccountNote(ctx context.Context, accountID, note string) error {
	result, err := s.conn.Update(ctx, ObjectAccount, accountID, map[string]any{
		"Description": note,
	})
	if err != nil {
		return fmt.Errorf("failed to update account note: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("account note update rejected by CRM")
	}
	return nil
}

func recordToAccount(r Record) models.Account {
	return models.Account{
		ID:     r.Str("Id"),
		Name:   r.Str("Name"),
		Domain: websiteDomain(r.Str("Website")),
	}
}

func recordToContact(r Record) models.Contact {
	return models.Contact{
		ID:        r.Str("Id"),
		FirstName: r.Str("FirstName"),
		LastName:  r.Str("LastName"),
		Email:     strings.ToLower(r.Str("Email")),
		Title:     r.Str("Title"),
		AccountID: r.Str("AccountId"),
	}
}

func recordToEvent(r Record) Event {
	return Event{
		ID:            r.Str("Id"),
		Subject:       r.Str("Subject"),
		StartDateTime: r.Time("StartDateTime"),
		EndDateTime:   r.Time("EndDateTime"),
		WhoID:         r.Str("WhoId"),
		WhatID:        r.Str("WhatId"),
	}
}

// websiteDomain normalizes a Website field value to a bare domain.
func websiteDomain(website string) string {
	d := strings.TrimSpace(strings.ToLower(website))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}
