// ABOUTME: CRM connector interface and record primitives
// ABOUTME: Defines the query/create/update surface consumed by the sync engine
package crm

import (
	"context"
	"strings"
	"time"
)

// Object type names in the CRM.
const (
	ObjectAccount = "Account"
	ObjectContact = "Contact"
	ObjectEvent   = "Event"
)

// Record is a single row returned by a CRM query.
type Record map[string]any

// Str returns a string field, empty if absent or not a string.
func (r Record) Str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Time returns a datetime field parsed from RFC 3339, zero if absent
// or malformed.
func (r Record) Time(key string) time.Time {
	s := r.Str(key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SaveResult is the outcome of a create or update call.
type SaveResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

// Connector is the raw CRM surface. Implementations never issue deletes.
type Connector interface {
	Query(ctx context.Context, soql string) ([]Record, error)
	Create(ctx context.Context, objType string, fields map[string]any) (SaveResult, error)
	Update(ctx context.Context, objType, id string, fields map[string]any) (SaveResult, error)
}

// EscapeSOQL escapes a string literal for inclusion in a SOQL query.
func EscapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// FormatDateTime renders a time as a SOQL datetime literal.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
