// ABOUTME: Markdown note parsing with YAML frontmatter
// ABOUTME: Produces models.NoteInfo; date and title fall back to the filename
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blsync/blsync/models"
)

const frontmatterDelimiter = "---"

var datePrefixPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// ParseNote parses a markdown note into a NoteInfo. Frontmatter is a
// leading YAML block delimited by --- lines; a note without one is still
// valid. Date comes from the frontmatter date field, else a YYYY-MM-DD
// filename prefix; title from frontmatter, else the cleaned filename.
func ParseNote(path string, content []byte) (*models.NoteInfo, error) {
	fmBlock, body := splitFrontmatter(string(content))

	fm := map[string]any{}
	if fmBlock != "" {
		if err := yaml.Unmarshal([]byte(fmBlock), &fm); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter in %s: %w", path, err)
		}
	}

	note := &models.NoteInfo{
		Path:        path,
		RawBody:     body,
		Frontmatter: fm,
	}

	note.Title = stringField(fm, "title")
	if note.Title == "" {
		note.Title = titleFromFilename(path)
	}

	note.Date = dateField(fm, "date")
	if note.Date.IsZero() {
		note.Date = dateFromFilename(path)
	}
	if note.Date.IsZero() {
		return nil, fmt.Errorf("no date in frontmatter or filename for %s", path)
	}

	note.Account = stringField(fm, "account")
	note.Attendees = attendeeField(fm, "attendees")

	return note, nil
}

// LoadNote reads and parses a note from disk.
func LoadNote(path string) (*models.NoteInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	return ParseNote(path, content)
}

// splitFrontmatter separates a leading YAML block from the body. The
// block must start on the first line; anything else is all body.
func splitFrontmatter(content string) (fm, body string) {
	if !strings.HasPrefix(content, frontmatterDelimiter+"\n") &&
		content != frontmatterDelimiter {
		return "", content
	}

	rest := content[len(frontmatterDelimiter)+1:]
	for _, terminator := range []string{"\n" + frontmatterDelimiter + "\n", "\n" + frontmatterDelimiter} {
		if idx := strings.Index(rest, terminator); idx >= 0 {
			return rest[:idx], strings.TrimPrefix(rest[idx+len(terminator):], "\n")
		}
	}
	// Unterminated block; treat the whole file as body.
	return "", content
}

func stringField(fm map[string]any, key string) string {
	if v, ok := fm[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// dateField handles both fm dates parsed by YAML into time.Time and
// plain date strings.
func dateField(fm map[string]any, key string) time.Time {
	switch v := fm[key].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{"2006-01-02T15:04:05Z07:00", "2006-01-02 15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func dateFromFilename(path string) time.Time {
	m := datePrefixPattern.FindString(filepath.Base(path))
	if m == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", m)
	if err != nil {
		return time.Time{}
	}
	return t
}

// titleFromFilename strips the extension and any leading date prefix.
func titleFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = datePrefixPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(strings.TrimLeft(name, " -_"))
}

// attendeeField accepts a YAML list of either plain strings like
// "Jane Smith <jane@acme.com>" (or a bare email) or name/email maps.
func attendeeField(fm map[string]any, key string) []models.Attendee {
	list, ok := fm[key].([]any)
	if !ok {
		return nil
	}

	var attendees []models.Attendee
	for _, item := range list {
		switch v := item.(type) {
		case string:
			if a, ok := parseAttendeeString(v); ok {
				attendees = append(attendees, a)
			}
		case map[string]any:
			a := models.Attendee{
				Name:  stringField(v, "name"),
				Email: strings.ToLower(stringField(v, "email")),
			}
			if a.Email != "" || a.Name != "" {
				attendees = append(attendees, a)
			}
		}
	}
	return attendees
}

// parseAttendeeString handles "Name <email>", bare emails, and bare names.
func parseAttendeeString(s string) (models.Attendee, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Attendee{}, false
	}

	if open := strings.Index(s, "<"); open >= 0 {
		end := strings.Index(s[open:], ">")
		if end > 0 {
			return models.Attendee{
				Name:  strings.TrimSpace(s[:open]),
				Email: strings.ToLower(strings.TrimSpace(s[open+1 : open+end])),
			}, true
		}
	}
	if strings.Contains(s, "@") {
		return models.Attendee{Email: strings.ToLower(s)}, true
	}
	return models.Attendee{Name: s}, true
}
