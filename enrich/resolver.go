// ABOUTME: Identity enrichment resolver with source cascade
// ABOUTME: Resolves name/title/company via cache, supplied data, then email heuristics
package enrich

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/blsync/blsync/ai"
	"github.com/blsync/blsync/models"
)

// Enrichment source names, in cascade order.
const (
	SourceCache      = "cache"
	SourceProvided   = "provided"
	SourceEmailParse = "email_parse"
	SourceAI         = "ai_enrichment"
)

const minSummaryLen = 30

// Identity is a resolved person identity for contact creation.
type Identity struct {
	FirstName string
	LastName  string
	Title     string
	Company   string
	Source    string
}

// FullName joins first and last name.
func (id Identity) FullName() string {
	return strings.TrimSpace(id.FirstName + " " + id.LastName)
}

// Resolver resolves person identities. The cache, AI provider, and guard
// are all optional; a nil cache or provider simply shortens the cascade.
type Resolver struct {
	cache    *Cache
	provider ai.Provider
	guard    *ai.UsageGuard
}

// NewResolver creates a resolver over the given sources.
func NewResolver(cache *Cache, provider ai.Provider, guard *ai.UsageGuard) *Resolver {
	return &Resolver{cache: cache, provider: provider, guard: guard}
}

// Resolve produces an identity for an email using the field cascade:
// cached record, then explicitly supplied data, then a heuristic parse of
// the email local part. Resolution never fails; the weakest outcome is a
// capitalized local part with last name "Unknown".
func (r *Resolver) Resolve(ctx context.Context, email, suppliedName, suppliedTitle string) Identity {
	var cached *models.EnrichmentRecord
	if r.cache != nil {
		// A cache read failure is a cache miss.
		cached, _ = r.cache.Get(ctx, email)
	}

	var name, source string
	switch {
	case cached != nil && cached.Name != "":
		name, source = cached.Name, SourceCache
	case strings.TrimSpace(suppliedName) != "":
		name, source = suppliedName, SourceProvided
	default:
		first, last := ParseNameFromEmail(email)
		name, source = first+" "+last, SourceEmailParse
	}

	first, last := SplitName(CleanPersonName(name))

	title := ""
	switch {
	case cached != nil && cached.Title != "":
		title = cached.Title
	case strings.TrimSpace(suppliedTitle) != "":
		title = strings.TrimSpace(suppliedTitle)
	}

	company := ""
	if cached != nil {
		company = cached.Company
	}

	return Identity{
		FirstName: first,
		LastName:  last,
		Title:     title,
		Company:   company,
		Source:    source,
	}
}

// AIEnrichment is the outcome of a metered enrichment call.
type AIEnrichment struct {
	Record      *models.EnrichmentRecord
	RateLimited bool
	Status      ai.RateLimitStatus
}

// EnrichWithAI runs a metered AI enrichment for an email given raw meeting
// context. Rate-limit exhaustion is a structured result, not an error; AI
// failures return an error so callers degrade to the heuristic cascade.
func (r *Resolver) EnrichWithAI(ctx context.Context, email, rawContext string) (AIEnrichment, error) {
	if r.provider == nil || r.guard == nil {
		return AIEnrichment{}, fmt.Errorf("no AI provider configured")
	}

	status := r.guard.CheckRateLimit()
	if !status.Allowed {
		return AIEnrichment{RateLimited: true, Status: status}, nil
	}

	input, err := r.guard.PrepareInput(rawContext)
	if err != nil {
		return AIEnrichment{Status: status}, err
	}

	text, err := r.provider.Complete(ctx, buildEnrichmentPrompt(email, input))
	if err != nil {
		return AIEnrichment{Status: status}, fmt.Errorf("enrichment call failed: %w", err)
	}
	r.guard.RecordUsage()

	sections := SectionMap(text)
	name := CleanPersonName(sections["NAME"])
	summary := ValidateSummary(CleanSummary(sections["SUMMARY"], name))

	record := models.EnrichmentRecord{
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Name:        name,
		Title:       strings.TrimSpace(sections["TITLE"]),
		Company:     strings.TrimSpace(sections["COMPANY"]),
		LinkedInURL: strings.TrimSpace(sections["LINKEDIN"]),
		Summary:     summary,
		Source:      SourceAI,
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, record); err != nil {
			fmt.Printf("  ⚠ Failed to cache enrichment for %s: %v\n", record.Email, err)
		}
	}

	return AIEnrichment{Record: &record, Status: r.guard.CheckRateLimit()}, nil
}

func buildEnrichmentPrompt(email, input string) string {
	return fmt.Sprintf(`Identify the person behind the email address %s from the meeting context below.
Respond with exactly these sections, each header on its own line:

NAME
TITLE
COMPANY
LINKEDIN
SUMMARY

Leave a section empty if the context does not support it. Do not guess.

Context:
%s`, email, input)
}

var (
	emailSeparators = regexp.MustCompile(`[._-]+`)
	digitsOnly      = regexp.MustCompile(`^[0-9]+$`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
	camelBoundary   = regexp.MustCompile(`([a-z])([A-Z])`)
)

// Common given names used for the prefix scan over bare local parts.
var knownFirstNames = []string{
	"alexander", "christopher", "jennifer", "jonathan", "katherine", "margaret",
	"nicholas", "stephanie", "victoria", "benjamin", "caroline", "danielle",
	"matthew", "michelle", "patricia", "rebecca", "richard", "samantha",
	"william", "andrew", "ashley", "brandon", "daniel", "edward", "hannah",
	"jessica", "joseph", "joshua", "lauren", "melissa", "michael", "natalie",
	"rachel", "robert", "sarah", "steven", "thomas", "amanda", "brian",
	"david", "emily", "james", "jason", "kevin", "laura", "maria", "megan",
	"peter", "scott", "susan", "alex", "anna", "chris", "jane", "john",
	"julie", "karen", "lisa", "mark", "mike", "paul", "ryan", "tom", "amy",
}

// ParseNameFromEmail heuristically derives a first/last name from an email
// local part. Recognizes first.last, first_last, first-last, camelCase,
// and a known-first-name prefix; falls back to the capitalized local part
// with last name "Unknown".
func ParseNameFromEmail(email string) (string, string) {
	local := strings.TrimSpace(strings.ToLower(email))
	if i := strings.IndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}
	if i := strings.IndexByte(local, '+'); i >= 0 {
		local = local[:i]
	}
	if local == "" {
		return "Unknown", "Unknown"
	}

	// Separator forms: first.last, first_last, first-last.
	if tokens := splitNameTokens(local); len(tokens) >= 2 {
		return capitalize(tokens[0]), capitalize(tokens[len(tokens)-1])
	}

	// camelCase on the original casing.
	original := strings.TrimSpace(email)
	if i := strings.IndexByte(original, '@'); i >= 0 {
		original = original[:i]
	}
	if spaced := camelBoundary.ReplaceAllString(original, "$1 $2"); spaced != original {
		tokens := strings.Fields(strings.ToLower(spaced))
		if len(tokens) >= 2 {
			return capitalize(tokens[0]), capitalize(tokens[len(tokens)-1])
		}
	}

	// Known-first-name prefix over a bare local part like "janedoe".
	for _, first := range knownFirstNames {
		rest, ok := strings.CutPrefix(local, first)
		if ok && len(rest) >= 2 && !hasDigit.MatchString(rest) {
			return capitalize(first), capitalize(rest)
		}
	}

	return capitalize(local), "Unknown"
}

// splitNameTokens splits a local part on name separators, dropping
// numeric fragments like "jane.doe2".
func splitNameTokens(local string) []string {
	var tokens []string
	for _, tok := range emailSeparators.Split(local, -1) {
		tok = strings.TrimFunc(tok, func(r rune) bool { return r >= '0' && r <= '9' })
		if tok == "" || digitsOnly.MatchString(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// CleanPersonName normalizes a display name: strips numeric tokens, flips
// "Last, First" ordering, and drops short trailing garbage suffixes.
func CleanPersonName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	// "Last, First" -> "First Last" when exactly two plausible tokens.
	if strings.Count(name, ",") == 1 {
		parts := strings.SplitN(name, ",", 2)
		last := strings.TrimSpace(parts[0])
		first := strings.TrimSpace(parts[1])
		if plausibleNameToken(last) && plausibleNameToken(first) {
			name = first + " " + last
		}
	}

	tokens := strings.Fields(name)
	cleaned := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if hasDigit.MatchString(tok) {
			continue
		}
		cleaned = append(cleaned, tok)
	}

	// Trailing garbage like a stray "-" or "(x". A short tail with no
	// letter is never part of a name, even when it only uses characters
	// names allow.
	for len(cleaned) > 0 {
		tail := cleaned[len(cleaned)-1]
		if len(tail) <= 2 && (!isAlphaToken(tail) || !hasLetter(tail)) {
			cleaned = cleaned[:len(cleaned)-1]
			continue
		}
		break
	}

	return strings.Join(cleaned, " ")
}

// SplitName splits a display name into first and last. A single token
// becomes the first name with last name "Unknown".
func SplitName(name string) (string, string) {
	tokens := strings.Fields(strings.TrimSpace(name))
	switch len(tokens) {
	case 0:
		return "Unknown", "Unknown"
	case 1:
		return tokens[0], "Unknown"
	default:
		return tokens[0], strings.Join(tokens[1:], " ")
	}
}

func plausibleNameToken(s string) bool {
	if len(s) < 2 || len(s) > 20 {
		return false
	}
	return isAlphaToken(strings.ReplaceAll(s, " ", ""))
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func isAlphaToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '\'' || r == '-') {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var quotedPhrase = regexp.MustCompile(`"([^"]{3,})"`)

// CleanSummary tidies an AI-written summary: drops sentences that
// redundantly restart with the person's name after its first occurrence,
// removes exact-duplicate sentences, and collapses repeated quoted phrases.
func CleanSummary(summary, personName string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ""
	}

	// Collapse quoted phrases that repeat verbatim.
	seenQuotes := make(map[string]bool)
	summary = quotedPhrase.ReplaceAllStringFunc(summary, func(match string) string {
		key := strings.ToLower(match)
		if seenQuotes[key] {
			return ""
		}
		seenQuotes[key] = true
		return match
	})

	firstName := ""
	if tokens := strings.Fields(personName); len(tokens) > 0 {
		firstName = strings.ToLower(tokens[0])
	}

	seen := make(map[string]bool)
	nameStarts := 0
	var kept []string
	for _, sentence := range splitSentences(summary) {
		norm := strings.ToLower(strings.TrimSpace(sentence))
		if norm == "" || seen[norm] {
			continue
		}
		if firstName != "" && strings.HasPrefix(norm, firstName) {
			nameStarts++
			if nameStarts > 1 {
				continue
			}
		}
		seen[norm] = true
		kept = append(kept, strings.TrimSpace(sentence))
	}

	return strings.Join(kept, " ")
}

// ValidateSummary nulls summaries that carry no real data: known no-data
// phrasings or fewer than 30 characters of content.
func ValidateSummary(summary string) string {
	trimmed := strings.TrimSpace(summary)
	if len(trimmed) < minSummaryLen {
		return ""
	}

	lower := strings.ToLower(trimmed)
	noData := []string{
		"unable to verify",
		"usage limited",
		"no information",
		"could not find",
		"no data",
		"not available",
	}
	for _, pattern := range noData {
		if strings.Contains(lower, pattern) {
			return ""
		}
	}

	return trimmed
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' {
			// Sentence ends at terminator followed by whitespace or EOF.
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				sentences = append(sentences, text[start:i+1])
				start = i + 1
			}
		}
	}
	if start < len(text) {
		if tail := strings.TrimSpace(text[start:]); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}
