// ABOUTME: Multi-signal account matcher with confidence scoring
// ABOUTME: Runs five independent strategies and aggregates with an agreement bonus
package sync

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/blsync/blsync/models"
)

// MatchContext supplies everything the matcher may consult. Missing
// fields simply disable the strategies that need them.
type MatchContext struct {
	CalendarEvents  []models.CalendarEvent
	OwnedAccounts   []models.Account
	DomainToAccount map[string]string
	OwnerEmail      string
}

const agreementBonus = 0.1

// accountNameStopwords are dropped when tokenizing account names.
var accountNameStopwords = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true,
	"company": true, "the": true, "and": true, "of": true,
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// MatchToAccount resolves a signal to the single best account candidate.
// All five strategies run unconditionally; none of them can fail, they
// just contribute nothing when their inputs are missing. No candidate at
// all yields a zero-confidence result.
func MatchToAccount(sig models.Signal, mctx MatchContext, cfg Config) models.MatchResult {
	cfg.applyDefaults()

	var candidates []models.MatchResult
	strategies := []func(models.Signal, MatchContext, Config) *models.MatchResult{
		matchExplicitRef,
		matchCalendarProximity,
		matchFolderStructure,
		matchEmailDomain,
		matchKeywords,
	}
	for _, strategy := range strategies {
		if c := strategy(sig, mctx, cfg); c != nil {
			candidates = append(candidates, *c)
		}
	}

	if len(candidates) == 0 {
		return models.MatchResult{Method: models.MethodNone}
	}

	// Stable sort keeps strategy order as the tiebreak within a tier.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	best := candidates[0]
	confirming := 0
	for _, c := range candidates[1:] {
		if c.AccountID == best.AccountID {
			confirming++
		}
	}
	if confirming > 0 {
		best.Confidence += agreementBonus
		if best.Confidence > 1.0 {
			best.Confidence = 1.0
		}
		best.Method = fmt.Sprintf("%s (+%d confirming)", best.Method, confirming)
	}

	return best
}

// matchExplicitRef matches a directly stated account name.
func matchExplicitRef(sig models.Signal, mctx MatchContext, _ Config) *models.MatchResult {
	ref := strings.TrimSpace(sig.ExplicitAccountRef())
	if ref == "" {
		return nil
	}
	acct := fuzzyAccountLookup(ref, mctx.OwnedAccounts)
	if acct == nil {
		return nil
	}
	return &models.MatchResult{
		AccountID:   acct.ID,
		AccountName: acct.Name,
		Confidence:  models.ConfidenceHigh,
		Method:      models.MethodExplicitRef,
	}
}

// matchCalendarProximity matches a calendar event near the signal's date
// that carries an account reference.
func matchCalendarProximity(sig models.Signal, mctx MatchContext, cfg Config) *models.MatchResult {
	date := sig.Date()
	if date.IsZero() {
		return nil
	}

	for _, ev := range mctx.CalendarEvents {
		if mctx.OwnerEmail != "" && ev.OwnerEmail != "" &&
			!strings.EqualFold(ev.OwnerEmail, mctx.OwnerEmail) {
			continue
		}
		delta := date.Sub(ev.StartDateTime)
		if delta < 0 {
			delta = -delta
		}
		if delta > cfg.CalendarProximity {
			continue
		}

		if ev.AccountID != "" {
			name := ev.AccountName
			if name == "" {
				if acct := accountByID(ev.AccountID, mctx.OwnedAccounts); acct != nil {
					name = acct.Name
				}
			}
			return &models.MatchResult{
				AccountID:   ev.AccountID,
				AccountName: name,
				Confidence:  models.ConfidenceHigh,
				Method:      models.MethodCalendarMatch,
			}
		}
		if ev.AccountName != "" {
			if acct := fuzzyAccountLookup(ev.AccountName, mctx.OwnedAccounts); acct != nil {
				return &models.MatchResult{
					AccountID:   acct.ID,
					AccountName: acct.Name,
					Confidence:  models.ConfidenceHigh,
					Method:      models.MethodCalendarMatch,
				}
			}
		}
	}
	return nil
}

// matchFolderStructure tests each path segment, plus a "Name - Title"
// filename pattern, against the owned accounts.
func matchFolderStructure(sig models.Signal, mctx MatchContext, _ Config) *models.MatchResult {
	path := sig.Path()
	if path == "" {
		return nil
	}

	var candidates []string
	for _, segment := range strings.Split(path, "/") {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			candidates = append(candidates, segment)
		}
	}

	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if name, _, found := strings.Cut(base, " - "); found {
		candidates = append(candidates, strings.TrimSpace(name))
	}

	for _, candidate := range candidates {
		if acct := fuzzyAccountLookup(candidate, mctx.OwnedAccounts); acct != nil {
			return &models.MatchResult{
				AccountID:   acct.ID,
				AccountName: acct.Name,
				Confidence:  models.ConfidenceHigh,
				Method:      models.MethodFolderStructure,
			}
		}
	}
	return nil
}

// matchEmailDomain extracts emails from the signal and maps the first
// recognized domain through the domain index.
func matchEmailDomain(sig models.Signal, mctx MatchContext, _ Config) *models.MatchResult {
	if len(mctx.DomainToAccount) == 0 {
		return nil
	}

	var emails []string
	emails = append(emails, emailPattern.FindAllString(sig.RawText(), -1)...)
	for _, a := range sig.SignalAttendees() {
		if a.Email != "" {
			emails = append(emails, a.Email)
		}
	}
	for _, v := range sig.Frontmatter() {
		if s, ok := v.(string); ok {
			emails = append(emails, emailPattern.FindAllString(s, -1)...)
		}
	}

	for _, email := range emails {
		domain := emailDomain(email)
		if domain == "" {
			continue
		}
		accountID, ok := mctx.DomainToAccount[domain]
		if !ok {
			continue
		}
		name := ""
		if acct := accountByID(accountID, mctx.OwnedAccounts); acct != nil {
			name = acct.Name
		}
		return &models.MatchResult{
			AccountID:   accountID,
			AccountName: name,
			Confidence:  models.ConfidenceMedium,
			Method:      models.MethodEmailDomain,
		}
	}
	return nil
}

// matchKeywords scores account-name tokens against the title and the
// head of the body, picking the highest cumulative matched length.
func matchKeywords(sig models.Signal, mctx MatchContext, cfg Config) *models.MatchResult {
	body := sig.RawText()
	if len(body) > cfg.BodyMatchWindow {
		body = body[:cfg.BodyMatchWindow]
	}
	words := textTokenSet(strings.ToLower(sig.Title() + "\n" + body))
	if len(words) == 0 {
		return nil
	}

	var best *models.Account
	bestScore := 0
	for i := range mctx.OwnedAccounts {
		acct := &mctx.OwnedAccounts[i]
		score := 0
		for _, token := range accountNameTokens(acct.Name) {
			if words[token] {
				score += len(token)
			}
		}
		if score > bestScore {
			bestScore = score
			best = acct
		}
	}

	if best == nil {
		return nil
	}
	return &models.MatchResult{
		AccountID:   best.ID,
		AccountName: best.Name,
		Confidence:  models.ConfidenceMedium,
		Method:      models.MethodKeywordMatch,
	}
}

// textTokenSet splits lowercased prose into whole-word tokens. Email
// addresses stay intact, so a domain inside one never counts as a
// keyword hit.
func textTokenSet(text string) map[string]bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', '.', '(', ')', ';', ':', '!', '?', '"':
			return true
		}
		return unicode.IsSpace(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// accountNameTokens tokenizes an account name, dropping corporate
// stopwords and tokens under two characters.
func accountNameTokens(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '(' || r == ')'
	})
	var tokens []string
	for _, f := range fields {
		if len(f) < 2 || accountNameStopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// fuzzyAccountLookup finds an account by name: exact match first, then
// substring containment in either direction.
func fuzzyAccountLookup(name string, accounts []models.Account) *models.Account {
	needle := strings.ToLower(strings.TrimSpace(name))
	if len(needle) < 2 {
		return nil
	}

	for i := range accounts {
		if strings.ToLower(accounts[i].Name) == needle {
			return &accounts[i]
		}
	}
	for i := range accounts {
		haystack := strings.ToLower(accounts[i].Name)
		if strings.Contains(haystack, needle) || strings.Contains(needle, haystack) {
			return &accounts[i]
		}
	}
	return nil
}

func accountByID(id string, accounts []models.Account) *models.Account {
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i]
		}
	}
	return nil
}
