// ABOUTME: Account resolution from email domains
// ABOUTME: Falls back from canonical web domain to existing contact domains
package sync

import (
	"context"
	"fmt"
)

// Account match methods for the domain fallback path.
const (
	MatchMethodDomain        = "domain_match"
	MatchMethodContactDomain = "contact_domain_match"
)

// AccountMatch is a domain-resolved account reference.
type AccountMatch struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	MatchMethod string `json:"match_method"`
}

// ResolveAccountByDomain resolves an account from an email's domain. It is
// used only when no explicit account reference exists. Internal and
// personal domains never resolve. Returns nil when nothing matches.
func (e *Engine) ResolveAccountByDomain(ctx context.Context, email string) (*AccountMatch, error) {
	domain := emailDomain(email)
	if domain == "" {
		return nil, nil
	}
	if e.cfg.IsInternalDomain(domain) || e.cfg.IsPersonalDomain(domain) {
		return nil, nil
	}

	// Exact match on an account's canonical web domain.
	acct, err := e.store.AccountByWebsiteDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("account domain lookup failed: %w", err)
	}
	if acct != nil {
		return &AccountMatch{
			AccountID:   acct.ID,
			AccountName: acct.Name,
			MatchMethod: MatchMethodDomain,
		}, nil
	}

	// Inherit the account of an existing contact at the same domain.
	contacts, err := e.store.ContactsByEmailDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("contact domain lookup failed: %w", err)
	}
	for _, c := range contacts {
		if c.AccountID == "" {
			continue
		}
		return &AccountMatch{
			AccountID:   c.AccountID,
			AccountName: e.accountName(ctx, c.AccountID),
			MatchMethod: MatchMethodContactDomain,
		}, nil
	}

	return nil, nil
}

// accountName looks up an account's name, best-effort.
func (e *Engine) accountName(ctx context.Context, accountID string) string {
	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return ""
	}
	if acct := accountByID(accountID, accounts); acct != nil {
		return acct.Name
	}
	return ""
}
