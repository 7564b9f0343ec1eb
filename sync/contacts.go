// ABOUTME: Contact find-or-create engine with the no-orphan invariant
// ABOUTME: Idempotent by email; a contact is never written without an account
package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/blsync/blsync/models"
)

// Skip reasons surfaced in ContactOutcome.
const (
	ReasonMissingEmail    = "missing email"
	ReasonInternalDomain  = "internal domain"
	ReasonNoOrphanContact = "no orphan contact"
	ReasonAlreadyExists   = "already exists"
	ReasonBatchCap        = "batch cap reached"
)

// ContactParams describes one attendee to find or create.
type ContactParams struct {
	Email     string
	Name      string
	Title     string
	AccountID string
}

// FindOrCreateContact resolves an attendee to a CRM contact. Existing
// contacts are returned unchanged. A contact is only created with a
// resolved account id; everything else is a skip, never an error. Only
// CRM unavailability surfaces as one.
func (e *Engine) FindOrCreateContact(ctx context.Context, p ContactParams) (models.ContactOutcome, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return models.ContactOutcome{Skipped: true, Reason: ReasonMissingEmail}, nil
	}
	outcome := models.ContactOutcome{Email: email}

	domain := emailDomain(email)
	if domain == "" {
		outcome.Skipped = true
		outcome.Reason = ReasonMissingEmail
		return outcome, nil
	}
	if e.cfg.IsInternalDomain(domain) {
		outcome.Skipped = true
		outcome.Reason = ReasonInternalDomain
		return outcome, nil
	}

	existing, err := e.store.ContactByEmail(ctx, email)
	if err != nil {
		return outcome, fmt.Errorf("contact lookup failed: %w", err)
	}
	if existing != nil {
		outcome.ContactID = existing.ID
		return outcome, nil
	}

	accountID := p.AccountID
	if accountID == "" {
		match, err := e.ResolveAccountByDomain(ctx, email)
		if err != nil {
			return outcome, fmt.Errorf("account resolution failed: %w", err)
		}
		if match != nil {
			accountID = match.AccountID
		}
	}
	if accountID == "" {
		outcome.Skipped = true
		outcome.Reason = ReasonNoOrphanContact
		return outcome, nil
	}

	identity := e.resolver.Resolve(ctx, email, p.Name, p.Title)
	contactID, err := e.store.CreateContact(ctx, models.Contact{
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     email,
		Title:     identity.Title,
		AccountID: accountID,
	})
	if err != nil {
		return outcome, fmt.Errorf("contact create failed: %w", err)
	}

	outcome.ContactID = contactID
	outcome.Created = true
	return outcome, nil
}

// BatchOptions controls batch contact creation.
type BatchOptions struct {
	DryRun bool
}

// CreateContactsBatch creates up to the batch cap of contacts. Each item
// is re-validated for existence immediately before writing, closing the
// race window between gap-report generation and creation. Outcomes are
// strictly per-item; one failure never aborts its siblings.
func (e *Engine) CreateContactsBatch(ctx context.Context, contacts []models.MissingContact, opts BatchOptions) models.BatchResult {
	result := models.BatchResult{DryRun: opts.DryRun}

	for i, mc := range contacts {
		email := strings.ToLower(strings.TrimSpace(mc.Email))
		if i >= e.cfg.BatchCap {
			result.Skipped = append(result.Skipped, models.ContactOutcome{
				Email: email, Skipped: true, Reason: ReasonBatchCap,
			})
			continue
		}

		if email == "" {
			result.Skipped = append(result.Skipped, models.ContactOutcome{
				Skipped: true, Reason: ReasonMissingEmail,
			})
			continue
		}

		if mc.AccountID == "" {
			result.Skipped = append(result.Skipped, models.ContactOutcome{
				Email: email, Skipped: true, Reason: ReasonNoOrphanContact,
			})
			continue
		}

		existing, err := e.store.ContactByEmail(ctx, email)
		if err != nil {
			result.Failed = append(result.Failed, models.ContactOutcome{
				Email: email, Reason: err.Error(),
			})
			continue
		}
		if existing != nil {
			result.Skipped = append(result.Skipped, models.ContactOutcome{
				Email: email, ContactID: existing.ID, Skipped: true, Reason: ReasonAlreadyExists,
			})
			continue
		}

		if opts.DryRun {
			result.Created = append(result.Created, models.ContactOutcome{Email: email})
			continue
		}

		lastName := mc.LastName
		if lastName == "" {
			lastName = "Unknown"
		}
		contactID, err := e.store.CreateContact(ctx, models.Contact{
			FirstName: mc.FirstName,
			LastName:  lastName,
			Email:     email,
			Title:     mc.Title,
			AccountID: mc.AccountID,
		})
		if err != nil {
			result.Failed = append(result.Failed, models.ContactOutcome{
				Email: email, Reason: err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, models.ContactOutcome{
			Email: email, ContactID: contactID, Created: true,
		})
	}

	return result
}
