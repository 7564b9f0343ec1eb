// ABOUTME: Tests for contact find-or-create and batch creation
// ABOUTME: Covers skip reasons, idempotency, and per-item batch outcomes
package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blsync/blsync/crm"
	"github.com/blsync/blsync/enrich"
	"github.com/blsync/blsync/models"
)

// testEngine builds an engine over an in-memory connector with the test
// org's internal domain configured.
func testEngine(cfg Config) (*Engine, *crm.MemoryConnector) {
	conn := crm.NewMemoryConnector()
	if len(cfg.InternalDomains) == 0 {
		cfg.InternalDomains = []string{"blsync.io"}
	}
	resolver := enrich.NewResolver(nil, nil, nil)
	return NewEngine(crm.NewStore(conn), resolver, cfg), conn
}

func TestFindOrCreateContactSkips(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	tests := []struct {
		name       string
		email      string
		wantReason string
	}{
		{"empty email", "", ReasonMissingEmail},
		{"whitespace email", "   ", ReasonMissingEmail},
		{"no domain", "jane@", ReasonMissingEmail},
		{"internal domain", "sam@blsync.io", ReasonInternalDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := engine.FindOrCreateContact(ctx, ContactParams{Email: tt.email})
			require.NoError(t, err)
			assert.True(t, outcome.Skipped)
			assert.Equal(t, tt.wantReason, outcome.Reason)
		})
	}
	assert.Equal(t, 0, conn.CreateCount, "skips must not write")
}

func TestFindOrCreateContactExisting(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	contactID := conn.SeedContact("Jane", "Smith", "jane@acme.com", "VP Eng", acctID)

	// Case differences still resolve to the same contact.
	outcome, err := engine.FindOrCreateContact(ctx, ContactParams{Email: "Jane@Acme.com"})
	require.NoError(t, err)

	assert.Equal(t, contactID, outcome.ContactID)
	assert.False(t, outcome.Created)
	assert.False(t, outcome.Skipped)
	assert.Equal(t, 0, conn.CreateCount, "existing contact must never be rewritten")
}

func TestFindOrCreateContactWithAccountID(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")

	outcome, err := engine.FindOrCreateContact(ctx, ContactParams{
		Email:     "jane.smith@acme.com",
		Name:      "Jane Smith",
		Title:     "VP Engineering",
		AccountID: acctID,
	})
	require.NoError(t, err)

	assert.True(t, outcome.Created)
	assert.NotEmpty(t, outcome.ContactID)

	records := conn.Records(crm.ObjectContact)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane", records[0].Str("FirstName"))
	assert.Equal(t, "Smith", records[0].Str("LastName"))
	assert.Equal(t, "jane.smith@acme.com", records[0].Str("Email"))
	assert.Equal(t, "VP Engineering", records[0].Str("Title"))
	assert.Equal(t, acctID, records[0].Str("AccountId"))
}

func TestFindOrCreateContactDomainFallback(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")

	outcome, err := engine.FindOrCreateContact(ctx, ContactParams{
		Email: "jane@acme.com",
		Name:  "Jane Smith",
	})
	require.NoError(t, err)

	assert.True(t, outcome.Created)
	records := conn.Records(crm.ObjectContact)
	require.Len(t, records, 1)
	assert.Equal(t, acctID, records[0].Str("AccountId"))
}

func TestFindOrCreateContactNoOrphan(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	// No account at this domain and none supplied; the contact must not
	// be written without an account link.
	outcome, err := engine.FindOrCreateContact(ctx, ContactParams{
		Email: "jane@unknowncorp.com",
		Name:  "Jane Smith",
	})
	require.NoError(t, err)

	assert.True(t, outcome.Skipped)
	assert.Equal(t, ReasonNoOrphanContact, outcome.Reason)
	assert.Equal(t, 0, conn.CreateCount)
}

func TestFindOrCreateContactCRMUnavailable(t *testing.T) {
	engine, conn := testEngine(Config{})
	conn.QueryErr = errors.New("crm down")

	_, err := engine.FindOrCreateContact(context.Background(), ContactParams{Email: "jane@acme.com"})
	assert.Error(t, err)
}

func TestCreateContactsBatch(t *testing.T) {
	engine, conn := testEngine(Config{BatchCap: 2})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	existingID := conn.SeedContact("Sam", "Lee", "sam@acme.com", "", acctID)

	contacts := []models.MissingContact{
		{Email: "sam@acme.com", FirstName: "Sam", LastName: "Lee", AccountID: acctID},
		{Email: "jane@acme.com", FirstName: "Jane", LastName: "Smith", AccountID: acctID},
		{Email: "over@acme.com", FirstName: "Over", LastName: "Cap", AccountID: acctID},
	}

	result := engine.CreateContactsBatch(ctx, contacts, BatchOptions{})

	require.Len(t, result.Created, 1)
	assert.Equal(t, "jane@acme.com", result.Created[0].Email)
	assert.True(t, result.Created[0].Created)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, ReasonAlreadyExists, result.Skipped[0].Reason)
	assert.Equal(t, existingID, result.Skipped[0].ContactID)
	assert.Equal(t, ReasonBatchCap, result.Skipped[1].Reason)

	assert.Empty(t, result.Failed)
	assert.Equal(t, 1, conn.CreateCount)
}

func TestCreateContactsBatchSkipsMissingEmail(t *testing.T) {
	// A report row with no usable email never reaches the CRM; it
	// skips without counting against anyone else.
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	contacts := []models.MissingContact{
		{Email: "   ", FirstName: "Ghost", AccountID: acctID},
		{Email: "jane@acme.com", FirstName: "Jane", LastName: "Smith", AccountID: acctID},
	}

	result := engine.CreateContactsBatch(ctx, contacts, BatchOptions{})

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonMissingEmail, result.Skipped[0].Reason)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "jane@acme.com", result.Created[0].Email)
	assert.Equal(t, 1, conn.CreateCount)
}

func TestCreateContactsBatchDryRun(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	contacts := []models.MissingContact{
		{Email: "jane@acme.com", FirstName: "Jane", LastName: "Smith", AccountID: acctID},
	}

	result := engine.CreateContactsBatch(ctx, contacts, BatchOptions{DryRun: true})

	assert.True(t, result.DryRun)
	require.Len(t, result.Created, 1)
	assert.Equal(t, 0, conn.CreateCount, "dry run must not write")
}

func TestCreateContactsBatchDefaultsLastName(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	acctID := conn.SeedAccount("Acme", "https://acme.com")
	contacts := []models.MissingContact{
		{Email: "x@acme.com", FirstName: "X", AccountID: acctID},
	}

	result := engine.CreateContactsBatch(ctx, contacts, BatchOptions{})
	require.Len(t, result.Created, 1)

	records := conn.Records(crm.ObjectContact)
	require.Len(t, records, 1)
	assert.Equal(t, "Unknown", records[0].Str("LastName"))
}

func TestCreateContactsBatchFailureIsolation(t *testing.T) {
	engine, conn := testEngine(Config{})
	ctx := context.Background()

	contacts := []models.MissingContact{
		{Email: "no-account@acme.com"},
		{Email: "jane@acme.com", FirstName: "Jane", LastName: "Smith", AccountID: "acct-1"},
	}
	conn.CreateErr = errors.New("write rejected")

	result := engine.CreateContactsBatch(ctx, contacts, BatchOptions{})

	// The missing-account item skips, the write failure lands in Failed,
	// and neither outcome disturbs the other.
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonNoOrphanContact, result.Skipped[0].Reason)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "jane@acme.com", result.Failed[0].Email)
	assert.Empty(t, result.Created)
}

// dedupStart is a fixed meeting time shared by the event and engine tests.
var dedupStart = time.Date(2026, 1, 20, 14, 0, 0, 0, time.UTC)
