// ABOUTME: Gap analysis CLI commands
// ABOUTME: Reports external attendees missing from the CRM and batch-creates them
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/blsync/blsync/calendar"
	"github.com/blsync/blsync/models"
	"github.com/blsync/blsync/sync"
)

// GapsCommand analyzes the calendar for external attendees with no CRM
// contact and prints or saves the report.
func GapsCommand(args []string) error {
	fs := flag.NewFlagSet("gaps", flag.ExitOnError)
	days := fs.Int("days", 30, "How many days back to analyze")
	minMeetings := fs.Int("min-meetings", 1, "Minimum meetings before an attendee is reported")
	owner := fs.String("owner", "", "Restrict to meetings owned by this email")
	jsonPath := fs.String("json", "", "Write the report as JSON to this path")
	_ = fs.Parse(args)

	engine, err := engineFromEnv()
	if err != nil {
		return err
	}
	ctx := context.Background()

	svc, err := calendar.NewService(ctx)
	if err != nil {
		return err
	}

	ownerEmail := *owner
	if ownerEmail == "" {
		ownerEmail = os.Getenv("BLSYNC_OWNER_EMAIL")
	}

	fmt.Printf("Analyzing last %d days of meetings...\n", *days)
	events, err := calendar.FetchWindow(svc, ownerEmail, *days)
	if err != nil {
		return err
	}

	opts := sync.GapOptions{
		WindowDays:  *days,
		MinMeetings: *minMeetings,
		Events:      events,
	}
	if *owner != "" {
		opts.Owners = []string{*owner}
	}

	report, err := engine.AnalyzeContactGaps(ctx, opts)
	if err != nil {
		return err
	}

	if *jsonPath != "" {
		if err := writeReport(*jsonPath, report); err != nil {
			return err
		}
		fmt.Printf("✓ Report written to %s\n", *jsonPath)
	}
	printGapReport(report)

	return nil
}

// CreateContactsCommand batch-creates contacts from a saved gap report.
func CreateContactsCommand(args []string) error {
	fs := flag.NewFlagSet("create-contacts", flag.ExitOnError)
	from := fs.String("from", "", "Gap report JSON to create contacts from")
	dryRun := fs.Bool("dry-run", false, "Show what would be created without writing")
	_ = fs.Parse(args)

	if *from == "" {
		return fmt.Errorf("usage: blsync create-contacts --from <report.json> [--dry-run]")
	}

	data, err := os.ReadFile(*from)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	var report models.GapReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("failed to parse report: %w", err)
	}

	engine, err := engineFromEnv()
	if err != nil {
		return err
	}

	if *dryRun {
		fmt.Println("Dry run; nothing will be written.")
	}
	result := engine.CreateContactsBatch(context.Background(),
		report.MissingContacts, sync.BatchOptions{DryRun: *dryRun})

	for _, c := range result.Created {
		if *dryRun {
			fmt.Printf("  → Would create %s\n", c.Email)
		} else {
			fmt.Printf("  ✓ Created %s\n", c.Email)
		}
	}
	for _, c := range result.Skipped {
		fmt.Printf("  → Skipped %s (%s)\n", c.Email, c.Reason)
	}
	for _, c := range result.Failed {
		fmt.Printf("  ✗ Failed %s: %s\n", c.Email, c.Reason)
	}

	fmt.Printf("\n✓ %d created, %d skipped, %d failed\n",
		len(result.Created), len(result.Skipped), len(result.Failed))
	return nil
}

func writeReport(path string, report models.GapReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func printGapReport(report models.GapReport) {
	s := report.Summary
	fmt.Printf("\n✓ Analyzed %d attendee appearances (%d unique external)\n",
		s.AttendeesSeen, s.ExternalUnique)
	fmt.Printf("  → %d resolved to accounts, %d already in CRM, %d below meeting threshold\n",
		s.AccountResolved, s.AlreadyInCRM, s.BelowMinMeetings)

	if len(report.MissingContacts) == 0 {
		fmt.Println("\nNo missing contacts found.")
		return
	}

	fmt.Printf("\n%d missing contacts:\n", len(report.MissingContacts))
	for _, c := range report.MissingContacts {
		fmt.Printf("  %s %s <%s>: %s, %d meeting(s), last %s\n",
			c.FirstName, c.LastName, c.Email, c.AccountName,
			c.MeetingCount, c.LastMeeting.Format("2006-01-02"))
	}

	for _, e := range s.Errors {
		fmt.Printf("  ⚠ %s\n", e)
	}
}
