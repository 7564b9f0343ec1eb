// ABOUTME: Meeting sync CLI commands
// ABOUTME: Syncs markdown notes and calendar windows into the CRM
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/blsync/blsync/calendar"
	"github.com/blsync/blsync/models"
	"github.com/blsync/blsync/notes"
	"github.com/blsync/blsync/sync"
)

// SyncNoteCommand syncs one or more markdown meeting notes.
func SyncNoteCommand(args []string) error {
	fs := flag.NewFlagSet("sync-note", flag.ExitOnError)
	note := fs.String("note", "", "Append this text to the matched account's notes")
	_ = fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("usage: blsync sync-note [flags] <note.md> [note.md ...]")
	}

	engine, err := engineFromEnv()
	if err != nil {
		return err
	}
	ctx := context.Background()

	owner := os.Getenv("BLSYNC_OWNER_EMAIL")
	mctx, err := engine.BuildMatchContext(ctx, nil, owner)
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Printf("Syncing %s...\n", path)

		info, err := notes.LoadNote(path)
		if err != nil {
			fmt.Printf("  ✗ %v\n", err)
			continue
		}

		result, err := engine.SyncMeeting(ctx, sync.MeetingParams{
			Signal:      models.NewNoteSignal(*info),
			Match:       mctx,
			Body:        info.RawBody,
			AccountNote: *note,
		})
		if err != nil {
			fmt.Printf("  ✗ %v\n", err)
			continue
		}
		printSyncResult(result)
	}

	return nil
}

// SyncCalendarCommand syncs a window of calendar meetings.
func SyncCalendarCommand(args []string) error {
	fs := flag.NewFlagSet("sync-calendar", flag.ExitOnError)
	days := fs.Int("days", 7, "How many days back to sync")
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

	owner := os.Getenv("BLSYNC_OWNER_EMAIL")
	fmt.Printf("Syncing last %d days of calendar meetings...\n", *days)

	events, err := calendar.FetchWindow(svc, owner, *days)
	if err != nil {
		return err
	}

	mctx, err := engine.BuildMatchContext(ctx, events, owner)
	if err != nil {
		return err
	}

	for _, ev := range events {
		fmt.Printf("Syncing %q (%s)...\n", ev.Subject, ev.StartDateTime.Format("2006-01-02 15:04"))

		result, err := engine.SyncMeeting(ctx, sync.MeetingParams{
			Signal: models.NewCalendarSignal(ev),
			Match:  mctx,
			Start:  ev.StartDateTime,
			End:    ev.EndDateTime,
		})
		if err != nil {
			fmt.Printf("  ✗ %v\n", err)
			continue
		}
		printSyncResult(result)
	}

	return nil
}

func printSyncResult(result models.SyncResult) {
	for _, c := range result.ContactsCreated {
		fmt.Printf("  ✓ Created contact %s\n", c.Email)
	}
	for _, c := range result.ContactsFound {
		fmt.Printf("  → Found contact %s\n", c.Email)
	}
	for _, c := range result.ContactsSkipped {
		fmt.Printf("  → Skipped %s (%s)\n", c.Email, c.Reason)
	}

	switch {
	case result.Event.Created:
		fmt.Printf("  ✓ Created event %s\n", result.Event.ID)
	case result.Event.Skipped:
		fmt.Printf("  → Event skipped (%s)\n", result.Event.Reason)
	}

	for _, e := range result.Errors {
		fmt.Printf("  ⚠ %s\n", e)
	}
}
