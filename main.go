// ABOUTME: Entry point for the blsync CLI
// ABOUTME: Routes to meeting sync, gap analysis, and enrichment commands
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/blsync/blsync/cli"
)

const version = "0.2.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("blsync version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "auth":
		if err := cli.AuthCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "sync-note":
		if err := cli.SyncNoteCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "sync-calendar":
		if err := cli.SyncCalendarCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "gaps":
		if err := cli.GapsCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "create-contacts":
		if err := cli.CreateContactsCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "enrich":
		if err := cli.EnrichCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`blsync - sync meetings and contacts into your CRM

Usage:
  blsync [flags] <command> [command flags]

Commands:
  auth                 Set up Google Calendar OAuth
  sync-note            Sync markdown meeting notes into the CRM
  sync-calendar        Sync a window of calendar meetings
  gaps                 Report external attendees missing from the CRM
  create-contacts      Batch-create contacts from a gap report
  enrich               Run AI enrichment for one email

Flags:
  -version             Show version and exit

Environment:
  SALESFORCE_INSTANCE_URL, SALESFORCE_ACCESS_TOKEN   CRM connection
  BLSYNC_INTERNAL_DOMAINS                            your org's email domains (required)
  BLSYNC_OWNER_EMAIL                                 calendar owner email
  GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET             calendar OAuth
  GEMINI_API_KEY, BLSYNC_AI_DAILY_LIMIT              optional AI enrichment`)
}
