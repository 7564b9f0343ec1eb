// ABOUTME: Manual enrichment CLI command
// ABOUTME: Runs a metered AI enrichment for one email with supplied context
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
)

// EnrichCommand runs AI enrichment for a single email. Context text comes
// from a file or stdin; the result lands in the enrichment cache.
func EnrichCommand(args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	contextPath := fs.String("context", "", "File with meeting context (default: stdin)")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: blsync enrich [--context file] <email>")
	}
	email := fs.Arg(0)

	var raw []byte
	var err error
	if *contextPath != "" {
		raw, err = os.ReadFile(*contextPath)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read context: %w", err)
	}

	resolver := resolverFromEnv()
	result, err := resolver.EnrichWithAI(context.Background(), email, string(raw))
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	if result.RateLimited {
		fmt.Printf("✗ Daily AI limit reached (%d/%d used today)\n",
			result.Status.Limit-result.Status.Remaining, result.Status.Limit)
		return nil
	}

	r := result.Record
	fmt.Printf("✓ Enriched %s (%d AI calls remaining today)\n\n", email, result.Status.Remaining)
	if r.Name != "" {
		fmt.Printf("  Name:     %s\n", r.Name)
	}
	if r.Title != "" {
		fmt.Printf("  Title:    %s\n", r.Title)
	}
	if r.Company != "" {
		fmt.Printf("  Company:  %s\n", r.Company)
	}
	if r.LinkedInURL != "" {
		fmt.Printf("  LinkedIn: %s\n", r.LinkedInURL)
	}
	if r.Summary != "" {
		fmt.Printf("  Summary:  %s\n", r.Summary)
	}
	return nil
}
