// ABOUTME: Environment wiring for CLI commands
// ABOUTME: Builds the sync engine from env vars, with .env autoload
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/blsync/blsync/ai"
	"github.com/blsync/blsync/crm"
	"github.com/blsync/blsync/enrich"
	"github.com/blsync/blsync/sync"
)

func init() {
	// Best-effort .env autoload; real env always wins.
	_ = godotenv.Load()
}

// engineFromEnv wires a full sync engine from environment configuration.
// BLSYNC_INTERNAL_DOMAINS is required so internal attendees are never
// synced as customer contacts.
func engineFromEnv() (*sync.Engine, error) {
	internal := splitList(os.Getenv("BLSYNC_INTERNAL_DOMAINS"))
	if len(internal) == 0 {
		return nil, fmt.Errorf("BLSYNC_INTERNAL_DOMAINS not set (comma-separated list of your org's email domains)")
	}

	connector, err := crm.NewSalesforceConnectorFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to configure CRM connection: %w", err)
	}
	store := crm.NewStore(connector)

	cfg := sync.DefaultConfig()
	cfg.InternalDomains = internal
	if extra := splitList(os.Getenv("BLSYNC_PERSONAL_DOMAINS")); len(extra) > 0 {
		cfg.PersonalDomains = append(cfg.PersonalDomains, extra...)
	}

	return sync.NewEngine(store, resolverFromEnv(), cfg), nil
}

// resolverFromEnv builds the identity resolver. Both the enrichment cache
// and the AI provider are optional; missing pieces shorten the cascade.
func resolverFromEnv() *enrich.Resolver {
	cache, err := enrich.OpenCache(enrich.DefaultCachePath())
	if err != nil {
		fmt.Printf("  ⚠ Enrichment cache unavailable: %v\n", err)
		cache = nil
	}

	var provider ai.Provider
	var guard *ai.UsageGuard
	if os.Getenv("GEMINI_API_KEY") != "" {
		client, err := ai.NewGeminiClientFromEnv()
		if err != nil {
			fmt.Printf("  ⚠ AI enrichment unavailable: %v\n", err)
		} else {
			provider = client
			usageCfg := ai.DefaultUsageConfig()
			if limit := envInt("BLSYNC_AI_DAILY_LIMIT", 0); limit > 0 {
				usageCfg.DailyLimit = limit
			}
			guard = ai.NewUsageGuard(usageCfg, nil)
		}
	}

	return enrich.NewResolver(cache, provider, guard)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
