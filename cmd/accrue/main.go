/*
main.go - Accrual run entry point

PURPOSE:
  Books the monthly mortgage interest accrual for every unbooked month from
  the configured start date through the current month, then exits.

RUN SEQUENCE:
  1. Build configuration from flags (environment fallback)
  2. Validate connection settings (fatal before anything runs)
  3. Connect to the ledger service and sync the dataset
  4. Resolve account and category names
  5. Process periods oldest-first: skip, simulate, or commit
  6. Report and release the connection

COMMAND-LINE FLAGS (env fallback in parentheses):
  -url        Ledger service endpoint (ACCRUE_URL)
  -credential Bearer credential (ACCRUE_CREDENTIAL)
  -sync-id    Dataset sync identifier (ACCRUE_SYNC_ID)
  -account    Mortgage account name (default "Mortgage")
  -category   Interest category name (default "Mortgage Interest")
  -rate       Annual nominal interest rate (default 0.04)
  -day        Preferred booking day-of-month (default 25)
  -start      Explicit start date, YYYY-MM-DD (default: current month only)
  -simulate   Report what would be booked without mutating the ledger
  -cache      Local dataset cache directory (default "./cache")

EXIT BEHAVIOR:
  Any failure aborts the run with a non-zero exit and an error naming the
  failing period and stage. Re-running is always safe: booked periods skip
  via their idempotency key.

SEE ALSO:
  - accrual/engine.go: The per-period loop
  - ledger/remote:     The service client
*/
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/warp/accrual-engine/accrual"
	"github.com/warp/accrual-engine/ledger/remote"
)

func main() {
	defaults := accrual.DefaultConfig()

	endpoint := flag.String("url", envOr("ACCRUE_URL", ""), "ledger service endpoint")
	credential := flag.String("credential", envOr("ACCRUE_CREDENTIAL", ""), "bearer credential")
	syncID := flag.String("sync-id", envOr("ACCRUE_SYNC_ID", ""), "dataset sync identifier")
	account := flag.String("account", defaults.AccountName, "mortgage account name")
	category := flag.String("category", defaults.CategoryName, "interest category name")
	rate := flag.Float64("rate", defaults.AnnualRate, "annual nominal interest rate")
	day := flag.Int("day", defaults.BookingDay, "preferred booking day-of-month")
	start := flag.String("start", "", "explicit start date (YYYY-MM-DD)")
	simulate := flag.Bool("simulate", false, "report without mutating the ledger")
	cacheDir := flag.String("cache", defaults.CacheDir, "local dataset cache directory")
	flag.Parse()

	cfg := defaults
	cfg.Endpoint = *endpoint
	cfg.Credential = *credential
	cfg.SyncID = *syncID
	cfg.AccountName = *account
	cfg.CategoryName = *category
	cfg.AnnualRate = *rate
	cfg.BookingDay = *day
	cfg.Simulate = *simulate
	cfg.CacheDir = *cacheDir

	cfg, err := cfg.WithStartDate(*start)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("Run aborted: %v", err)
	}
}

func run(ctx context.Context, cfg accrual.Config) error {
	client, err := remote.Connect(cfg.Endpoint, cfg.Credential, cfg.CacheDir)
	if err != nil {
		return err
	}
	defer func() {
		// Cleanup failure must never mask the run outcome.
		if err := client.Close(); err != nil {
			log.Printf("Warning: failed to close ledger connection: %v", err)
		}
	}()

	session, err := accrual.NewSession(ctx, client, cfg)
	if err != nil {
		return err
	}

	report, err := session.Run(ctx, accrual.Today())
	if err != nil {
		return err
	}

	if cfg.Simulate {
		log.Printf("Simulation complete: %d periods would be booked, %d already booked",
			report.Simulated(), report.Skipped())
	} else {
		log.Printf("Run complete: %d periods booked, %d already booked",
			report.Committed(), report.Skipped())
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
