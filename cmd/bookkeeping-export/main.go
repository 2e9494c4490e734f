package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/rates"
	"github.com/WeblateOrg/website-sub000/workflow"
)

// Writes the fiscal year's invoice XLSX to a file for the accountant handoff.
func main() {
	year := flag.Int("year", time.Now().Year(), "Fiscal year to export")
	out := flag.String("out", "", "Output path (defaults to bookkeeping-<year>.xlsx)")
	cacheDir := flag.String("cache-dir", "data/rates", "Directory for the on-disk rate cache")
	flag.Parse()

	_ = godotenv.Load()
	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	config.ConnectRedis()

	provider := rates.NewProvider(rates.NewClient(logger), rates.NewCache(*cacheDir), logger)

	path := *out
	if path == "" {
		path = fmt.Sprintf("bookkeeping-%d.xlsx", *year)
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	if err := workflow.ExportBookkeeping(context.Background(), logger, *year, provider, f); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote", path)
}
