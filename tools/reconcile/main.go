package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	feeperiodrepo "household-registry/internal/feeperiod/infrastructure/postgres"
	feesapp "household-registry/internal/fees/application"
	fees "household-registry/internal/fees/domain"
	feesrepo "household-registry/internal/fees/infrastructure/postgres"
	registryrepo "household-registry/internal/registry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Recalculation is fire-once: a crash between a mutation's commit and its
// notification leaves the ledger stale until another mutation touches the
// same household. This tool is the manual sweep that closes that gap, by
// recomputing the ledger for one household or for all of them.

type config struct {
	dbURL       string
	householdID string
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db open:", err)
		os.Exit(2)
	}
	defer db.Close()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	householdRepo := registryrepo.NewHouseholdRepository(db)
	citizenRepo := registryrepo.NewCitizenRepository(db)
	periodRepo := feeperiodrepo.NewPeriodRepository(db)
	obligationRepo := feesrepo.NewObligationRepository(db)

	policyCfg, err := feesapp.LoadPolicyConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fee policy config:", err)
		os.Exit(2)
	}
	recalc, err := feesapp.NewRecalculationService(
		householdRepo, citizenRepo, periodRepo, obligationRepo,
		fees.NewCalculator(policyCfg.Discount), nil, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "recalculation service:", err)
		os.Exit(2)
	}

	ctx := context.Background()
	var ids []string
	if cfg.householdID != "" {
		ids = []string{cfg.householdID}
	} else {
		households, err := householdRepo.List(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list households:", err)
			os.Exit(2)
		}
		for i := range households {
			ids = append(ids, households[i].ID)
		}
	}

	failed := 0
	for _, id := range ids {
		if err := recalc.CreateInitialObligations(ctx, id); err != nil {
			logger.Printf("sweep failed: household=%s err=%v", id, err)
			failed++
			continue
		}
		if err := recalc.RecalculateHousehold(ctx, id); err != nil {
			logger.Printf("sweep failed: household=%s err=%v", id, err)
			failed++
		}
	}

	fmt.Printf("Reconciled %d households, %d failed\n", len(ids)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func parseFlags() (config, error) {
	var cfg config
	flag.StringVar(&cfg.dbURL, "db", getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN")
	flag.StringVar(&cfg.householdID, "household", "", "limit the sweep to one household id")
	flag.Parse()

	if cfg.dbURL == "" {
		return cfg, fmt.Errorf("db DSN required: pass -db or set DATABASE_URL")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
