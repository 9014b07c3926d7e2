// Command seed writes a synthetic check history into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vietddude/statuswatch/internal/infra/storage/postgres"
)

func main() {
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	span := flag.Duration("span", 25*time.Hour, "length of history to generate")
	interval := flag.Duration("interval", 5*time.Minute, "time between checks")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	keep := flag.Bool("keep", false, "keep existing checks and incidents instead of deleting them")
	flag.Parse()

	if *dbURL == "" {
		fmt.Fprintln(os.Stderr, "seed: -db or DATABASE_URL is required")
		os.Exit(2)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, postgres.Config{URL: *dbURL, Driver: "postgres"})
	if err != nil {
		panic(err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		panic(err)
	}

	checks := generate(generateOptions{
		Now:      time.Now(),
		Span:     *span,
		Interval: *interval,
		Seed:     *seed,
	})

	uow, err := db.NewUnitOfWork(ctx)
	if err != nil {
		panic(err)
	}
	defer func() { _ = uow.Rollback() }()

	if !*keep {
		if err := uow.Reset(ctx); err != nil {
			panic(err)
		}
	}
	for _, c := range checks {
		if err := uow.InsertCheck(ctx, c); err != nil {
			panic(err)
		}
	}
	if err := uow.Commit(); err != nil {
		panic(err)
	}

	fmt.Printf("Successfully seeded %d checks\n", len(checks))
}
