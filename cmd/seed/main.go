package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/weekboard/internal/adapters/repository"
	"github.com/okian/weekboard/internal/seed"
	"github.com/okian/weekboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultItems    = 120
	defaultWeeks    = 8
	defaultWorkers  = 4
	defaultGapRate  = 0.1
	defaultZeroRate = 0.05
	defaultTimeout  = 5 * time.Minute
)

func main() {
	var (
		uri      = flag.String("url", "mongodb://localhost:27017", "MongoDB URI")
		database = flag.String("database", "weekboard", "Database name")
		slug     = flag.String("slug", "top-sellers", "Collection slug")
		name     = flag.String("name", "Top Sellers", "Collection name")
		items    = flag.Int("items", defaultItems, "Number of items")
		weeks    = flag.Int("weeks", defaultWeeks, "Weeks of history ending today")
		seedVal  = flag.Uint64("seed", 1, "Random seed")
		gap      = flag.Float64("gap", defaultGapRate, "Probability of a missing daily snapshot")
		zero     = flag.Float64("zero", defaultZeroRate, "Probability of an unranked snapshot")
		workers  = flag.Int("workers", defaultWorkers, "Concurrent write batches")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	store, err := repository.New(ctx, *uri, repository.WithDatabase(*database), repository.WithLogger(log.Named("mongo")))
	if err != nil {
		log.Error(ctx, "connect mongo", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = store.Close(context.Background()) }()

	_, err = seed.Run(ctx, seed.Config{
		Slug:     *slug,
		Name:     *name,
		Items:    *items,
		Weeks:    *weeks,
		Seed:     *seedVal,
		Now:      time.Now(),
		GapRate:  *gap,
		ZeroRate: *zero,
		Workers:  *workers,
	}, store, log.Named("seed"))
	if err != nil {
		log.Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
}
