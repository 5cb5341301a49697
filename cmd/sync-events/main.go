package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"boxoffice/internal/config"
	"boxoffice/internal/database"
	"boxoffice/internal/logger"
	"boxoffice/internal/repository"
	"boxoffice/internal/search"
)

const syncPageSize = 200

func main() {
	var index string
	flag.StringVar(&index, "index", "", "Override the target index name")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if index != "" {
		cfg.Search.Index = index
	}

	slog.Info("Starting event index synchronization", "index", cfg.Search.Index)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	searchClient, err := search.NewClient(cfg.Search)
	if err != nil {
		log.Fatalf("Failed to connect to Elasticsearch: %v", err)
	}

	store := repository.NewStore(db)

	if err := syncEvents(context.Background(), store, searchClient); err != nil {
		log.Fatalf("Event synchronization failed: %v", err)
	}

	slog.Info("Event synchronization completed successfully")
}

func syncEvents(ctx context.Context, store *repository.Store, searchClient *search.Client) error {
	start := time.Now()
	indexed := 0

	for page := 1; ; page++ {
		events, err := store.ListEvents(ctx, page, syncPageSize)
		if err != nil {
			return fmt.Errorf("failed to list events (page %d): %w", page, err)
		}
		if len(events) == 0 {
			break
		}

		for _, event := range events {
			if err := searchClient.IndexEvent(ctx, event); err != nil {
				return fmt.Errorf("failed to index event %s: %w", event.ID, err)
			}
			indexed++
		}

		if len(events) < syncPageSize {
			break
		}
	}

	slog.Info("Indexed events", "count", indexed, "duration", time.Since(start))
	return nil
}
