package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/database"
	"github.com/stemsi/schoolhub-backend/internal/logger"
	"github.com/stemsi/schoolhub-backend/internal/repository"
)

// postgresIndexes are the result indexes the migrations are expected to create.
var postgresIndexes = []string{
	"uniq_exam_results_key",
	"idx_exam_results_status_queue",
	"idx_exam_results_student_status",
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Printf("=== Ensure Result Indexes (store: %s) ===\n", cfg.ResultStore)

	switch cfg.ResultStore {
	case config.StoreMongo:
		client, db, err := database.NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())

		names, err := repository.NewMongoResultRepository(db).EnsureIndexes(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create indexes")
		}
		for _, name := range names {
			fmt.Printf("  ok  %s\n", name)
		}

	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		rows, err := pool.Query(ctx, `SELECT indexname FROM pg_indexes WHERE tablename = 'exam_results'`)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to query indexes")
		}
		existing := make(map[string]bool)
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				log.Fatal().Err(err).Msg("Failed to scan index name")
			}
			existing[name] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			log.Fatal().Err(err).Msg("Error iterating over indexes")
		}

		missing := 0
		for _, name := range postgresIndexes {
			if existing[name] {
				fmt.Printf("  ok       %s\n", name)
				continue
			}
			missing++
			fmt.Printf("  missing  %s\n", name)
		}
		if missing > 0 {
			fmt.Println("Run `migrate up` to create the missing indexes.")
			os.Exit(1)
		}

	default:
		fmt.Println("Nothing to do for this result store.")
	}
}
