// Command seed loads the default model pricing table into Postgres so a fresh
// deployment can cost provider calls without manual setup. With -demo it also
// enqueues a couple of generation jobs for smoke-testing the pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"content-engine/internal/config"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
	"content-engine/internal/infra/db/postgres"
	"content-engine/internal/infra/logging"

	"github.com/oklog/ulid/v2"
)

// Rates are micro-dollars per 1K tokens.
var defaultPricing = []struct {
	model  string
	input  int64
	output int64
}{
	{"gpt-4o", 2500, 10000},
	{"gpt-4o-mini", 150, 600},
	{"o3-mini", 1100, 4400},
	{"gemini-2.0-flash", 100, 400},
	{"gemini-1.5-pro", 1250, 5000},
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	demo := flag.Bool("demo", false, "also enqueue demo generation jobs")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()

	repo := postgres.NewModelPricingRepo(pool)
	for _, p := range defaultPricing {
		mp := model.NewModelPricing(p.model, p.input, p.output, true)
		if err := repo.Save(ctx, repository.NoTX, mp); err != nil {
			logger.Fatal().Err(err).Str("model", p.model).Msg("seed pricing")
		}
		logger.Info().Str("model", p.model).
			Int64("input_per_1k_micros", p.input).
			Int64("output_per_1k_micros", p.output).
			Msg("model pricing saved")
	}
	logger.Info().Int("models", len(defaultPricing)).Msg("pricing seeded")

	if *demo {
		tm := postgres.NewTxManager(pool)
		jobs := postgres.NewGenerationJobRepo(pool, tm)
		topics := []string{"Getting Started with Vector Databases", "A Practical Guide to Go Worker Pools"}
		for _, topic := range topics {
			now := time.Now()
			job := &model.GenerationJob{
				ID:              ulid.Make().String(),
				BatchID:         "seed-demo",
				Topic:           topic,
				Category:        "article",
				TargetWordCount: 800,
				GeneratorType:   model.GeneratorSingleAgent,
				RequestedBy:     "seed",
				Status:          model.JobStatusQueued,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := jobs.Save(ctx, repository.NoTX, job); err != nil {
				logger.Fatal().Err(err).Str("topic", topic).Msg("seed demo job")
			}
			logger.Info().Str("job_id", job.ID).Str("topic", topic).Msg("demo job queued")
		}
	}
	logger.Info().Msg("seed complete")
}
