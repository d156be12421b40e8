// Command ingest validates analyst-curated candidates from a workbook and
// persists the ones that clear all three passes.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"orgscout/adapters/excel"
	"orgscout/adapters/llm"
	"orgscout/adapters/postgres"
	"orgscout/app"
	"orgscout/internal"
	"orgscout/internal/config"
	"orgscout/internal/retry"
	"orgscout/internal/validate"
)

func main() {
	workbook := flag.String("workbook", "", "path to the candidates workbook (.xlsx)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall batch timeout")
	flag.Parse()

	if *workbook == "" {
		log.Fatal("-workbook is required")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	policy := retry.Policy{
		MaxRetries: appConfig.Retry.MaxRetries,
		BaseDelay:  appConfig.Retry.BaseDelay,
		Jitter:     0.2,
	}

	llmClient, err := llm.NewClient(llm.Config{
		APIKey:      appConfig.AI.OpenAIKey,
		BaseURL:     appConfig.AI.BaseURL,
		Model:       appConfig.AI.OpenAIModel,
		Timeout:     appConfig.AI.CallTimeout,
		Temperature: appConfig.AI.Temperature,
		MaxTokens:   appConfig.AI.MaxTokens,
	})
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	reasoning := llm.NewReasoningAdapter(llmClient, policy)

	pipeline := validate.NewPipeline(validate.Config{
		MinEvidence:      appConfig.Validation.MinEvidence,
		MinConfidence:    appConfig.Validation.MinConfidence,
		CredibilityFloor: appConfig.Validation.CredibilityFloor,
		RecentWindow:     appConfig.Validation.RecentWindow,
		MaxConcurrent:    appConfig.Validation.MaxConcurrent,
	}, postgres.NewSignalRepository(db), reasoning, internal.DefaultLogger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	service := app.NewValidationService(pipeline)
	summary, err := service.IngestAndValidate(ctx, excel.NewCandidateReader(*workbook))
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	log.Printf("Done: %d validated, %d rejected in %.1fs",
		summary.ValidatedSignals, summary.RejectedSignals, summary.ValidationTimeSeconds)
	for _, rej := range summary.Rejections {
		log.Printf("  rejected %s/%s at pass %d: %s", rej.EntityID, rej.SignalType, rej.Pass, rej.Reason)
	}
}
