package main

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"orgscout/adapters/collect"
	"orgscout/adapters/llm"
	"orgscout/adapters/postgres"
	"orgscout/api"
	"orgscout/app"
	"orgscout/domain/signal"
	"orgscout/internal"
	"orgscout/internal/config"
	"orgscout/internal/errors"
	"orgscout/internal/migration"
	"orgscout/internal/retry"
	"orgscout/internal/validate"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
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

	collector := collect.NewHTTPCollector(channelEndpoints(), appConfig.Retry.CallTimeout, policy)

	store := postgres.NewSignalRepository(db)
	pipeline := validate.NewPipeline(validate.Config{
		MinEvidence:      appConfig.Validation.MinEvidence,
		MinConfidence:    appConfig.Validation.MinConfidence,
		CredibilityFloor: appConfig.Validation.CredibilityFloor,
		RecentWindow:     appConfig.Validation.RecentWindow,
		MaxConcurrent:    appConfig.Validation.MaxConcurrent,
	}, store, reasoning, internal.DefaultLogger)

	discoveryService := app.NewDiscoveryService(collector, reasoning, pipeline, appConfig.Discovery)
	validationService := app.NewValidationService(pipeline)

	apiApp := api.NewApp(discoveryService, validationService)
	if err := apiApp.Serve(appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// initDatabase connects to PostgreSQL and applies pending migrations.
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migration.NewRunner(db).Up(ctx); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

// channelEndpoints maps evidence channels to their collection endpoints.
// Templates take {org} and {entity_id} placeholders from the request.
func channelEndpoints() map[signal.ChannelType]collect.ChannelEndpoint {
	base := "https://collect.orgscout.internal"
	return map[signal.ChannelType]collect.ChannelEndpoint{
		signal.ChannelRFPListing:    {URLTemplate: base + "/rfp?org={org}&entity={entity_id}"},
		signal.ChannelProcurement:   {URLTemplate: base + "/procurement?org={org}&entity={entity_id}"},
		signal.ChannelCareersPage:   {URLTemplate: base + "/careers?org={org}&entity={entity_id}"},
		signal.ChannelPressRelease:  {URLTemplate: base + "/press?org={org}&entity={entity_id}"},
		signal.ChannelNewsSearch:    {URLTemplate: base + "/news?q={org}&entity={entity_id}"},
		signal.ChannelPublicFilings: {URLTemplate: base + "/filings?org={org}&entity={entity_id}"},
	}
}
