package config

import (
	"os"
	"strconv"
	"time"

	"orgscout/domain/signal"
	"orgscout/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	AI         AIConfig
	Server     ServerConfig
	Discovery  DiscoveryConfig
	Validation ValidationConfig
	Retry      RetryConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// AIConfig holds reasoning-collaborator settings
type AIConfig struct {
	OpenAIKey   string
	OpenAIModel string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	CallTimeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DiscoveryConfig bounds the discovery loop and parameterizes confidence
// scoring. Delta/bonus/threshold values are empirically chosen defaults and
// stay configurable rather than baked in as constants.
type DiscoveryConfig struct {
	MaxIterations      int
	MaxCost            float64
	HopCost            float64
	ReasoningCost      float64
	BlacklistThreshold int

	AcceptDelta       float64
	WeakAcceptDelta   float64
	AcceptThreshold   float64
	WeakAcceptCeiling float64
	TemporalBonus     float64
	MultiYearBonus    float64
	RecencyWindow     time.Duration
}

// ValidationConfig parameterizes the three-pass validation pipeline
type ValidationConfig struct {
	MinEvidence      int
	MinConfidence    float64
	CredibilityFloor float64
	RecentWindow     time.Duration
	MaxConcurrent    int64
}

// RetryConfig holds the shared external-call retry budget
type RetryConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	CallTimeout time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}
	config.AI = *aiConfig

	config.Server = *loadServerConfig()
	config.Discovery = *loadDiscoveryConfig()
	config.Validation = *loadValidationConfig()
	config.Retry = *loadRetryConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:     url,
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}, nil
}

func loadAIConfig() (*AIConfig, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		return nil, errors.ConfigInvalid("OPENAI_API_KEY is required")
	}

	return &AIConfig{
		OpenAIKey:   openaiKey,
		OpenAIModel: getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		BaseURL:     getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		MaxTokens:   getEnvIntOrDefault("MAX_TOKENS", 1500),
		Temperature: getEnvFloatOrDefault("TEMPERATURE", 0.2),
		CallTimeout: getEnvDurationOrDefault("LLM_TIMEOUT", 30*time.Second),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

// LoadDiscoveryConfig exposes the discovery defaults for tests and CLIs
// that run without the full environment.
func LoadDiscoveryConfig() *DiscoveryConfig {
	return loadDiscoveryConfig()
}

func loadDiscoveryConfig() *DiscoveryConfig {
	return &DiscoveryConfig{
		MaxIterations:      getEnvIntOrDefault("MAX_ITERATIONS", 12),
		MaxCost:            getEnvFloatOrDefault("MAX_COST", 50.0),
		HopCost:            getEnvFloatOrDefault("HOP_COST", 1.0),
		ReasoningCost:      getEnvFloatOrDefault("REASONING_COST", 2.0),
		BlacklistThreshold: getEnvIntOrDefault("BLACKLIST_THRESHOLD", 2),

		AcceptDelta:       getEnvFloatOrDefault("ACCEPT_DELTA", 0.06),
		WeakAcceptDelta:   getEnvFloatOrDefault("WEAK_ACCEPT_DELTA", 0.02),
		AcceptThreshold:   getEnvFloatOrDefault("ACCEPT_THRESHOLD", 0.70),
		WeakAcceptCeiling: getEnvFloatOrDefault("WEAK_ACCEPT_CEILING", 0.70),
		TemporalBonus:     getEnvFloatOrDefault("TEMPORAL_BONUS", 0.05),
		MultiYearBonus:    getEnvFloatOrDefault("MULTI_YEAR_BONUS", 0.03),
		RecencyWindow:     getEnvDurationOrDefault("RECENCY_WINDOW", 6*30*24*time.Hour),
	}
}

// LoadValidationConfig exposes the validation defaults for tests and CLIs.
func LoadValidationConfig() *ValidationConfig {
	return loadValidationConfig()
}

func loadValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MinEvidence:      getEnvIntOrDefault("MIN_EVIDENCE", 3),
		MinConfidence:    getEnvFloatOrDefault("MIN_CONFIDENCE", 0.7),
		CredibilityFloor: getEnvFloatOrDefault("CREDIBILITY_FLOOR", 0.6),
		RecentWindow:     getEnvDurationOrDefault("RECENT_SIGNAL_WINDOW", 90*24*time.Hour),
		MaxConcurrent:    int64(getEnvIntOrDefault("MAX_CONCURRENT_VALIDATIONS", 4)),
	}
}

func loadRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  getEnvIntOrDefault("MAX_RETRIES", 2),
		BaseDelay:   getEnvDurationOrDefault("RETRY_BASE_DELAY", 500*time.Millisecond),
		CallTimeout: getEnvDurationOrDefault("CALL_TIMEOUT", 8*time.Second),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.AI.OpenAIKey == "" {
		return errors.ConfigInvalid("OpenAI API key is required")
	}
	if config.Validation.MinEvidence < 1 {
		return errors.ConfigInvalid("MIN_EVIDENCE must be at least 1")
	}
	if config.Validation.MinConfidence < 0 || config.Validation.MinConfidence > 1 {
		return errors.ConfigInvalid("MIN_CONFIDENCE must be within [0,1]")
	}
	if config.Discovery.BlacklistThreshold < 1 {
		return errors.ConfigInvalid("BLACKLIST_THRESHOLD must be at least 1")
	}
	return nil
}

// DefaultChannelWeights returns the base expected-information-gain weight
// per channel type. These are configuration, not computed values.
func DefaultChannelWeights() map[signal.ChannelType]float64 {
	return map[signal.ChannelType]float64{
		signal.ChannelRFPListing:    0.9,
		signal.ChannelProcurement:   0.85,
		signal.ChannelCareersPage:   0.6,
		signal.ChannelPressRelease:  0.55,
		signal.ChannelNewsSearch:    0.5,
		signal.ChannelPublicFilings: 0.4,
	}
}

// DefaultChannelCredibility returns the per-channel credibility assigned to
// evidence collected from that channel type.
func DefaultChannelCredibility() map[signal.ChannelType]float64 {
	return map[signal.ChannelType]float64{
		signal.ChannelRFPListing:    0.9,
		signal.ChannelProcurement:   0.85,
		signal.ChannelCareersPage:   0.7,
		signal.ChannelPressRelease:  0.75,
		signal.ChannelNewsSearch:    0.6,
		signal.ChannelPublicFilings: 0.8,
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
