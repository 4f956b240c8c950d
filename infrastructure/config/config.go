package config

import (
	"fmt"
	"os"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Credential store
	CredentialsFile  string
	WatchCredentials bool

	// LLM provider (OpenAI-compatible endpoint)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// AWS / roadmap store
	AWSRegion      string
	DynamoDBTable  string
	UseMemoryStore bool

	// Logging
	LogLevel string

	// Feature flags
	EnableCORS    bool
	EnableMetrics bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		CredentialsFile:  getEnv("CREDENTIALS_FILE", "config/credentials.yaml"),
		WatchCredentials: getEnvBool("WATCH_CREDENTIALS", true),

		LLMAPIKey:  getEnv("GROQ_API_KEY", os.Getenv("LLM_API_KEY")),
		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:   getEnv("LLM_MODEL", "gemma2-9b-it"),

		AWSRegion:      getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable:  getEnv("DYNAMODB_TABLE", "roadmaps"),
		UseMemoryStore: getEnvBool("USE_MEMORY_STORE", false),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.LLMAPIKey == "" && c.IsProduction() {
		return fmt.Errorf("GROQ_API_KEY is required in production")
	}
	if c.IsProduction() && !c.UseMemoryStore && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}
