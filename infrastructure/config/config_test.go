package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "config/credentials.yaml", cfg.CredentialsFile)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLMBaseURL)
	assert.Equal(t, "gemma2-9b-it", cfg.LLMModel)
	assert.Equal(t, "roadmaps", cfg.DynamoDBTable)
	assert.True(t, cfg.EnableCORS)
	assert.True(t, cfg.EnableMetrics)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfigFlagsFromEnv(t *testing.T) {
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("ENABLE_CORS", "0")
	t.Setenv("USE_MEMORY_STORE", "yes")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableCORS)
	assert.True(t, cfg.UseMemoryStore)
}

func TestValidateProductionRequiresAPIKey(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("GROQ_API_KEY", "gsk_test")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
