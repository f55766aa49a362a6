//go:build integration

package generativeAI

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-day-planner/config"
)

func integrationConfig(t *testing.T) config.LLMConfig {
	t.Helper()
	key := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if key == "" {
		t.Skip("Skipping integration test: GOOGLE_GEMINI_API_KEY not set")
	}
	return config.LLMConfig{APIKey: key, Model: defaultModel, Timeout: 30 * time.Second}
}

func TestNewAIClient_Integration(t *testing.T) {
	client, err := NewAIClient(context.Background(), integrationConfig(t))
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, defaultModel, client.Model())
}

func TestAIClient_GenerateContent_Integration(t *testing.T) {
	ctx := context.Background()
	client, err := NewAIClient(ctx, integrationConfig(t))
	require.NoError(t, err)

	t.Run("Generate JSON for a simple request", func(t *testing.T) {
		cfg := &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0.1),
			ResponseMIMEType: "application/json",
		}
		response, err := client.GenerateContent(ctx, `Return {"city": "<capital of Portugal>"} as JSON.`, cfg)
		require.NoError(t, err)
		assert.Contains(t, strings.ToLower(response), "lisbon")
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.GenerateContent(cancelled, "hello", nil)
		require.Error(t, err)
	})
}
