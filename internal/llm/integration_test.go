//go:build integration

package llm_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/blockedby/jobpost/internal/llm"
	"github.com/blockedby/jobpost/internal/models"
)

func TestIntegration_Predict(t *testing.T) {
	_ = godotenv.Load("../../.env")

	baseURL := os.Getenv("LLM_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping integration test: LLM_BASE_URL not set")
	}

	client := llm.NewClient(llm.Config{
		BaseURL:     baseURL,
		Model:       os.Getenv("LLM_MODEL"),
		APIKey:      os.Getenv("LLM_API_KEY"),
		MaxTokens:   300,
		Temperature: 0.1,
		Timeout:     60 * time.Second,
	})
	p := llm.NewPredictor(client, nil, nil, nil, nil)

	pred, err := p.Predict(context.Background(), models.PredictionRequest{
		Title:       "Fix leaking kitchen faucet",
		Description: "Faucet drips constantly, may need a new cartridge",
		CategoryID:  1,
		Urgency:     models.UrgencyMedium,
	})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.MinPrice > pred.SuggestedPrice || pred.SuggestedPrice > pred.MaxPrice {
		t.Errorf("inconsistent range: %+v", pred)
	}
	t.Logf("prediction: %+v", pred)
}
