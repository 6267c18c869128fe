// Package ai provides the external fare-prediction collaborator backed by
// Google's Gemini models. The prediction is advisory: callers bound it with
// a timeout and keep the deterministic formula as the source of truth.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"rideflow/internal/modules/pricing"
)

// GeminiPredictor implements pricing.Predictor.
type GeminiPredictor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiPredictor initializes the Gemini client. apiKey comes from the
// environment.
func NewGeminiPredictor(ctx context.Context, apiKey string) (*GeminiPredictor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash for low latency; the call sits on the ride-creation path.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	// Predictions should be repeatable, not creative.
	model.SetTemperature(0.0)

	return &GeminiPredictor{client: client, model: model}, nil
}

func (p *GeminiPredictor) Close() {
	p.client.Close()
}

var _ pricing.Predictor = (*GeminiPredictor)(nil)

type prediction struct {
	FareUSD float64 `json:"fare_usd"`
}

// PredictFare asks the model for a market-rate fare given the trip
// features. Any transport, parse, or shape problem is an error; the caller
// falls back to the formula.
func (p *GeminiPredictor) PredictFare(ctx context.Context, f pricing.Features) (float64, error) {
	prompt := buildPrompt(f)

	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return 0, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return 0, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	cleanJSON := cleanJSONString(responseText.String())
	var out prediction
	if err := json.Unmarshal([]byte(cleanJSON), &out); err != nil {
		return 0, fmt.Errorf("failed to parse prediction: %w. Raw: %s", err, cleanJSON)
	}
	return out.FareUSD, nil
}

func buildPrompt(f pricing.Features) string {
	return fmt.Sprintf(`You are a ride-fare estimation model for a US ride-hailing platform.
Given the trip below, respond with JSON of the form {"fare_usd": <number>} and nothing else.

Trip:
- distance_miles: %.2f
- duration_minutes: %.1f
- pickup_time: %s
- pickup: (%.5f, %.5f)
- dropoff: (%.5f, %.5f)
- vehicle_type: %s`,
		f.DistanceMiles,
		f.DurationMinutes,
		f.PickupTime.Format("2006-01-02 15:04 Mon"),
		f.Pickup.Lat, f.Pickup.Lng,
		f.Dropoff.Lat, f.Dropoff.Lng,
		f.VehicleType,
	)
}

// cleanJSONString strips markdown code fences the model sometimes adds
// despite the JSON response MIME type.
func cleanJSONString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
