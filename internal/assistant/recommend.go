// ABOUTME: Structured crop recommendations from the model via JSON response mime
// ABOUTME: Used by the dashboard's crop recommendation endpoint

package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CropRecommendation is one recommended crop for the given conditions.
type CropRecommendation struct {
	CropName      string   `json:"cropName"`
	Reasons       []string `json:"recommendationReasons"`
	SowingSeason  string   `json:"sowingSeason"`
	GrowingPeriod string   `json:"growingPeriod"`
	WaterNeeds    string   `json:"waterNeeds"`
}

// RecommendCrops asks the model for crops suited to the season, soil type and
// altitude. The model is instructed to answer with a JSON array matching
// CropRecommendation.
func (c *GeminiClient) RecommendCrops(ctx context.Context, season, soilType string, altitude int) ([]CropRecommendation, error) {
	prompt := fmt.Sprintf(`As an expert in agriculture for hilly regions of India, provide crop recommendations.

Current Conditions:
- Season: %s
- Soil Type: %s
- Altitude: %d meters

Provide a list of 3 suitable crops as a JSON array. Each element must have the keys
"cropName" (string), "recommendationReasons" (array of 3-4 strings explaining why the
crop suits the season, soil and altitude), "sowingSeason" (string), "growingPeriod"
(string, e.g. "90-100 days") and "waterNeeds" (string: Low, Medium or High).

Focus on crops that are efficient and profitable for small-scale farmers in these regions.`,
		season, soilType, altitude)

	req := &generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
		},
	}
	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var recs []CropRecommendation
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &recs); err != nil {
		return nil, fmt.Errorf("%w: decoding recommendations: %v", ErrResponse, err)
	}
	return recs, nil
}
