// ABOUTME: Data types for the dashboard widgets: market, schemes, ads, forum, soil, water
// ABOUTME: Passive view records served straight to the presentation surface

package dashboard

import "time"

// MarketPrice is one crop's mandi price with day-over-day change.
type MarketPrice struct {
	Crop   string  `json:"crop"`
	Price  float64 `json:"price"`  // INR per quintal
	Change float64 `json:"change"` // signed, same unit
}

// GovernmentScheme is a scheme entry shown in the schemes widget.
type GovernmentScheme struct {
	Name        string   `json:"scheme_name"`
	IssuingBody string   `json:"issuing_body"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
	Eligibility string   `json:"eligibility"`
	Link        string   `json:"link"`
}

// Advertisement is a sponsored product card.
type Advertisement struct {
	Company      string `json:"company"`
	ProductName  string `json:"product_name"`
	Description  string `json:"description"`
	ImagePrompt  string `json:"image_prompt"`
	CallToAction string `json:"call_to_action"`
}

// ForumPost is a community forum teaser row.
type ForumPost struct {
	ID      int64  `json:"id"`
	Author  string `json:"author"`
	Title   string `json:"title"`
	Replies int    `json:"replies"`
}

// SoilReading is one soil sensor sample.
type SoilReading struct {
	PH         float64   `json:"ph"`
	Moisture   float64   `json:"moisture"` // percent
	Nitrogen   float64   `json:"nitrogen"`
	Phosphorus float64   `json:"phosphorus"`
	Potassium  float64   `json:"potassium"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WaterStorage is the current tank state.
type WaterStorage struct {
	LevelPercent   int `json:"level_percent"`
	CapacityLiters int `json:"capacity_liters"`
}
