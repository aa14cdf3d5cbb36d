// ABOUTME: wttr.in forecast client for the weather widget
// ABOUTME: Maps current conditions plus the next five hourly slots, spilling into tomorrow

package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public wttr.in endpoint.
const DefaultBaseURL = "https://wttr.in"

// HourlySlot is one forecast interval shown in the widget.
type HourlySlot struct {
	Time      string  `json:"time"` // display-formatted, e.g. "3 PM"
	Temp      int     `json:"temp"`
	Humidity  int     `json:"humidity"`
	Rainfall  float64 `json:"rainfall"` // mm
	Condition string  `json:"condition"`
}

// Forecast is the weather widget's view data.
type Forecast struct {
	Temperature int          `json:"temperature"`
	Humidity    int          `json:"humidity"`
	Rainfall    float64      `json:"rainfall"`
	Condition   string       `json:"condition"`
	Hourly      []HourlySlot `json:"hourly_forecast"`
}

// wttr.in ?format=j1 response subset.
type wttrResponse struct {
	CurrentCondition []wttrCondition `json:"current_condition"`
	Weather          []wttrDay       `json:"weather"`
}

type wttrCondition struct {
	TempC       string        `json:"temp_C"`
	Humidity    string        `json:"humidity"`
	PrecipMM    string        `json:"precipMM"`
	WeatherDesc []wttrDescVal `json:"weatherDesc"`
}

type wttrDay struct {
	Hourly []wttrHourly `json:"hourly"`
}

type wttrHourly struct {
	Time        string        `json:"time"` // "0", "300", "600", ...
	TempC       string        `json:"tempC"`
	Humidity    string        `json:"humidity"`
	PrecipMM    string        `json:"precipMM"`
	WeatherDesc []wttrDescVal `json:"weatherDesc"`
}

type wttrDescVal struct {
	Value string `json:"value"`
}

// Client fetches forecasts for a fixed location.
type Client struct {
	httpClient *http.Client
	baseURL    string
	location   string
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a weather client. Empty baseURL falls back to wttr.in.
func NewClient(baseURL, location string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		location:   location,
		logger:     logger.With("component", "weather"),
		now:        time.Now,
	}
}

// Current fetches the current conditions and the next five hourly slots.
func (c *Client) Current(ctx context.Context) (*Forecast, error) {
	reqURL := fmt.Sprintf("%s/%s?format=j1", c.baseURL, url.PathEscape(c.location))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather service returned status %d", resp.StatusCode)
	}

	var decoded wttrResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}
	if len(decoded.CurrentCondition) == 0 || len(decoded.Weather) == 0 {
		return nil, fmt.Errorf("weather response missing current conditions")
	}

	current := decoded.CurrentCondition[0]
	forecast := &Forecast{
		Temperature: atoi(current.TempC),
		Humidity:    atoi(current.Humidity),
		Rainfall:    atof(current.PrecipMM),
		Condition:   desc(current.WeatherDesc),
		Hourly:      c.hourly(decoded.Weather),
	}
	return forecast, nil
}

// hourly picks the next five slots starting from the current hour, spilling
// into tomorrow when today has fewer than five left.
func (c *Client) hourly(days []wttrDay) []HourlySlot {
	currentHour := c.now().Hour()

	var pool []wttrHourly
	for _, h := range days[0].Hourly {
		if atoi(h.Time)/100 >= currentHour {
			pool = append(pool, h)
		}
	}
	if len(pool) < 5 && len(days) > 1 {
		pool = append(pool, days[1].Hourly...)
	}
	if len(pool) > 5 {
		pool = pool[:5]
	}

	out := make([]HourlySlot, 0, len(pool))
	for _, h := range pool {
		slotHour := atoi(h.Time) / 100
		display := time.Date(2000, 1, 1, slotHour, 0, 0, 0, time.UTC).Format("3 PM")
		out = append(out, HourlySlot{
			Time:      display,
			Temp:      atoi(h.TempC),
			Humidity:  atoi(h.Humidity),
			Rainfall:  atof(h.PrecipMM),
			Condition: desc(h.WeatherDesc),
		})
	}
	return out
}

func desc(vals []wttrDescVal) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0].Value
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
