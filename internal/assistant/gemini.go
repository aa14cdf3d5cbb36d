// ABOUTME: Gemini generateContent client implementing the Responder contract
// ABOUTME: Formats the transcript as Farmer/Assistant turns under a fixed system instruction

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/krishimitra/krishimitra/internal/chat"
)

const systemInstruction = "You are Agro Assistant, a helpful AI expert in agriculture, especially for hilly regions in India like Sikkim. Your answers should be concise, helpful, and easy to understand for farmers. Always be polite and encouraging. Respond in the same language as the user's last message."

// DefaultBaseURL is the Gemini REST endpoint prefix.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is used when the config does not name one.
const DefaultModel = "gemini-2.5-flash"

// GeminiClient talks to the Gemini generateContent REST API. Stateless per
// invocation; safe for concurrent use.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	logger     *slog.Logger
}

// NewGeminiClient creates a client. Empty baseURL and model fall back to the
// defaults; timeout bounds each request.
func NewGeminiClient(baseURL, model, apiKey string, timeout time.Duration, logger *slog.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		logger:     logger.With("component", "assistant"),
	}
}

// generateRequest is the generateContent JSON request body.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	TopP             float64 `json:"topP,omitempty"`
	TopK             int     `json:"topK,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// generateResponse is the subset of the response we read.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Complete sends the transcript and returns the assistant's reply.
func (c *GeminiClient) Complete(ctx context.Context, history []chat.Message, localUser chat.User) (string, error) {
	prompt := buildPrompt(history, localUser)
	req := &generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			MaxOutputTokens: 250,
			Temperature:     0.7,
			TopP:            0.9,
			TopK:            40,
		},
	}
	text, err := c.generate(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// buildPrompt renders the transcript as alternating Farmer/Assistant lines
// under the system instruction.
func buildPrompt(history []chat.Message, localUser chat.User) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\nHere is the conversation so far:\n")
	for _, msg := range history {
		role := "Assistant"
		if msg.SenderID == localUser.ID {
			role = "Farmer"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(msg.Text)
		b.WriteString("\n")
	}
	b.WriteString("\nAssistant:")
	return b.String()
}

// generate performs one generateContent call and extracts the first
// candidate's text.
func (c *GeminiClient) generate(ctx context.Context, req *generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", ErrResponse, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrResponse, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("assistant returned non-OK status",
			"status", resp.StatusCode,
			"body", string(snippet))
		return "", fmt.Errorf("%w: status %d", ErrResponse, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrResponse, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrResponse)
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
