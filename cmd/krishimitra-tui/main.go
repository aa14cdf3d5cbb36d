// ABOUTME: Terminal chat client for the krishimitra server via HTTP API
// ABOUTME: Readline-style input with SSE streaming output and colorized messages

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
)

// loginRequest is the JSON body sent to POST /api/login.
type loginRequest struct {
	UserID string `json:"user_id"`
}

// loginResponse is the JSON response from POST /api/login.
type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

// conversationInfo is the JSON shape of one conversation from the API.
type conversationInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	IsGroup   bool   `json:"is_group"`
	Assistant bool   `json:"assistant"`
	Messages  []struct {
		SenderID  string `json:"sender_id"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	} `json:"messages"`
}

// sendRequest is the JSON body for sending a message.
type sendRequest struct {
	Text string `json:"text"`
}

// engineEvent is a parsed SSE payload from the event stream.
type engineEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Composing      bool   `json:"composing"`
	Message        *struct {
		SenderID  string `json:"sender_id"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	} `json:"message,omitempty"`
}

type client struct {
	serverURL string
	token     string
	userID    string
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "Path to TOML config")
	serverFlag := flag.String("server", "", "Server URL (overrides config)")
	userFlag := flag.String("user", "", "User id to log in as (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *serverFlag != "" {
		cfg.Server.URL = *serverFlag
	}
	if *userFlag != "" {
		cfg.User.ID = *userFlag
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config) error {
	c := &client{serverURL: strings.TrimRight(cfg.Server.URL, "/"), userID: cfg.User.ID}

	login, err := c.login(ctx)
	if err != nil {
		return err
	}
	c.token = login.Token

	cyan := color.New(color.FgCyan)
	cyan.Printf("krishimitra-tui connected to %s as %s\n\n", c.serverURL, login.User.Name)

	convs, err := c.listConversations(ctx)
	if err != nil {
		return err
	}
	for i, conv := range convs {
		marker := " "
		if conv.Assistant {
			marker = "✨"
		}
		fmt.Printf("  [%d] %s %s\n", i+1, marker, conv.Name)
	}
	fmt.Println()

	fmt.Print("Pick a conversation: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 1 || idx > len(convs) {
		return fmt.Errorf("invalid selection")
	}
	conv := convs[idx-1]

	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	for _, msg := range conv.Messages {
		printMessage(msg.SenderID, c.userID, msg.Text, msg.Timestamp)
	}
	gray.Println("--- type a message, /quit to exit ---")

	go c.streamEvents(ctx, conv.ID)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		text, err := reader.ReadString('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "/quit" {
			return nil
		}
		if text == "" {
			continue
		}
		if err := c.send(ctx, conv.ID, text); err != nil {
			color.New(color.FgRed).Printf("send failed: %v\n", err)
			continue
		}
		green.Print("sent ✓\n")
	}
}

func (c *client) login(ctx context.Context) (*loginResponse, error) {
	body, _ := json.Marshal(loginRequest{UserID: c.userID})
	resp, err := c.do(ctx, http.MethodPost, "/api/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed: status %d", resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	return &out, nil
}

func (c *client) listConversations(ctx context.Context) ([]conversationInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/conversations", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing conversations: status %d", resp.StatusCode)
	}
	var out []conversationInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding conversations: %w", err)
	}
	return out, nil
}

func (c *client) send(ctx context.Context, convID, text string) error {
	body, _ := json.Marshal(sendRequest{Text: text})
	resp, err := c.do(ctx, http.MethodPost, "/api/conversations/"+convID+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// streamEvents follows the SSE stream and prints incoming events until ctx is
// cancelled or the connection drops.
func (c *client) streamEvents(ctx context.Context, convID string) {
	resp, err := c.do(ctx, http.MethodGet, "/api/conversations/"+convID+"/events", nil)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	gray := color.New(color.FgHiBlack)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event engineEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			continue
		}
		switch event.Type {
		case "composing":
			if event.Composing {
				gray.Println("assistant is composing…")
			}
		case "message":
			if event.Message != nil && event.Message.SenderID != c.userID {
				printMessage(event.Message.SenderID, c.userID, event.Message.Text, event.Message.Timestamp)
			}
		}
	}
}

func printMessage(senderID, localUserID, text, timestamp string) {
	gray := color.New(color.FgHiBlack)
	switch senderID {
	case localUserID:
		color.New(color.FgGreen).Printf("you: ")
	case "user_ai":
		color.New(color.FgCyan).Printf("assistant: ")
	default:
		color.New(color.FgYellow).Printf("%s: ", senderID)
	}
	fmt.Print(text)
	gray.Printf("  (%s)\n", timestamp)
}

func (c *client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return http.DefaultClient.Do(req)
}
