// ABOUTME: Entry point for the krishimitra dashboard server
// ABOUTME: serve / init / health subcommands with colorized startup output

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/krishimitra/krishimitra/internal/assistant"
	"github.com/krishimitra/krishimitra/internal/auth"
	"github.com/krishimitra/krishimitra/internal/chat"
	"github.com/krishimitra/krishimitra/internal/config"
	"github.com/krishimitra/krishimitra/internal/conversation"
	"github.com/krishimitra/krishimitra/internal/dashboard"
	"github.com/krishimitra/krishimitra/internal/locale"
	"github.com/krishimitra/krishimitra/internal/server"
	"github.com/krishimitra/krishimitra/internal/weather"
)

// version is set at build time.
var version = "dev"

const banner = `
  _         _     _     _           _ _
 | | ___ __(_)___| |__ (_)_ __ ___ (_) |_ _ __ __ _
 | |/ / '__| / __| '_ \| | '_ ' _ \| | __| '__/ _' |
 |   <| |  | \__ \ | | | | | | | | | | |_| | | (_| |
 |_|\_\_|  |_|___/_| |_|_|_| |_| |_|_|\__|_|  \__,_|
`

// getConfigPath returns the path to the server config file.
// Priority: KRISHIMITRA_CONFIG env var > XDG_CONFIG_HOME/krishimitra/server.yaml > ~/.config/krishimitra/server.yaml
func getConfigPath() string {
	if envPath := os.Getenv("KRISHIMITRA_CONFIG"); envPath != "" {
		return envPath
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "server.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "krishimitra", "server.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: krishimitra <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the dashboard server")
		fmt.Println("  init     Write an example config file")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Locale:   %s\n", cfg.Locale.Default)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	lang, _ := locale.Parse(cfg.Locale.Default)
	strs := locale.For(lang)

	seed, err := chat.Seed(strs.AssistantName, strs.Welcome)
	if err != nil {
		return fmt.Errorf("loading seed conversations: %w", err)
	}

	store := conversation.NewStore(seed, logger)
	events := conversation.NewBroadcaster(logger)

	gemini := assistant.NewGeminiClient(
		cfg.Assistant.BaseURL,
		cfg.Assistant.Model,
		cfg.Assistant.APIKey,
		cfg.Assistant.Timeout,
		logger,
	)

	svc := conversation.NewService(store, gemini, events, logger)
	svc.SetLocale(strs)

	dash, err := dashboard.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening dashboard store: %w", err)
	}
	defer dash.Close()

	forecaster := weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.Location, logger)
	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))

	srv := server.New(server.Options{
		Addr:        cfg.Server.HTTPAddr,
		Service:     svc,
		Store:       store,
		Events:      events,
		Dashboard:   dash,
		Forecaster:  forecaster,
		Recommender: gemini,
		Verifier:    verifier,
		TokenTTL:    cfg.Auth.TokenTTL,
		Logger:      logger,
	})

	return srv.Start(ctx)
}

const exampleConfig = `server:
  http_addr: ":8080"

database:
  path: data/dashboard.db

assistant:
  api_key: ${GEMINI_API_KEY}
  model: gemini-2.5-flash
  timeout: 30s

weather:
  location: "Jorthang, Sikkim"

auth:
  jwt_secret: ${KRISHIMITRA_JWT_SECRET}
  token_ttl: 24h

locale:
  default: en

logging:
  level: info
  format: text
`

func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("Wrote example config to %s\n", configPath)
	return nil
}

func runHealth(ctx context.Context) error {
	addr := os.Getenv("KRISHIMITRA_ADDR")
	if addr == "" {
		addr = "http://localhost:8080"
	}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, addr+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	var status map[string]string
	if err := json.Unmarshal(body, &status); err != nil || status["status"] != "ok" {
		return fmt.Errorf("unhealthy: status %d, body %s", resp.StatusCode, body)
	}
	color.New(color.FgGreen).Println("Server is healthy")
	return nil
}

// setupLogger builds the process-wide slog logger from config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
