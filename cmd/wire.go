package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	chainsource "github.com/vouchsec/vouch/internal/adapters/creds/chain"
	"github.com/vouchsec/vouch/internal/adapters/llm"
	memoryrepo "github.com/vouchsec/vouch/internal/adapters/repo/memory"
	tomlrepo "github.com/vouchsec/vouch/internal/adapters/repo/toml"
	"github.com/vouchsec/vouch/internal/application"
	"github.com/vouchsec/vouch/internal/ports"
)

type app struct {
	engine     *application.Engine
	vision     *application.VisionService
	repo       ports.SessionRepository
	logger     zerolog.Logger
	listenAddr string
}

func wireApp() (*app, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
	if envOrDefault("VOUCH_LOG", "console") == "json" {
		logger = zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	creds, err := chainsource.NewEnvFirstWithFileFallback(
		"VOUCH_API_KEY",
		envOrDefault("VOUCH_API_KEY_FILE", filepath.Join(homeDir, ".vouch", "api_key")),
	)
	if err != nil {
		return nil, fmt.Errorf("wire credential source: %w", err)
	}

	// A broken credential is a configuration error: refuse to serve rather
	// than run interviews that can never reach the model.
	if _, err := creds.APIKey(context.Background()); err != nil {
		return nil, fmt.Errorf("resolve provider credential: %w", err)
	}

	var repo ports.SessionRepository
	if envOrDefault("VOUCH_STORE", "memory") == "file" {
		fileRepo, err := tomlrepo.NewRepository(viper.New())
		if err != nil {
			return nil, fmt.Errorf("wire session repository: %w", err)
		}
		repo = fileRepo
	} else {
		repo = memoryrepo.NewRepository()
	}

	providerAPI := llm.API{BaseURL: envOrDefault("VOUCH_BASE_URL", "https://generativelanguage.googleapis.com")}
	resolver := &llm.Resolver{
		API:            providerAPI,
		Creds:          creds,
		HTTPClient:     http.DefaultClient,
		RequestTimeout: 30 * time.Second,
	}
	gateway := &llm.Gateway{
		API:            providerAPI,
		Resolver:       resolver,
		Creds:          creds,
		HTTPClient:     http.DefaultClient,
		RequestTimeout: 45 * time.Second,
		DefaultModel:   envOrDefault("VOUCH_DEFAULT_MODEL", "gemini-2.0-flash"),
		Logger:         logger,
	}

	return &app{
		engine:     application.NewEngine(repo, gateway, ports.SystemClock{}, logger),
		vision:     application.NewVisionService(repo, gateway, ports.SystemClock{}, logger),
		repo:       repo,
		logger:     logger,
		listenAddr: envOrDefault("VOUCH_LISTEN", "127.0.0.1:8080"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
