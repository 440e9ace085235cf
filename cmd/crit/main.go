package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rrowland/crit/internal/adapter/cli"
	"github.com/rrowland/crit/internal/adapter/git"
	githubadapter "github.com/rrowland/crit/internal/adapter/github"
	"github.com/rrowland/crit/internal/adapter/llm"
	"github.com/rrowland/crit/internal/adapter/llm/anthropic"
	llmhttp "github.com/rrowland/crit/internal/adapter/llm/http"
	"github.com/rrowland/crit/internal/adapter/llm/openai"
	"github.com/rrowland/crit/internal/adapter/llm/static"
	"github.com/rrowland/crit/internal/adapter/observability"
	"github.com/rrowland/crit/internal/adapter/output/markdown"
	storeadapter "github.com/rrowland/crit/internal/adapter/store"
	"github.com/rrowland/crit/internal/adapter/store/sqlite"
	"github.com/rrowland/crit/internal/config"
	"github.com/rrowland/crit/internal/determinism"
	"github.com/rrowland/crit/internal/usecase/review"
	"github.com/rrowland/crit/internal/version"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, cli.ErrShouldReview) {
			os.Exit(1)
		}
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "crit",
		EnvPrefix:   "CRIT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	repoName := repositoryName(repoDir)
	gitEngine := git.NewEngine(repoDir)

	reviewLogger := buildLogger(cfg.Observability)

	providers := buildProviders(cfg.Providers, cfg.HTTP)

	// Timestamp function used for report file naming.
	nowFunc := func() string {
		return time.Now().UTC().Format("2006-01-02T15-04-05Z")
	}
	markdownWriter := markdown.NewWriter(nowFunc)

	var reviewStore review.Store
	var historyStore cli.HistoryReader
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else if sqliteStore, err := sqlite.NewStore(cfg.Store.Path); err != nil {
			log.Printf("warning: failed to initialize store: %v", err)
		} else {
			bridge := storeadapter.NewBridge(sqliteStore)
			defer bridge.Close()
			reviewStore = bridge
			historyStore = sqliteStore
		}
	}

	var host review.PullRequestHost
	var poster review.ReviewPoster
	if token := githubToken(cfg.GitHub); token != "" {
		client := githubadapter.NewClient(token)
		if cfg.GitHub.BaseURL != "" {
			client.SetBaseURL(cfg.GitHub.BaseURL)
		}
		client.SetTimeout(llmhttp.ParseTimeout(nil, cfg.HTTP.Timeout, 60*time.Second))
		if cfg.HTTP.MaxRetries > 0 {
			client.SetMaxRetries(cfg.HTTP.MaxRetries)
		}
		host = client

		p := githubadapter.NewPoster(client)
		if reviewLogger != nil {
			p.SetLogger(reviewLogger)
		}
		poster = p
	}

	promptBuilder := review.NewPromptBuilder()
	if cfg.Review.Instructions != "" {
		promptBuilder.SetInstructions(cfg.Review.Instructions)
	}
	if cfg.Review.MaxPromptTokens > 0 {
		promptBuilder.SetTokenLimit(cfg.Review.MaxPromptTokens, llm.EstimateTokens)
	}

	orchestrator := review.NewOrchestrator(review.Deps{
		Git:           gitEngine,
		Host:          host,
		Providers:     providers,
		Poster:        poster,
		Markdown:      markdownWriter,
		Store:         reviewStore,
		Logger:        reviewLogger,
		PromptBuilder: promptBuilder,
		SeedGenerator: determinism.GenerateSeed,
		ContextLines:  cfg.Review.ContextLines,
	})

	root := cli.NewRootCommand(cli.Dependencies{
		PullRequests:  orchestrator,
		Local:         orchestrator,
		History:       historyStore,
		DefaultOutput: cfg.Output.Directory,
		DefaultRepo:   repoName,
		DefaultReviewActions: cli.DefaultReviewActions{
			OnCritical: cfg.Review.Actions.OnCritical,
			OnHigh:     cfg.Review.Actions.OnHigh,
			OnMedium:   cfg.Review.Actions.OnMedium,
			OnLow:      cfg.Review.Actions.OnLow,
			OnClean:    cfg.Review.Actions.OnClean,
		},
		DefaultBotUsername: cfg.GitHub.BotUsername,
		Version:            version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		if errors.Is(err, cli.ErrShouldReview) {
			return err
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// githubToken resolves the API token from config, falling back to the
// conventional environment variable.
func githubToken(cfg config.GitHubConfig) string {
	if cfg.Token != "" {
		return cfg.Token
	}
	return os.Getenv("GITHUB_TOKEN")
}

func repositoryName(repoDir string) string {
	abs, err := filepath.Abs(repoDir)
	if err != nil {
		return "unknown"
	}
	return filepath.Base(abs)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "crit"))
	}
	return paths
}

// buildLogger creates the structured review logger when logging is enabled.
func buildLogger(cfg config.ObservabilityConfig) review.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}

	logLevel := llmhttp.LogLevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = llmhttp.LogLevelDebug
	case "error":
		logLevel = llmhttp.LogLevelError
	}

	logFormat := llmhttp.LogFormatHuman
	if cfg.Logging.Format == "json" {
		logFormat = llmhttp.LogFormatJSON
	}

	return observability.NewReviewLogger(llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys))
}

func buildProviders(providersConfig map[string]config.ProviderConfig, httpConfig config.HTTPConfig) map[string]review.Provider {
	providers := make(map[string]review.Provider)

	if cfg, ok := providersConfig["openai"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "gpt-4o"
		}
		if cfg.APIKey == "" {
			log.Println("OpenAI: no API key provided (set OPENAI_API_KEY or providers.openai.apiKey), skipping provider")
		} else {
			client := openai.NewHTTPClient(cfg.APIKey, model, cfg, httpConfig)
			providers["openai"] = openai.NewProvider(model, client)
		}
	}

	if cfg, ok := providersConfig["anthropic"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-0"
		}
		if cfg.APIKey == "" {
			log.Println("Anthropic: no API key provided (set ANTHROPIC_API_KEY or providers.anthropic.apiKey), skipping provider")
		} else {
			client := anthropic.NewHTTPClient(cfg.APIKey, model, cfg, httpConfig)
			providers["anthropic"] = anthropic.NewProvider(model, client)
		}
	}

	if cfg, ok := providersConfig["static"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "static-v1"
		}
		providers["static"] = static.NewProvider(model)
	}

	return providers
}

// Compile-time interface compliance checks
var _ review.GitEngine = (*git.Engine)(nil)
var _ review.PullRequestHost = (*githubadapter.Client)(nil)
var _ review.ReviewPoster = (*githubadapter.Poster)(nil)
var _ review.Provider = (*openai.Provider)(nil)
var _ review.Provider = (*anthropic.Provider)(nil)
var _ review.Provider = (*static.Provider)(nil)
var _ review.MarkdownWriter = (*markdown.Writer)(nil)
var _ review.Store = (*storeadapter.Bridge)(nil)
var _ cli.HistoryReader = (*sqlite.Store)(nil)
