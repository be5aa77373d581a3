package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hoanghai1803/tweetgen/internal/ai"
	"github.com/hoanghai1803/tweetgen/internal/config"
	"github.com/hoanghai1803/tweetgen/internal/feeds"
	"github.com/hoanghai1803/tweetgen/internal/models"
	"github.com/hoanghai1803/tweetgen/internal/output"
	"github.com/hoanghai1803/tweetgen/internal/pipeline"
	"github.com/hoanghai1803/tweetgen/internal/warehouse"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newApp(), os.Args[1:])
	stop()
	os.Exit(code)
}

// sampleStore is a pipeline.SampleSource that holds a connection.
type sampleStore interface {
	pipeline.SampleSource
	Close() error
}

// app holds the constructors for the pipeline's collaborators so tests can
// replace the network-facing ones.
type app struct {
	openStore   func(ctx context.Context, cfg config.WarehouseConfig) (sampleStore, error)
	newProvider func(cfg ai.ProviderConfig) (ai.AIProvider, error)
	newFeeds    func() pipeline.FeedSource
}

func newApp() *app {
	return &app{
		openStore: func(ctx context.Context, cfg config.WarehouseConfig) (sampleStore, error) {
			store, err := warehouse.Open(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
		newProvider: ai.NewProvider,
		newFeeds: func() pipeline.FeedSource {
			return feeds.NewFetcher()
		},
	}
}

type flags struct {
	configPath string
	output     string
	numTweets  int
	verbose    bool
}

// execute runs the root command with args and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		stage := models.Stage(err)
		if stage == "unknown" {
			slog.Error("tweetgen failed", "error", err)
		} else {
			slog.Error(stage+" stage failed", "stage", stage, "error", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "tweetgen",
		Short: "Generate tweets grounded in warehouse samples",
		Long: `Generate tweets whose writing style follows a set of "grounding" tweets and whose
themes follow a set of "recency" tweets, both read from the warehouse. The
generated tweets are written to a CSV file.

Credentials are read from OPENAI_API_KEY and SNOWFLAKE_USER, SNOWFLAKE_PASSWORD,
SNOWFLAKE_ACCOUNT, SNOWFLAKE_WAREHOUSE, SNOWFLAKE_DATABASE, SNOWFLAKE_SCHEMA
(a .env file in the working directory is loaded first).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(f.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd, &f)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", config.DefaultPath, "path to TOML config file")
	cmd.Flags().StringVar(&f.output, "output", "generated_tweets.csv", "output CSV file location")
	cmd.Flags().IntVar(&f.numTweets, "num_tweets", 5, "number of tweets to generate")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	})

	return cmd
}

// setupLogging installs a text slog handler on stderr tagged with a fresh
// run id.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler).With("run_id", uuid.NewString()))
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, f *flags) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	opts := config.Options{
		Path:         f.configPath,
		PathRequired: cmd.Flags().Changed("config"),
	}
	if cmd.Flags().Changed("output") {
		opts.OutputPath = &f.output
	}
	if cmd.Flags().Changed("num_tweets") {
		opts.NumItems = &f.numTweets
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}

	provider, err := a.newProvider(ai.ProviderConfig{
		Provider:         cfg.AI.Provider,
		APIKey:           cfg.AI.APIKey,
		Model:            cfg.AI.Model,
		BaseURL:          cfg.AI.BaseURL,
		Temperature:      cfg.AI.Temperature,
		MaxTokensPerItem: cfg.AI.MaxTokensPerItem,
		Timeout:          time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}
	slog.Debug("AI provider configured", "provider", cfg.AI.Provider, "model", cfg.AI.Model)

	store, err := a.openStore(ctx, cfg.Warehouse)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := pipeline.Deps{
		Source:   store,
		Provider: provider,
		Writer:   output.NewCSVWriter(),
	}
	if len(cfg.Feeds.URLs) > 0 {
		deps.Feeds = a.newFeeds()
	}

	res, err := pipeline.Run(ctx, deps, pipeline.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	slog.Info("successfully generated tweets",
		"count", res.Written,
		"requested", res.Requested,
		"path", res.OutputPath,
	)
	return nil
}
