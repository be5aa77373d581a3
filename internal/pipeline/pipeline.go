// Package pipeline runs one tweet generation pass: fetch samples, build the
// prompt, call the provider, parse the response and write the CSV. Every step
// runs to completion before the next begins and the first error aborts the run.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/hoanghai1803/tweetgen/internal/ai"
	"github.com/hoanghai1803/tweetgen/internal/config"
	"github.com/hoanghai1803/tweetgen/internal/models"
	"github.com/hoanghai1803/tweetgen/internal/output"
	"github.com/hoanghai1803/tweetgen/internal/warehouse"
)

// SampleSource fetches samples for a query. *warehouse.Store implements it.
type SampleSource interface {
	FetchSamples(ctx context.Context, q warehouse.SampleQuery) ([]models.TextSample, error)
}

// FeedSource fetches recency samples from feeds. *feeds.Fetcher implements it.
type FeedSource interface {
	Fetch(ctx context.Context, urls []string, maxPerFeed int) ([]models.TextSample, error)
}

// Writer persists output rows. *output.CSVWriter implements it.
type Writer interface {
	Write(path string, rows []models.OutputRow) error
}

// Deps are the collaborators a run talks to. Feeds may be nil.
type Deps struct {
	Source   SampleSource
	Feeds    FeedSource
	Provider ai.AIProvider
	Writer   Writer
}

// Options describe what a run fetches and produces.
type Options struct {
	Grounding       warehouse.SampleQuery
	Recency         warehouse.SampleQuery
	FeedURLs        []string
	MaxItemsPerFeed int
	NumItems        int
	OutputPath      string
}

// OptionsFromConfig maps the loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Grounding:       warehouse.QueryFromConfig("grounding", cfg.Grounding),
		Recency:         warehouse.QueryFromConfig("recency", cfg.Recency),
		FeedURLs:        cfg.Feeds.URLs,
		MaxItemsPerFeed: cfg.Feeds.MaxItemsPerFeed,
		NumItems:        cfg.Output.NumItems,
		OutputPath:      cfg.Output.Path,
	}
}

// Result summarises a successful run.
type Result struct {
	Grounding  int
	Recency    int
	Requested  int
	Written    int
	OutputPath string
}

// Run executes the pipeline once. Errors are returned unchanged from the
// failing stage, so they wrap that stage's models sentinel. Nothing is
// written unless generation succeeded.
func Run(ctx context.Context, deps Deps, opts Options) (*Result, error) {
	slog.Info("fetching grounding samples")
	grounding, err := deps.Source.FetchSamples(ctx, opts.Grounding)
	if err != nil {
		return nil, err
	}

	slog.Info("fetching recency samples")
	recency, err := deps.Source.FetchSamples(ctx, opts.Recency)
	if err != nil {
		return nil, err
	}

	if deps.Feeds != nil && len(opts.FeedURLs) > 0 {
		items, err := deps.Feeds.Fetch(ctx, opts.FeedURLs, opts.MaxItemsPerFeed)
		if err != nil {
			return nil, err
		}
		recency = append(recency, items...)
	}

	if len(grounding) == 0 {
		slog.Warn("grounding set is empty, prompt will have no style examples")
	}
	if len(recency) == 0 {
		slog.Warn("recency set is empty, prompt will have no theme examples")
	}

	req := ai.BuildPrompt(grounding, recency, opts.NumItems)

	slog.Info("generating tweets", "requested", opts.NumItems)
	raw, err := deps.Provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	items := ai.ParseItems(raw)
	if len(items) != opts.NumItems {
		slog.Warn("generated item count differs from request",
			"requested", opts.NumItems,
			"parsed", len(items),
		)
	}

	if err := deps.Writer.Write(opts.OutputPath, output.Rows(items)); err != nil {
		return nil, err
	}

	return &Result{
		Grounding:  len(grounding),
		Recency:    len(recency),
		Requested:  opts.NumItems,
		Written:    len(items),
		OutputPath: opts.OutputPath,
	}, nil
}
