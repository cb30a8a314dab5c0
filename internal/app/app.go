package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/NivBraz/greeting-service/internal/config"
	"github.com/NivBraz/greeting-service/internal/models"
	"github.com/NivBraz/greeting-service/internal/pipeline"
	"github.com/NivBraz/greeting-service/pkg/fetcher"
	"github.com/NivBraz/greeting-service/pkg/logger"
	"github.com/NivBraz/greeting-service/pkg/parser"
)

// App counts the words of a batch of sources through the pipeline.
type App struct {
	config   *config.Config
	fetcher  *fetcher.Fetcher
	parser   *parser.Parser
	pipeline *pipeline.Pipeline
	logger   logger.Logger
	progress io.Writer
}

// New creates a new instance of the application. Progress is drawn on
// progress; pass io.Discard to hide it.
func New(cfg *config.Config, p *pipeline.Pipeline, l logger.Logger, progress io.Writer) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	f := fetcher.New(fetcher.FetcherConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Timeout:           cfg.HTTPClient.Timeout,
		UserAgent:         cfg.HTTPClient.UserAgent,
		MaxRetries:        cfg.HTTPClient.MaxRetries,
	})

	return &App{
		config:   cfg,
		fetcher:  f,
		parser:   parser.New(),
		pipeline: p,
		logger:   l,
		progress: progress,
	}, nil
}

// Run counts every source. Sources that fail are listed in the result with
// their error and the joined errors are returned alongside the result.
func (a *App) Run(ctx context.Context) (*models.Result, error) {
	startTime := time.Now()

	sources := a.config.Sources
	counts := make([]models.SourceCount, len(sources))
	errs := make([]error, len(sources))

	bar := progressbar.NewOptions(len(sources),
		progressbar.OptionSetWriter(a.progress),
		progressbar.OptionSetDescription("Counting sources..."),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	workers := pool.New().WithMaxGoroutines(a.config.Count.Concurrency)
	for i, source := range sources {
		i, source := i, source
		workers.Go(func() {
			defer func() { _ = bar.Add(1) }()

			counts[i].Source = source
			count, err := a.countSource(ctx, source)
			if err != nil {
				a.logger.Warn("failed to count source", zap.String("source", source), zap.Error(err))
				counts[i].Error = err.Error()
				errs[i] = fmt.Errorf("failed to count %s: %w", source, err)
				return
			}
			counts[i].Count = count
		})
	}
	workers.Wait()
	_ = bar.Finish()

	result := &models.Result{Sources: counts}
	for _, c := range counts {
		if c.Error != "" {
			result.Stats.Failed++
			continue
		}
		result.Stats.TotalWords += c.Count
	}
	result.Stats.TimeElapsed = int(time.Since(startTime).Milliseconds())

	return result, errors.Join(errs...)
}

// countSource fetches one source and runs its text through the pipeline
func (a *App) countSource(ctx context.Context, source string) (int, error) {
	doc, err := a.fetcher.Fetch(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch source: %w", err)
	}

	text, err := a.parser.ExtractText(doc.Body, doc.ContentType)
	if err != nil {
		return 0, fmt.Errorf("failed to parse source: %w", err)
	}

	return a.pipeline.Process(ctx, text), nil
}

func validateConfig(cfg *config.Config) error {
	if cfg.Count.Concurrency <= 0 {
		return fmt.Errorf("invalid concurrency: must be positive")
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid rate limit: requests per second must be positive")
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources provided")
	}
	return nil
}
