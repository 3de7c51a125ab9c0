package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/cardlens/cardlens/internal/barcode"
	"github.com/cardlens/cardlens/internal/cache"
	"github.com/cardlens/cardlens/internal/config"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/parse"
	"github.com/cardlens/cardlens/internal/pipeline"
	"github.com/cardlens/cardlens/internal/store"
)

// buildScanner assembles a pipeline scanner from the effective
// configuration. The returned cleanup closes any store connection.
func buildScanner(ctx context.Context, cfg *config.Config) (*pipeline.Scanner, func(), error) {
	logger := slog.Default()
	cleanup := func() {}

	b := pipeline.NewBuilder().
		WithLogger(logger).
		WithWorkers(cfg.Batch.Workers).
		WithPreprocess(cfg.Engine.Preprocess)

	if cfg.Engine.ID != "" {
		b = b.WithPreferredEngine(cfg.Engine.ID)
	}

	if cfg.Cache.Enabled {
		b = b.WithCache(cache.New(cache.Config{
			Capacity:  cfg.Cache.Capacity,
			Retention: cfg.Cache.TTL,
		}))
	}

	switch cfg.Store.Backend {
	case "postgres":
		st, err := store.OpenSQL(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, errx.Wrap(errx.KindDataSource, err, "open card store")
		}
		b = b.WithStore(st)
		cleanup = func() {
			if err := st.Close(); err != nil {
				logger.Warn("closing card store", "error", err)
			}
		}
	default:
		b = b.WithStore(store.NewMemory())
	}

	switch cfg.Parser.Backend {
	case "openai":
		apiKey := cfg.Parser.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		b = b.WithParser(parse.NewOpenAI(apiKey, parse.WithModel(cfg.Parser.Model)))
	case "none":
	default:
		b = b.WithParser(parse.NewHeuristic())
	}

	if dec, err := barcode.NewDecoder(); err == nil {
		b = b.WithDecoder(dec)
	} else {
		logger.Debug("barcode decoding unavailable", "error", err)
	}

	scanner, err := b.Build()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return scanner, cleanup, nil
}

// scanOptions maps engine configuration onto recognition options.
func scanOptions(cfg *config.Config, save bool) ocr.Options {
	opts := ocr.DefaultOptions()
	opts.Languages = cfg.Engine.Languages
	if cfg.Engine.Accuracy == "fast" {
		opts.Accuracy = ocr.AccuracyFast
	}
	opts.SaveResult = save
	return opts
}
