package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ginjaninja78/tally-voucher-export/internal/config"
	"github.com/ginjaninja78/tally-voucher-export/internal/converter"
	"github.com/ginjaninja78/tally-voucher-export/internal/history"
	"github.com/ginjaninja78/tally-voucher-export/internal/source"
	"github.com/ginjaninja78/tally-voucher-export/internal/source/mongo"
)

// openSource connects the configured voucher source.
func openSource(ctx context.Context, cfg *config.MainConfig, logger *zap.Logger) (source.Source, error) {
	if err := cfg.Require(); err != nil {
		return nil, err
	}

	switch cfg.Source.Kind {
	case config.SourceMongo:
		src, err := mongo.New(ctx, cfg.Source, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceCSV:
		return source.NewCSV(cfg.Source), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// openHistory opens the run history. With no history_db configured, or on
// a dry run, it returns a nil recorder.
func openHistory(ctx context.Context, cfg *config.MainConfig, dryRun bool) (converter.Recorder, func(), error) {
	if cfg.HistoryDB == "" || dryRun {
		return nil, func() {}, nil
	}

	conn, err := history.Open(ctx, cfg.HistoryDB)
	if err != nil {
		return nil, nil, err
	}

	return history.NewRuns(conn), func() { conn.Close() }, nil
}

// newPipeline wires a source, the history and the pipeline. The returned
// cleanup closes them.
func newPipeline(ctx context.Context, cfg *config.MainConfig, logger *zap.Logger, dryRun bool) (*converter.Pipeline, func(), error) {
	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	recorder, closeHistory, err := openHistory(ctx, cfg, dryRun)
	if err != nil {
		src.Close(ctx)
		return nil, nil, err
	}

	cleanup := func() {
		closeHistory()
		if err := src.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to close source", zap.Error(err))
		}
	}

	pipeline, err := converter.NewPipeline(cfg, src, recorder, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return pipeline, cleanup, nil
}
