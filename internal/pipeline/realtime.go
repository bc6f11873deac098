package pipeline

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/workflow-builder/nodeq-mindmap/internal/source"
)

// Result is one record processed by StartRealtime.
type Result struct {
	PipelineID string
	Source     string
	Output     map[string]any
	Err        error
}

// Sink receives realtime results. It is called from one goroutine per source.
type Sink func(Result)

// StartRealtime polls every data source of id on its interval and executes
// each polled record. It blocks until ctx is done or a source fails to
// connect. A failed poll is logged and retried on the next tick.
func (s *Store) StartRealtime(ctx context.Context, id string, sink Sink) error {
	cfg, err := s.GetStrict(id)
	if err != nil {
		return err
	}

	if len(cfg.DataSources) == 0 {
		return errors.New("pipeline has no data sources")
	}

	connectors, err := source.Open(ctx, cfg.DataSources, s.logger)
	if err != nil {
		return err
	}
	defer source.CloseAll(connectors, s.logger)

	s.logger.Info("pipeline.realtime_start", "id", id, "sources", len(connectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, conn := range connectors {
		interval := cfg.DataSources[i].Polling.Interval(source.DefaultPollInterval)

		g.Go(func() error {
			s.pollLoop(gctx, id, conn, interval, sink)
			return nil
		})
	}

	_ = g.Wait()

	s.logger.Info("pipeline.realtime_stop", "id", id)

	return ctx.Err()
}

func (s *Store) pollLoop(ctx context.Context, id string, conn source.Connector, interval time.Duration, sink Sink) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.pollOnce(ctx, id, conn, sink)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Store) pollOnce(ctx context.Context, id string, conn source.Connector, sink Sink) {
	records, err := conn.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("pipeline.realtime_poll_error", "id", id, "source", conn.Type(), "error", err)
		}

		return
	}

	for _, record := range records {
		out, err := s.Execute(id, record)
		if err != nil {
			s.logger.Warn("pipeline.realtime_execute_error", "id", id, "source", conn.Type(), "error", err)
		}

		if sink != nil {
			sink(Result{PipelineID: id, Source: conn.Type(), Output: out, Err: err})
		}
	}
}
