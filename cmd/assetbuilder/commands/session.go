package commands

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetbuilder/internal/build"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/history"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// session holds an executor wired with the integrations enabled in cfg.
type session struct {
	cfg      *config.Config
	executor *build.Executor
	recorder metrics.Recorder
	// registry is nil when metrics are disabled.
	registry *prometheus.Registry

	closers []func(context.Context) error
}

func openSession(ctx context.Context, configPath string, lintOutput io.Writer) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	executor, err := build.NewExecutor(cfg)
	if err != nil {
		return nil, err
	}
	executor.WithLintOutput(lintOutput)

	s := &session{cfg: cfg, executor: executor, recorder: metrics.NoopRecorder{}}

	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.registry, cfg.Metrics.Namespace)
		executor.WithRecorder(s.recorder)
	}

	tp, err := observability.NewTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, tp.Shutdown)

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			s.Close()
			return nil, err
		}
		executor.WithSink(store)
		s.closers = append(s.closers, func(context.Context) error { return store.Close() })
	}

	if cfg.Notify.Enabled {
		pub, err := notify.Connect(ctx, cfg.Notify)
		if err != nil {
			// Runs still proceed; only notifications are lost.
			slog.Warn("Run notifications disabled", logfields.Error(err))
		} else {
			executor.WithSink(pub)
			s.closers = append(s.closers, func(context.Context) error { return pub.Close() })
		}
	}
	return s, nil
}

// Close releases integrations in reverse order of creation.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			slog.Warn("Shutdown error", logfields.Error(err))
		}
	}
	s.closers = nil
}
