package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/file-ingestor/internal/app"
	"github.com/joseph-ayodele/file-ingestor/internal/async"
	"github.com/joseph-ayodele/file-ingestor/internal/cloud"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	queue "github.com/joseph-ayodele/file-ingestor/internal/core/async"
	"github.com/joseph-ayodele/file-ingestor/internal/server"
	"github.com/joseph-ayodele/file-ingestor/internal/trigger"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ingestd stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped.")
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, app.FetchBackend(cfg), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ping := func(ctx context.Context) error {
		return a.Store.HealthCheck(ctx, 5*time.Second, logger)
	}
	if err := ping(ctx); err != nil {
		return err
	}

	q := queue.NewProcessorQueue(a.Processor, logger,
		queue.WithWorkers(cfg.Worker.Count),
		queue.WithQueueSize(cfg.Worker.QueueSize),
		queue.WithProcessTimeout(cfg.Worker.ProcessTimeout),
	)

	httpServer := server.NewServer(server.Deps{
		Attempts: a.Attempts,
		Rules:    a.RuleStore(),
		Queue:    q,
		Exporter: a.Exporter,
		Health:   ping,
	}, logger)

	grpcServer, healthServer := server.NewGRPCServer()
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error { return httpServer.Start(cfg.Server.HTTPAddr) })
	g.Go(func() error {
		server.WatchHealth(gctx, healthServer, ping, 15*time.Second, logger)
		return nil
	})
	g.Go(func() error { return runTrigger(gctx, cfg, a, q, logger) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		q.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runTrigger feeds files into the queue until ctx ends.
func runTrigger(ctx context.Context, cfg *common.Config, a *app.App, q async.Queue, logger *slog.Logger) error {
	switch cfg.Trigger.Mode {
	case common.TriggerWatch:
		w, err := trigger.NewWatcher(trigger.WatchConfig{
			Roots:       cfg.Trigger.WatchDirs,
			InitialScan: true,
			Debounce:    cfg.Trigger.Debounce,
		}, logger)
		if err != nil {
			return err
		}
		events, _, err := w.Watch(ctx)
		if err != nil {
			return err
		}
		for ref := range events {
			if err := q.Enqueue(ctx, async.Job{Ref: ref, TraceID: common.TraceIDFromContext(common.NewTraceContext(ctx))}); err != nil {
				logger.Warn("dropping file", "file_name", ref.FileName(), "error", err)
			}
		}
		return nil
	default:
		awsCfg, err := cloud.LoadConfig(ctx, cfg.AWS)
		if err != nil {
			return err
		}
		consumer := trigger.NewSQSConsumer(cloud.NewSQS(awsCfg, cfg.AWS.Endpoint), a.Processor, trigger.SQSConfig{
			QueueURL:          cfg.AWS.QueueURL,
			MaxMessages:       cfg.AWS.MaxMessages,
			WaitTime:          cfg.AWS.WaitTime,
			VisibilityTimeout: cfg.AWS.VisibilityTimeout,
		}, logger)
		return consumer.Run(ctx)
	}
}
