package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"IntraScan/internal/rankings"
	"IntraScan/internal/scheduler"
	"IntraScan/internal/usecase"
	"IntraScan/pkg/config"
	xhttp "IntraScan/pkg/http"
	pkgkafka "IntraScan/pkg/kafka"
	applogger "IntraScan/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	collector *usecase.TickCollector
	scanner   *usecase.Scanner
	sched     *scheduler.Scheduler
	rank      *rankings.Engine
	runner    *scheduler.Runner
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	scanner *usecase.Scanner,
	sched *scheduler.Scheduler,
	rank *rankings.Engine,
	runner *scheduler.Runner,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		scanner:   scanner,
		sched:     sched,
		rank:      rank,
		runner:    runner,
		consumer:  consumer,
		kh:        kh,
	}
}

// SetHTTPHandler allows DI to inject the facade handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Connect the stream and issue the initial plan (core tokens only
	// until the first ranking cycle produces momentum scores).
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Error("collector error", applogger.Error(err))
			return
		}
		plan := a.sched.Recompute(nil)
		if err := a.sched.Apply(ctx, plan); err != nil {
			a.log.Error("initial subscription error", applogger.Error(err))
		}
	}()
	a.log.Info("collector started")

	// Scan loop: re-armed per cycle so degradation-mode interval changes
	// take effect on the next cycle.
	go a.scanLoop(ctx)

	// Tier recomputation on its own cadence.
	recompute := a.cfg.Scheduler.RecomputeEvery
	if recompute <= 0 {
		recompute = 2 * time.Minute
	}
	a.runner.Every(ctx, "subscriptions", recompute, func(ctx context.Context) error {
		plan := a.sched.Recompute(a.rank.MomentumScores())
		return a.sched.Apply(ctx, plan)
	})

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) scanLoop(ctx context.Context) {
	for {
		timer := time.NewTimer(a.scanner.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := a.scanner.Cycle(ctx); err != nil {
				a.log.Error("scan cycle error", applogger.Error(err))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.runner.Shutdown()

	if err := a.collector.Shutdown(ctx); err != nil {
		a.log.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
