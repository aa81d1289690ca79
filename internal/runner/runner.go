package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rugchef/rugwatch/internal/alert"
	"github.com/rugchef/rugwatch/internal/chain"
	"github.com/rugchef/rugwatch/internal/classify"
	"github.com/rugchef/rugwatch/internal/config"
	"github.com/rugchef/rugwatch/internal/engine"
	"github.com/rugchef/rugwatch/internal/helius"
	"github.com/rugchef/rugwatch/internal/ingest"
	"github.com/rugchef/rugwatch/internal/market"
	"github.com/rugchef/rugwatch/internal/notify"
	"github.com/rugchef/rugwatch/internal/poller"
	"github.com/rugchef/rugwatch/internal/watch"
)

// Runner assembles the engine from configuration and supervises the
// webhook server, the slow-drain poller and the optional TTL eviction
// loop.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger

	engine *engine.Engine
	server *ingest.Server
	poller *poller.Poller

	shutdownCh chan os.Signal
}

func New(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	callTimeout := time.Duration(cfg.CallTimeout) * time.Second

	registry := watch.NewRegistry(logger)
	classifier := classify.New(classify.Thresholds{
		MassiveDumpAmount:      cfg.MassiveDumpAmount,
		DeveloperDumpTotal:     cfg.DeveloperDumpTotal,
		LiquidityDrainLamports: cfg.LiquidityDrainLamports,
		LiquidityBurnAmount:    cfg.LiquidityBurnAmount,
	})

	telegram, err := notify.NewTelegram(cfg.TelegramToken, logger)
	if err != nil {
		return nil, err
	}
	dispatcher := alert.NewDispatcher(telegram, registry, callTimeout, logger)

	eng := engine.New(engine.Options{
		Registry:    registry,
		Normalizer:  ingest.NewNormalizer(),
		Dedup:       ingest.NewDedupCache(time.Duration(cfg.DedupWindow) * time.Second),
		Classifier:  classifier,
		Dispatcher:  dispatcher,
		Provisioner: helius.NewClient(cfg.HeliusAPIKey, cfg.WebhookURL, cfg.Retries, logger),
		MarketData:  market.NewService(logger),
		CallTimeout: callTimeout,
		Logger:      logger,
	})

	chainClient := chain.NewClient(cfg.RPCList[0], logger)
	drainPoller := poller.New(
		time.Duration(cfg.PollInterval)*time.Second,
		callTimeout,
		cfg.SlowDrainFloor,
		chainClient,
		eng,
		logger,
	)

	return &Runner{
		cfg:        cfg,
		logger:     logger,
		engine:     eng,
		server:     ingest.NewServer(cfg.ListenAddr, cfg.BatchWorkers, eng, logger),
		poller:     drainPoller,
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

// Engine exposes the subscribe surface to whatever front-end embeds the
// runner.
func (r *Runner) Engine() *engine.Engine {
	return r.engine
}

// Run blocks until a termination signal or a fatal server error.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("Signal received", zap.String("signal", sig.String()))
			cancel()
		case <-runCtx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return r.server.Start(gctx)
	})

	g.Go(func() error {
		r.poller.Run(gctx)
		return nil
	})

	if r.cfg.WatchTTLHours > 0 {
		ttl := time.Duration(r.cfg.WatchTTLHours) * time.Hour
		g.Go(func() error {
			r.runEviction(gctx, ttl)
			return nil
		})
	}

	err := g.Wait()
	r.logger.Info("All components stopped")
	return err
}

func (r *Runner) runEviction(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.engine.EvictStale(ctx, ttl); evicted > 0 {
				r.logger.Info("TTL eviction pass complete", zap.Int("evicted", evicted))
			}
		}
	}
}
