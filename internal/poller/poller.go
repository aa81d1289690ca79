package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rugchef/rugwatch/internal/domain"
)

// BalanceLookup is the on-chain collaborator the poller queries each
// tick.
type BalanceLookup interface {
	LargestHolderBalance(ctx context.Context, mint string) (uint64, error)
}

// VerdictSink receives synthesized slow-drain verdicts. The engine's
// claim-and-dispatch path implements it, so poller alerts are identical
// in effect to event-driven ones.
type VerdictSink interface {
	RaiseVerdict(ctx context.Context, verdict domain.RugVerdict)
	ActiveMints() []string
}

// Poller covers the failure mode the event path misses: liquidity that
// drains gradually, one small withdrawal at a time, with no single
// transaction crossing a threshold.
type Poller struct {
	interval time.Duration
	timeout  time.Duration
	floor    uint64
	lookup   BalanceLookup
	sink     VerdictSink
	logger   *zap.Logger
}

func New(interval, timeout time.Duration, floor uint64, lookup BalanceLookup, sink VerdictSink, logger *zap.Logger) *Poller {
	return &Poller{
		interval: interval,
		timeout:  timeout,
		floor:    floor,
		lookup:   lookup,
		sink:     sink,
		logger:   logger.Named("slow_drain_poller"),
	}
}

// Run ticks until the context is canceled. No failure inside a tick is
// allowed to stop the timer loop.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Slow-drain poller started",
		zap.Duration("interval", p.interval),
		zap.Uint64("floor", p.floor))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Slow-drain poller stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick re-evaluates every active watch. The mint list is a detached
// snapshot, so no registry lock is held during the RPC calls, and one
// mint's lookup failure never skips the remaining mints.
func (p *Poller) Tick(ctx context.Context) {
	for _, mint := range p.sink.ActiveMints() {
		if ctx.Err() != nil {
			return
		}

		lookupCtx, cancel := context.WithTimeout(ctx, p.timeout)
		balance, err := p.lookup.LargestHolderBalance(lookupCtx, mint)
		cancel()
		if err != nil {
			p.logger.Debug("Balance lookup failed; will retry next tick",
				zap.String("mint", mint),
				zap.Error(err))
			continue
		}

		if balance >= p.floor {
			continue
		}

		p.logger.Info("Largest holder balance collapsed",
			zap.String("mint", mint),
			zap.Uint64("balance", balance),
			zap.Uint64("floor", p.floor))
		p.sink.RaiseVerdict(ctx, domain.RugVerdict{
			Mint:              mint,
			Reason:            domain.ReasonSlowDrain,
			EvidenceSignature: domain.SlowDrainEvidence,
		})
	}
}
