package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rugchef/rugwatch/internal/alert"
	"github.com/rugchef/rugwatch/internal/chain"
	"github.com/rugchef/rugwatch/internal/classify"
	"github.com/rugchef/rugwatch/internal/domain"
	"github.com/rugchef/rugwatch/internal/ingest"
	"github.com/rugchef/rugwatch/internal/market"
	"github.com/rugchef/rugwatch/internal/watch"
)

var ErrInvalidMint = errors.New("not a valid token mint address")

// Provisioner creates and destroys the upstream webhook subscription
// that feeds the inbound event endpoint.
type Provisioner interface {
	RegisterWatch(ctx context.Context, mint string, addresses []string) (string, error)
	DeregisterWatch(ctx context.Context, handle string) error
}

// MarketData enriches a watch with the accounts relevant to its mint.
type MarketData interface {
	LookupToken(ctx context.Context, mint string) (market.Report, error)
}

// Engine ties the registry, normalizer, dedup cache, classifier and
// dispatcher into the two inbound operations: subscribe and batch
// ingestion. It also routes poller-originated verdicts through the
// same dispatch path.
type Engine struct {
	registry    *watch.Registry
	normalizer  *ingest.Normalizer
	dedup       *ingest.DedupCache
	classifier  *classify.Classifier
	dispatcher  *alert.Dispatcher
	provisioner Provisioner
	marketData  MarketData
	callTimeout time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	handles map[string]string // mint -> provider subscription handle
}

type Options struct {
	Registry    *watch.Registry
	Normalizer  *ingest.Normalizer
	Dedup       *ingest.DedupCache
	Classifier  *classify.Classifier
	Dispatcher  *alert.Dispatcher
	Provisioner Provisioner
	MarketData  MarketData
	CallTimeout time.Duration
	Logger      *zap.Logger
}

func New(opts Options) *Engine {
	return &Engine{
		registry:    opts.Registry,
		normalizer:  opts.Normalizer,
		dedup:       opts.Dedup,
		classifier:  opts.Classifier,
		dispatcher:  opts.Dispatcher,
		provisioner: opts.Provisioner,
		marketData:  opts.MarketData,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger.Named("engine"),
		handles:     make(map[string]string),
	}
}

// Subscribe is the inbound call surface for the front-end. It registers
// the subscriber's interest and, when this is the first subscription for
// the mint, provisions upstream monitoring. Provisioning failure is
// soft: the watch stays active and the slow-drain poller covers it.
func (e *Engine) Subscribe(ctx context.Context, mint string, subscriber int64) (watch.SubscribeStatus, error) {
	if !chain.ValidMint(mint) {
		return 0, ErrInvalidMint
	}

	status, created := e.registry.Subscribe(mint, subscriber)
	if !created {
		return status, nil
	}

	e.provisionWatch(ctx, mint)
	return status, nil
}

// provisionWatch enriches the new watch with pool, creator and top
// holder accounts, then registers the provider webhook. Both calls are
// best effort with bounded timeouts.
func (e *Engine) provisionWatch(ctx context.Context, mint string) {
	var addresses []string

	lookupCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	report, err := e.marketData.LookupToken(lookupCtx, mint)
	cancel()
	if err != nil {
		e.logger.Warn("Market-data lookup failed; monitoring mint only",
			zap.String("mint", mint),
			zap.Error(err))
	} else {
		addresses = report.Addresses()
		if len(addresses) > 0 {
			e.registry.SetAssociatedAddresses(mint, addresses)
		} else {
			e.logger.Info("No associated accounts yet; limited monitoring",
				zap.String("mint", mint))
		}
	}

	registerCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	handle, err := e.provisioner.RegisterWatch(registerCtx, mint, addresses)
	cancel()
	if err != nil {
		// Degraded mode: no event push for this mint, the poller still
		// covers slow drains.
		e.logger.Warn("Provisioning failed; relying on poller only",
			zap.String("mint", mint),
			zap.Error(err))
		return
	}

	e.mu.Lock()
	e.handles[mint] = handle
	e.mu.Unlock()
}

// ProcessBatch implements ingest.BatchHandler. Elements are independent:
// a normalization failure or duplicate signature skips that element
// only, never the rest of the batch.
func (e *Engine) ProcessBatch(ctx context.Context, batch []ingest.HeliusTransaction) {
	watched := e.watchedSet()
	if len(watched) == 0 {
		return
	}

	for i := range batch {
		raw := &batch[i]
		tx, err := e.normalizer.Normalize(raw)
		if err != nil {
			e.logger.Debug("Skipping unparseable transaction",
				zap.String("signature", raw.Signature),
				zap.Error(err))
			continue
		}
		if e.dedup.Seen(tx.Signature) {
			e.logger.Debug("Skipping redelivered transaction",
				zap.String("signature", tx.Signature))
			continue
		}
		for _, verdict := range e.classifier.Classify(tx, watched) {
			e.RaiseVerdict(ctx, verdict)
		}
	}
}

// RaiseVerdict claims the watch and dispatches. The claim is the
// serialization point: of any number of concurrent detections for one
// mint (event-driven and poll-driven), exactly one performs the
// dispatch-and-retire sequence.
func (e *Engine) RaiseVerdict(ctx context.Context, verdict domain.RugVerdict) {
	entry, ok := e.registry.Claim(verdict.Mint)
	if !ok {
		return
	}
	e.logger.Info("Rug detected",
		zap.String("mint", verdict.Mint),
		zap.String("reason", string(verdict.Reason)),
		zap.String("evidence", verdict.EvidenceSignature))

	e.dispatcher.Dispatch(ctx, verdict, entry)
	e.deprovisionWatch(ctx, verdict.Mint)
}

// ActiveMints exposes the registry's weakly consistent snapshot for the
// poller.
func (e *Engine) ActiveMints() []string {
	return e.registry.ActiveMints()
}

// EvictStale applies the optional TTL policy and deregisters the
// evicted mints' webhooks.
func (e *Engine) EvictStale(ctx context.Context, ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)
	evicted := e.registry.EvictBefore(cutoff)
	if evicted > 0 {
		e.mu.Lock()
		stale := make(map[string]string)
		for mint, handle := range e.handles {
			if _, live := e.registry.Lookup(mint); !live {
				stale[mint] = handle
				delete(e.handles, mint)
			}
		}
		e.mu.Unlock()
		for mint, handle := range stale {
			e.deregister(ctx, mint, handle)
		}
	}
	return evicted
}

func (e *Engine) watchedSet() map[string]struct{} {
	mints := e.registry.ActiveMints()
	set := make(map[string]struct{}, len(mints))
	for _, mint := range mints {
		set[mint] = struct{}{}
	}
	return set
}

func (e *Engine) deprovisionWatch(ctx context.Context, mint string) {
	e.mu.Lock()
	handle, ok := e.handles[mint]
	delete(e.handles, mint)
	e.mu.Unlock()
	if !ok {
		return
	}
	e.deregister(ctx, mint, handle)
}

func (e *Engine) deregister(ctx context.Context, mint, handle string) {
	deregCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	if err := e.provisioner.DeregisterWatch(deregCtx, handle); err != nil {
		e.logger.Warn("Webhook deregistration failed",
			zap.String("mint", mint),
			zap.String("handle", handle),
			zap.Error(err))
	}
}
