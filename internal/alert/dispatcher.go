package alert

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rugchef/rugwatch/internal/domain"
	"github.com/rugchef/rugwatch/internal/watch"
)

// Notifier delivers one alert message to one subscriber. Failures are
// non-fatal from the dispatcher's perspective.
type Notifier interface {
	Notify(ctx context.Context, subscriber int64, message string) error
}

// Retirer is the slice of the registry the dispatcher needs.
type Retirer interface {
	Retire(mint string)
}

// Dispatcher performs the notification side effect for a verdict exactly
// once per watched mint, then retires the watch. A mint is alerted at
// most once for its lifetime in the registry; re-subscribing afterward
// starts a fresh watch with no memory of the prior alert.
type Dispatcher struct {
	notifier Notifier
	registry Retirer
	timeout  time.Duration
	logger   *zap.Logger
}

func NewDispatcher(notifier Notifier, registry Retirer, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		registry: registry,
		timeout:  timeout,
		logger:   logger.Named("dispatcher"),
	}
}

// Dispatch notifies every subscriber of the entry. A delivery failure
// for one subscriber (blocked bot, network error) never prevents
// delivery to the rest, and never blocks retirement: the watch is
// retired unconditionally once all attempts complete.
func (d *Dispatcher) Dispatch(ctx context.Context, verdict domain.RugVerdict, entry watch.Snapshot) {
	defer d.registry.Retire(verdict.Mint)

	message := FormatAlert(verdict)
	for _, subscriber := range entry.Subscribers {
		notifyCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.notifier.Notify(notifyCtx, subscriber, message)
		cancel()
		if err != nil {
			d.logger.Warn("Alert delivery failed",
				zap.String("mint", verdict.Mint),
				zap.Int64("subscriber", subscriber),
				zap.Error(err))
			continue
		}
		d.logger.Info("Alert delivered",
			zap.String("mint", verdict.Mint),
			zap.String("reason", string(verdict.Reason)),
			zap.String("evidence", verdict.EvidenceSignature),
			zap.Int64("subscriber", subscriber))
	}
}
