package watch

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry is the authoritative in-memory table of active watches.
// The map lock covers lookup and insertion; each entry carries its own
// mutex so that mutations of the same mint are serialized without
// blocking unrelated mints.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		logger:  logger.Named("watch_registry"),
	}
}

// Subscribe idempotently adds subscriber to the watch for mint, creating
// the entry if absent. The second return reports whether the entry was
// created by this call; the caller provisions upstream monitoring only
// then, so that side effect fires once per mint lifetime.
func (r *Registry) Subscribe(mint string, subscriber int64) (SubscribeStatus, bool) {
	r.mu.Lock()
	entry, ok := r.entries[mint]
	if !ok {
		entry = &Entry{
			Mint:        mint,
			Subscribers: map[int64]struct{}{subscriber: {}},
			CreatedAt:   time.Now().UTC(),
			State:       StateActive,
		}
		r.entries[mint] = entry
		r.mu.Unlock()
		r.logger.Info("Watch created",
			zap.String("mint", mint),
			zap.Int64("subscriber", subscriber))
		return StatusNowWatching, true
	}
	r.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if _, exists := entry.Subscribers[subscriber]; exists {
		return StatusAlreadyWatching, false
	}
	entry.Subscribers[subscriber] = struct{}{}
	r.logger.Info("Subscriber added to existing watch",
		zap.String("mint", mint),
		zap.Int64("subscriber", subscriber),
		zap.Int("subscribers", len(entry.Subscribers)))
	return StatusNowWatching, false
}

// Lookup returns a snapshot of the entry for mint.
func (r *Registry) Lookup(mint string) (Snapshot, bool) {
	r.mu.RLock()
	entry, ok := r.entries[mint]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshot(), true
}

// ActiveMints returns a weakly consistent snapshot of watched mints.
// The slice is detached from the registry, so the poller can iterate it
// while subscriptions and retirements proceed concurrently.
func (r *Registry) ActiveMints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mints := make([]string, 0, len(r.entries))
	for mint, entry := range r.entries {
		if entry.stateLocked() == StateActive {
			mints = append(mints, mint)
		}
	}
	return mints
}

// Claim atomically transitions the entry from Active to Alerted and
// returns its snapshot. Exactly one of any number of concurrent
// detections for the same mint wins the claim; the losers get ok=false
// and must not dispatch.
func (r *Registry) Claim(mint string) (Snapshot, bool) {
	r.mu.RLock()
	entry, ok := r.entries[mint]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.State != StateActive {
		return Snapshot{}, false
	}
	entry.State = StateAlerted
	return entry.snapshot(), true
}

// Retire removes the entry entirely, regardless of subscriber count.
// No-op if absent.
func (r *Registry) Retire(mint string) {
	r.mu.Lock()
	_, ok := r.entries[mint]
	delete(r.entries, mint)
	r.mu.Unlock()
	if ok {
		r.logger.Info("Watch retired", zap.String("mint", mint))
	}
}

// SetAssociatedAddresses records the lazily-discovered pool, creator and
// holder accounts for the mint. Best effort: no-op if the watch is gone.
func (r *Registry) SetAssociatedAddresses(mint string, addrs []string) {
	r.mu.RLock()
	entry, ok := r.entries[mint]
	r.mu.RUnlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.AssociatedAddresses = append([]string(nil), addrs...)
	entry.mu.Unlock()
}

// EvictBefore drops watches created before the cutoff and reports how
// many were removed. Used by the optional TTL eviction policy.
func (r *Registry) EvictBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for mint, entry := range r.entries {
		entry.mu.Lock()
		stale := entry.CreatedAt.Before(cutoff)
		entry.mu.Unlock()
		if stale {
			delete(r.entries, mint)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Info("Evicted stale watches", zap.Int("count", evicted))
	}
	return evicted
}

// Len reports the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
