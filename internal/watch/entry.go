package watch

import (
	"sync"
	"time"
)

// State of a watch. The only transition is Active -> Alerted, and an
// Alerted entry is removed right after dispatch, so Alerted is transient.
type State int

const (
	StateActive State = iota
	StateAlerted
)

// SubscribeStatus is the result of a subscribe call.
type SubscribeStatus int

const (
	StatusNowWatching SubscribeStatus = iota
	StatusAlreadyWatching
)

func (s SubscribeStatus) String() string {
	if s == StatusAlreadyWatching {
		return "already_watching"
	}
	return "now_watching"
}

// Entry is one watched mint. Mutations go through the Registry, which
// serializes them under the per-entry mutex.
type Entry struct {
	mu sync.Mutex

	Mint                string
	Subscribers         map[int64]struct{}
	AssociatedAddresses []string
	CreatedAt           time.Time
	State               State
}

func (e *Entry) stateLocked() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.State
}

// snapshot copies the entry for use outside the lock. Caller must hold e.mu.
func (e *Entry) snapshot() Snapshot {
	subs := make([]int64, 0, len(e.Subscribers))
	for id := range e.Subscribers {
		subs = append(subs, id)
	}
	return Snapshot{
		Mint:                e.Mint,
		Subscribers:         subs,
		AssociatedAddresses: append([]string(nil), e.AssociatedAddresses...),
		CreatedAt:           e.CreatedAt,
		State:               e.State,
	}
}

// Snapshot is a detached copy of an entry, safe to read without locks.
type Snapshot struct {
	Mint                string
	Subscribers         []int64
	AssociatedAddresses []string
	CreatedAt           time.Time
	State               State
}
