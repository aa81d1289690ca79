package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rugchef/rugwatch/internal/domain"
)

type stubLookup struct {
	balances map[string]uint64
	errFor   map[string]error
	calls    []string
}

func (s *stubLookup) LargestHolderBalance(_ context.Context, mint string) (uint64, error) {
	s.calls = append(s.calls, mint)
	if err, ok := s.errFor[mint]; ok {
		return 0, err
	}
	return s.balances[mint], nil
}

type stubSink struct {
	mints    []string
	verdicts []domain.RugVerdict
}

func (s *stubSink) ActiveMints() []string { return s.mints }

func (s *stubSink) RaiseVerdict(_ context.Context, verdict domain.RugVerdict) {
	s.verdicts = append(s.verdicts, verdict)
}

func newPoller(t *testing.T, lookup *stubLookup, sink *stubSink) *Poller {
	return New(35*time.Second, time.Second, 300, lookup, sink, zaptest.NewLogger(t))
}

func TestTick_CollapsedBalanceRaisesSlowDrain(t *testing.T) {
	lookup := &stubLookup{balances: map[string]uint64{"mint-a": 50}}
	sink := &stubSink{mints: []string{"mint-a"}}

	newPoller(t, lookup, sink).Tick(context.Background())

	require.Len(t, sink.verdicts, 1)
	assert.Equal(t, domain.RugVerdict{
		Mint:              "mint-a",
		Reason:            domain.ReasonSlowDrain,
		EvidenceSignature: domain.SlowDrainEvidence,
	}, sink.verdicts[0])
}

func TestTick_HealthyBalanceIsQuiet(t *testing.T) {
	lookup := &stubLookup{balances: map[string]uint64{"mint-a": 300}}
	sink := &stubSink{mints: []string{"mint-a"}}

	newPoller(t, lookup, sink).Tick(context.Background())

	assert.Empty(t, sink.verdicts, "a balance at the floor is not a collapse")
}

func TestTick_LookupFailureSkipsOnlyThatMint(t *testing.T) {
	lookup := &stubLookup{
		balances: map[string]uint64{"mint-b": 10},
		errFor:   map[string]error{"mint-a": errors.New("rpc timeout")},
	}
	sink := &stubSink{mints: []string{"mint-a", "mint-b"}}

	newPoller(t, lookup, sink).Tick(context.Background())

	assert.Equal(t, []string{"mint-a", "mint-b"}, lookup.calls)
	require.Len(t, sink.verdicts, 1)
	assert.Equal(t, "mint-b", sink.verdicts[0].Mint)
}

func TestTick_CanceledContextStopsTheSweep(t *testing.T) {
	lookup := &stubLookup{balances: map[string]uint64{}}
	sink := &stubSink{mints: []string{"mint-a", "mint-b"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	newPoller(t, lookup, sink).Tick(ctx)

	assert.Empty(t, lookup.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	lookup := &stubLookup{balances: map[string]uint64{}}
	sink := &stubSink{}
	p := New(10*time.Millisecond, time.Second, 300, lookup, sink, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}
