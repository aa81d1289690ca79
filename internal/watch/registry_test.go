package watch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testMint = "FakeMint1111111111111111111111111111111111"

func TestRegistry_SubscribeIdempotent(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))

	status, created := r.Subscribe(testMint, 42)
	assert.Equal(t, StatusNowWatching, status)
	assert.True(t, created)

	status, created = r.Subscribe(testMint, 42)
	assert.Equal(t, StatusAlreadyWatching, status)
	assert.False(t, created)

	entry, ok := r.Lookup(testMint)
	require.True(t, ok)
	assert.Equal(t, []int64{42}, entry.Subscribers)
}

func TestRegistry_SecondSubscriberJoinsExistingWatch(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))

	_, created := r.Subscribe(testMint, 1)
	require.True(t, created)

	status, created := r.Subscribe(testMint, 2)
	assert.Equal(t, StatusNowWatching, status)
	assert.False(t, created, "provisioning must fire only on entry creation")

	entry, ok := r.Lookup(testMint)
	require.True(t, ok)
	assert.Len(t, entry.Subscribers, 2)
}

func TestRegistry_ClaimWinsOnce(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Subscribe(testMint, 7)

	entry, ok := r.Claim(testMint)
	require.True(t, ok)
	assert.Equal(t, StateAlerted, entry.State)
	assert.Equal(t, []int64{7}, entry.Subscribers)

	_, ok = r.Claim(testMint)
	assert.False(t, ok, "second claim must lose")

	r.Retire(testMint)
	_, ok = r.Lookup(testMint)
	assert.False(t, ok)
}

func TestRegistry_ClaimedMintLeavesActiveSet(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Subscribe(testMint, 1)
	r.Subscribe("OtherMint111111111111111111111111111111111", 1)

	_, ok := r.Claim(testMint)
	require.True(t, ok)

	mints := r.ActiveMints()
	assert.Equal(t, []string{"OtherMint111111111111111111111111111111111"}, mints)
}

func TestRegistry_RetireAbsentIsNoop(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Retire("never-watched")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ResubscribeAfterRetireIsFreshWatch(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Subscribe(testMint, 9)

	_, ok := r.Claim(testMint)
	require.True(t, ok)
	r.Retire(testMint)

	status, created := r.Subscribe(testMint, 9)
	assert.Equal(t, StatusNowWatching, status)
	assert.True(t, created, "a retired mint has no memory of the prior alert")

	_, ok = r.Claim(testMint)
	assert.True(t, ok)
}

func TestRegistry_SetAssociatedAddresses(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Subscribe(testMint, 1)

	r.SetAssociatedAddresses(testMint, []string{"pool", "creator"})
	entry, ok := r.Lookup(testMint)
	require.True(t, ok)
	assert.Equal(t, []string{"pool", "creator"}, entry.AssociatedAddresses)

	// Unknown mint is a no-op, not a panic.
	r.SetAssociatedAddresses("unknown", []string{"x"})
}

func TestRegistry_EvictBefore(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Subscribe(testMint, 1)

	evicted := r.EvictBefore(time.Now().UTC().Add(-time.Hour))
	assert.Equal(t, 0, evicted)
	assert.Equal(t, 1, r.Len())

	evicted = r.EvictBefore(time.Now().UTC().Add(time.Hour))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ConcurrentSubscribeAndRetire(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		subscriber := int64(i)
		go func() {
			defer wg.Done()
			r.Subscribe(testMint, subscriber)
		}()
		go func() {
			defer wg.Done()
			r.Retire(testMint)
		}()
	}
	wg.Wait()

	// Either outcome of the race is fine; the entry must just be clean.
	if entry, ok := r.Lookup(testMint); ok {
		assert.NotEmpty(t, entry.Subscribers)
		assert.Equal(t, StateActive, entry.State)
	}
}
