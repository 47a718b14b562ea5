package ownerlock

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquire_SameOwnerBusy(t *testing.T) {
	var s Set

	release, ok := s.TryAcquire("alice")
	require.True(t, ok)
	assert.True(t, s.Held("alice"))

	_, ok = s.TryAcquire("alice")
	assert.False(t, ok)

	_, ok = s.TryAcquire("bob")
	assert.True(t, ok)

	release()
	assert.False(t, s.Held("alice"))

	_, ok = s.TryAcquire("alice")
	assert.True(t, ok)
}

func TestRelease_Idempotent(t *testing.T) {
	var s Set

	r1, ok := s.TryAcquire("alice")
	require.True(t, ok)
	r1()

	r2, ok := s.TryAcquire("alice")
	require.True(t, ok)

	// a stale release must not free the new holder's slot
	r1()
	assert.True(t, s.Held("alice"))

	r2()
	r2()
	assert.Equal(t, 0, s.Len())
}

func TestRelease_OnPanic(t *testing.T) {
	var s Set

	func() {
		defer func() { _ = recover() }()
		release, ok := s.TryAcquire("alice")
		require.True(t, ok)
		defer release()
		panic("boom")
	}()

	assert.False(t, s.Held("alice"))
}

func TestTryAcquire_Concurrent(t *testing.T) {
	var s Set
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := s.TryAcquire("alice"); ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
