package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyricsync/internal/host"
)

type fakeTokenSource struct {
	mu     sync.Mutex
	tokens []host.Token
	err    error
	gate   chan struct{}
	calls  int32
}

func (f *fakeTokenSource) Token(context.Context) (host.Token, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return host.Token{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	token := f.tokens[0]
	if len(f.tokens) > 1 {
		f.tokens = f.tokens[1:]
	}
	return token, nil
}

func TestTokenProviderCachesUntilRefreshWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeTokenSource{tokens: []host.Token{
		{AccessToken: "first", ExpiresAt: now.Add(time.Hour)},
	}}
	provider := NewTokenProvider(source, nil)
	provider.now = func() time.Time { return now }

	got, err := provider.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// Well inside the validity window: no second fetch.
	got, err = provider.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
}

func TestTokenProviderWaitsOutExpiryThenRefreshes(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeTokenSource{tokens: []host.Token{
		{AccessToken: "first", ExpiresAt: now.Add(1500 * time.Millisecond)},
		{AccessToken: "second", ExpiresAt: now.Add(time.Hour)},
	}}
	provider := NewTokenProvider(source, nil)
	provider.now = func() time.Time { return now }

	var slept time.Duration
	provider.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	got, err := provider.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// The cached token is inside the refresh window: the provider
	// waits out the remaining validity, then fetches a fresh one.
	got, err = provider.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1500*time.Millisecond, slept)
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}

func TestTokenProviderFallsBackWhenResolverMissing(t *testing.T) {
	primary := &fakeTokenSource{err: host.ErrResolverNotFound}
	fallback := &fakeTokenSource{tokens: []host.Token{
		{AccessToken: "fallback", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	provider := NewTokenProvider(primary, fallback)

	got, err := provider.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}

func TestTokenProviderSurfacesOtherErrors(t *testing.T) {
	primary := &fakeTokenSource{err: errors.New("issuer offline")}
	fallback := &fakeTokenSource{tokens: []host.Token{
		{AccessToken: "fallback", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	provider := NewTokenProvider(primary, fallback)

	_, err := provider.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fallback.calls))
}

func TestTokenProviderSharesInFlightFetch(t *testing.T) {
	source := &fakeTokenSource{
		tokens: []host.Token{{AccessToken: "shared", ExpiresAt: time.Now().Add(time.Hour)}},
		gate:   make(chan struct{}),
	}
	provider := NewTokenProvider(source, nil)

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := provider.Get(context.Background())
			require.NoError(t, err)
			results[i] = got
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(source.gate)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	assert.Equal(t, "shared", results[0])
	assert.Equal(t, "shared", results[1])
}
