package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"lyricsync/internal/host"
)

// refreshWindow is how close to expiry a cached token may get before
// callers wait out the remainder and fetch a fresh one.
const refreshWindow = 2 * time.Second

// TokenProvider caches bearer tokens from the host's issuer. Concurrent
// callers share one in-flight fetch; a resolver-not-found failure falls
// back to the alternate source.
type TokenProvider struct {
	primary  host.TokenSource
	fallback host.TokenSource

	mu     sync.Mutex
	cached *host.Token

	group singleflight.Group
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewTokenProvider(primary, fallback host.TokenSource) *TokenProvider {
	return &TokenProvider{
		primary:  primary,
		fallback: fallback,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get returns a valid access token, refreshing when the cached one is
// within the refresh window. A token about to expire is waited out
// rather than raced: the issuer only hands out a new one after the old
// expiry.
func (p *TokenProvider) Get(ctx context.Context) (string, error) {
	p.mu.Lock()
	cached := p.cached
	p.mu.Unlock()

	if cached != nil {
		untilExpiry := cached.ExpiresAt.Sub(p.now())
		if untilExpiry > refreshWindow {
			return cached.AccessToken, nil
		}

		p.mu.Lock()
		if p.cached == cached {
			p.cached = nil
		}
		p.mu.Unlock()

		if untilExpiry > 0 {
			if err := p.sleep(ctx, untilExpiry); err != nil {
				return "", err
			}
		}
	}

	token, err, _ := p.group.Do("token", func() (interface{}, error) {
		fetched, err := p.primary.Token(ctx)
		if errors.Is(err, host.ErrResolverNotFound) && p.fallback != nil {
			fetched, err = p.fallback.Token(ctx)
		}
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.cached = &fetched
		p.mu.Unlock()
		return fetched.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}
