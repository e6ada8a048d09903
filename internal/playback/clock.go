// Package playback maintains a smoothly interpolated playback
// timestamp by reconciling local extrapolation against periodic
// authoritative position samples from the host.
package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"lyricsync/internal/host"
	"lyricsync/pkg/event"
)

var logger = log.With().Str("component", "playback-clock").Logger()

// Step is the per-tick notification. Skipped marks a paused-state
// correction rather than elapsed playback time; its delta is zero.
type Step struct {
	Delta   float64
	Skipped bool
}

// Hysteresis thresholds, in seconds. Disagreements inside the band are
// absorbed by extrapolation so network jitter never shows as stutter.
const (
	playingSnapThreshold = 0.075
	pausedSnapThreshold  = 0.05
)

// fastSyncDelays is the cadence while the fast-resync budget drains,
// indexed by remaining budget; afterwards syncs settle to steadyDelay.
var fastSyncDelays = []time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	150 * time.Millisecond,
	750 * time.Millisecond,
}

const steadyDelay = time.Second / 30

// syncedSample is one authoritative position: raw milliseconds plus
// the local clock time it was captured, when projection applies.
type syncedSample struct {
	positionMs float64
	capturedAt time.Time
	projected  bool
}

// Clock owns the playback timestamp. The session drives its
// song-changed and play-state inputs. The position sync loop and the
// per-frame tick loop run one goroutine each, so at most one instance
// of either recurring task is ever in flight.
type Clock struct {
	hostClient   host.Client
	tickInterval time.Duration

	// TimeStepped fires every tick that moved the timestamp.
	TimeStepped *event.Signal[Step]

	mu        sync.Mutex
	timestamp float64
	isPlaying bool
	hasSong   bool
	synced    *syncedSample
	fastSyncs int
	lastTick  time.Time
}

func NewClock(hostClient host.Client, tickInterval time.Duration) *Clock {
	if tickInterval <= 0 {
		tickInterval = 16 * time.Millisecond
	}
	return &Clock{
		hostClient:   hostClient,
		tickInterval: tickInterval,
		TimeStepped:  event.NewSignal[Step](),
	}
}

func (c *Clock) Timestamp() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timestamp
}

func (c *Clock) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPlaying
}

// HandleSongChanged resets the timestamp for the new song and restores
// the fast-resync budget so the next syncs converge quickly.
func (c *Clock) HandleSongChanged(hasSong bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasSong = hasSong
	c.timestamp = 0
	c.synced = nil
	c.fastSyncs = len(fastSyncDelays)
}

// HandlePlayStateChanged restores the budget when playback starts and
// zeroes it when it stops.
func (c *Clock) HandlePlayStateChanged(isPlaying bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isPlaying = isPlaying
	if isPlaying {
		c.fastSyncs = len(fastSyncDelays)
	} else {
		c.fastSyncs = 0
	}
}

// Run syncs once so the first tick has a sample, then starts both
// loops and blocks until the context ends.
func (c *Clock) Run(ctx context.Context) {
	c.syncOnce(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.syncLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		c.tickLoop(ctx)
	}()
	wg.Wait()
}

func (c *Clock) syncLoop(ctx context.Context) {
	for {
		timer := time.NewTimer(c.nextSyncDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		c.syncOnce(ctx)
	}
}

func (c *Clock) nextSyncDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hostClient.IsLocalPlayback() || c.fastSyncs == 0 {
		return steadyDelay
	}
	return fastSyncDelays[len(fastSyncDelays)-c.fastSyncs]
}

// syncOnce queries the host for an authoritative position. Local
// playback exposes the transport directly; remote playback needs a
// resume round-trip (budget permitting) and extrapolation from the
// host's last known state.
func (c *Clock) syncOnce(ctx context.Context) {
	if c.hostClient.IsLocalPlayback() {
		startedAt := time.Now()
		positionMs, err := c.hostClient.PositionState(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Transport position query failed")
			return
		}
		c.storeSample(&syncedSample{positionMs: positionMs, capturedAt: startedAt, projected: true})
		return
	}

	c.mu.Lock()
	budget := c.fastSyncs
	playing := c.isPlaying
	c.mu.Unlock()

	if budget > 0 {
		startedAt := time.Now()
		if err := c.hostClient.Resume(ctx); err != nil {
			logger.Warn().Err(err).Msg("Resume round-trip failed")
		}
		c.mu.Lock()
		if c.fastSyncs > 0 {
			c.fastSyncs--
		}
		c.mu.Unlock()

		positionMs, asOf := c.hostClient.LastKnownPosition()
		if playing {
			projected := positionMs + float64(time.Since(asOf))/float64(time.Millisecond)
			c.storeSample(&syncedSample{positionMs: projected, capturedAt: startedAt, projected: true})
		} else {
			c.storeSample(&syncedSample{positionMs: positionMs})
		}
		return
	}

	positionMs, asOf := c.hostClient.LastKnownPosition()
	if playing {
		projected := positionMs + float64(time.Since(asOf))/float64(time.Millisecond)
		c.storeSample(&syncedSample{positionMs: projected, capturedAt: time.Now(), projected: true})
	} else {
		c.storeSample(&syncedSample{positionMs: positionMs})
	}
}

func (c *Clock) storeSample(sample *syncedSample) {
	c.mu.Lock()
	c.synced = sample
	c.mu.Unlock()
}

func (c *Clock) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.step(now)
		}
	}
}

// step advances the timestamp for one frame. The pending synced sample
// is consumed unconditionally; whether it wins over local extrapolation
// depends on the hysteresis band for the current play state. A playing
// snap still reports the real frame delta, so the correction is silent.
func (c *Clock) step(now time.Time) {
	c.mu.Lock()

	if c.lastTick.IsZero() {
		c.lastTick = now
		c.mu.Unlock()
		return
	}
	delta := now.Sub(c.lastTick).Seconds()
	c.lastTick = now

	if !c.hasSong {
		c.mu.Unlock()
		return
	}

	var syncedTimestamp *float64
	if c.synced != nil {
		ts := c.synced.positionMs / 1000
		if c.synced.projected {
			ts += now.Sub(c.synced.capturedAt).Seconds()
		}
		syncedTimestamp = &ts
		c.synced = nil
	}

	var newTimestamp *float64
	fireDelta, skipped := delta, false
	if c.isPlaying {
		if syncedTimestamp == nil || math.Abs(*syncedTimestamp-c.timestamp) < playingSnapThreshold {
			extrapolated := c.timestamp + delta
			newTimestamp = &extrapolated
		} else {
			newTimestamp = syncedTimestamp
		}
	} else if syncedTimestamp != nil && math.Abs(*syncedTimestamp-c.timestamp) > pausedSnapThreshold {
		newTimestamp = syncedTimestamp
		fireDelta, skipped = 0, true
	}

	if newTimestamp == nil {
		c.mu.Unlock()
		return
	}
	c.timestamp = *newTimestamp
	c.mu.Unlock()

	c.TimeStepped.Fire(Step{Delta: fireDelta, Skipped: skipped})
}
