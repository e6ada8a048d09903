package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyricsync/internal/host"
)

// fakeHost records sync calls and serves canned positions.
type fakeHost struct {
	mu           sync.Mutex
	local        bool
	positionMs   float64
	resumeCalls  int
	lastPosition float64
	lastSampled  time.Time
}

func (f *fakeHost) State() *host.State     { return &host.State{} }
func (f *fakeHost) Events() *host.Events   { return host.NewEvents() }
func (f *fakeHost) IsLocalPlayback() bool  { return f.local }
func (f *fakeHost) Resume(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumeCalls++
	return nil
}
func (f *fakeHost) PositionState(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.positionMs, nil
}
func (f *fakeHost) LastKnownPosition() (float64, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPosition, f.lastSampled
}
func (f *fakeHost) TrackInformation(context.Context, string) (*host.TrackInformation, error) {
	return nil, host.ErrUnsupported
}
func (f *fakeHost) SetPlaying(bool) error                { return nil }
func (f *fakeHost) Seek(float64) error                   { return nil }
func (f *fakeHost) SetShuffling(bool) error              { return nil }
func (f *fakeHost) SetLoopSetting(host.LoopSetting) error { return nil }
func (f *fakeHost) SetLiked(bool) error                  { return nil }

func newTestClock() (*Clock, *[]Step) {
	clock := NewClock(&fakeHost{local: true}, 16*time.Millisecond)
	steps := &[]Step{}
	clock.TimeStepped.Connect(func(s Step) { *steps = append(*steps, s) })
	return clock, steps
}

// tick primes the clock at base and steps it once at base+delta.
func tick(clock *Clock, base time.Time, delta time.Duration) {
	clock.step(base)
	clock.step(base.Add(delta))
}

func TestStepExtrapolatesWhilePlaying(t *testing.T) {
	clock, steps := newTestClock()
	clock.HandleSongChanged(true)
	clock.HandlePlayStateChanged(true)
	clock.timestamp = 10.0

	tick(clock, time.Now(), 100*time.Millisecond)

	assert.InDelta(t, 10.1, clock.Timestamp(), 1e-9)
	require.Len(t, *steps, 1)
	assert.InDelta(t, 0.1, (*steps)[0].Delta, 1e-9)
	assert.False(t, (*steps)[0].Skipped)
}

func TestStepSnapsToDisagreeingSample(t *testing.T) {
	clock, steps := newTestClock()
	clock.HandleSongChanged(true)
	clock.HandlePlayStateChanged(true)
	clock.timestamp = 10.0

	base := time.Now()
	clock.step(base)
	// Sample projects to 10.5 at the tick: disagreement 0.4 > 0.075.
	clock.synced = &syncedSample{positionMs: 10500}
	clock.step(base.Add(100 * time.Millisecond))

	assert.InDelta(t, 10.5, clock.Timestamp(), 1e-9)
	require.Len(t, *steps, 1)
	// The correction is silent: the real frame delta is reported.
	assert.InDelta(t, 0.1, (*steps)[0].Delta, 1e-9)
	assert.False(t, (*steps)[0].Skipped)
}

func TestStepAbsorbsJitterInsideBand(t *testing.T) {
	clock, steps := newTestClock()
	clock.HandleSongChanged(true)
	clock.HandlePlayStateChanged(true)
	clock.timestamp = 10.0

	base := time.Now()
	clock.step(base)
	clock.synced = &syncedSample{positionMs: 10050} // 0.05 < 0.075
	clock.step(base.Add(100 * time.Millisecond))

	assert.InDelta(t, 10.1, clock.Timestamp(), 1e-9, "jitter should extrapolate, not snap")
	require.Len(t, *steps, 1)
}

func TestStepPausedCorrection(t *testing.T) {
	t.Run("SmallDisagreementIgnored", func(t *testing.T) {
		clock, steps := newTestClock()
		clock.HandleSongChanged(true)
		clock.HandlePlayStateChanged(false)
		clock.timestamp = 5.0

		base := time.Now()
		clock.step(base)
		clock.synced = &syncedSample{positionMs: 5020} // 0.02 < 0.05
		clock.step(base.Add(16 * time.Millisecond))

		assert.Equal(t, 5.0, clock.Timestamp())
		assert.Empty(t, *steps, "no event inside the paused band")
	})

	t.Run("LargeDisagreementSnapsWithSkipFlag", func(t *testing.T) {
		clock, steps := newTestClock()
		clock.HandleSongChanged(true)
		clock.HandlePlayStateChanged(false)
		clock.timestamp = 5.0

		base := time.Now()
		clock.step(base)
		clock.synced = &syncedSample{positionMs: 7000}
		clock.step(base.Add(16 * time.Millisecond))

		assert.InDelta(t, 7.0, clock.Timestamp(), 1e-9)
		require.Len(t, *steps, 1)
		assert.Equal(t, 0.0, (*steps)[0].Delta)
		assert.True(t, (*steps)[0].Skipped)
	})
}

func TestStepNoSongNoEvent(t *testing.T) {
	clock, steps := newTestClock()
	clock.HandlePlayStateChanged(true)

	tick(clock, time.Now(), 100*time.Millisecond)

	assert.Empty(t, *steps)
	assert.Equal(t, 0.0, clock.Timestamp())
}

func TestStepConsumesSampleUnconditionally(t *testing.T) {
	clock, _ := newTestClock()
	clock.HandleSongChanged(true)
	clock.HandlePlayStateChanged(false)
	clock.timestamp = 5.0

	base := time.Now()
	clock.step(base)
	clock.synced = &syncedSample{positionMs: 5020}
	clock.step(base.Add(16 * time.Millisecond))

	assert.Nil(t, clock.synced, "sample must be cleared even when not applied")
}

func TestFastSyncBudget(t *testing.T) {
	t.Run("SongChangeRestores", func(t *testing.T) {
		clock, _ := newTestClock()
		clock.fastSyncs = 0
		clock.HandleSongChanged(true)
		assert.Equal(t, len(fastSyncDelays), clock.fastSyncs)
	})

	t.Run("PauseZeroes", func(t *testing.T) {
		clock, _ := newTestClock()
		clock.HandlePlayStateChanged(true)
		assert.Equal(t, len(fastSyncDelays), clock.fastSyncs)
		clock.HandlePlayStateChanged(false)
		assert.Equal(t, 0, clock.fastSyncs)
	})
}

func TestSyncCadence(t *testing.T) {
	remote := &fakeHost{local: false, lastPosition: 1000, lastSampled: time.Now()}
	clock := NewClock(remote, 16*time.Millisecond)
	clock.HandleSongChanged(true)
	clock.HandlePlayStateChanged(true)

	// Budget full: shortest delay first, growing as the budget drains.
	want := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond, 750 * time.Millisecond}
	for i, expected := range want {
		assert.Equal(t, expected, clock.nextSyncDelay(), "delay %d", i)
		clock.syncOnce(context.Background())
	}

	// Budget spent: steady cadence, no further resume round-trips.
	assert.Equal(t, steadyDelay, clock.nextSyncDelay())
	resumes := remote.resumeCalls
	clock.syncOnce(context.Background())
	assert.Equal(t, resumes, remote.resumeCalls)
}

func TestSyncLocalStoresSample(t *testing.T) {
	local := &fakeHost{local: true, positionMs: 42000}
	clock := NewClock(local, 16*time.Millisecond)
	clock.syncOnce(context.Background())

	require.NotNil(t, clock.synced)
	assert.Equal(t, 42000.0, clock.synced.positionMs)
	assert.True(t, clock.synced.projected)
}
