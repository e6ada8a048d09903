// Package session is the track/session state machine: it watches the
// host for track changes, drives the detail and lyrics pipelines, owns
// the playback clock wiring and publishes the session's event streams.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"lyricsync/internal/host"
	"lyricsync/internal/playback"
	"lyricsync/pkg/cache"
	"lyricsync/pkg/event"
	"lyricsync/pkg/lyrics"
)

// stateRecheckDelay is the cooperative yield used when the host signals
// a change before its own data is populated.
const stateRecheckDelay = 10 * time.Millisecond

// LyricsClient fetches raw provider lyrics for a track.
type LyricsClient interface {
	GetLyrics(ctx context.Context, trackID string, accessToken string) (*lyrics.Raw, error)
}

// storedRawLyrics wraps the provider response so "track has no lyrics"
// is cached as an explicit value rather than a cache miss.
type storedRawLyrics struct {
	NoLyrics bool        `json:"NoLyrics,omitempty"`
	Lyrics   *lyrics.Raw `json:"Lyrics,omitempty"`
}

type storedTransformedLyrics struct {
	NoLyrics bool                `json:"NoLyrics,omitempty"`
	Lyrics   *lyrics.Transformed `json:"Lyrics,omitempty"`
}

// Session owns the current song snapshot and everything keyed to it.
type Session struct {
	hostClient   host.Client
	clock        *playback.Clock
	lyricsClient LyricsClient
	tokens       *TokenProvider
	maid         *event.Maid
	logger       zerolog.Logger

	detailsStore     *cache.Store[host.TrackInformation]
	rawStore         *cache.Store[storedRawLyrics]
	transformedStore *cache.Store[storedTransformedLyrics]

	// In-flight metadata requests, collapsed per path so a burst of
	// loads for the same track shares one network call.
	requests singleflight.Group

	mu          sync.Mutex
	song        *Song
	songContext *SongContext
	songDetails *SongDetails
	haveDetails bool
	songLyrics  *lyrics.Transformed
	haveLyrics  bool
	isPlaying   bool
	isLiked     bool
	likedLoaded bool
	isShuffling bool
	loopSetting host.LoopSetting

	SongChanged        *event.UnitSignal
	SongContextChanged *event.UnitSignal
	SongDetailsLoaded  *event.UnitSignal
	SongLyricsLoaded   *event.UnitSignal
	IsPlayingChanged   *event.UnitSignal
	IsShufflingChanged *event.UnitSignal
	LoopSettingChanged *event.UnitSignal
	IsLikedChanged     *event.UnitSignal

	// TimeStepped re-exposes the clock's per-tick event.
	TimeStepped *event.Signal[playback.Step]
}

func New(hostClient host.Client, clock *playback.Clock, kv cache.KV, lyricsClient LyricsClient, tokens *TokenProvider) *Session {
	return &Session{
		hostClient:   hostClient,
		clock:        clock,
		lyricsClient: lyricsClient,
		tokens:       tokens,
		maid:         event.NewMaid(),
		logger:       log.With().Str("component", "session").Logger(),

		detailsStore: cache.NewStore[host.TrackInformation](
			kv, "track_information", 2, cache.Expiration{Duration: 2, Unit: cache.Weeks}),
		rawStore: cache.NewStore[storedRawLyrics](
			kv, "provider_lyrics", 2, cache.Expiration{Duration: 1, Unit: cache.Months}),
		transformedStore: cache.NewStore[storedTransformedLyrics](
			kv, "transformed_lyrics", 2, cache.Expiration{Duration: 1, Unit: cache.Months}),

		SongChanged:        event.NewUnitSignal(),
		SongContextChanged: event.NewUnitSignal(),
		SongDetailsLoaded:  event.NewUnitSignal(),
		SongLyricsLoaded:   event.NewUnitSignal(),
		IsPlayingChanged:   event.NewUnitSignal(),
		IsShufflingChanged: event.NewUnitSignal(),
		LoopSettingChanged: event.NewUnitSignal(),
		IsLikedChanged:     event.NewUnitSignal(),

		TimeStepped: clock.TimeStepped,
	}
}

// Start subscribes to the host, runs the initial handlers and launches
// the clock loops. Stop (or context end) reverses the subscriptions.
func (s *Session) Start(ctx context.Context) {
	events := s.hostClient.Events()
	s.maid.GiveConnection(events.SongChanged.Connect(func(event.Unit) { s.handleSongChanged(ctx) }))
	s.maid.GiveConnection(events.PlayStateChanged.Connect(func(event.Unit) { s.handlePlayStateChanged() }))
	s.maid.GiveConnection(events.Updated.Connect(func(event.Unit) { s.handleUpdate() }))

	s.handleUpdate()
	s.handlePlayStateChanged()
	s.handleSongChanged(ctx)

	go s.clock.Run(ctx)
}

// Stop reverses every subscription and pending deferral.
func (s *Session) Stop() {
	s.maid.Destroy()
}

// handleSongChanged captures a fresh song snapshot and kicks off the
// two loading pipelines. When the host has no data yet the recheck is
// deferred; the maid key guarantees a single pending deferral.
func (s *Session) handleSongChanged(ctx context.Context) {
	state := s.hostClient.State()
	if state == nil {
		timer := time.AfterFunc(stateRecheckDelay, func() { s.handleSongChanged(ctx) })
		s.maid.Give(func() { timer.Stop() }, "SongChangeUpdate")
		return
	}

	var snapshot *Song
	if state.Track != nil {
		track := state.Track
		snapshot = &Song{
			URI:        track.URI,
			ID:         track.ID,
			InternalID: track.InternalID,
			IsLocal:    track.IsLocal,
			Duration:   track.Duration,
			CoverArt:   track.CoverArt,
		}
	}

	s.mu.Lock()
	s.song = snapshot
	s.songDetails, s.haveDetails = nil, false
	s.songLyrics, s.haveLyrics = nil, false
	s.likedLoaded = false
	s.mu.Unlock()

	s.clock.HandleSongChanged(snapshot != nil)

	// Independent pipelines: their loaded events may land in either
	// order, each at most once per snapshot.
	go s.loadDetails(ctx, snapshot)
	go s.loadLyrics(ctx, snapshot)

	event.FireUnit(s.SongChanged)
	s.updateContext(state)
}

func (s *Session) updateContext(state *host.State) {
	if !state.HasContext || state.Context == nil {
		s.mu.Lock()
		had := s.songContext != nil
		s.songContext = nil
		s.mu.Unlock()
		if had {
			event.FireUnit(s.SongContextChanged)
		}
		return
	}

	s.mu.Lock()
	if s.songContext != nil && s.songContext.URI == state.Context.URI {
		s.mu.Unlock()
		return
	}
	s.songContext = buildContext(state.Context)
	s.mu.Unlock()
	event.FireUnit(s.SongContextChanged)
}

func buildContext(meta *host.ContextMetadata) *SongContext {
	built := &SongContext{
		URI:         meta.URI,
		Description: meta.Description,
		CoverArt:    meta.CoverArt,
	}

	parts := strings.Split(meta.URI, ":")
	switch {
	case strings.HasSuffix(meta.URI, ":local-files"):
		built.Type = ContextLocalFiles
	case strings.Contains(meta.URI, ":playlist:"):
		built.Type = ContextPlaylist
		built.ID = parts[len(parts)-1]
	case strings.Contains(meta.URI, ":album:"):
		built.Type = ContextAlbum
		built.ID = parts[len(parts)-1]
	default:
		built.Type = ContextOther
	}
	return built
}

func (s *Session) handlePlayStateChanged() {
	state := s.hostClient.State()
	if state == nil {
		timer := time.AfterFunc(stateRecheckDelay, s.handlePlayStateChanged)
		s.maid.Give(func() { timer.Stop() }, "PlayingUpdate")
		return
	}

	playing := !state.IsPaused
	s.mu.Lock()
	if s.isPlaying == playing {
		s.mu.Unlock()
		return
	}
	s.isPlaying = playing
	s.mu.Unlock()

	s.clock.HandlePlayStateChanged(playing)
	event.FireUnit(s.IsPlayingChanged)
}

// handleUpdate tracks liked/shuffle/loop flags off the host's generic
// update event.
func (s *Session) handleUpdate() {
	state := s.hostClient.State()
	if state == nil {
		return
	}

	s.mu.Lock()
	likedChanged := !s.likedLoaded || s.isLiked != state.IsLiked
	s.isLiked = state.IsLiked
	s.likedLoaded = true

	shuffleChanged := s.isShuffling != state.IsShuffling
	s.isShuffling = state.IsShuffling

	loop := state.LoopSetting
	if loop == "" {
		loop = host.LoopOff
	}
	loopChanged := s.loopSetting != loop
	s.loopSetting = loop
	s.mu.Unlock()

	if likedChanged {
		event.FireUnit(s.IsLikedChanged)
	}
	if shuffleChanged {
		event.FireUnit(s.IsShufflingChanged)
	}
	if loopChanged {
		event.FireUnit(s.LoopSettingChanged)
	}
}

// Song returns the active snapshot, nil when nothing plays.
func (s *Session) Song() *Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.song
}

func (s *Session) SongContext() *SongContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.songContext
}

// SongDetails returns the loaded details and whether loading finished.
func (s *Session) SongDetails() (*SongDetails, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.songDetails, s.haveDetails
}

// SongLyrics returns the transformed lyrics (nil when the track has
// none) and whether loading finished.
func (s *Session) SongLyrics() (*lyrics.Transformed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.songLyrics, s.haveLyrics
}

func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPlaying
}

func (s *Session) IsLiked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLiked
}

func (s *Session) IsShuffling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isShuffling
}

func (s *Session) LoopSetting() host.LoopSetting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopSetting
}

func (s *Session) Timestamp() float64 {
	return s.clock.Timestamp()
}

// Commands, diff-guarded the way the host expects.

func (s *Session) SetIsPlaying(playing bool) error {
	if s.IsPlaying() == playing {
		return nil
	}
	return s.hostClient.SetPlaying(playing)
}

func (s *Session) SeekTo(seconds float64) error {
	return s.hostClient.Seek(seconds)
}

func (s *Session) SetIsShuffling(shuffling bool) error {
	return s.hostClient.SetShuffling(shuffling)
}

func (s *Session) SetLoopSetting(setting host.LoopSetting) error {
	return s.hostClient.SetLoopSetting(setting)
}

func (s *Session) SetIsLiked(liked bool) error {
	if s.IsLiked() == liked {
		return nil
	}
	return s.hostClient.SetLiked(liked)
}

// DurationString renders the song duration as m:ss, with zero-padded
// minutes for songs of ten minutes or more.
func (s *Session) DurationString() string {
	duration := 0.0
	if song := s.Song(); song != nil {
		duration = song.Duration
	}
	return formatTimestamp(duration, duration)
}

// TimestampString renders the current playback position in the same
// shape as DurationString so the two line up visually.
func (s *Session) TimestampString() string {
	duration := 0.0
	if song := s.Song(); song != nil {
		duration = song.Duration
	}
	return formatTimestamp(s.clock.Timestamp(), duration)
}

func formatTimestamp(seconds, duration float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds) / 60
	secs := int(seconds) % 60
	if duration >= 600 {
		return fmt.Sprintf("%02d:%02d", minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
