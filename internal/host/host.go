// Package host defines the versioned adapter boundary to the player
// platform. The core never talks to the platform directly; everything
// it needs (state snapshots, transport position, commands, tokens and
// change events) goes through this interface.
package host

import (
	"context"
	"errors"
	"time"

	"lyricsync/pkg/event"
)

// AdapterVersion is the contract version implementations target.
const AdapterVersion = 1

// ErrUnsupported marks operations an adapter cannot provide (a local
// desktop player has no liked-state, for example).
var ErrUnsupported = errors.New("host: operation not supported by adapter")

// ErrResolverNotFound is the token failure class that makes the token
// provider fall back to its alternate source.
var ErrResolverNotFound = errors.New("host: token resolver not found")

type CoverArt struct {
	Large   string
	Big     string
	Default string
	Small   string
}

// TrackMetadata is the host's snapshot of the playing track.
type TrackMetadata struct {
	URI        string
	ID         string
	InternalID string
	IsLocal    bool
	Duration   float64 // seconds

	// Base details, used directly for local tracks.
	Name     string
	Album    string
	Artists  []string
	CoverArt CoverArt
}

type ContextMetadata struct {
	URI         string
	Description string
	CoverArt    string
}

type LoopSetting string

const (
	LoopOff     LoopSetting = "Off"
	LoopSong    LoopSetting = "Song"
	LoopContext LoopSetting = "Context"
)

// State is the host's full playback snapshot. A nil State means the
// host has not populated its data yet and callers should re-poll.
type State struct {
	Track      *TrackMetadata
	Context    *ContextMetadata
	HasContext bool

	IsPaused    bool
	IsShuffling bool
	LoopSetting LoopSetting
	IsLiked     bool
}

// Events are the raw host notifications the session bridges from.
type Events struct {
	SongChanged      *event.UnitSignal
	PlayStateChanged *event.UnitSignal
	Updated          *event.UnitSignal
}

func NewEvents() *Events {
	return &Events{
		SongChanged:      event.NewUnitSignal(),
		PlayStateChanged: event.NewUnitSignal(),
		Updated:          event.NewUnitSignal(),
	}
}

// ArtistInformation and friends mirror the host metadata service's
// track document.
type ArtistInformation struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type ReleaseDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type AlbumInformation struct {
	GID     string              `json:"gid"`
	Name    string              `json:"name"`
	Artists []ArtistInformation `json:"artist"`
	Date    ReleaseDate         `json:"date"`
}

type ExternalID struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type TrackInformation struct {
	GID         string              `json:"gid"`
	Name        string              `json:"name"`
	Album       AlbumInformation    `json:"album"`
	Artists     []ArtistInformation `json:"artist"`
	ExternalIDs []ExternalID        `json:"external_id"`
}

// Token is a bearer token with its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenSource issues bearer tokens for the lyrics provider.
type TokenSource interface {
	Token(ctx context.Context) (Token, error)
}

// StaticTokenSource returns a fixed token that never expires. It backs
// adapters whose platform has no token issuance of its own.
type StaticTokenSource struct {
	AccessToken string
}

func (s StaticTokenSource) Token(context.Context) (Token, error) {
	return Token{
		AccessToken: s.AccessToken,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}, nil
}

// Client is the host adapter. Position values are raw milliseconds, the
// way the host transport reports them.
type Client interface {
	// State returns nil until the host has data.
	State() *State
	Events() *Events

	// IsLocalPlayback reports whether audio plays on this device; when
	// false the transport position is only reachable through
	// Resume + LastKnownPosition extrapolation.
	IsLocalPlayback() bool
	PositionState(ctx context.Context) (positionMs float64, err error)
	Resume(ctx context.Context) error
	LastKnownPosition() (positionMs float64, asOf time.Time)

	TrackInformation(ctx context.Context, internalID string) (*TrackInformation, error)

	SetPlaying(playing bool) error
	Seek(seconds float64) error
	SetShuffling(shuffling bool) error
	SetLoopSetting(setting LoopSetting) error
	SetLiked(liked bool) error
}
