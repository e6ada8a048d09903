package host

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"lyricsync/pkg/event"
)

var playerctlLogger = log.With().Str("component", "playerctl-host").Logger()

var _ Client = (*PlayerctlClient)(nil)

const playerctlMetadataFormat = `{{mpris:trackid}}	{{xesam:title}}	{{xesam:album}}	{{xesam:artist}}	{{mpris:length}}	{{mpris:artUrl}}`

// PlayerctlClient adapts any MPRIS player, via the playerctl binary,
// to the host interface. Playback is always local: the audio device is
// this machine, so the transport position is directly queryable and the
// remote-resync path never fires. Liked-state and metadata-service
// lookups are unsupported; every track reports IsLocal so the session
// synthesizes details from the MPRIS fields.
type PlayerctlClient struct {
	events       *Events
	pollInterval time.Duration

	mu           sync.Mutex
	state        *State
	lastPosition float64 // ms
	lastSampled  time.Time
}

func NewPlayerctlClient(pollInterval time.Duration) *PlayerctlClient {
	return &PlayerctlClient{
		events:       NewEvents(),
		pollInterval: pollInterval,
	}
}

func (c *PlayerctlClient) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *PlayerctlClient) Events() *Events {
	return c.events
}

func (c *PlayerctlClient) IsLocalPlayback() bool { return true }

func (c *PlayerctlClient) PositionState(ctx context.Context) (float64, error) {
	out, err := exec.CommandContext(ctx, "playerctl", "position").Output()
	if err != nil {
		return 0, fmt.Errorf("playerctl position: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("playerctl position parse: %w", err)
	}

	positionMs := seconds * 1000
	c.mu.Lock()
	c.lastPosition = positionMs
	c.lastSampled = time.Now()
	c.mu.Unlock()
	return positionMs, nil
}

func (c *PlayerctlClient) Resume(context.Context) error { return nil }

func (c *PlayerctlClient) LastKnownPosition() (float64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPosition, c.lastSampled
}

func (c *PlayerctlClient) TrackInformation(context.Context, string) (*TrackInformation, error) {
	return nil, ErrUnsupported
}

func (c *PlayerctlClient) SetPlaying(playing bool) error {
	if playing {
		return exec.Command("playerctl", "play").Run()
	}
	return exec.Command("playerctl", "pause").Run()
}

func (c *PlayerctlClient) Seek(seconds float64) error {
	return exec.Command("playerctl", "position", strconv.FormatFloat(seconds, 'f', 3, 64)).Run()
}

func (c *PlayerctlClient) SetShuffling(shuffling bool) error {
	value := "Off"
	if shuffling {
		value = "On"
	}
	return exec.Command("playerctl", "shuffle", value).Run()
}

func (c *PlayerctlClient) SetLoopSetting(setting LoopSetting) error {
	value := "None"
	switch setting {
	case LoopSong:
		value = "Track"
	case LoopContext:
		value = "Playlist"
	}
	return exec.Command("playerctl", "loop", value).Run()
}

func (c *PlayerctlClient) SetLiked(bool) error { return ErrUnsupported }

// Run polls the player and bridges state diffs to the host events.
// One poll is in flight at a time; each completion schedules the next.
func (c *PlayerctlClient) Run(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	playerctlLogger.Info().Dur("poll_interval", c.pollInterval).Msg("Starting player poll loop")
	c.poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.poll()
		}
	}
}

func (c *PlayerctlClient) poll() {
	c.applyState(c.readState())
}

// applyState swaps in the fresh snapshot and fires the diff events.
func (c *PlayerctlClient) applyState(next *State) {
	c.mu.Lock()
	prior := c.state
	c.state = next
	c.mu.Unlock()

	songChanged := trackIdentity(prior) != trackIdentity(next)
	playChanged := prior == nil || next == nil || prior.IsPaused != next.IsPaused
	if prior == nil && next == nil {
		playChanged = false
	}

	if songChanged {
		playerctlLogger.Info().Str("track", trackIdentity(next)).Msg("Song changed")
		event.FireUnit(c.events.SongChanged)
	}
	if playChanged {
		event.FireUnit(c.events.PlayStateChanged)
	}
	event.FireUnit(c.events.Updated)
}

func trackIdentity(state *State) string {
	if state == nil || state.Track == nil {
		return ""
	}
	return state.Track.URI
}

// readState shells out for the current snapshot. Any failure reads as
// "no player": a nil track with populated state.
func (c *PlayerctlClient) readState() *State {
	metadata, err := exec.Command("playerctl", "metadata", "--format", playerctlMetadataFormat).Output()
	if err != nil {
		return &State{LoopSetting: LoopOff}
	}

	fields := strings.Split(strings.TrimRight(string(metadata), "\n"), "\t")
	if len(fields) < 6 {
		return &State{LoopSetting: LoopOff}
	}

	lengthUs, _ := strconv.ParseFloat(fields[4], 64)
	track := &TrackMetadata{
		URI:      fields[0],
		ID:       fields[0],
		IsLocal:  true,
		Duration: lengthUs / 1e6,
		Name:     fields[1],
		Album:    fields[2],
		Artists:  splitArtists(fields[3]),
		CoverArt: CoverArt{Default: fields[5]},
	}

	state := &State{
		Track:       track,
		IsPaused:    c.readStatus() != "Playing",
		IsShuffling: c.readShuffle(),
		LoopSetting: c.readLoop(),
	}
	return state
}

func (c *PlayerctlClient) readStatus() string {
	out, err := exec.Command("playerctl", "status").Output()
	if err != nil {
		return "Stopped"
	}
	return strings.TrimSpace(string(out))
}

func (c *PlayerctlClient) readShuffle() bool {
	out, err := exec.Command("playerctl", "shuffle").Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "On"
}

func (c *PlayerctlClient) readLoop() LoopSetting {
	out, err := exec.Command("playerctl", "loop").Output()
	if err != nil {
		return LoopOff
	}
	switch strings.TrimSpace(string(out)) {
	case "Track":
		return LoopSong
	case "Playlist":
		return LoopContext
	default:
		return LoopOff
	}
}

func splitArtists(field string) []string {
	if field == "" {
		return nil
	}
	parts := strings.Split(field, ", ")
	artists := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			artists = append(artists, trimmed)
		}
	}
	return artists
}
