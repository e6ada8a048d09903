package session

import (
	"context"
	"regexp"
	"strings"

	"lyricsync/internal/host"
	"lyricsync/pkg/event"
)

// Display-name noise stripped before the name reaches the UI. Release
// pipelines tack these suffixes onto otherwise identical tracks.
var (
	remasteredPattern = regexp.MustCompile(`\s*(?:-|/)\s*(?:(?:Stereo|Mono)\s*)?Remastered(?:\s*\d+)?`)
	channelPattern    = regexp.MustCompile(`\s*-\s*(?:Stereo|Mono)(?:\s*Version|\s*Mix)?`)
	parenPattern      = regexp.MustCompile(`\s*\(\s*(?:Stereo|Mono)(?:\s*Mix)?\)?`)
)

func filterSongName(name string) string {
	name = remasteredPattern.ReplaceAllString(name, "")
	name = channelPattern.ReplaceAllString(name, "")
	name = parenPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// loadDetails resolves SongDetails for the snapshot: local tracks are
// synthesized from the host's own metadata, streamed tracks go through
// the cache and then the metadata service. The result commits only if
// the snapshot is still current.
func (s *Session) loadDetails(ctx context.Context, snapshot *Song) {
	if snapshot == nil {
		s.commitDetails(snapshot, nil)
		return
	}

	if snapshot.IsLocal {
		s.commitDetails(snapshot, s.localDetails())
		return
	}

	info, err := s.detailsStore.GetItem(ctx, snapshot.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("track", snapshot.ID).Msg("Track information cache read failed")
	}
	if info == nil {
		fetched, err := s.requestTrackInformation(ctx, snapshot.InternalID)
		if err != nil {
			s.logger.Error().Err(err).Str("track", snapshot.ID).Msg("Failed to load track information")
			return
		}
		if fetched == nil {
			s.logger.Error().Str("track", snapshot.ID).Msg("Metadata service returned no document")
			return
		}
		info = fetched
		if _, err := s.detailsStore.SetItem(ctx, snapshot.ID, *info); err != nil {
			s.logger.Warn().Err(err).Str("track", snapshot.ID).Msg("Track information cache write failed")
		}
	}

	s.commitDetails(snapshot, buildDetails(info))
}

func (s *Session) localDetails() *SongDetails {
	details := &SongDetails{IsLocal: true}
	if state := s.hostClient.State(); state != nil && state.Track != nil {
		details.Name = state.Track.Name
		details.LocalAlbum = state.Track.Album
		details.LocalArtists = state.Track.Artists
	}
	return details
}

// requestTrackInformation collapses concurrent requests for the same
// document into a single host call.
func (s *Session) requestTrackInformation(ctx context.Context, internalID string) (*host.TrackInformation, error) {
	value, err, _ := s.requests.Do("/track/"+internalID, func() (any, error) {
		return s.hostClient.TrackInformation(ctx, internalID)
	})
	if err != nil {
		return nil, err
	}
	return value.(*host.TrackInformation), nil
}

func buildDetails(info *host.TrackInformation) *SongDetails {
	details := &SongDetails{
		Name: filterSongName(info.Name),
		Album: AlbumDetails{
			ID:          info.Album.GID,
			ReleaseDate: info.Album.Date,
		},
	}
	for _, artist := range info.Artists {
		details.Artists = append(details.Artists, ArtistDetails{ID: artist.GID, Name: artist.Name})
	}
	for _, artist := range info.Album.Artists {
		details.Album.Artists = append(details.Album.Artists, ArtistDetails{ID: artist.GID, Name: artist.Name})
	}
	for _, external := range info.ExternalIDs {
		if external.Type == "isrc" {
			details.ISRC = external.ID
			break
		}
	}
	return details
}

func (s *Session) commitDetails(snapshot *Song, details *SongDetails) {
	s.mu.Lock()
	if s.song != snapshot {
		s.mu.Unlock()
		return
	}
	s.songDetails = details
	s.haveDetails = true
	s.mu.Unlock()
	event.FireUnit(s.SongDetailsLoaded)
}
