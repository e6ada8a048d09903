package session

import (
	"context"
	"errors"

	"lyricsync/pkg/event"
	"lyricsync/pkg/lyrics"
	"lyricsync/pkg/provider"
)

// loadLyrics resolves transformed lyrics for the snapshot. Both the
// raw provider response and the transformed document are cached, with
// "no lyrics" stored as an explicit entry so absent lyrics do not
// re-hit the provider on every play. The result commits only if the
// snapshot is still current.
func (s *Session) loadLyrics(ctx context.Context, snapshot *Song) {
	if snapshot == nil || snapshot.IsLocal {
		s.commitLyrics(snapshot, nil)
		return
	}

	stored, err := s.rawStore.GetItem(ctx, snapshot.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("track", snapshot.ID).Msg("Raw lyrics cache read failed")
	}
	if stored == nil {
		fetched, err := s.fetchRawLyrics(ctx, snapshot.ID)
		if err != nil {
			var statusErr *provider.StatusError
			if errors.As(err, &statusErr) {
				s.logger.Error().Int("status", statusErr.Status).Str("track", snapshot.ID).
					Msg("Lyrics provider rejected request")
			} else {
				s.logger.Error().Err(err).Str("track", snapshot.ID).Msg("Failed to load lyrics")
			}
			return
		}
		entry := storedRawLyrics{NoLyrics: fetched == nil, Lyrics: fetched}
		if _, err := s.rawStore.SetItem(ctx, snapshot.ID, entry); err != nil {
			s.logger.Warn().Err(err).Str("track", snapshot.ID).Msg("Raw lyrics cache write failed")
		}
		stored = &entry
	}

	transformed, err := s.transformedStore.GetItem(ctx, snapshot.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("track", snapshot.ID).Msg("Transformed lyrics cache read failed")
	}
	if transformed == nil {
		entry, err := s.transformRawLyrics(ctx, snapshot.ID, stored)
		if err != nil {
			s.logger.Error().Err(err).Str("track", snapshot.ID).Msg("Failed to transform lyrics")
			return
		}
		if _, err := s.transformedStore.SetItem(ctx, snapshot.ID, *entry); err != nil {
			s.logger.Warn().Err(err).Str("track", snapshot.ID).Msg("Transformed lyrics cache write failed")
		}
		transformed = entry
	}

	s.commitLyrics(snapshot, transformed.Lyrics)
}

func (s *Session) fetchRawLyrics(ctx context.Context, trackID string) (*lyrics.Raw, error) {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.lyricsClient.GetLyrics(ctx, trackID, token)
}

func (s *Session) transformRawLyrics(ctx context.Context, trackID string, stored *storedRawLyrics) (*storedTransformedLyrics, error) {
	if stored.NoLyrics || stored.Lyrics == nil || stored.Lyrics.IsEmpty() {
		return &storedTransformedLyrics{NoLyrics: true}, nil
	}
	built, err := lyrics.Transform(ctx, stored.Lyrics)
	if err != nil {
		if errors.Is(err, lyrics.ErrEmptyLyrics) {
			return &storedTransformedLyrics{NoLyrics: true}, nil
		}
		return nil, err
	}
	s.logger.Debug().Str("track", trackID).Str("kind", string(built.Type)).Msg("Transformed lyrics")
	return &storedTransformedLyrics{Lyrics: built}, nil
}

func (s *Session) commitLyrics(snapshot *Song, transformed *lyrics.Transformed) {
	s.mu.Lock()
	if s.song != snapshot {
		s.mu.Unlock()
		return
	}
	s.songLyrics = transformed
	s.haveLyrics = true
	s.mu.Unlock()
	event.FireUnit(s.SongLyricsLoaded)
}
