package session

import (
	"lyricsync/internal/host"
)

// Song is the immutable snapshot of the playing track. Snapshots are
// replaced wholesale on every track change; pointer identity is the
// guard that lets in-flight loads detect they have been superseded.
type Song struct {
	URI        string
	ID         string
	InternalID string
	IsLocal    bool
	Duration   float64
	CoverArt   host.CoverArt
}

type ContextType string

const (
	ContextAlbum      ContextType = "Album"
	ContextPlaylist   ContextType = "Playlist"
	ContextLocalFiles ContextType = "LocalFiles"
	ContextOther      ContextType = "Other"
)

// SongContext describes what the track is playing from.
type SongContext struct {
	Type        ContextType
	URI         string
	ID          string
	Description string
	CoverArt    string
}

type ArtistDetails struct {
	ID   string
	Name string
}

type AlbumDetails struct {
	ID          string
	Artists     []ArtistDetails
	ReleaseDate host.ReleaseDate
}

// SongDetails is the loaded metadata for a track. Local tracks carry
// only what the host reports; streamed tracks carry the metadata
// service's document with the display name already cleaned.
type SongDetails struct {
	IsLocal bool

	Name    string
	Artists []ArtistDetails
	Album   AlbumDetails
	ISRC    string

	// Local-only fields.
	LocalAlbum   string
	LocalArtists []string
}
