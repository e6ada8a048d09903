// Package provider is the client for the external lyrics service.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"lyricsync/pkg/lyrics"
)

var logger = log.With().Str("component", "lyrics-provider").Logger()

// StatusError is a non-2xx response from the provider, carrying the
// track it was for.
type StatusError struct {
	TrackID string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to load lyrics for track %s: status %d", e.TrackID, e.Status)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// GetLyrics fetches the raw lyrics for a track. A 200 with an empty
// body means the track has no lyrics and yields (nil, nil); any
// non-200 yields a *StatusError. Failures are not retried here: the
// caller's error design treats them as rare and lets them surface.
func (c *Client) GetLyrics(ctx context.Context, trackID string, accessToken string) (*lyrics.Raw, error) {
	requestURL := fmt.Sprintf("%s/lyrics/%s", c.baseURL, url.PathEscape(trackID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lyrics request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", "lyricsync/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lyrics for track %s: %w", trackID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{TrackID: trackID, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lyrics response for track %s: %w", trackID, err)
	}
	if len(body) == 0 {
		logger.Debug().Str("track_id", trackID).Msg("Track has no lyrics")
		return nil, nil
	}

	var raw lyrics.Raw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode lyrics for track %s: %w", trackID, err)
	}

	logger.Debug().Str("track_id", trackID).Str("type", string(raw.Type)).Msg("Fetched lyrics")
	return &raw, nil
}
