// Spotify Web API catalog client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/listenr/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyMaxLimit = 50
	spotifyMarket   = "US"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a simplified track within an album.
type SpotifyTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
}

// SpotifyTrackPage is one page of an album's tracks.
type SpotifyTrackPage struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
	Next  string         `json:"next"`
}

// SpotifyAlbum represents a Spotify album. Tracks and Label are only present on full album objects.
type SpotifyAlbum struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	AlbumType   string           `json:"album_type"`
	Artists     []SpotifyArtist  `json:"artists"`
	ReleaseDate string           `json:"release_date"`
	TotalTracks int              `json:"total_tracks"`
	Images      []SpotifyImage   `json:"images"`
	Label       string           `json:"label"`
	Genres      []string         `json:"genres"`
	Tracks      SpotifyTrackPage `json:"tracks"`
}

type spotifyAlbumPage struct {
	Albums struct {
		Items []SpotifyAlbum `json:"items"`
		Total int            `json:"total"`
		Next  string         `json:"next"`
	} `json:"albums"`
}

// SpotifyCredentials holds client-credentials for the token exchange.
type SpotifyCredentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Spotify is the catalog client for the Spotify Web API.
//
// It authenticates with the client-credentials grant; [oauth2] caches and refreshes the token.
type Spotify struct {
	client *sourceClient
}

// NewSpotify creates a Spotify client. Missing credentials are [shared.ErrMissingCredentials].
func NewSpotify(opts ClientOptions, creds SpotifyCredentials) (*Spotify, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client id and secret are required", shared.ErrMissingCredentials)
	}
	if creds.TokenURL == "" {
		creds.TokenURL = spotifyTokenURL
	}

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: defaultHTTPTimeout}
	}

	config := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := config.Client(tokenCtx)
	authed.Timeout = base.Timeout
	opts.HTTPClient = authed

	return &Spotify{client: newSourceClient(SourceSpotify, opts)}, nil
}

func (s *Spotify) Name() string { return SourceSpotify }

// Search returns a page of albums.
//
// Without free text or an artist it pages through new releases. Country selects the market;
// genre filters do not apply to album searches and are ignored.
func (s *Spotify) Search(ctx context.Context, q Query, offset, limit int) ([]RawItem, error) {
	if limit <= 0 || limit > spotifyMaxLimit {
		limit = spotifyMaxLimit
	}
	params := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}

	path := "/browse/new-releases"
	if text := spotifySearchText(q); text != "" {
		path = "/search"
		params.Set("q", text)
		params.Set("type", "album")
		if code := NormalizeCountry(q.Country); code != "" {
			params.Set("market", code)
		}
	} else if code := NormalizeCountry(q.Country); code != "" {
		params.Set("country", code)
	}

	var page spotifyAlbumPage
	if err := s.client.getJSON(ctx, path, params, &page); err != nil {
		return nil, err
	}

	items := make([]RawItem, 0, len(page.Albums.Items))
	for _, a := range page.Albums.Items {
		items = append(items, a.rawItem())
	}
	return items, nil
}

func spotifySearchText(q Query) string {
	parts := []string{}
	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, text)
	}
	if artist := strings.TrimSpace(q.Artist); artist != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", artist))
	}
	return strings.Join(parts, " ")
}

// Detail fetches a full album and follows the track pagination links until every track is loaded.
func (s *Spotify) Detail(ctx context.Context, albumID string) (*RawRelease, error) {
	if albumID == "" {
		return nil, fmt.Errorf("%w: empty album id", shared.ErrInvalidArgument)
	}
	params := url.Values{"market": {spotifyMarket}}

	var album SpotifyAlbum
	if err := s.client.getJSON(ctx, "/albums/"+url.PathEscape(albumID), params, &album); err != nil {
		return nil, err
	}

	tracks := album.Tracks.Items
	page := album.Tracks
	for len(tracks) < page.Total && page.Next != "" {
		next := page.Next
		page = SpotifyTrackPage{}
		if err := s.client.getURL(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("failed to page tracks for album %s: %w", albumID, err)
		}
		if len(page.Items) == 0 {
			break
		}
		tracks = append(tracks, page.Items...)
	}

	release := &RawRelease{RawItem: album.rawItem(), Label: album.Label, Genres: album.Genres}
	for _, t := range tracks {
		release.Tracks = append(release.Tracks, RawTrack{Title: strings.TrimSpace(t.Name), LengthMS: t.DurationMS})
	}
	return release, nil
}

func (a SpotifyAlbum) rawItem() RawItem {
	item := RawItem{
		Source:   SourceSpotify,
		SourceID: a.ID,
		Title:    strings.TrimSpace(a.Name),
		Year:     shared.ParseYear(a.ReleaseDate),
		Kind:     a.AlbumType,
	}
	if len(a.Artists) > 0 {
		item.Artist = strings.TrimSpace(a.Artists[0].Name)
	}
	if len(a.Images) > 0 {
		item.CoverURL = a.Images[0].URL
	}
	return item
}
