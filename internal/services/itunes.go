package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/listenr/internal/shared"
)

const itunesArtworkSize = 500

// iTunes artwork size tokens, largest match first.
var itunesSizeTokens = []string{"100x100bb", "100x100-75", "100x100", "60x60bb", "60x60"}

type itunesResult struct {
	CollectionName string `json:"collectionName"`
	ArtistName     string `json:"artistName"`
	ArtworkURL100  string `json:"artworkUrl100"`
}

type itunesSearchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

// ITunes is the iTunes Search API client.
type ITunes struct {
	client *sourceClient
}

func NewITunes(opts ClientOptions) *ITunes {
	return &ITunes{client: newSourceClient(SourceITunes, opts)}
}

func (i *ITunes) Name() string { return SourceITunes }

// FindCover searches albums for "title artist" and returns the best match's artwork at 500x500.
func (i *ITunes) FindCover(ctx context.Context, title, artist string) (string, error) {
	params := url.Values{
		"term":   {strings.TrimSpace(title + " " + artist)},
		"entity": {"album"},
		"media":  {"music"},
		"limit":  {"5"},
	}

	var resp itunesSearchResponse
	if err := i.client.getJSON(ctx, "/search", params, &resp); err != nil {
		return "", err
	}

	candidates := make([]Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		candidates = append(candidates, Candidate{Title: r.CollectionName, Artist: r.ArtistName, URL: r.ArtworkURL100})
	}

	match, ok := BestMatch(title, artist, candidates)
	if !ok {
		return "", fmt.Errorf("%w: no iTunes artwork for %s - %s", shared.ErrNotFound, artist, title)
	}
	return UpgradeArtwork(match.URL, itunesArtworkSize), nil
}

// UpgradeArtwork rewrites the size token of an iTunes artwork URL to size x size.
// URLs without a known token are returned unchanged.
func UpgradeArtwork(artworkURL string, size int) string {
	for _, old := range itunesSizeTokens {
		if !strings.Contains(artworkURL, old) {
			continue
		}
		suffix := ""
		if strings.Contains(old, "bb") || strings.Contains(old, "75") {
			suffix = "bb"
		}
		return strings.Replace(artworkURL, old, fmt.Sprintf("%dx%d%s", size, size, suffix), 1)
	}
	return artworkURL
}
