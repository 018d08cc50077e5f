package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/listenr/internal/shared"
)

type artworkRequest struct {
	Search     string `json:"search"`
	Storefront string `json:"storefront"`
	Type       string `json:"type"`
}

type artworkImage struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Thumb  string `json:"thumb"`
	Large  string `json:"large"`
}

type artworkResponse struct {
	Images []artworkImage `json:"images"`
}

// Artwork is the artwork aggregator client.
type Artwork struct {
	client *sourceClient
}

func NewArtwork(opts ClientOptions) *Artwork {
	return &Artwork{client: newSourceClient(SourceArtwork, opts)}
}

func (a *Artwork) Name() string { return SourceArtwork }

// FindCover asks the aggregator for album art, preferring the large image of the best match.
func (a *Artwork) FindCover(ctx context.Context, title, artist string) (string, error) {
	search := strings.TrimSpace(title + " " + artist)
	if search == "" {
		return "", fmt.Errorf("%w: empty artwork search", shared.ErrInvalidArgument)
	}

	var resp artworkResponse
	req := artworkRequest{Search: search, Storefront: "us", Type: "album"}
	if err := a.client.postJSON(ctx, "/", req, &resp); err != nil {
		return "", err
	}

	candidates := make([]Candidate, 0, len(resp.Images))
	for _, img := range resp.Images {
		candidates = append(candidates, Candidate{
			Title:  img.Name,
			Artist: img.Artist,
			URL:    shared.FirstNonEmpty(img.Large, img.Thumb),
		})
	}

	match, ok := BestMatch(title, artist, candidates)
	if !ok {
		return "", fmt.Errorf("%w: no artwork for %s - %s", shared.ErrNotFound, artist, title)
	}
	return match.URL, nil
}
