package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/listenr/internal/shared"
)

type caaImage struct {
	Front      bool              `json:"front"`
	Image      string            `json:"image"`
	Thumbnails map[string]string `json:"thumbnails"`
}

type caaRelease struct {
	Images []caaImage `json:"images"`
}

// CoverArt is the Cover Art Archive client.
type CoverArt struct {
	client *sourceClient
}

func NewCoverArt(opts ClientOptions) *CoverArt {
	return &CoverArt{client: newSourceClient(SourceCoverArt, opts)}
}

func (c *CoverArt) Name() string { return SourceCoverArt }

// FrontCover returns the front image URL for a MusicBrainz release, else the first image.
func (c *CoverArt) FrontCover(ctx context.Context, mbid string) (string, error) {
	var release caaRelease
	if err := c.client.getJSON(ctx, "/release/"+url.PathEscape(mbid), nil, &release); err != nil {
		return "", err
	}

	for _, img := range release.Images {
		if img.Front {
			if u := img.url(); u != "" {
				return u, nil
			}
			break
		}
	}
	if len(release.Images) > 0 {
		if u := release.Images[0].url(); u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: no cover art for release %s", shared.ErrNotFound, mbid)
}

func (i caaImage) url() string {
	return shared.FirstNonEmpty(i.Image, i.Thumbnails["500"])
}
