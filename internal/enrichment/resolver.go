package enrichment

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenr/internal/shared"
)

// CoverFinder searches a catalog for album art by title and artist.
type CoverFinder interface {
	FindCover(ctx context.Context, title, artist string) (string, error)
}

// ReleaseLookup resolves a title and artist to a MusicBrainz release id.
type ReleaseLookup interface {
	LookupReleaseID(ctx context.Context, title, artist string) (string, error)
}

// FrontCoverSource returns the front cover of a MusicBrainz release.
type FrontCoverSource interface {
	FrontCover(ctx context.Context, mbid string) (string, error)
}

// AnnotationSource returns the raw annotation of a release group.
type AnnotationSource interface {
	Annotation(ctx context.Context, releaseGroupID string) (string, error)
}

// IntroSource returns the intro text and article URL for an album.
type IntroSource interface {
	Intro(ctx context.Context, title, artist string) (string, string, error)
}

// Sources wires the resolver to its backends. Nil members are skipped.
type Sources struct {
	Artwork     CoverFinder
	ITunes      CoverFinder
	Releases    ReleaseLookup
	CoverArt    FrontCoverSource
	Annotations AnnotationSource
	Wikipedia   IntroSource
}

// Resolver runs the cover and description fallback chains.
type Resolver struct {
	sources Sources
	logger  *log.Logger
}

func NewResolver(sources Sources, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &Resolver{sources: sources, logger: logger}
}

// ResolveCover finds a cover via the artwork aggregator, then iTunes, then Cover Art Archive.
func (r *Resolver) ResolveCover(ctx context.Context, title, artist string) CoverResult {
	title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
	if title == "" || artist == "" {
		return CoverResult{}
	}

	var chain []strategy[string]
	if r.sources.Artwork != nil {
		chain = append(chain, coverStrategy(StrategyArtwork, func(ctx context.Context) (string, error) {
			return r.sources.Artwork.FindCover(ctx, title, artist)
		}))
	}
	if r.sources.ITunes != nil {
		chain = append(chain, coverStrategy(StrategyITunes, func(ctx context.Context) (string, error) {
			return r.sources.ITunes.FindCover(ctx, title, artist)
		}))
	}
	if r.sources.Releases != nil && r.sources.CoverArt != nil {
		chain = append(chain, coverStrategy(StrategyCoverArt, func(ctx context.Context) (string, error) {
			mbid, err := r.sources.Releases.LookupReleaseID(ctx, title, artist)
			if err != nil {
				return "", err
			}
			return r.sources.CoverArt.FrontCover(ctx, mbid)
		}))
	}

	url, source, tried := runChain(ctx, r.logger.With("album", title, "artist", artist, "field", "cover"), chain)
	return CoverResult{URL: url, Source: source, Attempts: tried}
}

// ResolveReleaseCover asks Cover Art Archive directly for a known MusicBrainz release.
func (r *Resolver) ResolveReleaseCover(ctx context.Context, mbid string) CoverResult {
	if mbid == "" || r.sources.CoverArt == nil {
		return CoverResult{}
	}
	chain := []strategy[string]{
		coverStrategy(StrategyCoverArtRelease, func(ctx context.Context) (string, error) {
			return r.sources.CoverArt.FrontCover(ctx, mbid)
		}),
	}
	url, source, tried := runChain(ctx, r.logger.With("release", mbid, "field", "cover"), chain)
	return CoverResult{URL: url, Source: source, Attempts: tried}
}

type description struct {
	text string
	url  string
}

// ResolveDescription finds a description via the release-group annotation when releaseGroupID is
// known, then via Wikipedia.
func (r *Resolver) ResolveDescription(ctx context.Context, title, artist, releaseGroupID string) DescriptionResult {
	title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
	if title == "" {
		return DescriptionResult{}
	}

	empty := func(d description) bool { return emptyString(d.text) }
	var chain []strategy[description]
	if releaseGroupID != "" && r.sources.Annotations != nil {
		chain = append(chain, strategy[description]{
			name:  StrategyMusicBrainzNotes,
			empty: empty,
			run: func(ctx context.Context) (description, error) {
				raw, err := r.sources.Annotations.Annotation(ctx, releaseGroupID)
				if err != nil {
					return description{}, err
				}
				return description{text: CleanAnnotation(raw)}, nil
			},
		})
	}
	if r.sources.Wikipedia != nil {
		chain = append(chain, strategy[description]{
			name:  StrategyWikipedia,
			empty: empty,
			run: func(ctx context.Context) (description, error) {
				text, url, err := r.sources.Wikipedia.Intro(ctx, title, artist)
				if err != nil {
					return description{}, err
				}
				return description{text: FirstParagraph(text, MaxDescriptionLength), url: url}, nil
			},
		})
	}

	d, source, tried := runChain(ctx, r.logger.With("album", title, "artist", artist, "field", "description"), chain)
	return DescriptionResult{Text: d.text, Source: source, ArticleURL: d.url, Attempts: tried}
}

func coverStrategy(name string, run func(context.Context) (string, error)) strategy[string] {
	return strategy[string]{name: name, run: run, empty: emptyString}
}
