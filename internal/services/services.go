// package services defines typed clients for the external catalog and enrichment sources
//
// MusicBrainz, Spotify, iTunes, Cover Art Archive, Wikipedia, artwork aggregator
package services

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

const (
	SourceMusicBrainz = "musicbrainz"
	SourceSpotify     = "spotify"
	SourceCoverArt    = "coverart"
	SourceITunes      = "itunes"
	SourceWikipedia   = "wikipedia"
	SourceArtwork     = "artwork"
)

// Album kinds reported by catalog searches.
const (
	KindAlbum  = "album"
	KindSingle = "single"
)

// CatalogSource is a paged album catalog the seeder can ingest from.
type CatalogSource interface {
	// Search returns one page of candidates. An empty page means the source is exhausted.
	Search(ctx context.Context, q Query, offset, limit int) ([]RawItem, error)

	// Detail returns the full release for a candidate, or an error wrapping [shared.ErrNotFound].
	Detail(ctx context.Context, sourceID string) (*RawRelease, error)

	// Name returns the source identifier (e.g., "musicbrainz", "spotify")
	Name() string
}

// GenreSource is implemented by catalogs that expose genres per release group.
type GenreSource interface {
	ReleaseGroupGenres(ctx context.Context, releaseGroupID string) ([]string, error)
}

// Query filters a catalog search. Empty fields are wildcards.
type Query struct {
	Genre   string
	Country string
	Artist  string
	Text    string // free-text search, used by sources without structured filters
}

// RawItem is a search candidate as returned by a catalog.
type RawItem struct {
	Source         string
	SourceID       string
	Title          string
	Artist         string // first credited artist, empty when uncredited
	Year           *int
	ReleaseGroupID string
	CoverURL       string
	Kind           string
}

// RawTrack is one track of a release in source order.
type RawTrack struct {
	Title    string
	LengthMS int // zero when unknown
}

// RawRelease is the full detail of a catalog release.
type RawRelease struct {
	RawItem
	Label  string
	Genres []string
	Tracks []RawTrack
}

// Candidate is an album match returned by the multi-result cover sources.
type Candidate struct {
	Title  string
	Artist string
	URL    string
}

func containsEither(a, b string) bool {
	fold := cases.Fold()
	a, b = fold.String(a), fold.String(b)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// BestMatch picks the first candidate with a URL whose title and artist each contain, or are
// contained in, the query title and artist ignoring case. Without a match it falls back to the first
// candidate, which yields nothing when that candidate has no URL.
func BestMatch(title, artist string, candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	for _, c := range candidates {
		if c.URL != "" && containsEither(title, c.Title) && containsEither(artist, c.Artist) {
			return c, true
		}
	}
	if first := candidates[0]; first.URL != "" {
		return first, true
	}
	return Candidate{}, false
}
