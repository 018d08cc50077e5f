// MusicBrainz web service client
//
// Response types based on https://musicbrainz.org/doc/MusicBrainz_API
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/listenr/internal/shared"
)

const (
	musicBrainzMaxLimit = 100
	maxGenres           = 5
)

type mbArtistCredit struct {
	Name string `json:"name"`
}

type mbReleaseGroup struct {
	ID          string    `json:"id"`
	PrimaryType string    `json:"primary-type"`
	Genres      []mbGenre `json:"genres"`
}

type mbGenre struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type mbLabelInfo struct {
	Label *struct {
		Name string `json:"name"`
	} `json:"label"`
}

type mbRecording struct {
	Length *int `json:"length"`
}

type mbTrack struct {
	Title     string      `json:"title"`
	Length    *int        `json:"length"`
	Recording mbRecording `json:"recording"`
}

type mbMedium struct {
	Tracks []mbTrack `json:"tracks"`
}

// MusicBrainzRelease is a release as returned by search and lookup.
type MusicBrainzRelease struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Date         string           `json:"date"`
	Country      string           `json:"country"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	ReleaseGroup mbReleaseGroup   `json:"release-group"`
	LabelInfo    []mbLabelInfo    `json:"label-info"`
	Media        []mbMedium       `json:"media"`
	TrackCount   int              `json:"track-count"`
}

type mbSearchResponse struct {
	Count    int                  `json:"count"`
	Offset   int                  `json:"offset"`
	Releases []MusicBrainzRelease `json:"releases"`
}

type mbAnnotationResponse struct {
	Annotations []struct {
		Entity string `json:"entity"`
		Text   string `json:"text"`
	} `json:"annotations"`
}

// MusicBrainz is the catalog client for the MusicBrainz web service.
// All of its operations share one gate.
type MusicBrainz struct {
	client *sourceClient
}

func NewMusicBrainz(opts ClientOptions) *MusicBrainz {
	return &MusicBrainz{client: newSourceClient(SourceMusicBrainz, opts)}
}

func (m *MusicBrainz) Name() string { return SourceMusicBrainz }

// BuildSearchQuery builds the Lucene query for official albums matching q.
//
// Countries are reduced to an upper-case two-letter code and dropped if shorter.
// Multi-word artists are quoted.
func BuildSearchQuery(q Query) string {
	parts := []string{"status:official", "primarytype:album"}
	if genre := strings.TrimSpace(q.Genre); genre != "" {
		parts = append(parts, "tag:"+genre)
	}
	if code := NormalizeCountry(q.Country); code != "" {
		parts = append(parts, "country:"+code)
	}
	if artist := strings.TrimSpace(q.Artist); artist != "" {
		if strings.Contains(artist, " ") {
			parts = append(parts, fmt.Sprintf("artist:%q", artist))
		} else {
			parts = append(parts, "artist:"+artist)
		}
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// NormalizeCountry returns the upper-case ISO 3166-1 alpha-2 prefix of code, or "".
func NormalizeCountry(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return ""
	}
	return code[:2]
}

// Search returns one page of official album releases.
func (m *MusicBrainz) Search(ctx context.Context, q Query, offset, limit int) ([]RawItem, error) {
	if limit <= 0 || limit > musicBrainzMaxLimit {
		limit = musicBrainzMaxLimit
	}
	params := url.Values{
		"query":  {BuildSearchQuery(q)},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
		"fmt":    {"json"},
	}

	var resp mbSearchResponse
	if err := m.client.getJSON(ctx, "/release", params, &resp); err != nil {
		return nil, err
	}

	items := make([]RawItem, 0, len(resp.Releases))
	for _, r := range resp.Releases {
		items = append(items, r.rawItem())
	}
	return items, nil
}

// Detail fetches a release with its recordings and artist credits.
func (m *MusicBrainz) Detail(ctx context.Context, mbid string) (*RawRelease, error) {
	if mbid == "" {
		return nil, fmt.Errorf("%w: empty release id", shared.ErrInvalidArgument)
	}
	params := url.Values{"inc": {"recordings+artists"}, "fmt": {"json"}}

	var release MusicBrainzRelease
	if err := m.client.getJSON(ctx, "/release/"+url.PathEscape(mbid), params, &release); err != nil {
		return nil, err
	}
	return release.rawRelease(), nil
}

// ReleaseGroupGenres returns up to five genre names for a release group.
func (m *MusicBrainz) ReleaseGroupGenres(ctx context.Context, rgid string) ([]string, error) {
	if rgid == "" {
		return nil, nil
	}
	params := url.Values{"inc": {"genres"}, "fmt": {"json"}}

	var group mbReleaseGroup
	if err := m.client.getJSON(ctx, "/release-group/"+url.PathEscape(rgid), params, &group); err != nil {
		return nil, err
	}

	var genres []string
	for _, g := range group.Genres {
		if g.Name == "" {
			continue
		}
		genres = append(genres, g.Name)
		if len(genres) == maxGenres {
			break
		}
	}
	return genres, nil
}

// Annotation returns the raw annotation text for a release group.
func (m *MusicBrainz) Annotation(ctx context.Context, rgid string) (string, error) {
	params := url.Values{
		"query": {"entity:" + rgid},
		"limit": {"1"},
		"fmt":   {"json"},
	}

	var resp mbAnnotationResponse
	if err := m.client.getJSON(ctx, "/annotation", params, &resp); err != nil {
		return "", err
	}
	if len(resp.Annotations) == 0 {
		return "", fmt.Errorf("%w: no annotation for release group %s", shared.ErrNotFound, rgid)
	}
	return strings.TrimSpace(resp.Annotations[0].Text), nil
}

// LookupReleaseID finds the best release id for a title and artist.
func (m *MusicBrainz) LookupReleaseID(ctx context.Context, title, artist string) (string, error) {
	params := url.Values{
		"query": {fmt.Sprintf("release:%q AND artist:%q", title, artist)},
		"limit": {"1"},
		"fmt":   {"json"},
	}

	var resp mbSearchResponse
	if err := m.client.getJSON(ctx, "/release", params, &resp); err != nil {
		return "", err
	}
	if len(resp.Releases) == 0 || resp.Releases[0].ID == "" {
		return "", fmt.Errorf("%w: no release for %s - %s", shared.ErrNotFound, artist, title)
	}
	return resp.Releases[0].ID, nil
}

func (r MusicBrainzRelease) rawItem() RawItem {
	item := RawItem{
		Source:         SourceMusicBrainz,
		SourceID:       r.ID,
		Title:          strings.TrimSpace(r.Title),
		Year:           shared.ParseYear(r.Date),
		ReleaseGroupID: r.ReleaseGroup.ID,
		Kind:           KindAlbum,
	}
	if len(r.ArtistCredit) > 0 {
		item.Artist = strings.TrimSpace(r.ArtistCredit[0].Name)
	}
	return item
}

func (r MusicBrainzRelease) rawRelease() *RawRelease {
	release := &RawRelease{RawItem: r.rawItem()}
	if len(r.LabelInfo) > 0 && r.LabelInfo[0].Label != nil {
		release.Label = r.LabelInfo[0].Label.Name
	}

	for _, medium := range r.Media {
		for _, t := range medium.Tracks {
			length := 0
			switch {
			case t.Length != nil:
				length = *t.Length
			case t.Recording.Length != nil:
				length = *t.Recording.Length
			}
			release.Tracks = append(release.Tracks, RawTrack{Title: strings.TrimSpace(t.Title), LengthMS: length})
		}
	}
	return release
}
