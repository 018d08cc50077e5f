package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/listenr/internal/enrichment"
	"github.com/desertthunder/listenr/internal/services"
	"github.com/desertthunder/listenr/internal/shared"
)

// fakeSource serves a fixed candidate list in pages.
type fakeSource struct {
	name      string
	items     []services.RawItem
	releases  map[string]*services.RawRelease
	genres    map[string][]string
	searchErr error
	onDetail  func(id string)

	mu       sync.Mutex
	searches []int
	details  []string
}

func newFakeSource(name string) *fakeSource {
	return &fakeSource{name: name, releases: map[string]*services.RawRelease{}, genres: map[string][]string{}}
}

// add registers a candidate and its detail with n tracks of 90.5 seconds each.
func (f *fakeSource) add(id, title, artist string, year *int, n int) *services.RawRelease {
	item := services.RawItem{Source: f.name, SourceID: id, Title: title, Artist: artist, Year: year, Kind: services.KindAlbum}
	f.items = append(f.items, item)

	rel := &services.RawRelease{RawItem: item}
	for i := range n {
		rel.Tracks = append(rel.Tracks, services.RawTrack{Title: fmt.Sprintf("Track %d", i+1), LengthMS: 90_500})
	}
	f.releases[id] = rel
	return rel
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(ctx context.Context, q services.Query, offset, limit int) ([]services.RawItem, error) {
	f.mu.Lock()
	f.searches = append(f.searches, offset)
	f.mu.Unlock()

	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if offset >= len(f.items) {
		return nil, nil
	}
	end := min(offset+limit, len(f.items))
	return f.items[offset:end], nil
}

func (f *fakeSource) Detail(ctx context.Context, id string) (*services.RawRelease, error) {
	f.mu.Lock()
	f.details = append(f.details, id)
	f.mu.Unlock()

	if f.onDetail != nil {
		f.onDetail(id)
	}
	rel, ok := f.releases[id]
	if !ok {
		return nil, fmt.Errorf("%w: release %s", shared.ErrNotFound, id)
	}
	return rel, nil
}

// genreSource adds release-group genres to a fakeSource.
type genreSource struct {
	*fakeSource
}

func (g genreSource) ReleaseGroupGenres(ctx context.Context, rgid string) ([]string, error) {
	genres, ok := g.genres[rgid]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return genres, nil
}

// fakeEnricher returns canned results and records which lookups ran.
type fakeEnricher struct {
	cover        enrichment.CoverResult
	releaseCover enrichment.CoverResult
	description  enrichment.DescriptionResult

	mu    sync.Mutex
	calls []string
}

func (f *fakeEnricher) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEnricher) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeEnricher) ResolveCover(ctx context.Context, title, artist string) enrichment.CoverResult {
	f.record("cover")
	return f.cover
}

func (f *fakeEnricher) ResolveReleaseCover(ctx context.Context, mbid string) enrichment.CoverResult {
	f.record("release-cover")
	return f.releaseCover
}

func (f *fakeEnricher) ResolveDescription(ctx context.Context, title, artist, rgid string) enrichment.DescriptionResult {
	f.record("description")
	return f.description
}

func year(v int) *int { return &v }
