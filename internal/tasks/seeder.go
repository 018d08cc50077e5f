package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenr/internal/enrichment"
	"github.com/desertthunder/listenr/internal/models"
	"github.com/desertthunder/listenr/internal/services"
	"github.com/desertthunder/listenr/internal/shared"
)

const (
	DefaultBatchSize = 25
	untitledTrack    = "[untitled]"
)

// Enricher resolves missing covers and descriptions. [enrichment.Resolver] implements it.
type Enricher interface {
	ResolveCover(ctx context.Context, title, artist string) enrichment.CoverResult
	ResolveReleaseCover(ctx context.Context, mbid string) enrichment.CoverResult
	ResolveDescription(ctx context.Context, title, artist, releaseGroupID string) enrichment.DescriptionResult
}

// CatalogStore is the part of the album store the seeder writes to.
type CatalogStore interface {
	IdentityKeys(ctx context.Context) (map[models.IdentityKey]struct{}, error)
	SourceIDs(ctx context.Context, source string) (map[string]struct{}, error)
	SaveBatch(ctx context.Context, entries []models.CatalogEntry) error
	Clear(ctx context.Context) (albums, tracks int64, err error)
}

// SeedOptions configures one ingestion run.
type SeedOptions struct {
	Target      int
	BatchSize   int
	Filters     services.Query
	Clear       bool
	SkipSingles bool
	Progress    chan<- ProgressUpdate
}

// SeedResult reports what an ingestion run did. Seeded only counts committed albums.
type SeedResult struct {
	Source        string
	Target        int
	Seeded        int
	Pages         int
	SkippedKnown  int
	SkippedOther  int
	Failed        int
	ClearedAlbums int64
	ClearedTracks int64
	SearchErr     error
}

// Shortfall is the number of albums the run fell short of its target by.
func (r *SeedResult) Shortfall() int {
	return max(r.Target-r.Seeded, 0)
}

// Seeder ingests albums from a single [services.CatalogSource].
type Seeder struct {
	source   services.CatalogSource
	store    CatalogStore
	enricher Enricher
	logger   *log.Logger
}

// NewSeeder creates a Seeder. enricher may be nil, in which case albums keep whatever cover the source provides.
func NewSeeder(source services.CatalogSource, store CatalogStore, enricher Enricher, logger *log.Logger) *Seeder {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &Seeder{
		source:   source,
		store:    store,
		enricher: enricher,
		logger:   logger.With("source", source.Name()),
	}
}

// known holds the identity keys and source ids present when the run started, plus those added by it.
type known struct {
	keys map[models.IdentityKey]struct{}
	ids  map[string]struct{}
}

func (k known) hasKey(key models.IdentityKey) bool {
	_, ok := k.keys[key]
	return ok
}

func (k known) hasID(id string) bool {
	_, ok := k.ids[id]
	return id != "" && ok
}

func (k known) add(album *models.Album, sourceID string) {
	k.keys[album.Key()] = struct{}{}
	if sourceID != "" {
		k.ids[sourceID] = struct{}{}
	}
}

// Run pages through the source until opts.Target albums are committed or the source runs dry.
//
// Falling short of the target is not an error. When ctx is cancelled the page being built is
// discarded and the result reflects only committed pages.
func (s *Seeder) Run(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	result := &SeedResult{Source: s.source.Name(), Target: opts.Target}
	if opts.Target <= 0 {
		return result, fmt.Errorf("%w: target must be positive, got %d", shared.ErrInvalidArgument, opts.Target)
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	if opts.Clear {
		albums, tracks, err := s.store.Clear(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to clear catalog: %w", err)
		}
		result.ClearedAlbums, result.ClearedTracks = albums, tracks
		s.logger.Info("cleared catalog", "albums", albums, "tracks", tracks)
		sendProgress(opts.Progress, clearedUpdate(albums, tracks))
	}

	keys, err := s.store.IdentityKeys(ctx)
	if err != nil {
		return result, err
	}
	ids, err := s.store.SourceIDs(ctx, s.source.Name())
	if err != nil {
		return result, err
	}
	seen := known{keys: keys, ids: ids}

	s.logger.Info("seeding", "target", opts.Target, "known", len(keys), "filters", querySummary(opts.Filters))

	offset := 0
	for result.Seeded < opts.Target {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		sendProgress(opts.Progress, searchUpdate(s.source.Name(), offset, result.Seeded, opts.Target))
		items, err := s.source.Search(ctx, opts.Filters, offset, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			s.logger.Error("search failed, ending run", "offset", offset, "err", err)
			result.SearchErr = err
			break
		}
		if len(items) == 0 {
			s.logger.Info("source exhausted", "offset", offset)
			break
		}
		offset += len(items)
		result.Pages++

		var page []models.CatalogEntry
		for _, item := range items {
			if result.Seeded+len(page) >= opts.Target {
				break
			}
			if err := ctx.Err(); err != nil {
				s.logger.Warn("cancelled, discarding page", "pending", len(page))
				return result, err
			}

			entry, err := s.build(ctx, item, seen, opts)
			switch {
			case errors.Is(err, errKnown):
				result.SkippedKnown++
			case errors.Is(err, errUnusable):
				result.SkippedOther++
			case err != nil:
				result.Failed++
				s.logger.Warn("skipping candidate", "title", item.Title, "artist", item.Artist, "err", err)
			default:
				page = append(page, *entry)
				seen.add(entry.Album, item.SourceID)
			}
		}

		if err := ctx.Err(); err != nil {
			s.logger.Warn("cancelled, discarding page", "pending", len(page))
			return result, err
		}
		if len(page) == 0 {
			continue
		}
		if err := s.store.SaveBatch(ctx, page); err != nil {
			return result, fmt.Errorf("failed to commit page at offset %d: %w", offset, err)
		}
		result.Seeded += len(page)
		s.logger.Info("committed page", "albums", len(page), "seeded", result.Seeded, "target", opts.Target)
		sendProgress(opts.Progress, commitUpdate(result.Seeded, opts.Target, len(page)))
	}

	if result.Seeded < opts.Target {
		s.logger.Warn("target not reached", "seeded", result.Seeded, "target", opts.Target)
	}
	return result, nil
}

var (
	errKnown    = errors.New("already in catalog")
	errUnusable = errors.New("unusable candidate")
)

// build turns a candidate into a catalog entry, or reports why it was skipped.
func (s *Seeder) build(ctx context.Context, item services.RawItem, seen known, opts SeedOptions) (*models.CatalogEntry, error) {
	if strings.TrimSpace(item.Artist) == "" || strings.TrimSpace(item.Title) == "" {
		return nil, errUnusable
	}
	if opts.SkipSingles && item.Kind == services.KindSingle {
		return nil, errUnusable
	}
	if seen.hasID(item.SourceID) || seen.hasKey(models.KeyOf(item.Title, item.Artist, item.Year)) {
		return nil, errKnown
	}

	release, err := s.source.Detail(ctx, item.SourceID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, errUnusable
	}
	if err != nil {
		return nil, err
	}

	title := shared.FirstNonEmpty(release.Title, item.Title)
	artist := shared.FirstNonEmpty(release.Artist, item.Artist)
	year := release.Year
	if year == nil {
		year = item.Year
	}
	if len(release.Tracks) == 0 {
		return nil, errUnusable
	}
	if seen.hasKey(models.KeyOf(title, artist, year)) {
		return nil, errKnown
	}

	album := &models.Album{
		Title:          strings.TrimSpace(title),
		Artist:         strings.TrimSpace(artist),
		Year:           year,
		ReleaseGroupID: shared.FirstNonEmpty(release.ReleaseGroupID, item.ReleaseGroupID),
		Label:          release.Label,
		Genres:         release.Genres,
	}
	switch s.source.Name() {
	case services.SourceMusicBrainz:
		album.MBID = item.SourceID
	case services.SourceSpotify:
		album.SpotifyID = item.SourceID
	}

	if len(album.Genres) == 0 && album.ReleaseGroupID != "" {
		if gs, ok := s.source.(services.GenreSource); ok {
			genres, err := gs.ReleaseGroupGenres(ctx, album.ReleaseGroupID)
			if err != nil {
				s.logger.Debug("no genres", "release_group", album.ReleaseGroupID, "err", err)
			}
			album.Genres = genres
		}
	}

	s.enrich(ctx, album, shared.FirstNonEmpty(release.CoverURL, item.CoverURL))

	tracks := make([]models.Track, 0, len(release.Tracks))
	totalMS := 0
	for i, t := range release.Tracks {
		tracks = append(tracks, models.Track{
			Number:   i + 1,
			Title:    shared.FirstNonEmpty(strings.TrimSpace(t.Title), untitledTrack),
			Duration: shared.FormatDuration(t.LengthMS),
		})
		if t.LengthMS > 0 {
			totalMS += t.LengthMS
		}
	}
	if seconds := totalMS / 1000; seconds > 0 {
		album.LengthSeconds = &seconds
	}

	return &models.CatalogEntry{Album: album, Tracks: tracks}, nil
}

// enrich fills the cover (source art, then the release's own Cover Art Archive entry, then the
// resolver chain) and the description.
func (s *Seeder) enrich(ctx context.Context, album *models.Album, sourceCover string) {
	if sourceCover != "" {
		album.CoverURL, album.CoverSource = sourceCover, enrichment.StrategySourceCover
	}
	if s.enricher == nil {
		return
	}

	if !album.HasCover() && album.MBID != "" {
		if res := s.enricher.ResolveReleaseCover(ctx, album.MBID); res.Found() {
			album.CoverURL, album.CoverSource = res.URL, res.Source
		}
	}
	if !album.HasCover() {
		res := s.enricher.ResolveCover(ctx, album.Title, album.Artist)
		if res.Found() {
			album.CoverURL, album.CoverSource = res.URL, res.Source
		} else if res.AllFailed() {
			s.logger.Warn("every cover source failed", "album", album.Title, "artist", album.Artist)
		}
	}

	desc := s.enricher.ResolveDescription(ctx, album.Title, album.Artist, album.ReleaseGroupID)
	if desc.Found() {
		album.Description, album.DescriptionSource, album.WikipediaURL = desc.Text, desc.Source, desc.ArticleURL
	}
}
