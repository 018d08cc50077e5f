package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenr/internal/enrichment"
	"github.com/desertthunder/listenr/internal/models"
	"github.com/desertthunder/listenr/internal/shared"
)

// DiaryFormat is the format recorded on diary entries created from reviews.
const DiaryFormat = "digital"

// BackfillStore is the part of the album store backfills read and update.
type BackfillStore interface {
	MissingCovers(ctx context.Context, limit int) ([]*models.Album, error)
	MissingDescriptions(ctx context.Context, limit int) ([]*models.Album, error)
	UpdateCover(ctx context.Context, id, url, source string) error
	UpdateDescription(ctx context.Context, id, text, source, articleURL string) error
}

// DiaryStore reads reviews lacking a diary entry and writes new entries.
type DiaryStore interface {
	ReviewsWithoutDiary(ctx context.Context) ([]models.Review, error)
	CreateLogEntries(ctx context.Context, entries []models.LogEntry) (int, error)
}

// BackfillResult reports a backfill. With DryRun set, Updated counts what would have been written.
type BackfillResult struct {
	Kind    string
	DryRun  bool
	Scanned int
	Updated int
	Missed  int
	Failed  int
}

// Backfiller fills fields missing on records that already exist.
type Backfiller struct {
	albums   BackfillStore
	diary    DiaryStore
	enricher Enricher
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

func NewBackfiller(albums BackfillStore, diary DiaryStore, enricher Enricher, logger *log.Logger) *Backfiller {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &Backfiller{albums: albums, diary: diary, enricher: enricher, logger: logger.With("task", "backfill")}
}

// WithProgress reports each processed record on progress.
func (b *Backfiller) WithProgress(progress chan<- ProgressUpdate) *Backfiller {
	b.progress = progress
	return b
}

// Covers resolves a cover for every album without one.
func (b *Backfiller) Covers(ctx context.Context, dryRun bool) (*BackfillResult, error) {
	if b.enricher == nil {
		return nil, fmt.Errorf("%w: no enrichment sources configured", shared.ErrServiceUnavailable)
	}
	albums, err := b.albums.MissingCovers(ctx, 0)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Kind: "covers", DryRun: dryRun, Scanned: len(albums)}
	for i, a := range albums {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sendProgress(b.progress, backfillUpdate(i+1, len(albums), "cover", a.Key().String()))

		var res enrichment.CoverResult
		if a.MBID != "" {
			res = b.enricher.ResolveReleaseCover(ctx, a.MBID)
		}
		if !res.Found() {
			res = b.enricher.ResolveCover(ctx, a.Title, a.Artist)
		}
		if !res.Found() {
			result.Missed++
			continue
		}

		if dryRun {
			b.logger.Info("would set cover", "album", a.Title, "artist", a.Artist, "source", res.Source, "url", res.URL)
			result.Updated++
			continue
		}
		if err := b.albums.UpdateCover(ctx, a.ID, res.URL, res.Source); err != nil {
			result.Failed++
			b.logger.Error("failed to save cover", "album", a.ID, "err", err)
			continue
		}
		result.Updated++
	}

	b.logger.Info("cover backfill finished", "scanned", result.Scanned, "updated", result.Updated, "missed", result.Missed, "dry_run", dryRun)
	return result, nil
}

// Descriptions resolves a description for every album without one.
func (b *Backfiller) Descriptions(ctx context.Context, dryRun bool) (*BackfillResult, error) {
	if b.enricher == nil {
		return nil, fmt.Errorf("%w: no enrichment sources configured", shared.ErrServiceUnavailable)
	}
	albums, err := b.albums.MissingDescriptions(ctx, 0)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Kind: "descriptions", DryRun: dryRun, Scanned: len(albums)}
	for i, a := range albums {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sendProgress(b.progress, backfillUpdate(i+1, len(albums), "description", a.Key().String()))

		res := b.enricher.ResolveDescription(ctx, a.Title, a.Artist, a.ReleaseGroupID)
		if !res.Found() {
			result.Missed++
			continue
		}

		if dryRun {
			b.logger.Info("would set description", "album", a.Title, "artist", a.Artist, "source", res.Source, "chars", len(res.Text))
			result.Updated++
			continue
		}
		if err := b.albums.UpdateDescription(ctx, a.ID, res.Text, res.Source, res.ArticleURL); err != nil {
			result.Failed++
			b.logger.Error("failed to save description", "album", a.ID, "err", err)
			continue
		}
		result.Updated++
	}

	b.logger.Info("description backfill finished", "scanned", result.Scanned, "updated", result.Updated, "missed", result.Missed, "dry_run", dryRun)
	return result, nil
}

// Diary creates a diary entry for every review whose author has none for that album.
// Rating, content and tags are copied; the entry is logged at the review's creation time.
func (b *Backfiller) Diary(ctx context.Context, dryRun bool) (*BackfillResult, error) {
	reviews, err := b.diary.ReviewsWithoutDiary(ctx)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Kind: "diary", DryRun: dryRun, Scanned: len(reviews)}
	if len(reviews) == 0 {
		return result, nil
	}

	entries := make([]models.LogEntry, 0, len(reviews))
	for _, rv := range reviews {
		entries = append(entries, DiaryEntryFor(rv))
	}

	if dryRun {
		result.Updated = len(entries)
		b.logger.Info("would create diary entries", "count", len(entries))
		return result, nil
	}

	n, err := b.diary.CreateLogEntries(ctx, entries)
	if err != nil {
		return result, fmt.Errorf("failed to create diary entries: %w", err)
	}
	result.Updated = n
	b.logger.Info("diary backfill finished", "created", n)
	return result, nil
}

// DiaryEntryFor builds the diary entry mirroring a review.
func DiaryEntryFor(rv models.Review) models.LogEntry {
	return models.LogEntry{
		UserID:   rv.UserID,
		AlbumID:  rv.AlbumID,
		Rating:   rv.Rating,
		Content:  rv.Content,
		Format:   DiaryFormat,
		Tags:     rv.Tags,
		LoggedAt: rv.CreatedAt,
	}
}
