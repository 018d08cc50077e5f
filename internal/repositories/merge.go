package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// dependentKind describes a table holding rows that point at an album.
// owner is the column that, together with album_id, must stay unique; empty when the kind has no such constraint.
type dependentKind struct {
	table string
	owner string
}

var dependentKinds = []dependentKind{
	{table: "reviews"},
	{table: "log_entries"},
	{table: "list_albums", owner: "list_id"},
	{table: "favorite_albums", owner: "user_id"},
}

// MergeStats counts what a merge changed, per dependent table.
type MergeStats struct {
	Repointed     map[string]int64
	Dropped       map[string]int64
	TracksDeleted int64
	AlbumsDeleted int64
}

func newMergeStats() *MergeStats {
	return &MergeStats{Repointed: map[string]int64{}, Dropped: map[string]int64{}}
}

// Add accumulates other into s.
func (s *MergeStats) Add(other *MergeStats) {
	if other == nil {
		return
	}
	for k, v := range other.Repointed {
		s.Repointed[k] += v
	}
	for k, v := range other.Dropped {
		s.Dropped[k] += v
	}
	s.TracksDeleted += other.TracksDeleted
	s.AlbumsDeleted += other.AlbumsDeleted
}

// MergeAlbums folds every loser into canonicalID inside one transaction.
//
// Dependent rows are repointed to the canonical album. Where the canonical album already has a row
// for the same list or user, the loser's row is deleted instead. Each loser's tracks are then
// deleted, followed by the loser itself. Losers that no longer exist are skipped, so a retried
// merge is safe.
func (r *AlbumRepository) MergeAlbums(ctx context.Context, canonicalID string, loserIDs []string) (*MergeStats, error) {
	stats := newMergeStats()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM albums WHERE id = ?)`, canonicalID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check canonical album: %w", err)
		}
		if !exists {
			return fmt.Errorf("canonical album %s no longer exists", canonicalID)
		}

		for _, loser := range loserIDs {
			if loser == canonicalID {
				continue
			}
			if err := mergeOne(ctx, tx, canonicalID, loser, stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func mergeOne(ctx context.Context, q querier, canonicalID, loserID string, stats *MergeStats) error {
	for _, kind := range dependentKinds {
		if kind.owner != "" {
			dropped, err := exec(ctx, q, fmt.Sprintf(
				`DELETE FROM %[1]s WHERE album_id = ? AND %[2]s IN (SELECT %[2]s FROM %[1]s WHERE album_id = ?)`,
				kind.table, kind.owner,
			), loserID, canonicalID)
			if err != nil {
				return fmt.Errorf("failed to drop colliding %s: %w", kind.table, err)
			}
			stats.Dropped[kind.table] += dropped
		}

		moved, err := exec(ctx, q, fmt.Sprintf(`UPDATE %s SET album_id = ? WHERE album_id = ?`, kind.table), canonicalID, loserID)
		if err != nil {
			return fmt.Errorf("failed to repoint %s: %w", kind.table, err)
		}
		stats.Repointed[kind.table] += moved
	}

	tracks, err := exec(ctx, q, `DELETE FROM tracks WHERE album_id = ?`, loserID)
	if err != nil {
		return fmt.Errorf("failed to delete tracks of %s: %w", loserID, err)
	}
	stats.TracksDeleted += tracks

	albums, err := exec(ctx, q, `DELETE FROM albums WHERE id = ?`, loserID)
	if err != nil {
		return fmt.Errorf("failed to delete album %s: %w", loserID, err)
	}
	stats.AlbumsDeleted += albums
	return nil
}

func exec(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
