package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/listenr/internal/models"
	"github.com/desertthunder/listenr/internal/shared"
)

// DiaryRepository reads reviews and writes diary (log) entries.
type DiaryRepository struct {
	db *sql.DB
}

// NewDiaryRepository creates a new DiaryRepository with the given database connection
func NewDiaryRepository(db *sql.DB) *DiaryRepository {
	return &DiaryRepository{db: db}
}

// ReviewsWithoutDiary returns reviews whose user has no diary entry for the same album, oldest first.
func (r *DiaryRepository) ReviewsWithoutDiary(ctx context.Context) ([]models.Review, error) {
	query := `
		SELECT r.id, r.user_id, r.album_id, r.rating, r.content, r.type, r.tags, r.created_at
		FROM reviews r
		WHERE NOT EXISTS (
			SELECT 1 FROM log_entries l WHERE l.user_id = r.user_id AND l.album_id = r.album_id
		)
		ORDER BY r.created_at, r.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var (
			rv     models.Review
			rating sql.NullFloat64
			tags   string
		)
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.AlbumID, &rating, &rv.Content, &rv.Type, &tags, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		rv.Rating = floatPtr(rating)
		rv.Tags = decodeStrings(tags)
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return reviews, nil
}

// CreateLogEntries inserts entries in one transaction and returns how many were written.
func (r *DiaryRepository) CreateLogEntries(ctx context.Context, entries []models.LogEntry) (int, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for i := range entries {
			e := &entries[i]
			if e.ID == "" {
				e.ID = shared.GenerateID()
			}
			if e.CreatedAt.IsZero() {
				e.CreatedAt = time.Now().UTC()
			}
			if err := e.Validate(); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO log_entries (id, user_id, album_id, rating, content, format, tags, logged_at, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.ID, e.UserID, e.AlbumID, nullFloat(e.Rating), e.Content, e.Format, encodeStrings(e.Tags), e.LoggedAt, e.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert log entry for review of %s: %w", e.AlbumID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
