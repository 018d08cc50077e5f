package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/listenr/internal/models"
	"github.com/desertthunder/listenr/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func year(v int) *int { return &v }

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// seedAlbum stores an album with n tracks, created offset after baseTime.
func seedAlbum(t *testing.T, repo *AlbumRepository, id, title, artist string, y *int, cover string, offset time.Duration, n int) {
	t.Helper()
	album := &models.Album{
		ID:        id,
		Title:     title,
		Artist:    artist,
		Year:      y,
		CoverURL:  cover,
		CreatedAt: baseTime.Add(offset),
	}
	var tracks []models.Track
	for i := 1; i <= n; i++ {
		tracks = append(tracks, models.Track{Number: i, Title: title + " track"})
	}
	if err := repo.SaveBatch(context.Background(), []models.CatalogEntry{{Album: album, Tracks: tracks}}); err != nil {
		t.Fatalf("failed to seed album %s: %v", id, err)
	}
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q failed: %v", query, err)
	}
}

func addReview(t *testing.T, db *sql.DB, id, user, album string, created time.Time) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO reviews (id, user_id, album_id, rating, content, type, tags, created_at) VALUES (?, ?, ?, 4.5, 'good', 'review', '["psych"]', ?)`,
		id, user, album, created)
}

func addLogEntry(t *testing.T, db *sql.DB, id, user, album string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO log_entries (id, user_id, album_id) VALUES (?, ?, ?)`, id, user, album)
}

func addListAlbum(t *testing.T, db *sql.DB, id, list, album string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO list_albums (id, list_id, album_id) VALUES (?, ?, ?)`, id, list, album)
}

func addFavorite(t *testing.T, db *sql.DB, user, album string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO favorite_albums (user_id, album_id) VALUES (?, ?)`, user, album)
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q failed: %v", query, err)
	}
	return n
}
