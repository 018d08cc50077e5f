package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/listenr/internal/models"
	"github.com/desertthunder/listenr/internal/shared"
)

const albumColumns = `id, title, artist, year, mbid, release_group_id, spotify_id, cover_url, cover_source,
	description, description_source, wikipedia_url, label, genres, length_seconds, created_at`

// sourceColumns maps a catalog source to the album column holding its id.
var sourceColumns = map[string]string{
	"musicbrainz": "mbid",
	"spotify":     "spotify_id",
}

// AlbumRepository persists canonical albums and their tracks.
type AlbumRepository struct {
	db *sql.DB
}

// NewAlbumRepository creates a new AlbumRepository with the given database connection
func NewAlbumRepository(db *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// SaveBatch inserts albums with their tracks in one transaction. IDs and timestamps are filled in when empty.
func (r *AlbumRepository) SaveBatch(ctx context.Context, entries []models.CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, e := range entries {
			if err := insertEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertEntry(ctx context.Context, q querier, e models.CatalogEntry) error {
	a := e.Album
	if a.ID == "" {
		a.ID = shared.GenerateID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO albums (` + albumColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Artist,
		nullInt(a.Year),
		nullString(a.MBID),
		nullString(a.ReleaseGroupID),
		nullString(a.SpotifyID),
		a.CoverURL,
		a.CoverSource,
		a.Description,
		a.DescriptionSource,
		a.WikipediaURL,
		a.Label,
		encodeStrings(a.Genres),
		nullInt(a.LengthSeconds),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert album %q: %w", a.Title, err)
	}

	for i := range e.Tracks {
		t := &e.Tracks[i]
		if t.ID == "" {
			t.ID = shared.GenerateID()
		}
		t.AlbumID = a.ID
		if err := t.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO tracks (id, album_id, number, title, duration) VALUES (?, ?, ?, ?, ?)`,
			t.ID, t.AlbumID, t.Number, t.Title, t.Duration,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track %d of %q: %w", t.Number, a.Title, err)
		}
	}
	return nil
}

// Get retrieves an album by ID
func (r *AlbumRepository) Get(ctx context.Context, id string) (*models.Album, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = ?`, id)
	album, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, id)
	}
	return album, err
}

// List returns every album, oldest first.
func (r *AlbumRepository) List(ctx context.Context) ([]*models.Album, error) {
	return r.query(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY created_at, id`)
}

// MissingCovers returns albums without a cover, oldest first. A limit of zero returns all.
func (r *AlbumRepository) MissingCovers(ctx context.Context, limit int) ([]*models.Album, error) {
	return r.query(ctx, `SELECT `+albumColumns+` FROM albums WHERE cover_url = '' ORDER BY created_at, id`+limitClause(limit))
}

// MissingDescriptions returns albums without a description, oldest first. A limit of zero returns all.
func (r *AlbumRepository) MissingDescriptions(ctx context.Context, limit int) ([]*models.Album, error) {
	return r.query(ctx, `SELECT `+albumColumns+` FROM albums WHERE description = '' ORDER BY created_at, id`+limitClause(limit))
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

func (r *AlbumRepository) query(ctx context.Context, query string, args ...any) ([]*models.Album, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	var albums []*models.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return albums, nil
}

// IdentityKeys snapshots the identity key of every stored album.
func (r *AlbumRepository) IdentityKeys(ctx context.Context) (map[models.IdentityKey]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT title, artist, year FROM albums`)
	if err != nil {
		return nil, fmt.Errorf("failed to query identity keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[models.IdentityKey]struct{})
	for rows.Next() {
		var (
			title, artist string
			year          sql.NullInt64
		)
		if err := rows.Scan(&title, &artist, &year); err != nil {
			return nil, fmt.Errorf("failed to scan identity key: %w", err)
		}
		keys[models.KeyOf(title, artist, intPtr(year))] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}

// SourceIDs returns the catalog ids already stored for a source ("musicbrainz" or "spotify").
func (r *AlbumRepository) SourceIDs(ctx context.Context, source string) (map[string]struct{}, error) {
	column, ok := sourceColumns[source]
	if !ok {
		return map[string]struct{}{}, nil
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT %[1]s FROM albums WHERE %[1]s IS NOT NULL AND %[1]s != ''`, column))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s ids: %w", source, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", source, err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored albums.
func (r *AlbumRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM albums`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count albums: %w", err)
	}
	return n, nil
}

// Clear deletes every track and album and reports how many of each were removed.
// It fails while dependent records still reference albums.
func (r *AlbumRepository) Clear(ctx context.Context) (albums, tracks int64, err error) {
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tracks`)
		if err != nil {
			return fmt.Errorf("failed to clear tracks: %w", err)
		}
		tracks, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM albums`)
		if err != nil {
			return fmt.Errorf("failed to clear albums: %w", err)
		}
		albums, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return albums, tracks, nil
}

// UpdateCover sets an album's cover and its provenance.
func (r *AlbumRepository) UpdateCover(ctx context.Context, id, url, source string) error {
	return r.update(ctx, id, `UPDATE albums SET cover_url = ?, cover_source = ? WHERE id = ?`, url, source, id)
}

// UpdateDescription sets an album's description, its provenance and, for Wikipedia, the article URL.
func (r *AlbumRepository) UpdateDescription(ctx context.Context, id, text, source, articleURL string) error {
	return r.update(ctx, id,
		`UPDATE albums SET description = ?, description_source = ?, wikipedia_url = ? WHERE id = ?`,
		text, source, articleURL, id,
	)
}

func (r *AlbumRepository) update(ctx context.Context, id, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update album: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, id)
	}
	return nil
}

// Tracks returns an album's tracks in order.
func (r *AlbumRepository) Tracks(ctx context.Context, albumID string) ([]models.Track, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, album_id, number, title, duration FROM tracks WHERE album_id = ? ORDER BY number`, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.AlbumID, &t.Number, &t.Title, &t.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanAlbum scans a single row selected with albumColumns into a [models.Album]
func scanAlbum(row scanner) (*models.Album, error) {
	var (
		a              models.Album
		year           sql.NullInt64
		mbid           sql.NullString
		releaseGroupID sql.NullString
		spotifyID      sql.NullString
		genres         string
		lengthSeconds  sql.NullInt64
	)

	err := row.Scan(
		&a.ID, &a.Title, &a.Artist, &year, &mbid, &releaseGroupID, &spotifyID,
		&a.CoverURL, &a.CoverSource, &a.Description, &a.DescriptionSource, &a.WikipediaURL,
		&a.Label, &genres, &lengthSeconds, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album: %w", err)
	}

	a.Year = intPtr(year)
	a.MBID = mbid.String
	a.ReleaseGroupID = releaseGroupID.String
	a.SpotifyID = spotifyID.String
	a.Genres = decodeStrings(genres)
	a.LengthSeconds = intPtr(lengthSeconds)
	return &a, nil
}
