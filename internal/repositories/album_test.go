package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/listenr/internal/models"
	"github.com/desertthunder/listenr/internal/shared"
)

func TestAlbumRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("SaveBatch and Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)

		length := 3111
		album := &models.Album{
			Title:          "Currents",
			Artist:         "Tame Impala",
			Year:           year(2015),
			MBID:           "mb-1",
			ReleaseGroupID: "rg-1",
			CoverURL:       "http://x",
			CoverSource:    "coverart-release",
			Label:          "Interscope",
			Genres:         []string{"psychedelic pop", "synth-pop"},
			LengthSeconds:  &length,
		}
		tracks := []models.Track{
			{Number: 1, Title: "Let It Happen", Duration: "7:47"},
			{Number: 2, Title: "Nangs", Duration: "1:47"},
		}

		if err := repo.SaveBatch(ctx, []models.CatalogEntry{{Album: album, Tracks: tracks}}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if album.ID == "" || album.CreatedAt.IsZero() {
			t.Fatal("expected id and created_at to be assigned")
		}

		got, err := repo.Get(ctx, album.ID)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.Title != "Currents" || got.MBID != "mb-1" || got.Label != "Interscope" || got.SpotifyID != "" {
			t.Errorf("unexpected album %+v", got)
		}
		if got.Year == nil || *got.Year != 2015 || got.LengthSeconds == nil || *got.LengthSeconds != 3111 {
			t.Errorf("unexpected year/length %v/%v", got.Year, got.LengthSeconds)
		}
		if len(got.Genres) != 2 || got.Genres[1] != "synth-pop" {
			t.Errorf("unexpected genres %v", got.Genres)
		}

		stored, err := repo.Tracks(ctx, album.ID)
		if err != nil {
			t.Fatalf("failed to get tracks: %v", err)
		}
		if len(stored) != 2 || stored[0].Title != "Let It Happen" || stored[1].Number != 2 {
			t.Errorf("unexpected tracks %+v", stored)
		}
	})

	t.Run("SaveBatch is atomic", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)

		good := models.CatalogEntry{Album: &models.Album{Title: "A", Artist: "B"}, Tracks: []models.Track{{Number: 1, Title: "x"}}}
		bad := models.CatalogEntry{Album: &models.Album{Title: "C", Artist: "D"}, Tracks: []models.Track{{Number: 0, Title: "x"}}}

		if err := repo.SaveBatch(ctx, []models.CatalogEntry{good, bad}); err == nil {
			t.Fatal("expected validation error")
		}
		if n, _ := repo.Count(ctx); n != 0 {
			t.Errorf("expected nothing committed, got %d albums", n)
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewAlbumRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, shared.ErrAlbumNotFound) {
			t.Errorf("expected ErrAlbumNotFound, got %v", err)
		}
	})

	t.Run("IdentityKeys", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)
		seedAlbum(t, repo, "a1", "Currents ", "Tame Impala", year(2015), "", 0, 1)
		seedAlbum(t, repo, "a2", "Currents", "Tame Impala", nil, "", time.Minute, 1)

		keys, err := repo.IdentityKeys(ctx)
		if err != nil {
			t.Fatalf("failed to load keys: %v", err)
		}
		if len(keys) != 2 {
			t.Fatalf("expected 2 keys, got %d", len(keys))
		}
		if _, ok := keys[models.KeyOf("Currents", "Tame Impala", year(2015))]; !ok {
			t.Error("expected trimmed key to be present")
		}
		if _, ok := keys[models.KeyOf("Currents", "Tame Impala", nil)]; !ok {
			t.Error("expected unknown-year key to be present")
		}
	})

	t.Run("SourceIDs", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)
		entries := []models.CatalogEntry{
			{Album: &models.Album{Title: "A", Artist: "X", SpotifyID: "sp-1"}},
			{Album: &models.Album{Title: "B", Artist: "X", MBID: "mb-1"}},
		}
		if err := repo.SaveBatch(ctx, entries); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		ids, err := repo.SourceIDs(ctx, "spotify")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := ids["sp-1"]; !ok || len(ids) != 1 {
			t.Errorf("unexpected spotify ids %v", ids)
		}

		ids, _ = repo.SourceIDs(ctx, "itunes")
		if len(ids) != 0 {
			t.Errorf("expected no ids for an unknown source, got %v", ids)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)
		seedAlbum(t, repo, "a1", "A", "X", nil, "", 0, 3)
		seedAlbum(t, repo, "a2", "B", "X", nil, "", 0, 2)

		albums, tracks, err := repo.Clear(ctx)
		if err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if albums != 2 || tracks != 5 {
			t.Errorf("expected 2 albums and 5 tracks cleared, got %d and %d", albums, tracks)
		}
	})

	t.Run("Missing fields and updates", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)
		seedAlbum(t, repo, "a1", "A", "X", nil, "", 0, 1)
		seedAlbum(t, repo, "a2", "B", "X", nil, "http://cover", time.Minute, 1)

		missing, err := repo.MissingCovers(ctx, 0)
		if err != nil || len(missing) != 1 || missing[0].ID != "a1" {
			t.Fatalf("unexpected missing covers %v (%v)", missing, err)
		}

		if err := repo.UpdateCover(ctx, "a1", "http://new", "itunes"); err != nil {
			t.Fatalf("failed to update cover: %v", err)
		}
		if missing, _ := repo.MissingCovers(ctx, 0); len(missing) != 0 {
			t.Errorf("expected no missing covers, got %d", len(missing))
		}

		if err := repo.UpdateDescription(ctx, "a2", "Text.", "wikipedia", "https://en.wikipedia.org/wiki/B"); err != nil {
			t.Fatalf("failed to update description: %v", err)
		}
		got, _ := repo.Get(ctx, "a2")
		if got.Description != "Text." || got.DescriptionSource != "wikipedia" || got.WikipediaURL == "" {
			t.Errorf("unexpected description fields %+v", got)
		}

		missing, _ = repo.MissingDescriptions(ctx, 5)
		if len(missing) != 1 || missing[0].ID != "a1" {
			t.Errorf("unexpected missing descriptions %v", missing)
		}

		if err := repo.UpdateCover(ctx, "nope", "u", "s"); !errors.Is(err, shared.ErrAlbumNotFound) {
			t.Errorf("expected ErrAlbumNotFound, got %v", err)
		}
	})

	t.Run("List is oldest first", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)
		seedAlbum(t, repo, "late", "A", "X", nil, "", time.Hour, 1)
		seedAlbum(t, repo, "early", "B", "X", nil, "", 0, 1)

		albums, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(albums) != 2 || albums[0].ID != "early" {
			t.Errorf("unexpected order %v", albums)
		}
	})
}
