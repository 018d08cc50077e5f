package models

import (
	"fmt"
	"strings"
	"time"
)

// Model is implemented by every record the repositories persist.
type Model interface {
	Validate() error
}

// Album is the canonical record for one album.
type Album struct {
	ID                string
	Title             string
	Artist            string
	Year              *int
	MBID              string // MusicBrainz release id
	ReleaseGroupID    string
	SpotifyID         string
	CoverURL          string
	CoverSource       string
	Description       string
	DescriptionSource string
	WikipediaURL      string // provenance link when the description came from Wikipedia
	Label             string
	Genres            []string
	LengthSeconds     *int
	CreatedAt         time.Time
}

// Validate checks the fields every album must carry before it is written.
func (a *Album) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("album id is required")
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("album title is required")
	}
	if strings.TrimSpace(a.Artist) == "" {
		return fmt.Errorf("album artist is required")
	}
	return nil
}

func (a *Album) HasCover() bool       { return a.CoverURL != "" }
func (a *Album) HasDescription() bool { return a.Description != "" }

// Key returns the album's [IdentityKey].
func (a *Album) Key() IdentityKey {
	return KeyOf(a.Title, a.Artist, a.Year)
}

// Track belongs to exactly one album. Number is 1-based and contiguous within the album.
type Track struct {
	ID       string
	AlbumID  string
	Number   int
	Title    string
	Duration string // "M:SS", empty when unknown
}

func (t *Track) Validate() error {
	if t.AlbumID == "" {
		return fmt.Errorf("track album id is required")
	}
	if t.Number < 1 {
		return fmt.Errorf("track number must be positive, got %d", t.Number)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("track title is required")
	}
	return nil
}

// IdentityKey decides when two albums are the same album.
//
// Title and artist are whitespace-trimmed and compared exactly. An unknown year is its own
// value and never equals a concrete year.
type IdentityKey struct {
	Title   string
	Artist  string
	Year    int
	HasYear bool
}

// KeyOf builds the [IdentityKey] for a title, artist and optional year.
func KeyOf(title, artist string, year *int) IdentityKey {
	k := IdentityKey{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist)}
	if year != nil {
		k.Year, k.HasYear = *year, true
	}
	return k
}

func (k IdentityKey) String() string {
	year := "????"
	if k.HasYear {
		year = fmt.Sprintf("%d", k.Year)
	}
	return fmt.Sprintf("%s - %s (%s)", k.Artist, k.Title, year)
}

// Review is a user's rating or written review of an album.
type Review struct {
	ID        string
	UserID    string
	AlbumID   string
	Rating    *float64
	Content   string
	Type      string
	Tags      []string
	CreatedAt time.Time
}

// LogEntry is a diary entry recording that a user listened to an album.
type LogEntry struct {
	ID        string
	UserID    string
	AlbumID   string
	Rating    *float64
	Content   string
	Format    string
	Tags      []string
	LoggedAt  time.Time
	CreatedAt time.Time
}

func (l *LogEntry) Validate() error {
	if l.UserID == "" || l.AlbumID == "" {
		return fmt.Errorf("log entry requires user and album")
	}
	return nil
}

// ListAlbum places an album in a user list. At most one row exists per (ListID, AlbumID).
type ListAlbum struct {
	ID        string
	ListID    string
	AlbumID   string
	Position  int
	CreatedAt time.Time
}

// FavoriteAlbum pins an album to a user's profile. At most one row exists per (UserID, AlbumID).
type FavoriteAlbum struct {
	UserID   string
	AlbumID  string
	Position int
}

// CatalogEntry is an album together with its tracks, written in one step.
type CatalogEntry struct {
	Album  *Album
	Tracks []Track
}
