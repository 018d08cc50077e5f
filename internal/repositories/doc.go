// Package repositories implements SQLite persistence for the catalog.
//
// Key Implementations:
//   - [AlbumRepository] : Canonical albums and their tracks, identity-key snapshots, enrichment updates
//   - [AlbumRepository.MergeAlbums] : Collapses duplicate albums into a canonical one in a single transaction
//   - [DiaryRepository] : Reviews lacking a diary entry and bulk diary inserts
//
// Albums and tracks are only inserted by ingestion and only updated or deleted by merges and backfills.
// Dependent rows (reviews, diary entries, list memberships, favorites) are owned by other subsystems;
// this package repoints them during merges and never creates them except for diary backfills.
package repositories
