// Package models defines the catalog entities of the Listenr ingestion pipeline.
//
// The package contains two categories of types:
//
// 1. Catalog records written by ingestion and rewritten by merges
//   - [Album] : One canonical album with provenance for its cover and description
//   - [Track] : An ordered track belonging to exactly one album
//   - [IdentityKey] : The (title, artist, year) triple that defines duplicates
//
// 2. Dependent records owned by users that point at an album
//   - [Review] : A rating or written review
//   - [LogEntry] : A diary entry recording a listen
//   - [ListAlbum] : Membership of an album in a user list, unique per (list, album)
//   - [FavoriteAlbum] : A pinned favorite, unique per (user, album)
//
// All persisted records implement [Model], which exposes validation before writes.
package models
