// Package tasks runs the catalog pipeline: ingestion, duplicate merging, scheduling and backfills.
//
// # Core Operations
//
//  1. [Seeder.Run] : Ingest albums from one catalog source
//     - Snapshots the identity keys and source ids already stored
//     - Pages through the source, skipping known and unusable candidates
//     - Enriches each album (genres, cover, description) and commits once per page
//
//  2. [Deduplicator.Run] : Collapse albums that share an identity key
//     - Picks a canonical album per group with a [CanonicalPolicy]
//     - Repoints dependents and deletes the losers, one transaction per group
//     - [Deduplicator.Plan] reports the groups without touching the store
//
//  3. [Scheduler.RunAll] : Run prioritised seed batches with a concurrent merge pass
//     - Batches come from a priority file, falling back to [DefaultBatches]
//     - The merge runs as a [Task] and is cancelled when it outlives its timeout
//
//  4. [Backfiller] : Fill covers, descriptions and diary entries for existing records
//
// # Progress Reporting
//
// Long-running operations accept an optional channel of [ProgressUpdate] values.
// Updates use select with default so a slow reader never blocks the pipeline.
package tasks
