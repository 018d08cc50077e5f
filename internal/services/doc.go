// Package services implements typed, rate-limited clients for the external sources the catalog pipeline reads from.
//
// # Catalog Sources
//
// [MusicBrainz] and [Spotify] implement [CatalogSource]: paged Search and per-release Detail.
// Both return [RawItem] and [RawRelease] records so loosely-typed JSON never leaves this package.
//
// # Enrichment Sources
//
// [CoverArt], [ITunes], [Artwork] and [Wikipedia] answer single lookups used by the enrichment resolver.
// [MusicBrainz] additionally serves release-group genres, annotations and title/artist release lookups.
//
// # Pacing
//
// Every client owns a [Gate] that keeps consecutive requests at least MinInterval apart, across all
// operations of that source. The gate wraps [rate.Limiter] with an injectable [Clock] so tests can
// assert timing without real sleeps.
//
// # Error Handling
//
// Connection-level failures (timeouts, refused or reset connections) are retried with doubling
// backoff and then surface as [shared.ErrRetriesExhausted]. Any well-formed non-2xx response, and
// any empty result, is [shared.ErrNotFound] and is never retried.
//
// Spotify authenticates with the client-credentials grant via [clientcredentials.Config].
package services
