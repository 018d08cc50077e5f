// Package enrichment fills in missing album covers and descriptions through ordered fallback chains.
//
// Cover chain: artwork aggregator, then iTunes search, then Cover Art Archive via a MusicBrainz
// release lookup. Description chain: MusicBrainz release-group annotation (only with a group id),
// then the Wikipedia intro paragraph.
//
// The first strategy that yields a non-empty value wins and later strategies are never called.
// Every strategy records an [Attempt] whose [Outcome] separates "not found" from failures, so a
// result whose attempts all failed ([CoverResult.AllFailed]) points at an outage rather than a
// gap in the catalogs. Failures never abort the chain.
package enrichment
