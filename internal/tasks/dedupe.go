package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenr/internal/models"
	"github.com/desertthunder/listenr/internal/repositories"
	"github.com/desertthunder/listenr/internal/shared"
)

// CanonicalPolicy decides which album of a duplicate group survives.
type CanonicalPolicy int

const (
	// PreferCover keeps albums with a cover first, then the oldest.
	PreferCover CanonicalPolicy = iota
	// PreferDescription keeps albums with a description first, then with a cover, then the oldest.
	PreferDescription
)

func (p CanonicalPolicy) String() string {
	switch p {
	case PreferDescription:
		return "description"
	default:
		return "cover"
	}
}

// PolicyByName maps "cover" or "description" to a policy. An empty name selects [PreferCover].
func PolicyByName(name string) (CanonicalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cover":
		return PreferCover, nil
	case "description":
		return PreferDescription, nil
	default:
		return PreferCover, fmt.Errorf("%w: unknown canonical policy %q", shared.ErrInvalidArgument, name)
	}
}

// compare orders albums best-first. Ties fall through to creation time and then ID, so the order is total.
func (p CanonicalPolicy) compare(a, b *models.Album) int {
	if p == PreferDescription {
		if c := preferTrue(a.HasDescription(), b.HasDescription()); c != 0 {
			return c
		}
	}
	if c := preferTrue(a.HasCover(), b.HasCover()); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func preferTrue(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// Select splits albums into the canonical album and the losers.
func (p CanonicalPolicy) Select(albums []*models.Album) (*models.Album, []*models.Album) {
	if len(albums) == 0 {
		return nil, nil
	}
	sorted := slices.Clone(albums)
	slices.SortFunc(sorted, p.compare)
	return sorted[0], sorted[1:]
}

// DuplicateGroup is a set of albums sharing one identity key.
type DuplicateGroup struct {
	Key       models.IdentityKey
	Canonical *models.Album
	Losers    []*models.Album
}

// LoserIDs returns the ids of the albums that will be merged away.
func (g DuplicateGroup) LoserIDs() []string {
	ids := make([]string, 0, len(g.Losers))
	for _, a := range g.Losers {
		ids = append(ids, a.ID)
	}
	return ids
}

// MergeReport summarises a merge pass.
type MergeReport struct {
	Policy CanonicalPolicy
	Groups []DuplicateGroup
	Merged int
	Failed int
	Stats  *repositories.MergeStats
}

// AlbumsRemoved is the number of albums deleted by the pass.
func (r *MergeReport) AlbumsRemoved() int64 {
	if r == nil || r.Stats == nil {
		return 0
	}
	return r.Stats.AlbumsDeleted
}

// MergeStore is the part of the album store the deduplicator needs.
type MergeStore interface {
	List(ctx context.Context) ([]*models.Album, error)
	MergeAlbums(ctx context.Context, canonicalID string, loserIDs []string) (*repositories.MergeStats, error)
}

// Deduplicator collapses albums that share an [models.IdentityKey].
type Deduplicator struct {
	store    MergeStore
	policy   CanonicalPolicy
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

func NewDeduplicator(store MergeStore, policy CanonicalPolicy, logger *log.Logger) *Deduplicator {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &Deduplicator{store: store, policy: policy, logger: logger.With("task", "dedupe")}
}

// WithProgress reports each merged group on progress.
func (d *Deduplicator) WithProgress(progress chan<- ProgressUpdate) *Deduplicator {
	d.progress = progress
	return d
}

// Plan groups the current albums by identity key and selects a canonical album per group.
// Groups are returned in the order their oldest member was stored. Nothing is written.
func (d *Deduplicator) Plan(ctx context.Context) ([]DuplicateGroup, error) {
	albums, err := d.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var order []models.IdentityKey
	byKey := make(map[models.IdentityKey][]*models.Album)
	for _, a := range albums {
		k := a.Key()
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], a)
	}

	var groups []DuplicateGroup
	for _, k := range order {
		members := byKey[k]
		if len(members) < 2 {
			continue
		}
		canonical, losers := d.policy.Select(members)
		groups = append(groups, DuplicateGroup{Key: k, Canonical: canonical, Losers: losers})
	}
	return groups, nil
}

// Run plans from the current store state and merges every group in its own transaction.
//
// A group that fails is rolled back, logged and counted; the pass continues with the next group.
// Cancellation stops the pass between groups.
func (d *Deduplicator) Run(ctx context.Context) (*MergeReport, error) {
	groups, err := d.Plan(ctx)
	if err != nil {
		return nil, err
	}

	report := &MergeReport{Policy: d.policy, Groups: groups, Stats: &repositories.MergeStats{
		Repointed: map[string]int64{},
		Dropped:   map[string]int64{},
	}}
	if len(groups) == 0 {
		d.logger.Info("no duplicates found")
		return report, nil
	}

	d.logger.Info("merging duplicates", "groups", len(groups), "policy", d.policy)
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("merge pass cancelled", "merged", report.Merged, "remaining", len(groups)-i)
			return report, err
		}

		sendProgress(d.progress, mergeUpdate(i+1, len(groups), g))
		stats, err := d.store.MergeAlbums(ctx, g.Canonical.ID, g.LoserIDs())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			report.Failed++
			d.logger.Error("merge failed", "key", g.Key, "canonical", g.Canonical.ID, "err", err)
			continue
		}

		report.Merged++
		report.Stats.Add(stats)
		d.logger.Debug("merged group", "key", g.Key, "canonical", g.Canonical.ID, "losers", len(g.Losers))
	}

	d.logger.Info("merge pass finished",
		"merged", report.Merged, "failed", report.Failed, "albums_removed", report.Stats.AlbumsDeleted)
	return report, nil
}
