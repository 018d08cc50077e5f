package tasks

import (
	"fmt"

	"github.com/desertthunder/listenr/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ClearCatalog Phase = iota
	SearchCatalog
	CommitPage
	SeedBatch
	MergeGroups
	Backfill
)

func (p Phase) String() string {
	switch p {
	case ClearCatalog:
		return "clear_catalog"
	case SearchCatalog:
		return "search_catalog"
	case CommitPage:
		return "commit_page"
	case SeedBatch:
		return "seed_batch"
	case MergeGroups:
		return "merge_groups"
	case Backfill:
		return "backfill"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func clearedUpdate(albums, tracks int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Cleared %d albums and %d tracks", albums, tracks),
	}
}

func searchUpdate(source string, offset, seeded, target int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchCatalog,
		Step:    seeded,
		Total:   target,
		Message: fmt.Sprintf("Searching %s at offset %d...", source, offset),
	}
}

func commitUpdate(seeded, target, page int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CommitPage,
		Step:    seeded,
		Total:   target,
		Message: fmt.Sprintf("[%d/%d] committed %d albums", seeded, target, page),
	}
}

func batchUpdate(step, total int, b Batch) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SeedBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Seeding %s...", step, total, b),
		Data:    b,
	}
}

func mergeUpdate(step, total int, g DuplicateGroup) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeGroups,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Merging %d copies of %s", step, total, len(g.Losers)+1, g.Key),
		Data:    g,
	}
}

func backfillUpdate(step, total int, what, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Backfill,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, what, name),
	}
}

// querySummary renders a filter set for logs and progress messages.
func querySummary(q services.Query) string {
	parts := fmt.Sprintf("genre=%s country=%s artist=%s", orAny(q.Genre), orAny(q.Country), orAny(q.Artist))
	if q.Text != "" {
		parts += fmt.Sprintf(" query=%q", q.Text)
	}
	return parts
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
