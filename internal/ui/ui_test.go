package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/listenr/internal/models"
	"github.com/desertthunder/listenr/internal/tasks"
)

func TestRenderTable(t *testing.T) {
	t.Run("pads short rows", func(t *testing.T) {
		out := RenderTable([]string{"Status", "Count"}, [][]string{{"pending"}}, []Alignment{AlignLeft, AlignRight})
		if !strings.Contains(out, "pending") || !strings.Contains(out, "STATUS") {
			t.Errorf("unexpected table:\n%s", out)
		}
		if !strings.HasPrefix(out, "╭") {
			t.Errorf("expected rounded style, got:\n%s", out)
		}
	})

	t.Run("no headers", func(t *testing.T) {
		if out := RenderTable(nil, [][]string{{"x"}}, nil); out != "" {
			t.Errorf("expected empty output, got %q", out)
		}
	})
}

func TestSummaryTables(t *testing.T) {
	t.Run("ScheduleTable", func(t *testing.T) {
		out := ScheduleTable(&tasks.ScheduleSummary{Batches: []tasks.BatchOutcome{
			{Batch: tasks.Batch{Genre: "rap", Country: "GH", Count: 10}, Seeded: 10},
			{Batch: tasks.Batch{Count: 10}, Seeded: 4},
			{Batch: tasks.Batch{Genre: "jazz", Count: 5}, Err: errors.New("boom")},
		}})
		for _, want := range []string{"rap", "short", "boom", "total", "14"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in table:\n%s", want, out)
			}
		}
	})

	t.Run("MergeTable", func(t *testing.T) {
		out := MergeTable([]tasks.DuplicateGroup{{
			Key:       models.KeyOf("Currents", "Tame Impala", nil),
			Canonical: &models.Album{ID: "keep"},
			Losers:    []*models.Album{{ID: "a"}, {ID: "b"}},
		}})
		if !strings.Contains(out, "Tame Impala") || !strings.Contains(out, "keep") || !strings.Contains(out, "?") {
			t.Errorf("unexpected table:\n%s", out)
		}
	})

	t.Run("BackfillTable dry run", func(t *testing.T) {
		out := BackfillTable(&tasks.BackfillResult{Kind: "covers", DryRun: true, Scanned: 3, Updated: 2, Missed: 1})
		if !strings.Contains(out, "Would update") {
			t.Errorf("expected dry-run label, got:\n%s", out)
		}
	})

	t.Run("SeedTable", func(t *testing.T) {
		out := SeedTable(&tasks.SeedResult{Source: "spotify", Target: 5, Seeded: 3})
		if !strings.Contains(out, "3 / 5") {
			t.Errorf("unexpected table:\n%s", out)
		}
	})
}

func TestPalette(t *testing.T) {
	if out := OK("seeded %d", 3); !strings.Contains(out, "seeded 3") {
		t.Errorf("unexpected OK line %q", out)
	}
	if out := Error("failed"); !strings.Contains(out, "failed") {
		t.Errorf("unexpected error line %q", out)
	}
}
