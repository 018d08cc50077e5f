package ui

import (
	"fmt"
	"strconv"

	"github.com/desertthunder/listenr/internal/tasks"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable draws a rounded table. Short rows are padded; aligns defaults to left.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func itoa(n int) string { return strconv.Itoa(n) }

// SeedTable summarises one ingestion run.
func SeedTable(r *tasks.SeedResult) string {
	rows := [][]string{
		{"Source", r.Source},
		{"Seeded", fmt.Sprintf("%d / %d", r.Seeded, r.Target)},
		{"Pages", itoa(r.Pages)},
		{"Skipped (known)", itoa(r.SkippedKnown)},
		{"Skipped (unusable)", itoa(r.SkippedOther)},
		{"Failed", itoa(r.Failed)},
	}
	if r.ClearedAlbums > 0 || r.ClearedTracks > 0 {
		rows = append(rows, []string{"Cleared", fmt.Sprintf("%d albums, %d tracks", r.ClearedAlbums, r.ClearedTracks)})
	}
	return RenderTable([]string{"Seed", ""}, rows, []Alignment{AlignLeft, AlignRight})
}

// ScheduleTable lists each scheduled batch with its outcome.
func ScheduleTable(s *tasks.ScheduleSummary) string {
	rows := make([][]string, 0, len(s.Batches)+1)
	for _, b := range s.Batches {
		status := "ok"
		if b.Err != nil {
			status = b.Err.Error()
		} else if b.Seeded < b.Count {
			status = "short"
		}
		rows = append(rows, []string{dash(b.Genre), dash(b.Country), dash(b.Artist), itoa(b.Count), itoa(b.Seeded), status})
	}
	rows = append(rows, []string{"total", "", "", itoa(s.Target()), itoa(s.Seeded()), ""})
	return RenderTable(
		[]string{"Genre", "Country", "Artist", "Target", "Seeded", "Status"},
		rows,
		[]Alignment{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft},
	)
}

// MergeTable lists duplicate groups with their canonical album.
func MergeTable(groups []tasks.DuplicateGroup) string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		year := "?"
		if g.Key.HasYear {
			year = itoa(g.Key.Year)
		}
		rows = append(rows, []string{g.Key.Artist, g.Key.Title, year, g.Canonical.ID, itoa(len(g.Losers))})
	}
	return RenderTable(
		[]string{"Artist", "Title", "Year", "Canonical", "Duplicates"},
		rows,
		[]Alignment{AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignRight},
	)
}

// BackfillTable summarises a backfill run.
func BackfillTable(r *tasks.BackfillResult) string {
	updated := "Updated"
	if r.DryRun {
		updated = "Would update"
	}
	rows := [][]string{
		{"Scanned", itoa(r.Scanned)},
		{updated, itoa(r.Updated)},
		{"Not found", itoa(r.Missed)},
		{"Failed", itoa(r.Failed)},
	}
	return RenderTable([]string{"Backfill " + r.Kind, ""}, rows, []Alignment{AlignLeft, AlignRight})
}
