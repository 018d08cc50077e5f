// package formatter exports scheduler summaries and merge reports to CSV and Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/listenr/internal/shared"
	"github.com/desertthunder/listenr/internal/tasks"
)

// Format is a report output format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "csv", "markdown" or "md". An empty string selects Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, s)
	}
}

// writeCSV renders records (header first) as CSV.
func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func orWildcard(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ScheduleToCSV converts a scheduler summary to CSV with columns: Genre, Country, Artist, Target, Seeded, Error
func ScheduleToCSV(summary *tasks.ScheduleSummary) ([]byte, error) {
	records := [][]string{{"Genre", "Country", "Artist", "Target", "Seeded", "Error"}}
	for _, b := range summary.Batches {
		records = append(records, []string{
			orWildcard(b.Genre),
			orWildcard(b.Country),
			orWildcard(b.Artist),
			strconv.Itoa(b.Count),
			strconv.Itoa(b.Seeded),
			errText(b.Err),
		})
	}
	return writeCSV(records)
}

// ScheduleToMarkdown converts a scheduler summary to a Markdown report with a batch table and merge outcome
func ScheduleToMarkdown(summary *tasks.ScheduleSummary) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Seed run\n\n")
	if !summary.Started.IsZero() {
		fmt.Fprintf(&buf, "**Started**: %s\n", summary.Started.UTC().Format(time.RFC3339))
		fmt.Fprintf(&buf, "**Duration**: %s\n", summary.Finished.Sub(summary.Started).Round(time.Second))
	}
	if summary.UsedDefaults {
		buf.WriteString("**Batches**: built-in defaults\n")
	}
	fmt.Fprintf(&buf, "**Seeded**: %d of %d\n\n", summary.Seeded(), summary.Target())

	buf.WriteString("## Batches\n\n")
	buf.WriteString("| Genre | Country | Artist | Target | Seeded | Error |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, b := range summary.Batches {
		fmt.Fprintf(&buf, "| %s | %s | %s | %d | %d | %s |\n",
			cell(orWildcard(b.Genre)), cell(orWildcard(b.Country)), cell(orWildcard(b.Artist)), b.Count, b.Seeded, cell(errText(b.Err)))
	}

	buf.WriteString("\n## Merge\n\n")
	switch {
	case summary.MergeErr != nil:
		fmt.Fprintf(&buf, "Failed: %s\n", summary.MergeErr)
	case summary.Merge == nil:
		buf.WriteString("Not run\n")
	default:
		writeMergeSummary(&buf, summary.Merge)
	}

	return buf.Bytes(), nil
}

// PlanToCSV converts merge groups to CSV with columns: Artist, Title, Year, Canonical, Losers
func PlanToCSV(groups []tasks.DuplicateGroup) ([]byte, error) {
	records := [][]string{{"Artist", "Title", "Year", "Canonical", "Losers"}}
	for _, g := range groups {
		records = append(records, []string{
			g.Key.Artist,
			g.Key.Title,
			yearText(g),
			g.Canonical.ID,
			strings.Join(g.LoserIDs(), " "),
		})
	}
	return writeCSV(records)
}

// MergeToMarkdown converts a merge report to Markdown, listing every group
func MergeToMarkdown(report *tasks.MergeReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Duplicate merge\n\n")
	writeMergeSummary(&buf, report)

	if len(report.Groups) > 0 {
		buf.WriteString("\n## Groups\n\n")
		for i, g := range report.Groups {
			fmt.Fprintf(&buf, "%d. %s → `%s` (%d merged)\n", i+1, g.Key, g.Canonical.ID, len(g.Losers))
		}
	}
	return buf.Bytes(), nil
}

func writeMergeSummary(buf *bytes.Buffer, report *tasks.MergeReport) {
	fmt.Fprintf(buf, "**Policy**: prefer %s\n", report.Policy)
	fmt.Fprintf(buf, "**Groups**: %d (%d merged, %d failed)\n", len(report.Groups), report.Merged, report.Failed)
	fmt.Fprintf(buf, "**Albums removed**: %d\n", report.AlbumsRemoved())
}

func yearText(g tasks.DuplicateGroup) string {
	if !g.Key.HasYear {
		return ""
	}
	return strconv.Itoa(g.Key.Year)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteSchedule writes a scheduler summary to path in the given format.
func WriteSchedule(summary *tasks.ScheduleSummary, path string, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = ScheduleToCSV(summary)
	default:
		data, err = ScheduleToMarkdown(summary)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return writeFile(path, data)
}

// WriteMerge writes a merge report to path in the given format.
func WriteMerge(report *tasks.MergeReport, path string, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = PlanToCSV(report.Groups)
	default:
		data, err = MergeToMarkdown(report)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
