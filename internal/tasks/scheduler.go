package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenr/internal/services"
	"github.com/desertthunder/listenr/internal/shared"
	"github.com/gofrs/flock"
)

const (
	DefaultMergeTimeout = 5 * time.Minute
	defaultBatchCount   = 10
)

// Batch is one line of the priority file: seed Count albums matching the filters.
type Batch struct {
	Genre   string
	Country string
	Artist  string
	Count   int
}

// Query converts the batch filters into a catalog query.
func (b Batch) Query() services.Query {
	return services.Query{Genre: b.Genre, Country: b.Country, Artist: b.Artist}
}

func (b Batch) String() string {
	return fmt.Sprintf("%d × genre=%s country=%s artist=%s", b.Count, orAny(b.Genre), orAny(b.Country), orAny(b.Artist))
}

// DefaultBatches is used when no usable priority file exists.
func DefaultBatches() []Batch {
	return []Batch{
		{Genre: "hip hop", Country: "US", Count: defaultBatchCount},
		{Genre: "hip hop", Country: "GH", Count: defaultBatchCount},
		{Genre: "rap", Country: "US", Count: defaultBatchCount},
		{Genre: "rap", Country: "GH", Count: defaultBatchCount},
		{Count: defaultBatchCount},
	}
}

// ParsePriority reads "genre, country, artist, count" lines. "-" or an empty field is a wildcard.
// Blank lines and lines starting with "#" are ignored.
func ParsePriority(r io.Reader) ([]Batch, error) {
	var batches []Batch
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: line %d: expected 4 fields, got %d", shared.ErrInvalidInput, lineNo, len(fields))
		}
		count, err := strconv.Atoi(strings.TrimSpace(fields[3]))
		if err != nil || count <= 0 {
			return nil, fmt.Errorf("%w: line %d: count must be a positive integer, got %q", shared.ErrInvalidInput, lineNo, strings.TrimSpace(fields[3]))
		}

		batches = append(batches, Batch{
			Genre:   wildcard(fields[0]),
			Country: wildcard(fields[1]),
			Artist:  wildcard(fields[2]),
			Count:   count,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read priority file: %w", err)
	}
	return batches, nil
}

func wildcard(field string) string {
	field = strings.TrimSpace(field)
	if field == "-" {
		return ""
	}
	return field
}

// LoadPriority parses the priority file at path.
func LoadPriority(path string) ([]Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePriority(f)
}

// BatchOutcome is the result of one scheduled batch.
type BatchOutcome struct {
	Batch
	Seeded int
	Err    error
}

// ScheduleSummary reports a full scheduler run.
type ScheduleSummary struct {
	Batches      []BatchOutcome
	UsedDefaults bool
	Merge        *MergeReport
	MergeErr     error
	Started      time.Time
	Finished     time.Time
}

// Target is the sum of every batch count.
func (s *ScheduleSummary) Target() int {
	total := 0
	for _, b := range s.Batches {
		total += b.Count
	}
	return total
}

// Seeded is the number of albums committed across batches.
func (s *ScheduleSummary) Seeded() int {
	total := 0
	for _, b := range s.Batches {
		total += b.Seeded
	}
	return total
}

// SeedRunner runs one ingestion batch. [Seeder] implements it.
type SeedRunner interface {
	Run(ctx context.Context, opts SeedOptions) (*SeedResult, error)
}

// MergeRunner runs one merge pass. [Deduplicator] implements it.
type MergeRunner interface {
	Run(ctx context.Context) (*MergeReport, error)
}

// SchedulerOptions configures a [Scheduler]. Zero values select the defaults.
type SchedulerOptions struct {
	LockFile     string
	MergeTimeout time.Duration
	BatchSize    int
	Progress     chan<- ProgressUpdate
}

// Scheduler runs prioritised seed batches while a merge pass runs in the background.
type Scheduler struct {
	seeder SeedRunner
	merger MergeRunner
	opts   SchedulerOptions
	logger *log.Logger
}

func NewScheduler(seeder SeedRunner, merger MergeRunner, opts SchedulerOptions, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	if opts.MergeTimeout <= 0 {
		opts.MergeTimeout = DefaultMergeTimeout
	}
	return &Scheduler{seeder: seeder, merger: merger, opts: opts, logger: logger.With("task", "cron")}
}

// RunAll seeds every batch in the priority file in order, then waits for the merge pass.
//
// A missing, unreadable or malformed priority file falls back to [DefaultBatches]. A failed batch
// is recorded and the next one runs. When the merge outlives the timeout it is cancelled and
// reported on the summary; RunAll still succeeds.
func (s *Scheduler) RunAll(ctx context.Context, priorityPath string) (*ScheduleSummary, error) {
	if s.opts.LockFile != "" {
		lock := flock.New(s.opts.LockFile)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", s.opts.LockFile, err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: lock %s is held", shared.ErrAlreadyRunning, s.opts.LockFile)
		}
		defer lock.Unlock()
	}

	summary := &ScheduleSummary{Started: time.Now()}
	batches := s.batches(priorityPath, summary)

	merge := StartTask(ctx, s.merger.Run)

	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			merge.Cancel()
			<-merge.Done()
			return summary, err
		}

		sendProgress(s.opts.Progress, batchUpdate(i+1, len(batches), b))
		s.logger.Info("starting batch", "batch", i+1, "of", len(batches), "filters", querySummary(b.Query()), "count", b.Count)

		outcome := BatchOutcome{Batch: b}
		result, err := s.seeder.Run(ctx, SeedOptions{
			Target:    b.Count,
			BatchSize: s.opts.BatchSize,
			Filters:   b.Query(),
			Progress:  s.opts.Progress,
		})
		if result != nil {
			outcome.Seeded = result.Seeded
		}
		if err != nil {
			outcome.Err = err
			s.logger.Error("batch failed", "batch", i+1, "err", err)
		}
		summary.Batches = append(summary.Batches, outcome)
	}

	report, err := merge.Wait(s.opts.MergeTimeout)
	summary.Merge, summary.MergeErr = report, err
	if err != nil {
		s.logger.Error("merge pass did not finish cleanly", "err", err)
	}

	summary.Finished = time.Now()
	s.logger.Info("schedule finished", "seeded", summary.Seeded(), "target", summary.Target(),
		"albums_merged", summary.Merge.AlbumsRemoved(), "elapsed", summary.Finished.Sub(summary.Started).Round(time.Second))
	return summary, nil
}

func (s *Scheduler) batches(path string, summary *ScheduleSummary) []Batch {
	if path == "" {
		summary.UsedDefaults = true
		return DefaultBatches()
	}

	batches, err := LoadPriority(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("no priority file, using defaults", "path", path)
	case err != nil:
		s.logger.Warn("unusable priority file, using defaults", "path", path, "err", err)
	case len(batches) == 0:
		s.logger.Warn("priority file has no batches, using defaults", "path", path)
	default:
		return batches
	}
	summary.UsedDefaults = true
	return DefaultBatches()
}
