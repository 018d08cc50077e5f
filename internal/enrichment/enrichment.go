package enrichment

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenr/internal/shared"
)

// Strategy names, also stored as provenance on albums.
const (
	StrategyArtwork          = "artwork"
	StrategyITunes           = "itunes"
	StrategyCoverArt         = "coverart"
	StrategyCoverArtRelease  = "coverart-release"
	StrategySourceCover      = "source"
	StrategyMusicBrainzNotes = "musicbrainz"
	StrategyWikipedia        = "wikipedia"
)

// Outcome is the result of a single strategy.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Attempt records what one strategy returned.
type Attempt struct {
	Strategy string
	Outcome  Outcome
	Err      error
}

type attempts []Attempt

// allFailed reports whether at least one strategy ran and every one of them failed.
func (a attempts) allFailed() bool {
	if len(a) == 0 {
		return false
	}
	for _, at := range a {
		if at.Outcome != Failed {
			return false
		}
	}
	return true
}

// CoverResult is the outcome of a cover resolution. URL is empty when nothing was found.
type CoverResult struct {
	URL      string
	Source   string
	Attempts []Attempt
}

func (r CoverResult) Found() bool     { return r.URL != "" }
func (r CoverResult) AllFailed() bool { return attempts(r.Attempts).allFailed() }

// DescriptionResult is the outcome of a description resolution.
// ArticleURL is set only when the text came from Wikipedia.
type DescriptionResult struct {
	Text       string
	Source     string
	ArticleURL string
	Attempts   []Attempt
}

func (r DescriptionResult) Found() bool     { return r.Text != "" }
func (r DescriptionResult) AllFailed() bool { return attempts(r.Attempts).allFailed() }

// strategy is one link of a fallback chain.
type strategy[T any] struct {
	name  string
	run   func(context.Context) (T, error)
	empty func(T) bool
}

// runChain tries strategies in order and stops at the first non-empty value.
func runChain[T any](ctx context.Context, logger *log.Logger, strategies []strategy[T]) (T, string, []Attempt) {
	var zero T
	var tried []Attempt
	for _, s := range strategies {
		if ctx.Err() != nil {
			break
		}

		value, err := s.run(ctx)
		switch {
		case err == nil && !s.empty(value):
			tried = append(tried, Attempt{Strategy: s.name, Outcome: Found})
			logger.Debug("found", "strategy", s.name)
			return value, s.name, tried
		case err == nil, errors.Is(err, shared.ErrNotFound):
			tried = append(tried, Attempt{Strategy: s.name, Outcome: NotFound})
			logger.Debug("no result", "strategy", s.name)
		default:
			tried = append(tried, Attempt{Strategy: s.name, Outcome: Failed, Err: err})
			logger.Warn("strategy failed", "strategy", s.name, "error", err)
		}
	}

	if attempts(tried).allFailed() {
		logger.Error("every strategy failed", "strategies", len(tried))
	}
	return zero, "", tried
}

func emptyString(s string) bool { return strings.TrimSpace(s) == "" }
