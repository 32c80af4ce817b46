// Package fork derives a skeleton file from several related files. Sections
// the sources share are kept; sections where they differ become blank lines.
package fork

import (
	"errors"
	"log/slog"

	"github.com/adalundhe/fragments/core/weave"
)

var ErrNoSources = errors.New("no source files")

const blank = "\n"

type Forker struct {
	contextLines int
	logger       *slog.Logger
}

func New(contextLines int, logger *slog.Logger) *Forker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forker{contextLines: contextLines, logger: logger}
}

// Fork folds sources left to right. Each step merges the running result
// with the next source; every conflict, together with the entries leading
// up to the furthest conflict within contextLines of it, collapses into one
// blank line per entry.
func (f *Forker) Fork(sources [][]string) ([]string, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	w := weave.New(weave.WithLogger(f.logger))
	previous := weave.RevisionID(1)
	if err := w.AddRevision(previous, sources[0], nil); err != nil {
		return nil, err
	}

	result := sources[0]
	for _, source := range sources[1:] {
		current := previous + 1
		if err := w.AddRevision(current, source, nil); err != nil {
			return nil, err
		}
		merged, err := w.Merge(previous, current)
		if err != nil {
			return nil, err
		}
		result = f.collapse(merged)

		previous = current + 1
		if err := w.AddRevision(previous, result, nil); err != nil {
			return nil, err
		}
	}

	f.logger.Debug("fork complete",
		slog.Int("sources", len(sources)),
		slog.Int("lines", len(result)))
	return result, nil
}

func (f *Forker) collapse(merged weave.Result) []string {
	out := make([]string, 0, len(merged))
	for i := 0; i < len(merged); i++ {
		if !merged[i].IsConflict() {
			out = append(out, merged[i].Line)
			continue
		}
		skip := f.furthestConflict(merged, i)
		for k := 0; k <= skip; k++ {
			out = append(out, blank)
		}
		i += skip
	}
	return out
}

// furthestConflict returns the offset past i of the last conflict among the
// contextLines entries that follow i, counted from i+1, or 0 if there is none.
func (f *Forker) furthestConflict(merged weave.Result, i int) int {
	furthest := 0
	end := min(len(merged), i+1+f.contextLines)
	for j := i + 1; j < end; j++ {
		if merged[j].IsConflict() {
			furthest = j - (i + 1)
		}
	}
	return furthest
}

// Fork is a convenience wrapper using the default logger.
func Fork(sources [][]string, contextLines int) ([]string, error) {
	return New(contextLines, nil).Fork(sources)
}
