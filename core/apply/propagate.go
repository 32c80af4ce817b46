package apply

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/adalundhe/fragments/core/weave"
)

// Store reads and writes the current content of tracked files.
type Store interface {
	Current(key string) ([]string, error)
	Write(key string, lines []string) error
}

type Status int

const (
	StatusClean Status = iota
	StatusConflict
	StatusSkipped
	StatusFailed
)

var statusNames = map[Status]string{
	StatusClean:    "clean",
	StatusConflict: "conflict",
	StatusSkipped:  "skipped",
	StatusFailed:   "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

type TargetResult struct {
	Key       string
	Status    Status
	Conflicts int
	Err       error
}

type Report struct {
	Source    string
	NoChanges bool
	Targets   []TargetResult
	display   func(string) string
}

// Messages returns one line per target in the order they were processed.
func (r *Report) Messages() []string {
	src := r.display(r.Source)
	if r.NoChanges {
		return []string{fmt.Sprintf("No changes in '%s' to apply.", src)}
	}
	out := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		out = append(out, t.message(src, r.display(t.Key)))
	}
	return out
}

func (t TargetResult) message(src, dst string) string {
	switch t.Status {
	case StatusClean:
		return fmt.Sprintf("Changes in '%s' applied cleanly to '%s'", src, dst)
	case StatusConflict:
		return fmt.Sprintf("Conflict merging '%s' into '%s'", src, dst)
	case StatusSkipped:
		return fmt.Sprintf("Changes in '%s' cannot apply to '%s', skipping", src, dst)
	default:
		return fmt.Sprintf("Could not apply changes in '%s' to '%s': %v", src, dst, t.Err)
	}
}

// Err aggregates the failures of every target, or returns nil.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, t := range r.Targets {
		if t.Err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", t.Key, t.Err))
		}
	}
	return result.ErrorOrNil()
}

func (r *Report) Count(status Status) int {
	n := 0
	for _, t := range r.Targets {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Propagate cherry-picks the accepted hunks onto every target except the
// source. A failure on one target is recorded and the run continues.
func (s *Session) Propagate(ctx context.Context, store Store, targets []string) (*Report, error) {
	report := &Report{Source: s.source, display: s.opts.Display}

	if s.selector.Accepted() == 0 {
		report.NoChanges = true
		return report, nil
	}

	edited, err := s.Edited()
	if err != nil {
		return nil, err
	}
	if err := s.weave.AddRevision(editedRevision, edited, []weave.RevisionID{oldRevision}); err != nil {
		return nil, err
	}
	if err := s.weave.Seal(editedRevision); err != nil {
		return nil, err
	}

	next := firstTarget
	for _, key := range targets {
		if key == s.source {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := s.propagateTo(store, key, next)
		if err != nil {
			return report, err
		}
		next++

		s.logger.Debug("target processed",
			slog.String("target", key),
			slog.String("status", result.Status.String()),
			slog.Int("conflicts", result.Conflicts))
		report.Targets = append(report.Targets, result)
	}
	return report, nil
}

// propagateTo returns an error only when the weave rejects a revision;
// read and write failures land in the TargetResult.
func (s *Session) propagateTo(store Store, key string, rev weave.RevisionID) (TargetResult, error) {
	tr := TargetResult{Key: key}

	lines, err := store.Current(key)
	if err != nil {
		tr.Status, tr.Err = StatusFailed, err
		return tr, nil
	}
	if err := s.weave.AddRevision(rev, lines, nil); err != nil {
		return tr, err
	}
	if err := s.weave.Seal(rev); err != nil {
		return tr, err
	}

	merged, err := s.weave.CherryPick(editedRevision, rev)
	if err != nil {
		return tr, err
	}

	tr.Status = Classify(merged)
	tr.Conflicts = merged.Conflicts()

	var out []string
	switch tr.Status {
	case StatusSkipped:
		return tr, nil
	case StatusConflict:
		out = WithMarkers(merged)
	default:
		out = merged.Lines()
	}

	if err := store.Write(key, out); err != nil {
		tr.Status, tr.Err = StatusFailed, err
	}
	return tr, nil
}

// Classify decides what to do with a cherry-pick result. A single conflict
// covering the whole result means the change has no footing in the target.
func Classify(result weave.Result) Status {
	switch {
	case len(result) == 1 && result[0].IsConflict():
		return StatusSkipped
	case result.HasConflicts():
		return StatusConflict
	default:
		return StatusClean
	}
}

const (
	markerEdge = ">>>>>>>\n"
	markerMid  = "=======\n"
)

// WithMarkers flattens result, framing each conflict with markers. Every
// marker starts on its own line.
func WithMarkers(result weave.Result) []string {
	var out []string
	for _, e := range result {
		if !e.IsConflict() {
			out = append(out, e.Line)
			continue
		}
		out = terminate(out)
		out = append(out, markerEdge)
		out = append(out, e.Old...)
		out = terminate(out)
		out = append(out, markerMid)
		out = append(out, e.New...)
		out = terminate(out)
		out = append(out, markerEdge)
	}
	return out
}

func terminate(lines []string) []string {
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines[n-1] += "\n"
	}
	return lines
}
