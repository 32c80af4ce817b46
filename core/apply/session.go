// Package apply replays a change made to one tracked file onto the others.
package apply

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/adalundhe/fragments/core/diff"
	"github.com/adalundhe/fragments/core/selection"
	"github.com/adalundhe/fragments/core/weave"
)

var ErrUndecided = errors.New("change has undecided hunks")

const (
	oldRevision    weave.RevisionID = 1
	newRevision    weave.RevisionID = 2
	editedRevision weave.RevisionID = 3
	firstTarget    weave.RevisionID = 4
)

type Options struct {
	ContextLines  int
	Mode          selection.Mode
	MatchDepth    int
	ViewCacheSize int
	Logger        *slog.Logger
	// Display maps a file key to the name used in messages.
	Display func(key string) string
}

func DefaultOptions() Options {
	return Options{
		ContextLines:  diff.DefaultContextLines,
		Mode:          selection.Interactive,
		ViewCacheSize: 64,
		Logger:        slog.Default(),
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ContextLines < 0 {
		opts.ContextLines = diff.DefaultContextLines
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Display == nil {
		opts.Display = func(key string) string { return key }
	}
	return opts
}

// Session holds the change between a file's committed and current content
// and the user's choice of which hunks of it to propagate.
type Session struct {
	source   string
	weave    *weave.Weave
	result   weave.Result
	hunks    []diff.DiffHunk
	selector *selection.Selector
	opts     Options
	logger   *slog.Logger
}

// NewSession computes the change from old to new for the file at source.
func NewSession(source string, old, new []string, opts Options) (*Session, error) {
	opts = normalizeOptions(opts)

	weaveOpts := []weave.Option{
		weave.WithLogger(opts.Logger),
		weave.WithViewCache(opts.ViewCacheSize),
	}
	if opts.MatchDepth > 0 {
		weaveOpts = append(weaveOpts, weave.WithMatchDepth(opts.MatchDepth))
	}
	w := weave.New(weaveOpts...)

	if err := w.AddRevision(oldRevision, old, nil); err != nil {
		return nil, err
	}
	if err := w.AddRevision(newRevision, new, nil); err != nil {
		return nil, err
	}
	if err := w.Seal(newRevision); err != nil {
		return nil, err
	}

	result, err := w.Merge(oldRevision, newRevision)
	if err != nil {
		return nil, err
	}
	hunks := diff.Split(result, opts.ContextLines)

	opts.Logger.Debug("apply session",
		slog.String("source", source),
		slog.Int("hunks", len(hunks)),
		slog.Int("conflicts", result.Conflicts()))

	return &Session{
		source:   source,
		weave:    w,
		result:   result,
		hunks:    hunks,
		selector: selection.New(len(hunks), opts.Mode),
		opts:     opts,
		logger:   opts.Logger,
	}, nil
}

func (s *Session) Source() string {
	return s.source
}

func (s *Session) Hunks() []diff.DiffHunk {
	return s.hunks
}

func (s *Session) Result() weave.Result {
	return s.result
}

func (s *Session) Selector() *selection.Selector {
	return s.selector
}

// Edited rebuilds the file from the old content with only the accepted
// hunks applied.
func (s *Session) Edited() ([]string, error) {
	decisions, err := s.conflictDecisions()
	if err != nil {
		return nil, err
	}

	var lines []string
	for i, e := range s.result {
		if !e.IsConflict() {
			lines = append(lines, e.Line)
			continue
		}
		switch decisions[i] {
		case selection.Accepted:
			lines = append(lines, e.New...)
		case selection.Rejected:
			lines = append(lines, e.Old...)
		default:
			return nil, fmt.Errorf("entry %d: %w", i, ErrUndecided)
		}
	}
	return lines, nil
}

// conflictDecisions maps each conflicting entry to the decision on the
// hunk that shows it.
func (s *Session) conflictDecisions() (map[int]selection.Decision, error) {
	decisions := make(map[int]selection.Decision)
	for h, hunk := range s.hunks {
		d := s.selector.Decision(h)
		if d == selection.Undecided {
			return nil, fmt.Errorf("hunk %d: %w", h, ErrUndecided)
		}
		for _, idx := range hunk.Conflicts {
			decisions[idx] = d
		}
	}
	return decisions, nil
}
