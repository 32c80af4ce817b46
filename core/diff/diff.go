// Package diff groups weave merge results into unified-diff style hunks.
package diff

import (
	"fmt"
	"strings"

	"github.com/adalundhe/fragments/core/weave"
)

const DefaultContextLines = 3

// Positions returns the old and new line offsets at which each entry of
// result starts.
func Positions(result weave.Result) []Position {
	positions := make([]Position, len(result))
	var pos Position
	for i, e := range result {
		positions[i] = pos
		if e.IsConflict() {
			pos.Old += len(e.Old)
			pos.New += len(e.New)
			continue
		}
		pos.Old++
		pos.New++
	}
	return positions
}

// Split groups result into hunks. A plain line is shown when a conflict
// lies within contextLines entries of it; any hidden line ends a hunk.
func Split(result weave.Result, contextLines int) []DiffHunk {
	s := &splitter{
		result:    result,
		positions: Positions(result),
		context:   contextLines,
	}
	for i := range result {
		if s.visible(i) {
			s.group = append(s.group, i)
			continue
		}
		s.flush()
	}
	s.flush()
	return s.hunks
}

type splitter struct {
	result    weave.Result
	positions []Position
	context   int
	group     []int
	hunks     []DiffHunk
}

func (s *splitter) visible(i int) bool {
	if s.result[i].IsConflict() {
		return true
	}
	lo := max(0, i-s.context)
	hi := min(len(s.result), i+1+s.context)
	for j := lo; j < hi; j++ {
		if j != i && s.result[j].IsConflict() {
			return true
		}
	}
	return false
}

func (s *splitter) flush() {
	if len(s.group) == 0 {
		return
	}
	s.hunks = append(s.hunks, s.buildHunk(s.group))
	s.group = nil
}

func (s *splitter) buildHunk(group []int) DiffHunk {
	first := s.positions[group[0]]
	hunk := DiffHunk{
		OldStart: first.Old,
		NewStart: first.New,
		Entries:  group,
	}

	for _, idx := range group {
		e := s.result[idx]
		pos := s.positions[idx]
		if e.IsConflict() {
			hunk.Conflicts = append(hunk.Conflicts, idx)
			hunk.OldCount += len(e.Old)
			hunk.NewCount += len(e.New)
			hunk.Lines = append(hunk.Lines, conflictLines(e, pos)...)
			continue
		}
		hunk.OldCount++
		hunk.NewCount++
		hunk.Lines = append(hunk.Lines, DiffLine{
			Type:    DiffLineContext,
			Content: e.Line,
			OldLine: pos.Old + 1,
			NewLine: pos.New + 1,
		})
	}

	if hunk.OldCount > 0 {
		hunk.OldStart++
	}
	if hunk.NewCount > 0 {
		hunk.NewStart++
	}
	return hunk
}

func conflictLines(e weave.Entry, pos Position) []DiffLine {
	lines := make([]DiffLine, 0, len(e.Old)+len(e.New)+1)
	for k, text := range e.Old {
		lines = append(lines, DiffLine{Type: DiffLineDelete, Content: text, OldLine: pos.Old + k + 1})
	}
	if missingNewline(e.Old, e.New) {
		lines = append(lines, DiffLine{Type: DiffLineNoNewline})
	}
	for k, text := range e.New {
		lines = append(lines, DiffLine{Type: DiffLineAdd, Content: text, NewLine: pos.New + k + 1})
	}
	if missingNewline(e.New, e.Old) {
		lines = append(lines, DiffLine{Type: DiffLineNoNewline})
	}
	return lines
}

// missingNewline reports whether side ends without the newline that other
// ends with. Both sides must be non-empty.
func missingNewline(side, other []string) bool {
	if len(side) == 0 || len(other) == 0 {
		return false
	}
	return strings.HasSuffix(other[len(other)-1], "\n") && !strings.HasSuffix(side[len(side)-1], "\n")
}

func (h DiffHunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// Render returns the header followed by every line of the hunk.
func (h DiffHunk) Render() []string {
	out := make([]string, 0, len(h.Lines)+1)
	out = append(out, h.Header())
	for _, line := range h.Lines {
		out = append(out, line.Text())
	}
	return out
}

func (l DiffLine) Text() string {
	content := strings.Trim(l.Content, "\n")
	switch l.Type {
	case DiffLineAdd:
		return "+" + content
	case DiffLineDelete:
		return "-" + content
	case DiffLineNoNewline:
		return NoNewlineMarker
	default:
		return " " + content
	}
}

func FileHeader(key string) []string {
	return []string{
		fmt.Sprintf("diff a/%s b/%s", key, key),
		"--- " + key,
		"+++ " + key,
	}
}

// Full renders every hunk of result under a file header. Nothing is
// returned when result has no conflicts.
func Full(result weave.Result, key string, contextLines int) []string {
	return Compute(result, key, contextLines).Render()
}

func Compute(result weave.Result, key string, contextLines int) *FileDiff {
	hunks := Split(result, contextLines)
	return &FileDiff{
		Key:   key,
		Hunks: hunks,
		Stats: Stats(hunks),
	}
}

func (d *FileDiff) Render() []string {
	if len(d.Hunks) == 0 {
		return nil
	}
	out := FileHeader(d.Key)
	for _, h := range d.Hunks {
		out = append(out, h.Render()...)
	}
	return out
}

func Stats(hunks []DiffHunk) DiffStats {
	var stats DiffStats
	for _, hunk := range hunks {
		countHunkStats(&stats, hunk)
	}
	stats.Changes = stats.Additions + stats.Deletions
	return stats
}

func countHunkStats(stats *DiffStats, hunk DiffHunk) {
	for _, line := range hunk.Lines {
		switch line.Type {
		case DiffLineAdd:
			stats.Additions++
		case DiffLineDelete:
			stats.Deletions++
		}
	}
}
