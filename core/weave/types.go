package weave

import "strings"

type RevisionID int

// LineID identifies one logical line instance. The zero value marks the
// start or end of a file in an Edge.
type LineID int64

const NoLine LineID = 0

type Edge struct {
	From LineID
	To   LineID
}

type edgeState struct {
	edge  Edge
	state int
}

type entry struct {
	id   LineID
	rev  RevisionID
	text string
}

type EntryKind int

const (
	EntryLine EntryKind = iota
	EntryConflict
)

var entryKindNames = map[EntryKind]string{
	EntryLine:     "line",
	EntryConflict: "conflict",
}

func (k EntryKind) String() string {
	if name, ok := entryKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Entry is one element of a merge result: either a line both sides agree
// on, or a conflicting pair of runs.
type Entry struct {
	Kind EntryKind
	Line string
	Old  []string
	New  []string
}

func LineEntry(text string) Entry {
	return Entry{Kind: EntryLine, Line: text}
}

func ConflictEntry(old, new []string) Entry {
	if old == nil {
		old = []string{}
	}
	if new == nil {
		new = []string{}
	}
	return Entry{Kind: EntryConflict, Old: old, New: new}
}

func (e Entry) IsConflict() bool {
	return e.Kind == EntryConflict
}

func (e Entry) String() string {
	if !e.IsConflict() {
		return e.Line
	}
	return "(" + strings.Join(e.Old, ",") + " | " + strings.Join(e.New, ",") + ")"
}

type Result []Entry

func (r Result) HasConflicts() bool {
	for _, e := range r {
		if e.IsConflict() {
			return true
		}
	}
	return false
}

func (r Result) Conflicts() int {
	n := 0
	for _, e := range r {
		if e.IsConflict() {
			n++
		}
	}
	return n
}

// Lines flattens a result that has no conflicts. Conflicting entries
// contribute nothing.
func (r Result) Lines() []string {
	lines := make([]string, 0, len(r))
	for _, e := range r {
		if !e.IsConflict() {
			lines = append(lines, e.Line)
		}
	}
	return lines
}
