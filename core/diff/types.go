package diff

type FileDiff struct {
	Key   string
	Hunks []DiffHunk
	Stats DiffStats
}

// DiffHunk is a run of merge entries shown together. Entries and Conflicts
// hold indices into the merge result the hunk was split from.
type DiffHunk struct {
	OldStart  int
	OldCount  int
	NewStart  int
	NewCount  int
	Lines     []DiffLine
	Entries   []int
	Conflicts []int
}

type DiffLine struct {
	Type    DiffLineType
	Content string
	OldLine int
	NewLine int
}

type DiffLineType int

const (
	DiffLineContext DiffLineType = iota
	DiffLineAdd
	DiffLineDelete
	DiffLineNoNewline
)

var diffLineTypeNames = map[DiffLineType]string{
	DiffLineContext:   "context",
	DiffLineAdd:       "add",
	DiffLineDelete:    "delete",
	DiffLineNoNewline: "no-newline",
}

func (t DiffLineType) String() string {
	if name, ok := diffLineTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

type DiffStats struct {
	Additions int
	Deletions int
	Changes   int
}

// Position is the 0-based line offset of a merge entry in the old and new
// sides.
type Position struct {
	Old int
	New int
}

const NoNewlineMarker = `\ No newline at end of file`
