package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/fragments/core/weave"
)

const original = "Line One\nLine Two\nLine Three\nLine Four\nLine Five\n"

func lines(s string) []string {
	out := strings.SplitAfter(s, "\n")
	if out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func mergeOf(t *testing.T, old, new string) weave.Result {
	t.Helper()
	w := weave.New()
	require.NoError(t, w.AddRevision(1, lines(old), nil))
	require.NoError(t, w.AddRevision(2, lines(new), nil))
	result, err := w.Merge(1, 2)
	require.NoError(t, err)
	return result
}

func TestFull(t *testing.T) {
	t.Parallel()

	nine := "Line One\nLine Two\nLine Three\nLine Four\nLine Five\nLine Six\nLine Seven\nLine Eight\nLine Nine\n"

	tests := []struct {
		name     string
		old, new string
		expected []string
	}{
		{
			name: "replacement in the middle",
			old:  original,
			new:  strings.Replace(original, "Line Three", "Line 2.6666\nLine Three and One Third", 1),
			expected: []string{
				"@@ -1,5 +1,6 @@",
				" Line One",
				" Line Two",
				"-Line Three",
				"+Line 2.6666",
				"+Line Three and One Third",
				" Line Four",
				" Line Five",
			},
		},
		{
			name: "two nearby sections share a hunk",
			old:  original,
			new:  strings.NewReplacer("Line One", "Line 0.999999", "Line Five", "Line 4.999999").Replace(original),
			expected: []string{
				"@@ -1,5 +1,5 @@",
				"-Line One",
				"+Line 0.999999",
				" Line Two",
				" Line Three",
				" Line Four",
				"-Line Five",
				"+Line 4.999999",
			},
		},
		{
			name: "two distant sections",
			old:  nine,
			new:  strings.NewReplacer("Line One", "Line 0.999999", "Line Nine", "Line 8.999999").Replace(nine),
			expected: []string{
				"@@ -1,4 +1,4 @@",
				"-Line One",
				"+Line 0.999999",
				" Line Two",
				" Line Three",
				" Line Four",
				"@@ -6,4 +6,4 @@",
				" Line Six",
				" Line Seven",
				" Line Eight",
				"-Line Nine",
				"+Line 8.999999",
			},
		},
		{
			name: "new file",
			old:  "",
			new:  original,
			expected: []string{
				"@@ -0,0 +1,5 @@",
				"+Line One",
				"+Line Two",
				"+Line Three",
				"+Line Four",
				"+Line Five",
			},
		},
		{
			name: "removed file",
			old:  original,
			new:  "",
			expected: []string{
				"@@ -1,5 +0,0 @@",
				"-Line One",
				"-Line Two",
				"-Line Three",
				"-Line Four",
				"-Line Five",
			},
		},
		{
			name: "trailing newline added",
			old:  original[:len(original)-1],
			new:  original,
			expected: []string{
				"@@ -2,4 +2,4 @@",
				" Line Two",
				" Line Three",
				" Line Four",
				"-Line Five",
				NoNewlineMarker,
				"+Line Five",
			},
		},
		{
			name: "trailing newline removed",
			old:  original,
			new:  original[:len(original)-1],
			expected: []string{
				"@@ -2,4 +2,4 @@",
				" Line Two",
				" Line Three",
				" Line Four",
				"-Line Five",
				"+Line Five",
				NoNewlineMarker,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Full(mergeOf(t, tt.old, tt.new), "file1.ext", DefaultContextLines)
			expected := append([]string{
				"diff a/file1.ext b/file1.ext",
				"--- file1.ext",
				"+++ file1.ext",
			}, tt.expected...)
			assert.Equal(t, expected, got)
		})
	}
}

func TestFull_Unchanged(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Full(mergeOf(t, original, original), "file1.ext", DefaultContextLines))
}

func TestSplit_HunkBookkeeping(t *testing.T) {
	t.Parallel()

	result := weave.Result{
		weave.LineEntry("a\n"),
		weave.ConflictEntry([]string{"b\n"}, []string{"B\n", "B2\n"}),
		weave.LineEntry("c\n"),
		weave.LineEntry("d\n"),
		weave.LineEntry("e\n"),
		weave.ConflictEntry(nil, []string{"f\n"}),
	}

	hunks := Split(result, 1)
	require.Len(t, hunks, 2)

	assert.Equal(t, []int{0, 1, 2}, hunks[0].Entries)
	assert.Equal(t, []int{1}, hunks[0].Conflicts)
	assert.Equal(t, "@@ -1,3 +1,4 @@", hunks[0].Header())

	assert.Equal(t, []int{4, 5}, hunks[1].Entries)
	assert.Equal(t, []int{5}, hunks[1].Conflicts)
	assert.Equal(t, "@@ -5,1 +6,2 @@", hunks[1].Header())

	added := hunks[0].Lines[2]
	assert.Equal(t, DiffLineAdd, added.Type)
	assert.Equal(t, 2, added.NewLine)
}

func TestSplit_ZeroContext(t *testing.T) {
	t.Parallel()

	result := weave.Result{
		weave.LineEntry("a\n"),
		weave.ConflictEntry([]string{"b\n"}, []string{"c\n"}),
		weave.ConflictEntry([]string{"d\n"}, nil),
		weave.LineEntry("e\n"),
	}

	hunks := Split(result, 0)
	require.Len(t, hunks, 1)
	assert.Equal(t, []string{"@@ -2,2 +2,1 @@", "-b", "+c", "-d"}, hunks[0].Render())
}

func TestPositions(t *testing.T) {
	t.Parallel()

	result := weave.Result{
		weave.LineEntry("a"),
		weave.ConflictEntry([]string{"b", "c"}, []string{"x"}),
		weave.LineEntry("d"),
	}

	assert.Equal(t, []Position{{0, 0}, {1, 1}, {3, 2}}, Positions(result))
}

func TestCompute_Stats(t *testing.T) {
	t.Parallel()

	d := Compute(mergeOf(t, original, strings.Replace(original, "Line Three", "Line 2.6666\nLine Three and One Third", 1)), "f", 3)

	if d.Stats.Additions != 2 {
		t.Errorf("Expected 2 additions, got %d", d.Stats.Additions)
	}
	if d.Stats.Deletions != 1 {
		t.Errorf("Expected 1 deletion, got %d", d.Stats.Deletions)
	}
	if d.Stats.Changes != 3 {
		t.Errorf("Expected 3 changes, got %d", d.Stats.Changes)
	}
}

func TestDiffLineType_String(t *testing.T) {
	t.Parallel()

	if DiffLineNoNewline.String() != "no-newline" {
		t.Errorf("unexpected name %q", DiffLineNoNewline.String())
	}
	if DiffLineType(42).String() != "unknown" {
		t.Errorf("unexpected name %q", DiffLineType(42).String())
	}
}
