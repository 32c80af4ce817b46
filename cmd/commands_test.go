package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Helpers
// =============================================================================

func numbered(n int) string {
	words := []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen", "twenty"}
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString(words[i])
		b.WriteString("\n")
	}
	return b.String()
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, dir, input string, args ...string) (string, error) {
	t.Helper()
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// newRepo creates a repository holding the given files, all followed and
// committed.
func newRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	dir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	_, err = execute(t, dir, "", "init")
	require.NoError(t, err)

	var names []string
	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
		names = append(names, name)
	}
	if len(names) > 0 {
		_, err = execute(t, dir, "", append([]string{"follow"}, names...)...)
		require.NoError(t, err)
		_, err = execute(t, dir, "", "commit")
		require.NoError(t, err)
	}
	return dir
}

// =============================================================================
// Repository Command Tests
// =============================================================================

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Fragments configuration created in")
	assert.DirExists(t, filepath.Join(dir, "_fragments"))

	_, err = execute(t, dir, "", "init")
	assert.Error(t, err)
}

func TestFollowCommand(t *testing.T) {
	dir := newRepo(t, nil)
	writeFile(t, filepath.Join(dir, "a.txt"), "a\n")

	out, err := execute(t, dir, "", "follow", "a.txt", "a.txt", "missing.txt", filepath.Join(t.TempDir(), "x.txt"))
	require.NoError(t, err)
	assert.Contains(t, out, "'a.txt' is now being followed (SHA-256: '")
	assert.Contains(t, out, "'a.txt' is already being followed")
	assert.Contains(t, out, "Could not access 'missing.txt' to follow it")
	assert.Contains(t, out, "it is outside the repository")
}

func TestCommitAndRevertCommands(t *testing.T) {
	dir := newRepo(t, map[string]string{"a.txt": "one\ntwo\n"})
	path := filepath.Join(dir, "a.txt")

	out, err := execute(t, dir, "", "commit")
	require.NoError(t, err)
	assert.Contains(t, out, "Could not commit 'a.txt' because it has not been changed")

	writeFile(t, path, "one\n2\n")
	out, err = execute(t, dir, "", "revert", "a.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "'a.txt' reverted")
	assert.Equal(t, "one\ntwo\n", readFile(t, path))

	writeFile(t, path, "one\n2\n")
	out, err = execute(t, dir, "", "commit", "a.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "'a.txt' committed")

	writeFile(t, filepath.Join(dir, "b.txt"), "b\n")
	out, err = execute(t, dir, "", "commit", "b.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Could not commit 'b.txt' because it is not being followed")
}

func TestDiffCommand(t *testing.T) {
	dir := newRepo(t, map[string]string{"a.txt": numbered(5)})
	writeFile(t, filepath.Join(dir, "a.txt"), strings.Replace(numbered(5), "two\n", "2\n", 1))

	out, err := execute(t, dir, "", "diff")
	require.NoError(t, err)
	assert.Contains(t, out, "--- a.txt\n+++ a.txt\n@@ -1,5 +1,5 @@\n one\n-two\n+2\n three\n")

	out, err = execute(t, dir, "", "diff", "-U", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "@@ -2,1 +2,1 @@\n-two\n+2\n")
}

func TestDiffCommand_Unchanged(t *testing.T) {
	dir := newRepo(t, map[string]string{"a.txt": numbered(5)})

	out, err := execute(t, dir, "", "diff")
	require.NoError(t, err)
	assert.Empty(t, out)
}

// =============================================================================
// Apply Command Tests
// =============================================================================

func TestApplyCommand_Automatic(t *testing.T) {
	template := numbered(12)
	diverged := strings.Replace(template, "eleven\n", "ELEVEN\n", 1)
	dir := newRepo(t, map[string]string{"a.txt": template, "b.txt": diverged})

	writeFile(t, filepath.Join(dir, "a.txt"), strings.Replace(template, "two\n", "2\n", 1))

	out, err := execute(t, dir, "", "apply", "-a", "a.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Changes in 'a.txt' applied cleanly to 'b.txt'")
	assert.Equal(t, strings.Replace(diverged, "two\n", "2\n", 1), readFile(t, filepath.Join(dir, "b.txt")))
}

func TestApplyCommand_Interactive(t *testing.T) {
	template := numbered(20)
	edited := strings.NewReplacer("two\n", "2\n", "eighteen\n", "18\n").Replace(template)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "reject then accept",
			input:    "n\ny\n",
			expected: strings.Replace(template, "eighteen\n", "18\n", 1),
		},
		{
			name:     "skip ahead and back",
			input:    "j\nk\nyes\nno\n",
			expected: strings.Replace(template, "two\n", "2\n", 1),
		},
		{
			name:     "accept all",
			input:    "a\n",
			expected: edited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newRepo(t, map[string]string{"a.txt": template, "b.txt": template})
			writeFile(t, filepath.Join(dir, "a.txt"), edited)

			out, err := execute(t, dir, tt.input, "apply", "-U", "1", "a.txt", "b.txt")
			require.NoError(t, err)
			assert.Contains(t, out, "Apply this change? [ynadjk?]")
			assert.Contains(t, out, "@@ -1,3 +1,3 @@")
			assert.Equal(t, tt.expected, readFile(t, filepath.Join(dir, "b.txt")))
		})
	}
}

func TestApplyCommand_Help(t *testing.T) {
	template := numbered(5)
	dir := newRepo(t, map[string]string{"a.txt": template, "b.txt": template})
	writeFile(t, filepath.Join(dir, "a.txt"), strings.Replace(template, "two\n", "2\n", 1))

	out, err := execute(t, dir, "?\nd\n", "apply", "a.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "y - include this change")
	assert.Contains(t, out, "No changes in 'a.txt' to apply.")
	assert.Equal(t, template, readFile(t, filepath.Join(dir, "b.txt")))
}

func TestApplyCommand_InputClosed(t *testing.T) {
	template := numbered(5)
	dir := newRepo(t, map[string]string{"a.txt": template, "b.txt": template})
	writeFile(t, filepath.Join(dir, "a.txt"), strings.Replace(template, "two\n", "2\n", 1))

	_, err := execute(t, dir, "", "apply", "a.txt")
	assert.ErrorIs(t, err, errInputClosed)
	assert.Equal(t, template, readFile(t, filepath.Join(dir, "b.txt")))
}

func TestApplyCommand_Exclude(t *testing.T) {
	template := numbered(5)
	dir := newRepo(t, map[string]string{"a.txt": template, "b.txt": template, "c.css": template})
	writeFile(t, filepath.Join(dir, "a.txt"), strings.Replace(template, "two\n", "2\n", 1))

	out, err := execute(t, dir, "", "apply", "-a", "--exclude", "*.css", "a.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "applied cleanly to 'b.txt'")
	assert.NotContains(t, out, "c.css")
	assert.Equal(t, template, readFile(t, filepath.Join(dir, "c.css")))
}

func TestApplyCommand_Errors(t *testing.T) {
	dir := newRepo(t, map[string]string{"a.txt": numbered(3)})
	writeFile(t, filepath.Join(dir, "loose.txt"), "x\n")

	_, err := execute(t, dir, "", "apply", "loose.txt")
	assert.Error(t, err)

	_, err = execute(t, dir, "", "apply", "-a", "-i", "a.txt")
	assert.Error(t, err)
}

// =============================================================================
// Fork Command Tests
// =============================================================================

func TestForkCommand(t *testing.T) {
	dir := newRepo(t, map[string]string{
		"a.txt": "Line One\nLine Two\nLine Three\nLine Four\nLine Five\n",
		"b.txt": "Line One\nLine 2\nLine Three\nLine 4\nLine Five\n",
	})

	out, err := execute(t, dir, "", "fork", "a.txt", "b.txt", "missing.txt", "new.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipping 'missing.txt' while forking, it does not exist")
	assert.Contains(t, out, "Forked new file in 'new.txt', remember to follow and commit it")
	assert.Equal(t, "Line One\n\n\n\nLine Five\n", readFile(t, filepath.Join(dir, "new.txt")))

	_, err = execute(t, dir, "", "fork", "a.txt", "new.txt")
	assert.Error(t, err)
}

// =============================================================================
// Output Tests
// =============================================================================

func TestColorizeDiffLine(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	color.NoColor = true
	assert.Equal(t, "+added", colorizeDiffLine("+added"))

	color.NoColor = false
	assert.NotEqual(t, "+added", colorizeDiffLine("+added"))
	assert.Contains(t, colorizeDiffLine("@@ -1,1 +1,1 @@"), "@@ -1,1 +1,1 @@")
	assert.Equal(t, " context", colorizeDiffLine(" context"))
}

func TestConfigureColor(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	configureColor("always", false, &bytes.Buffer{})
	assert.False(t, color.NoColor)

	configureColor("auto", false, &bytes.Buffer{})
	assert.True(t, color.NoColor)

	configureColor("always", true, &bytes.Buffer{})
	assert.True(t, color.NoColor)
}
