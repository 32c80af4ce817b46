package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adalundhe/fragments/core/diff"
	"github.com/adalundhe/fragments/core/registry"
	"github.com/adalundhe/fragments/core/weave"
)

var diffUnified int

var diffCmd = &cobra.Command{
	Use:   "diff [file]...",
	Short: "Show uncommitted changes",
	Long: `Show differences between the committed and current content of followed
files, limited to the given files if any.`,
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().IntVarP(&diffUnified, "unified", "U", diff.DefaultContextLines, "Number of lines of context to show")
}

func runDiff(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	keys, err := reg.Select(args, nil)
	if err != nil {
		return err
	}

	ctxLines := contextLines(cmd, diffUnified)
	out := cmd.OutOrStdout()
	name := displayer(reg)

	for _, key := range keys {
		if !reg.Followed(key) {
			fmt.Fprintln(out, warningColor.Sprintf("Could not diff '%s', it is not being followed", name(key)))
			continue
		}

		lines, err := fileDiff(reg, key, ctxLines)
		if err != nil {
			return fmt.Errorf("%s: %w", name(key), err)
		}
		printDiff(out, lines)
	}
	return nil
}

// fileDiff renders the change from the committed to the current content of
// key. An added file diffs against nothing and a deleted one against empty.
func fileDiff(reg *registry.Registry, key string, ctxLines int) ([]string, error) {
	status, err := reg.Status(key)
	if err != nil {
		return nil, err
	}

	var committed, current []string
	switch status {
	case registry.StatusModified:
		if committed, err = reg.Committed(key); err != nil {
			return nil, err
		}
		current, err = reg.Current(key)
	case registry.StatusAdded:
		current, err = reg.Current(key)
	case registry.StatusDeleted:
		committed, err = reg.Committed(key)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	w := weave.New(weave.WithLogger(logger), weave.WithMatchDepth(cfg.Weave.MatchDepth))
	if err := w.AddRevision(1, committed, nil); err != nil {
		return nil, err
	}
	if err := w.AddRevision(2, current, nil); err != nil {
		return nil, err
	}
	result, err := w.Merge(1, 2)
	if err != nil {
		return nil, err
	}
	return diff.Full(result, key, ctxLines), nil
}
