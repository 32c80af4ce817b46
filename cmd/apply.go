package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/fragments/core/apply"
	"github.com/adalundhe/fragments/core/diff"
	"github.com/adalundhe/fragments/core/registry"
	"github.com/adalundhe/fragments/core/selection"
)

var errInputClosed = errors.New("input closed before every change was decided")

var (
	applyUnified     int
	applyInteractive bool
	applyAutomatic   bool
	applyExclude     []string
)

var applyCmd = &cobra.Command{
	Use:   "apply <source> [target]...",
	Short: "Apply committed-to-current changes of one file to the others",
	Long: `Apply changes in SOURCE that were made since its last commit, where possible.
Limit application to the given TARGET files if any, otherwise every followed file.
Files that conflict in their entirety are skipped. Smaller conflicts are written
to the file as conflict sections.

In interactive mode, you can use the following commands:

    ` + strings.Join(selection.HelpLines, "\n    "),
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().IntVarP(&applyUnified, "unified", "U", diff.DefaultContextLines, "Number of lines of context to show")
	applyCmd.Flags().BoolVarP(&applyInteractive, "interactive", "i", false, "Interactively select changes to apply")
	applyCmd.Flags().BoolVarP(&applyAutomatic, "automatic", "a", false, "Automatically apply all changes")
	applyCmd.Flags().StringSliceVar(&applyExclude, "exclude", nil, "Skip targets matching a glob pattern")
	applyCmd.MarkFlagsMutuallyExclusive("interactive", "automatic")
}

func applyMode() selection.Mode {
	switch {
	case applyAutomatic:
		return selection.Automatic
	case applyInteractive:
		return selection.Interactive
	}
	mode, _ := selection.ParseMode(cfg.Apply.Mode)
	return mode
}

func runApply(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	name := displayer(reg)

	source, err := reg.Key(args[0])
	if err != nil {
		return err
	}
	if !reg.Followed(source) {
		return fmt.Errorf("could not apply changes in '%s': %w", args[0], registry.ErrNotFollowed)
	}
	current, err := reg.Current(source)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not apply changes in '%s', it no longer exists on disk", name(source))
	}
	if err != nil {
		return err
	}
	committed, err := reg.Committed(source)
	if err != nil {
		return fmt.Errorf("could not apply changes in '%s': %w", name(source), err)
	}

	session, err := apply.NewSession(source, committed, current, apply.Options{
		ContextLines:  contextLines(cmd, applyUnified),
		Mode:          applyMode(),
		MatchDepth:    cfg.Weave.MatchDepth,
		ViewCacheSize: cfg.Weave.ViewCacheSize,
		Logger:        logger,
		Display:       name,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := selectHunks(out, bufio.NewReader(cmd.InOrStdin()), session); err != nil {
		return err
	}

	exclude := append(append([]string(nil), cfg.Apply.Exclude...), applyExclude...)
	targets, err := reg.Select(args[1:], exclude)
	if err != nil {
		return err
	}

	report, err := session.Propagate(cmd.Context(), reg, targets)
	if err != nil {
		return err
	}
	printReport(out, report)
	return report.Err()
}

// selectHunks settles every hunk of the session, prompting for each one in
// interactive mode. A hunk is shown again whenever the cursor moves.
func selectHunks(out io.Writer, in *bufio.Reader, session *apply.Session) error {
	sel := session.Selector()
	if sel.Mode() == selection.Automatic {
		sel.AcceptAll()
		return nil
	}

	hunks := session.Hunks()
	show := true
	for !sel.Done() {
		if show {
			idx, _ := sel.Current()
			printDiff(out, hunks[idx].Render())
		}
		fmt.Fprint(out, promptColor.Sprint(selection.Prompt)+" ")

		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return errInputClosed
			}
			return err
		}

		outcome := sel.Decide(line)
		if outcome == selection.OutcomeHelp {
			for _, help := range selection.HelpLines {
				fmt.Fprintln(out, help)
			}
		}
		show = outcome == selection.OutcomeNext
	}
	return nil
}

func printReport(out io.Writer, report *apply.Report) {
	msgs := report.Messages()
	if report.NoChanges {
		for _, msg := range msgs {
			fmt.Fprintln(out, msg)
		}
		return
	}
	for i, msg := range msgs {
		fmt.Fprintln(out, colorizeStatus(report.Targets[i].Status, msg))
	}
}
