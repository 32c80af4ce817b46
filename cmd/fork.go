package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adalundhe/fragments/core/diff"
	"github.com/adalundhe/fragments/core/fork"
	"github.com/adalundhe/fragments/core/registry"
)

var forkUnified int

var forkCmd = &cobra.Command{
	Use:   "fork <source>... <target>",
	Short: "Create a new file from the common parts of existing ones",
	Long: `Create a new file in TARGET based on one or more SOURCE files.
Large common sections are preserved; differing sections, and common sections
shorter than the context between differing sections, are replaced with one
blank line for each line or conflict.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runFork,
}

func init() {
	rootCmd.AddCommand(forkCmd)
	forkCmd.Flags().IntVarP(&forkUnified, "unified", "U", diff.DefaultContextLines, "Number of lines of context to use")
}

func runFork(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	name := displayer(reg)

	targetArg := args[len(args)-1]
	target, err := reg.Key(targetArg)
	if err != nil {
		return err
	}
	if reg.Followed(target) {
		return fmt.Errorf("could not fork into '%s', it is already followed", targetArg)
	}
	if fileExists(reg.Path(target)) {
		return fmt.Errorf("could not fork into '%s', the file already exists", targetArg)
	}

	keys, err := reg.Select(args[:len(args)-1], nil)
	if err != nil {
		return err
	}

	var sources [][]string
	for _, key := range keys {
		status, err := reg.Status(key)
		if err != nil {
			return err
		}
		lines, err := reg.Read(key)
		if status == registry.StatusDeleted || err != nil {
			fmt.Fprintln(out, warningColor.Sprintf("Skipping '%s' while forking, it does not exist", name(key)))
			continue
		}
		if status == registry.StatusUntracked {
			fmt.Fprintln(out, warningColor.Sprintf("Warning, '%s' not being followed", name(key)))
		}
		sources = append(sources, lines)
	}
	if len(sources) == 0 {
		return fmt.Errorf("could not fork: %w", fork.ErrNoSources)
	}

	lines, err := fork.New(contextLines(cmd, forkUnified), logger).Fork(sources)
	if err != nil {
		return err
	}
	if err := reg.Write(target, lines); err != nil {
		return err
	}

	fmt.Fprintf(out, "Forked new file in '%s', remember to follow and commit it\n", targetArg)
	return nil
}
