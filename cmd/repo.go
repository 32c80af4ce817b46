package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/adalundhe/fragments/core/registry"
)

// =============================================================================
// Repository Commands
// =============================================================================

var initCmd = &cobra.Command{
	Use:   "init [root]",
	Short: "Create a fragments repository",
	Long: `Create a _fragments/ directory in ROOT, or in the working directory when
ROOT is omitted. A repository whose index is missing or corrupt is repaired.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var followCmd = &cobra.Command{
	Use:   "follow <file>...",
	Short: "Start following changes to files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFollow,
}

var commitCmd = &cobra.Command{
	Use:   "commit [file]...",
	Short: "Record the current content of followed files",
	Long:  `Commit changes to the fragments repository, limited to the given files if any.`,
	RunE:  runCommit,
}

var revertCmd = &cobra.Command{
	Use:   "revert [file]...",
	Short: "Restore followed files to their committed content",
	Long:  `Revert changes to followed files, limited to the given files if any.`,
	RunE:  runRevert,
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(followCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(revertCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	reg, err := registry.Init(root, registry.WithLogger(logger))
	if errors.Is(err, registry.ErrAlreadyInitialized) {
		return fmt.Errorf("current fragments configuration found, aborting: %w", err)
	}
	if err != nil {
		return fmt.Errorf("could not create fragments directory in '%s': %w", root, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Fragments configuration created in '%s'\n", reg.Dirs().Index)
	return nil
}

func runFollow(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	for _, arg := range args {
		key, err := reg.Follow(arg)
		switch {
		case err == nil:
			fmt.Fprintf(out, "'%s' is now being followed (SHA-256: '%s')\n", arg, registry.ContentName(key))
		case errors.Is(err, registry.ErrOutsideRoot):
			fmt.Fprintln(out, warningColor.Sprintf("Could not follow '%s'; it is outside the repository", arg))
		case errors.Is(err, registry.ErrAlreadyFollowed):
			fmt.Fprintf(out, "'%s' is already being followed\n", arg)
		default:
			logger.Debug("follow failed", slog.String("path", arg), slog.Any("error", err))
			fmt.Fprintln(out, warningColor.Sprintf("Could not access '%s' to follow it", arg))
		}
	}
	return nil
}

func runCommit(cmd *cobra.Command, args []string) error {
	return eachFollowed(cmd, args, "commit", func(reg *registry.Registry, key string) (string, error) {
		name := displayer(reg)(key)
		err := reg.Commit(key)
		switch {
		case err == nil:
			return fmt.Sprintf("'%s' committed", name), nil
		case errors.Is(err, registry.ErrRemoved):
			return fmt.Sprintf("Could not commit '%s' because it has been removed, instead revert or forget it", name), nil
		case errors.Is(err, registry.ErrUnchanged):
			return fmt.Sprintf("Could not commit '%s' because it has not been changed", name), nil
		}
		return "", err
	})
}

func runRevert(cmd *cobra.Command, args []string) error {
	return eachFollowed(cmd, args, "revert", func(reg *registry.Registry, key string) (string, error) {
		name := displayer(reg)(key)
		err := reg.Revert(key)
		switch {
		case err == nil:
			return fmt.Sprintf("'%s' reverted", name), nil
		case errors.Is(err, registry.ErrNeverCommitted):
			return fmt.Sprintf("Could not revert '%s' because it has never been committed", name), nil
		case errors.Is(err, registry.ErrUnchanged):
			return fmt.Sprintf("Could not revert '%s' because it has not been changed", name), nil
		}
		return "", err
	})
}

// eachFollowed runs fn over the selected keys. Keys that are not followed
// get a message; unexpected errors are collected and returned together.
func eachFollowed(cmd *cobra.Command, args []string, verb string, fn func(*registry.Registry, string) (string, error)) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	keys, err := reg.Select(args, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	name := displayer(reg)
	var result *multierror.Error
	for _, key := range keys {
		if !reg.Followed(key) {
			fmt.Fprintln(out, warningColor.Sprintf("Could not %s '%s' because it is not being followed", verb, name(key)))
			continue
		}
		msg, err := fn(reg, key)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name(key), err))
			continue
		}
		fmt.Fprintln(out, msg)
	}
	return result.ErrorOrNil()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
