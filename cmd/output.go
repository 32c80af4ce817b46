package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/adalundhe/fragments/core/apply"
	"github.com/adalundhe/fragments/core/config"
	"github.com/adalundhe/fragments/core/registry"
)

var (
	fileHeaderColor = color.New(color.Bold)
	hunkHeaderColor = color.New(color.FgMagenta)
	deletionColor   = color.New(color.FgRed)
	additionColor   = color.New(color.FgGreen)
	promptColor     = color.New(color.FgYellow, color.Bold)
	warningColor    = color.New(color.FgYellow)
	errorColor      = color.New(color.FgRed, color.Bold)
)

func configureColor(mode string, disabled bool, out io.Writer) {
	switch {
	case disabled || mode == config.ColorNever:
		color.NoColor = true
	case mode == config.ColorAlways:
		color.NoColor = false
	default:
		color.NoColor = !isTerminal(out)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func colorizeDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "diff "), strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
		return fileHeaderColor.Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return hunkHeaderColor.Sprint(line)
	case strings.HasPrefix(line, "+"):
		return additionColor.Sprint(line)
	case strings.HasPrefix(line, "-"):
		return deletionColor.Sprint(line)
	default:
		return line
	}
}

func printDiff(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, colorizeDiffLine(line))
	}
}

func colorizeStatus(status apply.Status, msg string) string {
	switch status {
	case apply.StatusClean:
		return additionColor.Sprint(msg)
	case apply.StatusSkipped:
		return warningColor.Sprint(msg)
	default:
		return errorColor.Sprint(msg)
	}
}

// displayer names keys relative to the working directory, the way they were
// most likely typed.
func displayer(reg *registry.Registry) func(string) string {
	cwd, err := os.Getwd()
	if err == nil {
		if resolved, evalErr := filepath.EvalSymlinks(cwd); evalErr == nil {
			cwd = resolved
		}
	}
	return func(key string) string {
		if err != nil {
			return key
		}
		rel, relErr := filepath.Rel(cwd, reg.Path(key))
		if relErr != nil {
			return key
		}
		return rel
	}
}
