package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icepack-dev/icepack/pkg/warn"
)

// ErrReportsDiffer is returned with --exit-code when the reports are not equal.
var ErrReportsDiffer = errors.New("reports differ")

// DiffCommand holds configuration for the diff command.
type DiffCommand struct {
	textDiff bool
	exitCode bool
	noColor  bool

	stdout io.Writer
}

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	return newDiffCommand(&DiffCommand{stdout: os.Stdout})
}

func newDiffCommand(dc *DiffCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old-report> <new-report>",
		Short: "Compare two trace reports",
		Long: `Diff compares two text trace reports and shows which unresolved modules
were added, removed, or changed between them. Use it to review the effect
of dependency upgrades, new hooks, or exclusion changes.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return dc.run(args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&dc.textDiff, "text", false, "show a character-level text diff instead of entry changes")
	cmd.Flags().BoolVar(&dc.exitCode, "exit-code", false, "exit with an error when the reports differ")
	cmd.Flags().BoolVar(&dc.noColor, "no-color", false, "disable colored output")

	return cmd
}

func (dc *DiffCommand) run(oldPath, newPath string) error {
	if dc.noColor {
		color.NoColor = true
	}

	oldText, oldReport, err := readReport(oldPath)
	if err != nil {
		return err
	}

	newText, newReport, err := readReport(newPath)
	if err != nil {
		return err
	}

	if dc.textDiff {
		fmt.Fprintln(dc.stdout, warn.TextDiff(oldText, newText))

		if dc.exitCode && oldText != newText {
			return ErrReportsDiffer
		}

		return nil
	}

	result := warn.Diff(oldReport, newReport)
	if result.Empty() {
		fmt.Fprintln(dc.stdout, "Reports are identical.")

		return nil
	}

	dc.printSection("Added", color.FgRed, "+", result.Added)
	dc.printSection("Removed", color.FgGreen, "-", result.Removed)
	dc.printSection("Changed", color.FgYellow, "~", result.Changed)

	if dc.exitCode {
		return ErrReportsDiffer
	}

	return nil
}

func (dc *DiffCommand) printSection(title string, attr color.Attribute, marker string, entries []warn.Entry) {
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(dc.stdout, "%s (%d):\n", title, len(entries))

	for _, entry := range entries {
		color.New(attr).Fprintf(dc.stdout, "%s %s\n", marker, entry.Line())
	}
}

func readReport(path string) (string, *warn.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read report %s: %w", path, err)
	}

	report, err := warn.ParseText(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("parse report %s: %w", path, err)
	}

	return string(data), report, nil
}
