package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/icepack-dev/icepack/pkg/hooks"
)

// ErrInvalidHooks is returned when one or more hook files fail validation.
var ErrInvalidHooks = errors.New("invalid hook files")

// NewHooksCommand creates the hooks command group.
func NewHooksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Inspect and validate hook files",
	}

	cmd.AddCommand(newHooksValidateCommand())
	cmd.AddCommand(newHooksListCommand())

	return cmd
}

func newHooksValidateCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate every hook file in a directory against the hook schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}

			return runHooksValidate(os.Stdout, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

func runHooksValidate(out io.Writer, dir string) error {
	set, loadErrors, err := hooks.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("load hooks: %w", err)
	}

	for _, loadErr := range loadErrors {
		color.New(color.FgRed).Fprintf(out, "invalid: %s\n", filepath.Base(loadErr.Path))
		fmt.Fprintf(out, "  %v\n", loadErr.Err)
	}

	for _, name := range sortedModules(set) {
		color.New(color.FgGreen).Fprintf(out, "valid:   hook for %s\n", name)
	}

	fmt.Fprintf(out, "\n%d valid, %d invalid\n", len(set), len(loadErrors))

	if len(loadErrors) > 0 {
		return fmt.Errorf("%w: %d of %d failed", ErrInvalidHooks, len(loadErrors), len(set)+len(loadErrors))
	}

	return nil
}

func newHooksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dir>",
		Short: "List loaded hooks and their effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runHooksList(os.Stdout, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func runHooksList(out io.Writer, dir string) error {
	set, _, err := hooks.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("load hooks: %w", err)
	}

	for _, name := range sortedModules(set) {
		hook := set[name]

		fmt.Fprintf(out, "%s\n", name)

		for _, hidden := range hook.HiddenImports {
			fmt.Fprintf(out, "  + %s\n", hidden)
		}

		for _, excluded := range hook.ExcludedImports {
			fmt.Fprintf(out, "  - %s\n", excluded)
		}
	}

	return nil
}

func sortedModules(set hooks.Set) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
