package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/cottand/typeck/frontend/fixture"
	"github.com/cottand/typeck/frontend/ilerr"
	"github.com/cottand/typeck/frontend/typeck"
	"github.com/cottand/typeck/internal/log"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check fixture.yaml...",
	Short:        "Type check the body of each fixture",
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	logLevel  *int
	showTypes *bool
	colorMode *string
)

func init() {
	logLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "slog level of the checker's logs, -4 for debug")
	showTypes = CheckCmd.Flags().BoolP("types", "t", false, "print the type of every named binding")
	colorMode = CheckCmd.Flags().String("color", "auto", "colorize output: auto, always or never")
}

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
	okStyle      = color.New(color.FgGreen)
	faintStyle   = color.New(color.Faint)
)

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))
	switch *colorMode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto":
		color.NoColor = !colorTerminal(os.Stdout)
	default:
		return errors.Errorf("unknown --color %q", *colorMode)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		ok, err := checkFixture(out, path)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d fixtures failed", failed, len(args))
	}
	return nil
}

// checkFixture reports whether the fixture at path passed: its expect
// section matched or, without one, no errors were reported
func checkFixture(out io.Writer, path string) (bool, error) {
	fx, err := fixture.Load(path)
	if err != nil {
		return false, err
	}
	res, err := fx.Check()
	if err != nil {
		return false, errors.Wrapf(err, "checking %s", path)
	}

	for _, e := range res.Diagnostics.Errors() {
		style := errorStyle
		if ilerr.SeverityOf(e) == ilerr.SeverityWarning {
			style = warningStyle
		}
		_, _ = fmt.Fprintf(out, "%s:%s: %s %s\n", path, fixture.Position(e.Pos()), style.Sprint(ilerr.SeverityOf(e)), ilerr.FormatWithCode(e))
		for _, s := range ilerr.SuggestionsOf(e) {
			_, _ = fmt.Fprintf(out, "  %s %s\n", faintStyle.Sprint("help:"), s.Message)
		}
	}
	if *showTypes {
		printBindings(out, fx, res)
	}

	mismatches := fx.Verify(res)
	for _, m := range mismatches {
		_, _ = fmt.Fprintf(out, "%s: %s %s\n", path, errorStyle.Sprint("expect"), m)
	}
	passed := len(mismatches) == 0
	if fx.Expect == nil {
		passed = !res.Diagnostics.HasError()
	}
	status := okStyle.Sprint("ok")
	if !passed {
		status = errorStyle.Sprint("FAIL")
	}
	_, _ = fmt.Fprintf(out, "%s %s\n", status, path)
	return passed, nil
}

func printBindings(out io.Writer, fx *fixture.Fixture, res *typeck.Results) {
	names := make([]string, 0, len(fx.Bindings))
	for name := range fx.Bindings {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		ty, ok := res.NodeTypes[fx.Bindings[name].ID()]
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(out, "  %s: %s\n", name, ty)
	}
}

// colorTerminal reports whether f is a terminal and NO_COLOR is unset
func colorTerminal(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
