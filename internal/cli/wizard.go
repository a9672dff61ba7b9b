package cli

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// runReproducerWizard interactively prompts for the fields reproducerFlags
// normally takes from flags, for users who invoke a cascade subcommand with
// --interactive instead of passing --source et al. directly.
func runReproducerWizard(f *reproducerFlags) error {
	var flagsLine, expectExitCodeStr string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Reproducer source file").Value(&f.source),
			huh.NewSelect[string]().Title("Language").Options(
				huh.NewOption("C", "c"),
				huh.NewOption("C++", "c++"),
			).Value(&f.lang),
			huh.NewInput().Title("Compiler flags (space-separated, excluding -O<n>)").Value(&flagsLine),
			huh.NewInput().Title("Optimization level").Value(&f.optLevel),
			huh.NewInput().Title("Expected stdout (leave empty to judge by exit code)").Value(&f.expectStdout),
			huh.NewInput().Title("Expected exit code").Value(&expectExitCodeStr),
			huh.NewInput().Title("Known-bad compiler version (optional)").Value(&f.startVersion),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if flagsLine != "" {
		f.flags = strings.Fields(flagsLine)
	}
	if expectExitCodeStr != "" {
		code, err := strconv.Atoi(expectExitCodeStr)
		if err == nil {
			f.expectExitCode = code
		}
	}
	return nil
}
