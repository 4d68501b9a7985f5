package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ccidl/internal/config"
	"ccidl/internal/diag"
	"ccidl/internal/driver"
	"ccidl/internal/logging"
	"ccidl/internal/source"
	"ccidl/internal/version"
)

type settings struct {
	cfg    config.Config
	color  bool
	logger *pterm.Logger
}

// loadSettings layers defaults, the config file and explicit flags, then sets
// up color and logging for the rest of the run.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(version.Version); err != nil {
		return nil, err
	}

	s := &settings{cfg: cfg, color: useColor(cfg.Color)}
	color.NoColor = !s.color
	logging.SetColor(s.color)
	s.logger, err = logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func readConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			path = config.DefaultFileName
		} else if !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("failed to stat %q: %w", config.DefaultFileName, err)
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := map[string]*string{
		"output":       &cfg.Output,
		"package":      &cfg.Package,
		"package-path": &cfg.PackagePath,
		"runtime":      &cfg.Runtime,
		"log-level":    &cfg.LogLevel,
		"color":        &cfg.Color,
	}
	for name, field := range overrides {
		if cmd.Flags().Changed(name) {
			*field, _ = cmd.Flags().GetString(name)
		}
	}
}

// useColor resolves auto against stderr, where diagnostics go.
func useColor(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stderr)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (s *settings) options() driver.Options {
	return driver.Options{Config: s.cfg, Logger: s.logger}
}

// report prints err against the input it refers to. The returned error only
// sets the exit status.
func (s *settings) report(res *driver.Result, err error) error {
	if err == nil {
		return nil
	}
	var file *source.File
	if res != nil {
		file = res.File
	}
	diag.Fprint(os.Stderr, err, file, diag.RenderOpts{Color: s.color})
	logging.PrintFailure(os.Stderr, " FAIL ", failureSummary(err))
	return errReported
}

// failureSummary names the stage that stopped the run.
func failureSummary(err error) string {
	switch code := diag.CodeOf(err); {
	case code.IsSyntax():
		return "parse failed"
	case code != diag.UnknownCode:
		return "compilation failed"
	default:
		return "failed"
	}
}

func (s *settings) success(cmd *cobra.Command, msg string) {
	logging.PrintSuccess(cmd.OutOrStdout(), " OK ", msg)
}
