// Package logging configures the leveled pterm logger used by the compiler
// pipeline and the status styles printed by the CLI.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

var (
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightGreen
)

var levels = map[string]pterm.LogLevel{
	"trace":  pterm.LogLevelTrace,
	"debug":  pterm.LogLevelDebug,
	"info":   pterm.LogLevelInfo,
	"warn":   pterm.LogLevelWarn,
	"error":  pterm.LogLevelError,
	"silent": pterm.LogLevelDisabled,
}

// LevelNames lists the accepted level names, most verbose first.
var LevelNames = []string{"trace", "debug", "info", "warn", "error", "silent"}

func ParseLevel(name string) (pterm.LogLevel, error) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return pterm.LogLevelDisabled, fmt.Errorf("unknown log level %q (want one of %s)", name, strings.Join(LevelNames, "|"))
	}
	return level, nil
}

// New returns a logger writing to w at the named level.
func New(w io.Writer, level string) (*pterm.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if lvl == pterm.LogLevelDisabled {
		w = io.Discard
	}
	return pterm.DefaultLogger.WithLevel(lvl).WithWriter(w).WithTime(false), nil
}

// Discard drops every record.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}

// SetColor switches pterm styling on or off for the whole process.
func SetColor(enabled bool) {
	if enabled {
		pterm.EnableColor()
	} else {
		pterm.DisableColor()
	}
}

// PrintSuccess prints a tagged closing line, e.g. "[ok] wrote crosscom_gen.go".
func PrintSuccess(w io.Writer, tag, msg string) {
	fmt.Fprintln(w, SuccessStyleBG.Sprint(tag)+" "+InfoColorFG.Sprint(msg))
}

// PrintFailure is PrintSuccess for a failed run.
func PrintFailure(w io.Writer, tag, msg string) {
	fmt.Fprintln(w, ErrorStyleBG.Sprint(tag)+" "+msg)
}
