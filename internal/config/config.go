// Package config holds the compiler settings: built-in defaults, an optional
// TOML file and command line overrides, applied in that order.
package config

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/BurntSushi/toml"
	goversion "github.com/hashicorp/go-version"

	"ccidl/internal/logging"
)

const DefaultFileName = "ccidl.toml"

type Config struct {
	// Package is the name of the generated Go package.
	Package string `toml:"package"`
	// PackagePath is its import path. Empty means interfaces of the unit are
	// referenced unqualified.
	PackagePath string `toml:"package_path"`
	// Runtime is the import path of the COM runtime package.
	Runtime  string `toml:"runtime"`
	Output   string `toml:"output"`
	LogLevel string `toml:"log_level"`
	Color    string `toml:"color"`
	// Requires optionally constrains the compiler version, e.g. ">= 0.4, < 1.0".
	Requires string `toml:"requires"`
}

func Default() Config {
	return Config{
		Package:  "comgen",
		Runtime:  "crosscom",
		Output:   "crosscom_gen.go",
		LogLevel: "info",
		Color:    "auto",
	}
}

// Load overlays the TOML file at path on the defaults. Unknown keys are
// rejected so typos do not silently fall back to a default.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate checks every field and, when Requires is set, that current
// satisfies it.
func (c Config) Validate(current string) error {
	if !token.IsIdentifier(c.Package) {
		return fmt.Errorf("package %q is not a valid Go identifier", c.Package)
	}
	if strings.TrimSpace(c.Runtime) == "" {
		return fmt.Errorf("runtime import path is empty")
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output file name is empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("color %q must be auto, on or off", c.Color)
	}
	return c.checkRequires(current)
}

func (c Config) checkRequires(current string) error {
	if strings.TrimSpace(c.Requires) == "" {
		return nil
	}
	constraints, err := goversion.NewConstraint(c.Requires)
	if err != nil {
		return fmt.Errorf("requires %q: %w", c.Requires, err)
	}
	v, err := goversion.NewVersion(current)
	if err != nil {
		return fmt.Errorf("compiler version %q: %w", current, err)
	}
	if !constraints.Check(v) {
		return fmt.Errorf("ccidl %s does not satisfy requires %q", v, c.Requires)
	}
	return nil
}
