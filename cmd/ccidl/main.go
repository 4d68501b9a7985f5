package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ccidl/internal/diag"
	"ccidl/internal/driver"
	"ccidl/internal/version"
)

// errReported marks a failure whose diagnostic was already printed.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:           "ccidl [flags] <file.idl>",
	Short:         "Compile COM-style IDL into Go bindings",
	Long:          "ccidl reads one IDL file and writes a single Go file with vtable layouts, safe wrappers and object wrappers for every interface and class it declares.",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		res, err := driver.Compile(args[0], s.options())
		return s.report(res, err)
	},
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "TOML config file (default ./ccidl.toml when present)")
	flags.StringP("output", "o", "", "generated file name")
	flags.String("package", "", "generated package name")
	flags.String("package-path", "", "import path of the generated package")
	flags.String("runtime", "", "import path of the COM runtime package")
	flags.String("log-level", "", "trace|debug|info|warn|error|silent")
	flags.String("color", "", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			diag.Fprint(os.Stderr, err, nil, diag.RenderOpts{Color: useColor("auto")})
		}
		os.Exit(1)
	}
}

var checkCmd = &cobra.Command{
	Use:   "check <file.idl>",
	Short: "Parse and resolve without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		res, err := driver.Check(args[0], s.options())
		if err := s.report(res, err); err != nil {
			return err
		}
		s.success(cmd, fmt.Sprintf("%s: %d interfaces, %d classes", args[0], len(res.Unit.Interfaces), len(res.Unit.Classes)))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the ccidl version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadSettings(cmd); err != nil {
			return err
		}
		line := "ccidl " + version.Pretty()
		if version.GitCommit != "" {
			line += " (" + version.GitCommit + ")"
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	},
}
