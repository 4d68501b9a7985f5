package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ccidl/internal/driver"
)

var dumpTarget string

func init() {
	dumpCmd.Flags().StringVar(&dumpTarget, "to", "", "write the snapshot to this file instead of stdout")
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file.idl>",
	Short: "Write the resolved unit as a msgpack snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		res, err := driver.Dump(args[0], &buf, s.options())
		if err := s.report(res, err); err != nil {
			return err
		}

		if dumpTarget == "" {
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(dumpTarget, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		s.success(cmd, "wrote "+dumpTarget)
		return nil
	},
}
