package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dxfaudit/internal/snapshot"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a snapshot between YAML and msgpack",
	Long:  `Convert a snapshot between formats; the format of each side is chosen by its extension (.yaml, .yml, .dxfmp, .msgpack). The input is validated before writing.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	format, err := snapshot.FormatForPath(out)
	if err != nil {
		return err
	}
	s, err := snapshot.ReadFile(in)
	if err != nil {
		return err
	}
	if _, err := snapshot.Build(s); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := snapshot.Write(f, s, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
