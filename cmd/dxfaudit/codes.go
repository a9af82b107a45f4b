package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dxfaudit/internal/diag"
	"dxfaudit/internal/diagfmt"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List diagnostic codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		switch strings.ToLower(format) {
		case "text":
			return printCodes(cmd.OutOrStdout())
		case "json":
			return diagfmt.EncodeJSON(cmd.OutOrStdout(), codeList())
		}
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	},
}

func init() {
	codesCmd.Flags().String("format", "text", "output format (text|json)")
}

type codeEntry struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Title string `json:"title"`
}

func codeList() []codeEntry {
	out := make([]codeEntry, 0, len(diag.Codes))
	for _, c := range diag.Codes {
		out = append(out, codeEntry{ID: c.ID(), Code: c.String(), Title: c.Title()})
	}
	return out
}

func printCodes(out io.Writer) error {
	for _, e := range codeList() {
		if _, err := fmt.Fprintf(out, "%s  %-34s %s\n", e.ID, e.Code, e.Title); err != nil {
			return err
		}
	}
	return nil
}
