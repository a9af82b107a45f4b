package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dxfaudit/internal/version"
)

type versionInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var (
	versionFormat   string
	versionShowFull bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShowFull, "full", false, "include git commit and build date")
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show dxfaudit version",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := collectVersionInfo()
		switch strings.ToLower(versionFormat) {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout(), info, versionShowFull)
		case "pretty":
			return renderVersionPretty(cmd.OutOrStdout(), info, versionShowFull)
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
	},
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:   v,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
	}
}

func renderVersionPretty(out io.Writer, info versionInfo, full bool) error {
	if _, err := fmt.Fprintf(out, "dxfaudit %s\n", info.Version); err != nil {
		return err
	}
	if !full {
		return nil
	}
	_, err := fmt.Fprintf(out, "commit: %s\nbuilt:  %s\n", valueOrUnknown(info.GitCommit), valueOrUnknown(info.BuildDate))
	return err
}

func renderVersionJSON(out io.Writer, info versionInfo, full bool) error {
	payload := versionPayload{
		Tool:    "dxfaudit",
		Version: version.Plain(),
	}
	if full {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
