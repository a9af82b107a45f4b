package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dxfaudit/internal/config"
	"dxfaudit/internal/diag"
	"dxfaudit/internal/diagfmt"
	"dxfaudit/internal/driver"
	"dxfaudit/internal/version"
)

const (
	exitIssues = 2
	exitFailed = 1
)

var auditCmd = &cobra.Command{
	Use:   "audit [flags] <file|dir|glob>...",
	Short: "Audit document snapshots",
	Long: `Audit one or more document snapshots (.yaml, .yml, .dxfmp) and report every finding.
Directories are searched recursively; globs support ** for any number of directories.

Exit status is 0 when all documents are clean, 2 when issues were found
and 1 when a document could not be loaded or audited.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().String("format", "text", "output format (text|short|json)")
	auditCmd.Flags().Bool("strict-zero", false, "report the null pointer \"0\" as a missing target")
	auditCmd.Flags().StringSlice("only", nil, "only report these codes (name or ID, repeatable)")
	auditCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	auditCmd.Flags().Int("width", 0, "truncate messages to this many columns (0=unlimited)")
	auditCmd.Flags().Int("max-diagnostics", 0, "maximum number of diagnostics per file in JSON output (0=all)")
	auditCmd.Flags().Bool("exit-zero", false, "exit with status 0 even when issues are found")
	auditCmd.Flags().Bool("cache", false, "reuse results of unchanged snapshots from the disk cache")
}

type auditSettings struct {
	format     diagfmt.Format
	strictZero bool
	only       []diag.Code
	jobs       int
	width      int
	max        int
	exitZero   bool
	cache      bool
	timings    bool
	color      bool
}

// resolveSettings merges dxfaudit.toml with flags; a flag set on the command
// line overrides the file.
func resolveSettings(cmd *cobra.Command, cfg config.Config) (auditSettings, error) {
	var s auditSettings
	flags := cmd.Flags()

	formatStr := cfg.Report.Format
	if flags.Changed("format") || formatStr == "" {
		v, err := flags.GetString("format")
		if err != nil {
			return s, fmt.Errorf("failed to get format flag: %w", err)
		}
		formatStr = v
	}
	format, err := diagfmt.ParseFormat(formatStr)
	if err != nil {
		return s, err
	}
	s.format = format

	s.strictZero = cfg.Audit.StrictZeroPointers
	if flags.Changed("strict-zero") {
		if s.strictZero, err = flags.GetBool("strict-zero"); err != nil {
			return s, fmt.Errorf("failed to get strict-zero flag: %w", err)
		}
	}

	onlyNames := cfg.Report.Only
	if flags.Changed("only") {
		if onlyNames, err = flags.GetStringSlice("only"); err != nil {
			return s, fmt.Errorf("failed to get only flag: %w", err)
		}
	}
	if s.only, err = config.ParseCodes(onlyNames); err != nil {
		return s, err
	}

	s.jobs = cfg.Audit.Jobs
	if flags.Changed("jobs") {
		if s.jobs, err = flags.GetInt("jobs"); err != nil {
			return s, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	s.width = cfg.Report.Width
	if flags.Changed("width") {
		if s.width, err = flags.GetInt("width"); err != nil {
			return s, fmt.Errorf("failed to get width flag: %w", err)
		}
	}
	s.cache = cfg.Audit.Cache
	if flags.Changed("cache") {
		if s.cache, err = flags.GetBool("cache"); err != nil {
			return s, fmt.Errorf("failed to get cache flag: %w", err)
		}
	}

	if s.max, err = flags.GetInt("max-diagnostics"); err != nil {
		return s, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if s.exitZero, err = flags.GetBool("exit-zero"); err != nil {
		return s, fmt.Errorf("failed to get exit-zero flag: %w", err)
	}
	if s.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.color, err = useColor(cmd, cfg, os.Stdout); err != nil {
		return s, err
	}
	return s, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		logger.Debug("loaded config", slog.String("path", cfg.Path))
	}
	settings, err := resolveSettings(cmd, cfg)
	if err != nil {
		return err
	}

	session, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Stop(); err != nil {
			logger.Warn("failed to write profile", slog.Any("error", err))
		}
	}()

	paths, err := driver.ExpandInputs(args)
	if err != nil {
		return err
	}
	logger.Debug("auditing", slog.Int("files", len(paths)), slog.Int("jobs", settings.jobs))

	var cache *driver.DiskCache
	if settings.cache {
		if cache, err = driver.OpenDiskCache("dxfaudit"); err != nil {
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
	}

	results, err := driver.AuditFiles(cmd.Context(), paths, driver.Options{
		Jobs:       settings.jobs,
		StrictZero: settings.strictZero,
		Timings:    settings.timings,
		Cache:      cache,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}
	for i := range results {
		results[i].Diagnostics = filterCodes(results[i].Diagnostics, settings.only)
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	if err := render(out, errOut, results, settings, runID); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if settings.timings {
		printTimings(errOut, results)
	}

	summary := driver.Summarize(results)
	switch {
	case summary.Failed > 0:
		return &exitError{code: exitFailed}
	case summary.Issues > 0 && !settings.exitZero:
		return &exitError{code: exitIssues}
	}
	return nil
}

// filterCodes keeps diagnostics whose code is in only; empty only keeps all.
func filterCodes(diags []diag.Diagnostic, only []diag.Code) []diag.Diagnostic {
	if len(only) == 0 {
		return diags
	}
	out := diags[:0:0]
	for _, d := range diags {
		if slices.Contains(only, d.Code) {
			out = append(out, d)
		}
	}
	return out
}

func render(out, errOut io.Writer, results []driver.Result, s auditSettings, runID string) error {
	if s.format == diagfmt.FormatJSON {
		return diagfmt.EncodeJSON(out, buildBatch(results, s, runID))
	}

	multi := len(results) > 1
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(errOut, "error: %v\n", r.Err)
			continue
		}
		switch s.format {
		case diagfmt.FormatShort:
			if err := diagfmt.Short(out, r.Path, r.Diagnostics); err != nil {
				return err
			}
		default:
			if multi {
				if _, err := fmt.Fprintf(out, "%s (%s)\n", r.Path, r.Version); err != nil {
					return err
				}
			}
			if err := diagfmt.Text(out, r.Diagnostics, diagfmt.TextOpts{Color: s.color, Width: s.width}); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildBatch(results []driver.Result, s auditSettings, runID string) diagfmt.BatchJSON {
	batch := diagfmt.BatchJSON{
		RunID:   runID,
		Tool:    "dxfaudit",
		Version: version.Plain(),
		Files:   make([]diagfmt.ReportJSON, 0, len(results)),
	}
	for _, r := range results {
		report := diagfmt.BuildReport(r.Diagnostics, diagfmt.JSONOpts{
			Source:  r.Path,
			Version: r.Version.String(),
			Max:     s.max,
			Timings: r.Timing,
		})
		if r.Err != nil {
			report.Error = r.Err.Error()
		}
		batch.Files = append(batch.Files, report)
	}
	summary := driver.Summarize(results)
	batch.Summary = diagfmt.SummaryJSON{Files: summary.Files, Failed: summary.Failed, Issues: summary.Issues}
	return batch
}

func printTimings(out io.Writer, results []driver.Result) {
	for _, r := range results {
		if r.Timing == nil {
			continue
		}
		fmt.Fprintf(out, "%s\n%s", r.Path, r.Timing.Summary())
	}
}
