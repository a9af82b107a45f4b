package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dxfaudit/internal/config"
	"dxfaudit/internal/prof"
	"dxfaudit/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "dxfaudit",
	Short:         "Audit DXF document snapshots for structural errors",
	Long:          `dxfaudit checks DXF documents for undefined table references, invalid names, colors and handles, and reports every finding without modifying the document`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a non-zero exit status that is not a failure of the
// command itself, e.g. diagnostics were found.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "only log errors")
	rootCmd.PersistentFlags().Bool("verbose", false, "log debug information")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("config", "", "path to "+config.FileName+" (default: search upwards)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write heap profile to file on exit")
}

// main runs the root command. Diagnostics found exit with status 2, any other
// failure with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the color mode; an explicit --color wins over the
// config file.
func useColor(cmd *cobra.Command, cfg config.Config, f *os.File) (bool, error) {
	mode := cfg.Report.Color
	if cmd.Flags().Changed("color") || mode == "" {
		flag, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return false, fmt.Errorf("failed to get color flag: %w", err)
		}
		mode = flag
	}
	parsed, err := config.ParseColorMode(mode)
	if err != nil {
		return false, err
	}
	switch parsed {
	case config.ColorOn:
		return true, nil
	case config.ColorOff:
		return false, nil
	}
	return isTerminal(f), nil
}

// newLogger builds the stderr logger honoring --quiet and --verbose.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// setupProfiling starts the profilers requested by --cpu-profile and
// --mem-profile.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	root := cmd.Root()
	cpuProfile, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	return prof.Start(cpuProfile, memProfile)
}

// loadConfig reads --config when given, otherwise the nearest dxfaudit.toml.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	return config.Discover(".")
}
