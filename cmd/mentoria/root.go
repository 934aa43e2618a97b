package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RafaArmero1993/MentorIA/internal/api"
	"github.com/RafaArmero1993/MentorIA/internal/config"
	"github.com/RafaArmero1993/MentorIA/internal/home"
	"github.com/RafaArmero1993/MentorIA/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "mentoria",
	Short: "Study material generator with paginated, illustrated and narrated output",
	Long: `MentorIA turns a syllabus outline into a paginated study document and a
source PDF into an exercise sheet, using an LLM for the text, an image model
for the illustrations and a speech model for the narrations behind each QR code.

The document pipeline:
  - Estimates how many pages each section needs
  - Plans every page and the role it plays (unit start, continuation, ...)
  - Drafts each page's text in order
  - Picks a layout template per page and fills its components
  - Assembles a printable HTML document`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.mentoria/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "mentoria home directory (default: ~/.mentoria)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	// Set output format and logger before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		api.SetOutputFormat(outputFormat)
		logger, err := newLogger(logLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger logs to stderr so command output on stdout stays parseable.
func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// openHome resolves the home directory from --home.
func openHome() (*home.Dir, error) {
	return home.New(homeDir)
}

// loadConfig loads --config, falling back to the config file in the home
// directory and then to the default search path.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	return config.NewManager(path)
}
