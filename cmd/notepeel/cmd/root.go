// Package cmd implements the notepeel command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/notepeel/internal/config"
	"github.com/MeKo-Tech/notepeel/internal/version"
)

// app is the state shared by one command tree: the configuration loader,
// the resolved configuration and the flag-to-key bindings of each command.
type app struct {
	cfgFile  string
	loader   *config.Loader
	cfg      *config.Config
	bindings map[*cobra.Command]map[string]string
}

// NewRootCommand builds a fresh command tree. Every tree owns its own viper
// instance, so trees built in one process do not see each other's flags.
func NewRootCommand() *cobra.Command {
	a := &app{
		loader:   config.NewLoader(),
		bindings: make(map[*cobra.Command]map[string]string),
	}

	rootCmd := &cobra.Command{
		Use:   "notepeel",
		Short: "Recover document structure from OCR text",
		Long: `notepeel turns the flat text an OCR engine produces into a structured
document: key-value pairs, bullet points, tables and paragraphs, optionally
refined with the page geometry of the OCR layout.

Input can be plain text, OCR JSON (including Google Vision responses) or PDFs
with a text layer. Detection rules come from a small set of profiles tuned for
different genres of notes.

Examples:
  notepeel analyze notes.txt
  notepeel analyze scan.json --profile meeting-notes --format markdown
  notepeel classify "Name: John Smith" "1. Buy milk"
  notepeel batch inbox/ --recursive --output-dir out/
  notepeel serve --port 8080`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "notepeel version "+version.String())
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/notepeel, /etc/notepeel)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.Bool("version", false, "print version information and exit")

	v := a.loader.GetViper()
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))

	rootCmd.AddCommand(
		a.newAnalyzeCommand(),
		a.newClassifyCommand(),
		a.newBatchCommand(),
		a.newProfilesCommand(),
		a.newConfigCommand(),
		a.newServeCommand(),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure. Cobra has
// already printed the error by then.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// bind makes flag of c feed the configuration key. Bindings are applied only
// for the command that runs, so several commands may feed the same key.
func (a *app) bind(c *cobra.Command, flag, key string) {
	if a.bindings[c] == nil {
		a.bindings[c] = make(map[string]string)
	}
	a.bindings[c][flag] = key
}

// setup loads the configuration for the running command and installs the
// default logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	v := a.loader.GetViper()
	for flag, key := range a.bindings[cmd] {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}

	cfg, err := a.loader.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg))
	if used := a.loader.GetConfigFileUsed(); used != "" {
		slog.Debug("Using config file", "file", used)
	}
	return nil
}

// newLogger builds the process logger: JSON unless log_format is text, at
// log_level unless verbose forces debug.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
