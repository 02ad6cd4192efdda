package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/render"
)

type profileEntry struct {
	Name     string           `json:"name" yaml:"name"`
	Default  bool             `json:"default" yaml:"default"`
	Settings profile.Settings `json:"settings" yaml:"settings"`
}

func (a *app) newProfilesCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "profiles",
		Short: "List the detection profiles",
		Long: `List the registered detection profiles with their settings. The profile
selected by the configuration is marked as the default.

Examples:
  notepeel profiles
  notepeel profiles --format yaml`,
		Args: cobra.NoArgs,
		RunE: a.runProfiles,
	}
	c.Flags().StringP("format", "f", "text", "output format: text, json, yaml")
	return c
}

func (a *app) runProfiles(cmd *cobra.Command, _ []string) error {
	names := profile.Names()
	entries := make([]profileEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, profileEntry{
			Name:     name,
			Default:  name == a.cfg.Analyzer.Profile,
			Settings: profile.MustLookup(name).Settings(),
		})
	}

	out := cmd.OutOrStdout()
	switch format, _ := cmd.Flags().GetString("format"); format {
	case "text", "":
		for _, e := range entries {
			writeProfile(out, e)
		}
		return nil
	case "json":
		return render.WriteJSON(out, entries)
	case "yaml":
		return render.WriteYAML(out, entries)
	default:
		return fmt.Errorf("unsupported profiles format %q (expected text, json or yaml)", format)
	}
}

func writeProfile(w io.Writer, e profileEntry) {
	marker := ""
	if e.Default {
		marker = " (default)"
	}
	s := e.Settings
	_, _ = fmt.Fprintf(w, "%s%s\n", e.Name, marker)
	_, _ = fmt.Fprintf(w, "  bullet patterns:   %d\n", len(s.BulletPatterns))
	_, _ = fmt.Fprintf(w, "  table:             min %d columns, numeric ratio > %.2f, delimiters %q\n",
		s.MinTableColumns, s.TableNumericThreshold, s.TableDelimiters)
	_, _ = fmt.Fprintf(w, "  key-value:         key <= %d words, value >= %d words\n", s.MaxKeyWords, s.MinValueWords)
	_, _ = fmt.Fprintf(w, "  key prefixes:      %s\n", strings.Join(s.KeyPrefixes, ", "))
	_, _ = fmt.Fprintf(w, "  paragraph:         %d-%d words, >= %d chars\n",
		s.MinParagraphWords, s.MaxParagraphWords, s.MinParagraphChars)
}
