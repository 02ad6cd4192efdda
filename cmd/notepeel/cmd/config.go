package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/notepeel/internal/config"
	"github.com/MeKo-Tech/notepeel/internal/render"
)

func (a *app) newConfigCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration files",
		Long: `Inspect the resolved configuration or write a file holding every default.

Configuration is read from notepeel.yaml in the search paths, from
NOTEPEEL_* environment variables (a .env file in the working directory is
loaded first) and from command-line flags, in increasing precedence.`,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "yaml", "":
				return render.WriteYAML(cmd.OutOrStdout(), a.cfg)
			case "json":
				return render.WriteJSON(cmd.OutOrStdout(), a.cfg)
			default:
				return fmt.Errorf("unsupported config format %q (expected yaml or json)", format)
			}
		},
	}
	show.Flags().StringP("format", "f", "yaml", "output format: yaml, json")

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a configuration file with the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				filename = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(filename); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", filename)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", filename, err)
			}
			if err := config.GenerateDefaultConfigFile(filename); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", filename)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	paths := &cobra.Command{
		Use:   "paths",
		Short: "List the directories searched for notepeel.yaml",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, p := range config.GetConfigSearchPaths() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if used := a.loader.GetConfigFileUsed(); used != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nUsing %s\n", used)
			}
		},
	}

	c.AddCommand(show, initCmd, paths)
	return c
}
