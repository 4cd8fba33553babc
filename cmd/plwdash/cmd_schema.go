package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/plwdash/config"
	"github.com/spektr-org/plwdash/loader"
)

var configForce bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show how the sheet's columns map onto fields",
	Long: `Profiles every column of the sheet next to the field that claimed it.
Cells that will be coerced on load are counted per column. Exits non-zero
when a required column is missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := cfg.LoaderOptions()
		if err != nil {
			return err
		}
		f, err := os.Open(cfg.Data.Path)
		if err != nil {
			return fmt.Errorf("open data file: %w", err)
		}
		defer f.Close()

		raw, err := loader.ReadCSV(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", cfg.Data.Path, err)
		}
		profiles, _, perr := loader.Profile(raw, opts...)
		if profiles == nil {
			return perr
		}
		if err := newRenderer(cmd).Columns(profiles); err != nil {
			return err
		}
		return perr
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
