package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keycast/internal/config"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage the configuration file",
	}
	cmd.AddCommand(
		newConfigPathCmd(opts),
		newConfigShowCmd(opts),
		newConfigInitCmd(opts),
		newConfigValidateCmd(opts),
		newConfigSchemaCmd(),
	)
	return cmd
}

func newConfigPathCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), opts.path())
			return err
		},
	}
}

func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `show prints the configuration after defaults, the file, environment
overrides and flags have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format (toml, json, yaml)")
	return cmd
}

func newConfigInitCmd(opts *globalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.path()
			if force {
				if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
					return err
				}
			} else {
				_, created, err := config.LoadOrCreate(path)
				if err != nil {
					return err
				}
				if !created {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file against the schema and value rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			path := opts.path()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				_, err := fmt.Fprintf(out, "%s does not exist; defaults apply\n", path)
				return err
			}
			if err := config.ValidateFile(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			for _, w := range config.ValidateConfigAll(cfg).Warnings() {
				fmt.Fprintf(out, "warning: %s\n", w.Error())
			}
			_, err = fmt.Fprintf(out, "%s is valid\n", path)
			return err
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for config files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(config.Schema())
			return err
		},
	}
}
