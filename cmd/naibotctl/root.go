// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/bootstrap"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dataFile   string
	backupDir  string

	cfg config.ServerConfig
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "naibotctl",
		Short:         "Maintain a NaiBot glossary document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "./config.yaml", "path to a NaiBot configuration file in YAML format")
	flags.StringVar(&opts.dataFile, "data-file", "", "glossary document, overrides Store.DataFile")
	flags.StringVar(&opts.backupDir, "backup-dir", "", "backup directory, overrides Store.BackupDir")

	cmd.AddCommand(
		newCheckCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newAddCommand(opts),
		newDeleteCommand(opts),
		newBackupsCommand(opts),
		newStatusCommand(opts),
	)

	return cmd
}

func (opts *rootOptions) load(cmd *cobra.Command) error {
	path := opts.configPath
	if !cmd.Flags().Changed("config") {
		path = config.ResolvePath(path)
	}

	if err := opts.cfg.Load(path); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.dataFile != "" {
		opts.cfg.Store.DataFile = opts.dataFile
	}

	if opts.backupDir != "" {
		opts.cfg.Store.BackupDir = opts.backupDir
	}

	// Mirroring is a server concern.
	opts.cfg.Mirror.Enabled = false

	return nil
}

// open loads the glossary described by the configuration.
func (opts *rootOptions) open(cmd *cobra.Command) (*bootstrap.Stack, error) {
	return bootstrap.Open(cmd.Context(), &opts.cfg)
}
