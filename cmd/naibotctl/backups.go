// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/self-exiler/NaiBotAssistant/core/document"
)

func newBackupsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List, prune and restore rotated backups",
	}

	cmd.AddCommand(
		newBackupsListCommand(opts),
		newBackupsPruneCommand(opts),
		newBackupsRestoreCommand(opts),
	)

	return cmd
}

func newBackupsListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := document.New(document.Options{
				Path:      opts.cfg.Store.DataFile,
				BackupDir: opts.cfg.Store.BackupDir,
			})

			backups, err := doc.Backups()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Name, b.Size, b.Created.Local().Format(time.DateTime))
			}

			return tw.Flush()
		},
	}
}

func newBackupsPruneCommand(opts *rootOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("keep") {
				keep = opts.cfg.Store.MaxBackups
			}

			doc := document.New(document.Options{
				Path:      opts.cfg.Store.DataFile,
				BackupDir: opts.cfg.Store.BackupDir,
			})

			removed, err := doc.Prune(keep)
			for _, name := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), "removed", name)
			}

			return err
		},
	}

	cmd.Flags().IntVarP(&keep, "keep", "k", 0, "backups to keep, defaults to Store.MaxBackups")

	return cmd
}

func newBackupsRestoreCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Replace the glossary with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			stats, err := stack.Service.Restore(cmd.Context(), stack.Document, args[0])
			if err != nil && !errors.Is(err, document.ErrBackup) {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "restored %s: %d categories, %d terms\n", args[0], stats.Categories, stats.Terms)

			return nil
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the document and backup directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := document.New(document.Options{
				Path:      opts.cfg.Store.DataFile,
				BackupDir: opts.cfg.Store.BackupDir,
			})

			st, err := doc.Status()
			if err != nil {
				return err
			}

			lastWrite, lastBackup := "never", "never"
			if st.Modified != nil {
				lastWrite = st.Modified.Local().Format(time.DateTime)
			}

			if st.LastBackup != nil {
				lastBackup = st.LastBackup.Local().Format(time.DateTime)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "document\t%s\n", st.Path)
			fmt.Fprintf(tw, "size\t%d\n", st.Size)
			fmt.Fprintf(tw, "last write\t%s\n", lastWrite)
			fmt.Fprintf(tw, "backups\t%d in %s\n", st.Backups, st.BackupDir)
			fmt.Fprintf(tw, "last backup\t%s\n", lastBackup)

			return tw.Flush()
		},
	}
}
