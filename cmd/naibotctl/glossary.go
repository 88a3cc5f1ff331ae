// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/self-exiler/NaiBotAssistant/core/collate"
	"github.com/self-exiler/NaiBotAssistant/core/document"
	"github.com/self-exiler/NaiBotAssistant/core/glossary"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

var errUnordered = errors.New("glossary is not in collation order")

// newCheckCommand decodes the document without touching it. A corrupt
// document is reported, not quarantined.
func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the glossary document decodes and is ordered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.cfg.Store.DataFile

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			store, err := glossary.Decode(f)
			if err != nil {
				return &document.CorruptError{Path: path, Err: err}
			}

			collator, err := collate.New(collate.Mode(opts.cfg.Collation.Mode), opts.cfg.Collation.Locale)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d categories, %d terms\n", path, len(store), store.TermCount())

			if !store.IsOrdered(collator) {
				return errUnordered
			}

			return nil
		},
	}
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		format   string
		category string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the glossary as JSON, YAML or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := terms.ParseFormat(format)
			if err != nil {
				return err
			}

			stack, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			var w io.Writer = cmd.OutOrStdout()

			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()

				w = file
			}

			return stack.Service.Export(w, f, category)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(terms.FormatJSON), "json, yaml or csv")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only export this category (csv only)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file")

	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := terms.ParseImportMode(mode)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			stack, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			result, err := stack.Service.ImportCSV(cmd.Context(), file, m, filepath.Base(args[0]))
			if err != nil && !errors.Is(err, document.ErrBackup) {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d, updated %d, skipped %d\n", result.Imported, result.Updated, result.Skipped)

			for _, rowErr := range result.Errors {
				fmt.Fprintln(out, rowErr)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(terms.ImportIncrement), "increment or replace")

	return cmd
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var entry terms.Entry

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a single term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stack, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			created, err := stack.Service.Upsert(cmd.Context(), entry)
			if err != nil && !errors.Is(err, document.ErrBackup) {
				return err
			}

			verb := "updated"
			if created {
				verb = "added"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", verb, entry.Category, entry.Name)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&entry.Category, "category", "c", "", "category key")
	flags.StringVarP(&entry.Name, "name", "n", "", "term name")
	flags.StringVarP(&entry.Translation, "translation", "t", "", "translation")
	flags.StringVar(&entry.Note, "note", "", "optional note")

	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "delete -c <category> <name>...",
		Short: "Delete terms from one category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selections := make([]terms.Selection, 0, len(args))
			for _, name := range args {
				selections = append(selections, terms.Selection{Category: category, Name: name})
			}

			stack, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			deleted, err := stack.Service.DeleteTerms(cmd.Context(), selections)
			if err != nil && !errors.Is(err, document.ErrBackup) {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d of %d\n", deleted, len(args))

			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category key")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}
