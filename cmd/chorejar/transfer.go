package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorejar/internal/backup"
	"github.com/dukerupert/chorejar/internal/format"
	"github.com/dukerupert/chorejar/internal/model"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var output, passphrase string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all data to a JSON file, encrypted when a passphrase is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, closeStore, err := opts.openClient(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeStore()

			snapshot, err := data.ExportData(cmd.Context())
			if err != nil {
				return fmt.Errorf("export data: %w", err)
			}
			raw, err := backup.Encode(snapshot, passphrase)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(raw)
				return err
			}
			if output == "" {
				output = format.BackupFilename(time.Now())
				if passphrase != "" {
					output += ".enc"
				}
			}
			if err := os.WriteFile(output, raw, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d children, %d chores, %d payouts to %s\n",
				len(snapshot.Children), len(snapshot.Chores), len(snapshot.Payouts), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout)`)
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encrypt the export with this passphrase")

	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with the contents of an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			snapshot, err := backup.Decode(raw, passphrase)
			if err != nil {
				return err
			}
			if err := model.ValidateAppData(snapshot); err != nil {
				return err
			}

			data, closeStore, err := opts.openClient(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := data.ImportData(cmd.Context(), snapshot); err != nil {
				return fmt.Errorf("import data: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d children, %d chores, %d payouts\n",
				len(snapshot.Children), len(snapshot.Chores), len(snapshot.Payouts))
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase of an encrypted export")

	return cmd
}
