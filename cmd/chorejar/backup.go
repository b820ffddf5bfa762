package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorejar/internal/backup"
)

func newBackupCommand(opts *rootOptions) *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload an encrypted export to S3-compatible storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				passphrase = opts.cfg.BackupPassphrase
			}

			data, closeStore, err := opts.openClient(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeStore()

			m := backup.NewManager(opts.cfg.S3, data, opts.logger.With("component", "backup"), nil)
			key, err := m.RunNow(cmd.Context(), passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "uploaded", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encryption passphrase (defaults to CHOREJAR_BACKUP_PASSPHRASE)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := backup.NewManager(opts.cfg.S3, nil, opts.logger.With("component", "backup"), nil)
			objects, err := m.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
			for _, o := range objects {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	})

	return cmd
}
