package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erwaitlist/waitlist/internal/domain/waitlist"
	"github.com/erwaitlist/waitlist/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current waitlist to an xlsx spreadsheet",
		Long: "Reads the waitlist from the database, or from a running server when " +
			"--server is given, and writes one row per patient with the estimated wait.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			patients, err := loadWaitlist(cmd)
			if err != nil {
				return err
			}
			data, err := export.Workbook(patients)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d patient(s) to %s.\n", len(patients), out)
			return nil
		},
	}
	cmd.Flags().String("out", "waitlist.xlsx", "Output file")
	addServerFlags(cmd)
	return cmd
}

func loadWaitlist(cmd *cobra.Command) ([]*waitlist.Patient, error) {
	if cmd.Flags().Changed("server") {
		return apiClient(cmd).ListPatients(cmd.Context())
	}

	ctx := context.Background()
	cfg, pool, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	return waitlist.NewPatientRepoPG(pool, newLogger(os.Stderr, cfg.Env)).List(ctx)
}
