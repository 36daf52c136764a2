package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erwaitlist/waitlist/internal/domain/waitlist"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin credentials",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin or reset its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			username = strings.TrimSpace(username)
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			admins := waitlist.NewAdminRepoPG(pool, newLogger(os.Stderr, cfg.Env))
			if err := admins.Upsert(ctx, &waitlist.AdminCredential{Username: username, Password: password}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %q saved.\n", username)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Admin login name")
	createCmd.Flags().String("password", "", "Admin password")
	cmd.AddCommand(createCmd)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Check admin credentials against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			res, err := apiClient(cmd).Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (role %s).\n", username, res.Role)
			return nil
		},
	}
	loginCmd.Flags().String("username", "", "Admin login name")
	loginCmd.Flags().String("password", "", "Admin password")
	addServerFlags(loginCmd)
	cmd.AddCommand(loginCmd)

	return cmd
}
