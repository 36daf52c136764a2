package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/erwaitlist/waitlist/internal/client"
	"github.com/erwaitlist/waitlist/internal/domain/waitlist"
)

const defaultServer = "http://localhost:3000"

func addServerFlags(cmd *cobra.Command) {
	server := os.Getenv("WAITLIST_SERVER")
	if server == "" {
		server = defaultServer
	}
	cmd.Flags().String("server", server, "Base URL of the waitlist API (env WAITLIST_SERVER)")
	cmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")
	cmd.Flags().Int("retries", 2, "Retries for read requests")
}

func apiClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	retries, _ := cmd.Flags().GetInt("retries")
	return client.New(server, client.Options{Timeout: timeout, Retries: retries})
}

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Work with the waitlist of a running server",
	}

	// patient admit
	admitCmd := &cobra.Command{
		Use:   "admit",
		Short: "Admit a patient to the waitlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := waitlist.AdmissionRequest{}
			req.Name, _ = cmd.Flags().GetString("name")
			req.Gender, _ = cmd.Flags().GetString("gender")
			req.DateOfBirth, _ = cmd.Flags().GetString("dob")
			req.Contact, _ = cmd.Flags().GetString("contact")
			req.MedicalIssue, _ = cmd.Flags().GetString("issue")
			if cmd.Flags().Changed("priority") {
				req.PriorityLevel, _ = cmd.Flags().GetInt("priority")
			}

			p, err := apiClient(cmd).AdmitPatient(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admitted patient %d.\n", p.ID)
			return nil
		},
	}
	admitCmd.Flags().String("name", "", "Full name")
	admitCmd.Flags().String("gender", "", "Gender")
	admitCmd.Flags().String("dob", "", "Date of birth (YYYY-MM-DD)")
	admitCmd.Flags().String("contact", "", "Phone number or other contact")
	admitCmd.Flags().Int("priority", 0, "Triage priority level")
	admitCmd.Flags().String("issue", "", "Presenting medical issue")
	addServerFlags(admitCmd)
	cmd.AddCommand(admitCmd)

	// patient list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List waiting patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := apiClient(cmd).ListPatients(cmd.Context())
			if err != nil {
				return err
			}
			printPatients(cmd.OutOrStdout(), items)
			return nil
		},
	}
	addServerFlags(listCmd)
	cmd.AddCommand(listCmd)

	// patient assign
	assignCmd := &cobra.Command{
		Use:   "assign <patient-id>",
		Short: "Assign a doctor and a room to a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePatientID(args[0])
			if err != nil {
				return err
			}
			doctor, _ := cmd.Flags().GetString("doctor")
			room, _ := cmd.Flags().GetString("room")

			p, err := apiClient(cmd).AssignCareTeam(cmd.Context(), id, doctor, room)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Patient %d assigned to doctor %s in room %s.\n", p.ID, deref(p.DoctorID), deref(p.RoomID))
			return nil
		},
	}
	assignCmd.Flags().String("doctor", "", "Doctor identifier")
	assignCmd.Flags().String("room", "", "Room identifier")
	addServerFlags(assignCmd)
	cmd.AddCommand(assignCmd)

	// patient treat
	treatCmd := &cobra.Command{
		Use:   "treat <patient-id>",
		Short: "Mark a patient treated and remove them from the waitlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePatientID(args[0])
			if err != nil {
				return err
			}
			p, err := apiClient(cmd).MarkTreated(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Patient %d (%s) marked treated.\n", p.ID, p.Name)
			return nil
		},
	}
	addServerFlags(treatCmd)
	cmd.AddCommand(treatCmd)

	// patient wait-time
	waitCmd := &cobra.Command{
		Use:   "wait-time <patient-id>",
		Short: "Show a patient's estimated wait",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePatientID(args[0])
			if err != nil {
				return err
			}
			est, err := apiClient(cmd).WaitTime(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Estimated wait: %d minutes (priority level %d).\n", est.Minutes, est.PriorityLevel)
			return nil
		},
	}
	addServerFlags(waitCmd)
	cmd.AddCommand(waitCmd)

	return cmd
}

func parsePatientID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("patient id must be a positive integer, got %q", s)
	}
	return id, nil
}

func printPatients(out io.Writer, items []*waitlist.Patient) {
	fmt.Fprintf(out, "%-6s %-24s %-8s %-6s %-32s %-10s %s\n", "ID", "NAME", "PRIORITY", "WAIT", "ISSUE", "DOCTOR", "ROOM")
	for _, p := range items {
		fmt.Fprintf(out, "%-6d %-24s %-8d %-6d %-32s %-10s %s\n",
			p.ID, p.Name, p.PriorityLevel, waitlist.EstimateWaitMinutes(p.PriorityLevel),
			p.MedicalIssue, deref(p.DoctorID), deref(p.RoomID))
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
