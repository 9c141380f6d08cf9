package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/screening-engine/internal/checkup"
)

func newCheckupsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkups",
		Short: "Inspect, export and import the local checkup history",
	}
	cmd.AddCommand(
		newCheckupsListCommand(opts),
		newCheckupsExportCommand(opts),
		newCheckupsImportCommand(opts),
	)
	return cmd
}

func newCheckupsListCommand(opts *options) *cobra.Command {
	var (
		patientID string
		limit     int
		offset    int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded checkups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, _, err := opts.openStack(false)
			if err != nil {
				return err
			}
			defer stack.Close()

			var checkups []*checkup.Checkup
			if patientID != "" {
				checkups, err = stack.Checkups.ListByPatient(cmd.Context(), patientID, limit)
			} else {
				checkups, err = stack.Checkups.List(cmd.Context(), limit, offset)
			}
			if err != nil {
				return fmt.Errorf("listing checkups: %w", err)
			}

			if asJSON {
				if checkups == nil {
					checkups = []*checkup.Checkup{}
				}
				return writeJSON(cmd.OutOrStdout(), checkups)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EVALUATED\tPATIENT\tAGE\tSEX\tRISK\tRECOMMENDATIONS\tHIGH")
			for _, c := range checkups {
				risk := "-"
				if c.RiskSuccess {
					risk = c.RiskCategory
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\t%d\n",
					c.EvaluatedAt.Local().Format("2006-01-02 15:04"), orDash(c.PatientID), c.Age, c.Sex,
					risk, c.RecommendationCount, c.HighPriorityCount)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&patientID, "patient-id", "", "only this patient's checkups")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum checkups to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "checkups to skip (ignored with --patient-id)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCheckupsExportCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the checkup history to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, cfg, err := opts.openStack(false)
			if err != nil {
				return err
			}
			defer stack.Close()

			if output == "" {
				output = filepath.Join(cfg.ExportDir(), fmt.Sprintf("checkups-%s.json", time.Now().UTC().Format("20060102-150405")))
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()

			if err := stack.Checkups.ExportJSON(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported checkups to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "export file (default: a timestamped file in the exports directory)")
	return cmd
}

func newCheckupsImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import checkups from a JSON export, skipping known evaluations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			stack, _, err := opts.openStack(false)
			if err != nil {
				return err
			}
			defer stack.Close()

			imported, skipped, err := stack.Checkups.ImportJSON(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d checkups (%d skipped)\n", imported, skipped)
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
