package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/screening-engine/internal/domain"
	"github.com/screening-engine/internal/service"
)

func newRulesCommand(opts *options) *cobra.Command {
	var (
		family string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the screening rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger()
			svc := service.NewScreeningService(logger, service.NewEngine(logger), nil, nil, nil, domain.EngineConfig{})

			var rules []service.RuleInfo
			for _, r := range svc.Rules() {
				if family == "" || strings.EqualFold(r.Family, family) {
					rules = append(rules, r)
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rules)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFAMILY\tRISK-GATED\tNAME")
			for _, r := range rules {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", r.ID, r.Family, r.RiskGated, r.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "only rules of this family")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
