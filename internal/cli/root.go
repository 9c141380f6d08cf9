// Package cli implements the screening command line: one-off evaluations,
// the rule listing, checkup history maintenance and MCP client setup.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/screening-engine/internal/bootstrap"
	"github.com/screening-engine/internal/config"
)

type options struct {
	logLevel string
}

// NewRootCommand builds the screening command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "screening",
		Short:         "Preventive screening recommendations and PREVENT cardiovascular risk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newEvaluateCommand(opts),
		newRulesCommand(opts),
		newCheckupsCommand(opts),
		newSetupCommand(),
	)
	return root
}

func (o *options) logger() *logrus.Logger {
	return config.NewLogger(o.logLevel, "text", "stderr")
}

// openStack opens the standalone stack under SCREENING_DATA_DIR.
func (o *options) openStack(record bool) (*bootstrap.Stack, *config.LiteConfig, error) {
	cfg := config.LoadLiteConfig()
	stack, err := bootstrap.NewLiteStack(cfg, o.logger(), record)
	if err != nil {
		return nil, nil, err
	}
	return stack, cfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
