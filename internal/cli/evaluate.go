package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/screening-engine/internal/domain"
	"github.com/screening-engine/internal/service"
)

type batchOutput struct {
	Index  int                         `json:"index"`
	Result *service.EvaluationResponse `json:"result,omitempty"`
	Error  string                      `json:"error,omitempty"`
}

func newEvaluateCommand(opts *options) *cobra.Command {
	var (
		format    string
		collapse  bool
		patientID string
		record    bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate [file]",
		Short: "Evaluate a patient profile read from a file or stdin",
		Long: `Evaluate a patient profile and print the risk assessment and the
screening recommendations. The input is a JSON object, or a JSON array of
objects for a batch. Reads stdin when no file or "-" is given.

Examples:
  screening evaluate patient.json
  screening evaluate --format text < patient.json
  echo '[{"age":50,"sex":"F"},{"age":67,"sex":"M"}]' | screening evaluate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "text" {
				return fmt.Errorf("unsupported format %q: use json or text", format)
			}

			data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			stack, _, err := opts.openStack(record)
			if err != nil {
				return err
			}
			defer stack.Close()

			reqOpts := service.RequestOptions{PatientID: patientID, CollapseByTitle: collapse}
			out := cmd.OutOrStdout()

			if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
				var patients []map[string]any
				if err := json.Unmarshal(data, &patients); err != nil {
					return fmt.Errorf("parsing input: %w", err)
				}
				items, err := stack.Service.EvaluateBatch(cmd.Context(), patients, reqOpts)
				if err != nil {
					return err
				}
				return writeBatch(out, items, format)
			}

			var patient map[string]any
			if err := json.Unmarshal(data, &patient); err != nil {
				return fmt.Errorf("parsing input: %w", err)
			}
			result, err := stack.Service.Evaluate(cmd.Context(), patient, reqOpts)
			if err != nil {
				return describe(err)
			}

			resp := service.ShapeResponse(result)
			if format == "text" {
				_, err := io.WriteString(out, service.FormatText(resp))
				return err
			}
			return writeJSON(out, resp)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json or text")
	cmd.Flags().BoolVar(&collapse, "collapse", false, "merge recommendations sharing a title")
	cmd.Flags().StringVar(&patientID, "patient-id", "", "patient identifier recorded with the checkup")
	cmd.Flags().BoolVar(&record, "record", true, "record the evaluation in the checkup history")
	return cmd
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

func writeBatch(out io.Writer, items []service.BatchItem, format string) error {
	results := make([]batchOutput, 0, len(items))
	for _, item := range items {
		entry := batchOutput{Index: item.Index}
		if item.Error != nil {
			entry.Error = describe(item.Error).Error()
		} else {
			entry.Result = service.ShapeResponse(item.Result)
		}
		results = append(results, entry)
	}

	if format == "json" {
		return writeJSON(out, results)
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "=== Patient %d ===\n", r.Index+1)
		if r.Error != "" {
			fmt.Fprintf(&b, "error: %s\n\n", r.Error)
			continue
		}
		b.WriteString(service.FormatText(r.Result))
		b.WriteString("\n")
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func describe(err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("invalid %s: %s", verr.Field, verr.Message)
	}
	return err
}
