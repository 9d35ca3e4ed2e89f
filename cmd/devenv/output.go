package devenv

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/skaphos/devenv/internal/cliio"
	"github.com/skaphos/devenv/internal/model"
	"github.com/skaphos/devenv/internal/termstyle"
)

// logOutputWriteFailure records non-fatal output write/flush failures.
// CLI consumers frequently pipe to tools that close early (for example `head`),
// so we log and continue instead of treating these as command failures.
func logOutputWriteFailure(cmd *cobra.Command, context string, err error) {
	if err == nil {
		return
	}
	debugf(cmd, "ignored output write failure (%s): %v", context, err)
}

// writeStructured renders v as JSON or YAML.
func writeStructured(out io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func colorize(value, color string) string {
	return termstyle.Colorize(colorOutputEnabled, value, color)
}

func writeSyncTable(cmd *cobra.Command, report *model.SyncReport, branches map[string]string, wrap, noHeaders bool) {
	headers := []string{"NAME", "OUTCOME", "BRANCH", "DIR", "ACTION", "ERROR_CLASS", "ERROR"}
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{
			res.Name,
			colorize(string(res.Outcome), termstyle.ForOutcome(res.Outcome)),
			branches[res.Name],
			displayPath(res.Dir, report.BaseDir),
			describeActions(res.Actions),
			res.ErrorClass,
			formatCell(res.Error, wrap, 48),
		})
	}
	err := cliio.WriteTable(cmd.OutOrStdout(), true, noHeaders, headers, rows)
	logOutputWriteFailure(cmd, "sync table", err)
}

func writeFailureSummary(cmd *cobra.Command, report *model.SyncReport) {
	failed := report.Failed()
	if len(failed) == 0 {
		return
	}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Failed repositories:")
	rows := make([][]string, 0, len(failed))
	for _, res := range failed {
		rows = append(rows, []string{res.Name, string(res.Phase), res.ErrorClass, res.Error})
	}
	err := cliio.WriteTable(cmd.ErrOrStderr(), false, false, []string{"NAME", "PHASE", "ERROR_CLASS", "ERROR"}, rows)
	logOutputWriteFailure(cmd, "failure summary", err)
}

// describeActions collapses the git commands run for a repo into verbs,
// for example "checkout + pull".
func describeActions(actions []string) string {
	verbs := make([]string, 0, len(actions))
	for _, action := range actions {
		fields := strings.Fields(action)
		if len(fields) < 2 {
			continue
		}
		verbs = append(verbs, fields[1])
	}
	return strings.Join(verbs, " + ")
}

// displayPath shows dir relative to base when it lives underneath it.
func displayPath(dir, base string) string {
	if base == "" {
		return dir
	}
	rel, err := filepath.Rel(base, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return dir
	}
	return rel
}

func formatCell(value string, wrap bool, maxLen int) string {
	value = strings.Join(strings.Fields(value), " ")
	if wrap || maxLen <= 3 || len(value) <= maxLen {
		return value
	}
	return value[:maxLen-3] + "..."
}
