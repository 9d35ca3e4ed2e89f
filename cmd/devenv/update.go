package devenv

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/devenv/internal/engine"
	"github.com/skaphos/devenv/internal/model"
	"github.com/skaphos/devenv/internal/strutil"
	"github.com/skaphos/devenv/internal/vcs"
)

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"update-repos"},
	Short:   "Clone or update every included repository",
	Long: "Clones included repositories that are missing from the workspace, and checks out " +
		"and rebase-pulls the ones already present. A failing repository never stops the others.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		debugf(cmd, "starting update")
		ws, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}

		only, _ := cmd.Flags().GetString("only")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		timeout, _ := cmd.Flags().GetInt("timeout")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		baseDir, _ := cmd.Flags().GetString("base-dir")
		propsPath, _ := cmd.Flags().GetString("properties")
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		wrap, _ := cmd.Flags().GetBool("wrap")
		if err := validateFormat(format); err != nil {
			return err
		}

		eng := engine.New(ws.cfg, ws.reg, vcs.NewGitAdapter(nil), engine.WithProgress(progressWriter(cmd)))
		plan, err := eng.Prepare(commandContext(cmd), engine.PrepareOptions{
			BaseDir:        ws.baseDir(baseDir),
			PropertiesPath: propsPath,
			Only:           strutil.SplitCSV(only),
		})
		if err != nil {
			return err
		}
		debugf(cmd, "root branch %s", plan.RootBranch)
		debugf(cmd, "properties %s (%d keys: %s)", plan.PropertiesPath, plan.Overrides.Len(), strings.Join(plan.Overrides.Keys(), ", "))
		if len(plan.Included()) == 0 {
			infof(cmd, "no repositories included (set <name>.include=true in %s)", plan.PropertiesPath)
			raiseExitCode(1)
		}

		report, err := eng.Execute(commandContext(cmd), plan, engine.ExecuteOptions{
			Concurrency:    concurrency,
			TimeoutSeconds: timeout,
			DryRun:         dryRun,
		})
		var syncErr *model.SyncError
		if err != nil && !errors.As(err, &syncErr) {
			return err
		}

		setColorOutputMode(cmd, format)
		if isTabularFormat(format) {
			branches := make(map[string]string, len(plan.Repos))
			for _, repo := range plan.Repos {
				branches[repo.Name] = repo.Branch
			}
			writeSyncTable(cmd, report, branches, wrap, noHeaders)
		} else if err := writeStructured(cmd.OutOrStdout(), format, report); err != nil {
			logOutputWriteFailure(cmd, "sync report", err)
		}

		if syncErr != nil {
			raiseExitCode(2)
			writeFailureSummary(cmd, report)
		}
		infof(cmd, "update completed: %d cloned, %d updated, %d planned, %d skipped, %d failed",
			report.Count(model.OutcomeCloned),
			report.Count(model.OutcomeUpdated),
			report.Count(model.OutcomePlanned),
			report.Count(model.OutcomeSkipped),
			len(report.Failed()))
		return nil
	},
}

func init() {
	addOnlyFlag(updateCmd)
	updateCmd.Flags().Int("concurrency", 0, "max concurrent repo operations (default: config, else min(8, NumCPU))")
	updateCmd.Flags().Int("timeout", 0, "timeout in seconds per repo (default: config, else 300)")
	updateCmd.Flags().Bool("dry-run", false, "print intended git commands without executing")
	updateCmd.Flags().String("base-dir", "", "workspace directory to sync into (default: config base_dir)")
	updateCmd.Flags().String("properties", "", "properties file path (default: <base-dir>/<properties_file>)")
	addFormatFlag(updateCmd)
	addNoHeadersFlag(updateCmd)
	updateCmd.Flags().Bool("wrap", false, "allow table columns to wrap instead of truncating")

	rootCmd.AddCommand(updateCmd)
}
