package devenv

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skaphos/devenv/internal/cliio"
	"github.com/skaphos/devenv/internal/engine"
	"github.com/skaphos/devenv/internal/model"
	"github.com/skaphos/devenv/internal/strutil"
	"github.com/skaphos/devenv/internal/termstyle"
	"github.com/skaphos/devenv/internal/vcs"
)

// listEntry is one resolved repo as shown by `devenv list`.
type listEntry struct {
	model.Repo `yaml:",inline"`
	Path       string          `json:"path" yaml:"path"`
	Present    bool            `json:"present" yaml:"present"`
	Worktree   *model.Worktree `json:"worktree,omitempty" yaml:"worktree,omitempty"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show resolved repositories without syncing",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		only, _ := cmd.Flags().GetString("only")
		baseDir, _ := cmd.Flags().GetString("base-dir")
		propsPath, _ := cmd.Flags().GetString("properties")
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		if err := validateFormat(format); err != nil {
			return err
		}

		adapter := vcs.NewGitAdapter(nil)
		eng := engine.New(ws.cfg, ws.reg, adapter)
		plan, err := eng.Prepare(commandContext(cmd), engine.PrepareOptions{
			BaseDir:        ws.baseDir(baseDir),
			PropertiesPath: propsPath,
			Only:           strutil.SplitCSV(only),
		})
		if err != nil {
			return err
		}

		entries := make([]listEntry, 0, len(plan.Repos))
		for _, repo := range plan.Repos {
			entry := listEntry{Repo: repo, Path: plan.TargetDir(repo)}
			if _, err := os.Stat(entry.Path); err == nil {
				entry.Present = true
				if adapter.IsCheckout(entry.Path) {
					wt, err := adapter.WorktreeStatus(commandContext(cmd), entry.Path)
					if err != nil {
						debugf(cmd, "%s: %v", repo.Name, err)
					}
					entry.Worktree = wt
				}
			}
			entries = append(entries, entry)
		}

		setColorOutputMode(cmd, format)
		if !isTabularFormat(format) {
			logOutputWriteFailure(cmd, "repo list", writeStructured(cmd.OutOrStdout(), format, entries))
			return nil
		}
		writeListTable(cmd, entries, plan.BaseDir, noHeaders)
		return nil
	},
}

func writeListTable(cmd *cobra.Command, entries []listEntry, baseDir string, noHeaders bool) {
	headers := []string{"NAME", "INCLUDE", "BRANCH", "DIR", "PRESENT", "DIRTY", "URL"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		include := colorize("no", "")
		if entry.Include {
			include = colorize("yes", termstyle.Healthy)
		}
		present := "no"
		if entry.Present {
			present = "yes"
		}
		dirty := ""
		if entry.Worktree != nil {
			dirty = colorize(strconv.FormatBool(entry.Worktree.Dirty), dirtyColor(entry.Worktree.Dirty))
		}
		rows = append(rows, []string{
			entry.Name,
			include,
			entry.Branch,
			displayPath(entry.Path, baseDir),
			present,
			dirty,
			entry.URL,
		})
	}
	err := cliio.WriteTable(cmd.OutOrStdout(), true, noHeaders, headers, rows)
	logOutputWriteFailure(cmd, "repo list", err)
}

func dirtyColor(dirty bool) string {
	if dirty {
		return termstyle.Warn
	}
	return termstyle.Healthy
}

func init() {
	addOnlyFlag(listCmd)
	listCmd.Flags().String("base-dir", "", "workspace directory (default: config base_dir)")
	listCmd.Flags().String("properties", "", "properties file path (default: <base-dir>/<properties_file>)")
	addFormatFlag(listCmd)
	addNoHeadersFlag(listCmd)

	rootCmd.AddCommand(listCmd)
}
