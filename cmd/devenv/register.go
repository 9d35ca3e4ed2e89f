package devenv

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skaphos/devenv/internal/registry"
)

var registerCmd = &cobra.Command{
	Use:   "register NAME",
	Short: "Declare a repository in the workspace",
	Long: "Adds a repository declaration. Unset fields fall back to repo.properties " +
		"overrides and then to computed defaults: <repo_url_prefix>/<name>.git, the workspace branch, and <name>.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		var opts []registry.Option
		if cmd.Flags().Changed("include") {
			include, _ := cmd.Flags().GetBool("include")
			opts = append(opts, registry.WithInclude(include))
		}
		for flag, with := range map[string]func(string) registry.Option{
			"url":    registry.WithURL,
			"branch": registry.WithBranch,
			"dir":    registry.WithDir,
		} {
			if cmd.Flags().Changed(flag) {
				value, _ := cmd.Flags().GetString(flag)
				opts = append(opts, with(value))
			}
		}

		if force {
			err = ws.reg.Upsert(registry.NewSpec(args[0], opts...))
		} else {
			err = ws.reg.Register(args[0], opts...)
		}
		if err != nil {
			return err
		}
		if err := ws.save(); err != nil {
			return err
		}
		infof(cmd, "registered %s", args[0])
		return nil
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister NAME",
	Short: "Remove a repository declaration (the checkout is left on disk)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd)
		if err != nil {
			return err
		}
		if !ws.reg.Remove(args[0]) {
			return fmt.Errorf("repository %q is not registered", args[0])
		}
		if err := ws.save(); err != nil {
			return err
		}
		infof(cmd, "unregistered %s", args[0])
		return nil
	},
}

func init() {
	registerCmd.Flags().Bool("include", false, "declared inclusion default")
	registerCmd.Flags().String("url", "", "declared clone URL")
	registerCmd.Flags().String("branch", "", "declared branch")
	registerCmd.Flags().String("dir", "", "declared checkout directory, relative to the base dir")
	registerCmd.Flags().Bool("force", false, "replace an existing declaration with the same name")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(unregisterCmd)
}
