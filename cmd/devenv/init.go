// SPDX-License-Identifier: MIT
package devenv

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skaphos/devenv/internal/cliio"
	"github.com/skaphos/devenv/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap a devenv workspace configuration",
	Long:  "Creates devenv.yaml in the current directory by default, plus an empty repo.properties when none exists.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		urlPrefix, _ := cmd.Flags().GetString("url-prefix")
		baseDir, _ := cmd.Flags().GetString("base-dir")
		propertiesFile, _ := cmd.Flags().GetString("properties-file")
		registryPath, _ := cmd.Flags().GetString("registry-path")

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfgPath, err := config.InitConfigPath(flagConfig, cwd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfgPath); err == nil {
			ok, err := cliio.Confirm(cmd.ErrOrStderr(), cmd.InOrStdin(),
				fmt.Sprintf("Config already exists at %s. Overwrite? [y/N]: ", cfgPath), yes)
			if err != nil {
				return err
			}
			if !ok {
				infof(cmd, "init cancelled")
				return nil
			}
		}

		cfg := config.DefaultConfig()
		cfg.RepoURLPrefix = urlPrefix
		cfg.BaseDir = baseDir
		cfg.RegistryPath = registryPath
		if propertiesFile != "" {
			cfg.PropertiesFile = propertiesFile
		}
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		if urlPrefix == "" {
			infof(cmd, "warning: repo_url_prefix is empty; set it in %s before running update", cfgPath)
			raiseExitCode(1)
		}

		propsPath := config.PropertiesPath(config.EffectiveBaseDir(cfgPath, &cfg), &cfg)
		if _, err := os.Stat(propsPath); os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(propsPath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(propsPath, []byte("# <name>.include=true enables a repository\n"), 0o644); err != nil {
				return err
			}
			infof(cmd, "Created %s", propsPath)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", cfgPath); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	initCmd.Flags().String("url-prefix", "", "base URL for computed clone URLs, for example git@github.com:org")
	initCmd.Flags().String("base-dir", "", "directory repos are synced into, relative to the config (default: config dir)")
	initCmd.Flags().String("properties-file", "", "properties file name (default: repo.properties)")
	initCmd.Flags().String("registry-path", "", "store repository declarations in a separate file")
	initCmd.Flags().Bool("yes", false, "overwrite an existing config without prompting")

	rootCmd.AddCommand(initCmd)
}
