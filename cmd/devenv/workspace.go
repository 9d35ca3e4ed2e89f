package devenv

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/devenv/internal/config"
	"github.com/skaphos/devenv/internal/registry"
)

// workspace is a loaded devenv.yaml plus the repositories it declares.
type workspace struct {
	path string
	cfg  *config.Config
	reg  *registry.Registry
}

func loadWorkspace(cmd *cobra.Command) (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfgPath, err := config.ResolveConfigPath(flagConfig, cwd)
	if err != nil {
		return nil, err
	}
	debugf(cmd, "using config %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	reg, err := config.LoadRegistry(cfgPath, cfg)
	if err != nil {
		return nil, err
	}
	return &workspace{path: cfgPath, cfg: cfg, reg: reg}, nil
}

func (w *workspace) baseDir(override string) string {
	if override != "" {
		return override
	}
	return config.EffectiveBaseDir(w.path, w.cfg)
}

func (w *workspace) save() error {
	return config.SaveRegistry(w.path, w.cfg, w.reg)
}
