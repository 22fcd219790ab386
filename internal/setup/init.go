// Package setup handles .ums project initialization: creating the
// directory tree the coordinator and watchers expect, and writing the
// default config.yaml.
package setup

import (
	"fmt"
	"os"
	"path/filepath"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vitruvius-tools/ums-hooks/internal/atomicio"
	"github.com/vitruvius-tools/ums-hooks/internal/model"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
	"github.com/vitruvius-tools/ums-hooks/templates"
)

// Run initializes the .ums/ directory structure inside repoDir.
// projectName overrides the auto-detected name (defaults to the
// repository directory's basename if empty).
func Run(repoDir, projectName string) error {
	absDir, err := filepath.Abs(repoDir)
	if err != nil {
		return fmt.Errorf("resolve repo dir: %w", err)
	}

	paths := trigger.NewPaths(absDir)
	base := paths.Root()

	if _, err := os.Stat(base); err == nil {
		return fmt.Errorf("%s already exists", base)
	}

	dirs := []string{
		paths.ResultsDir(),
		paths.MergeResultsDir(),
		paths.ChangelogsDir(),
		paths.MergesDir(),
		paths.LocksDir(),
		paths.LogsDir(),
		paths.QuarantineDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	cfg, err := generateConfig(absDir, projectName)
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}

	if err := atomicio.WriteYAML(paths.ConfigPath(), cfg); err != nil {
		return fmt.Errorf("write config.yaml: %w", err)
	}

	return nil
}

func generateConfig(repoDir, projectName string) (*model.Config, error) {
	data, err := templates.DefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("read config template: %w", err)
	}

	cfg := model.DefaultConfig()
	if err := yamlv3.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config template: %w", err)
	}

	if projectName != "" {
		cfg.Project.Name = projectName
	} else {
		cfg.Project.Name = filepath.Base(repoDir)
	}
	cfg.Project.Root = repoDir

	return &cfg, nil
}
