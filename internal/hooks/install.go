// Package hooks implements the hook installer (C2): writing executable
// git hook scripts from embedded templates into <repo>/.git/hooks, and
// verifying that a given hook is correctly installed.
package hooks

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
	"github.com/vitruvius-tools/ums-hooks/templates"
)

// HookName identifies one of the four git hook files this package
// installs.
type HookName string

const (
	HookPreCommit    HookName = "pre-commit"
	HookPostCheckout HookName = "post-checkout"
	HookPostCommit   HookName = "post-commit"
	HookPostMerge    HookName = "post-merge"
)

var allHooks = []HookName{HookPreCommit, HookPostCheckout, HookPostCommit, HookPostMerge}

// triggerFileFor names, for each hook, the trigger file its script writes
// — the substring isInstalled greps for.
func triggerFileFor(name HookName) string {
	paths := trigger.Paths{}
	switch name {
	case HookPreCommit:
		return filepath.Base(paths.TriggerPath(trigger.KindValidation))
	case HookPostCheckout:
		return filepath.Base(paths.TriggerPath(trigger.KindReload))
	case HookPostCommit:
		return filepath.Base(paths.TriggerPath(trigger.KindPostCommit))
	case HookPostMerge:
		return filepath.Base(paths.TriggerPath(trigger.KindMerge))
	default:
		return ""
	}
}

// kindArgFor names the "umshooks hook <kind>" argument each script execs
// into.
func kindArgFor(name HookName) string {
	switch name {
	case HookPreCommit:
		return "pre-commit"
	case HookPostCheckout:
		return "post-checkout"
	case HookPostCommit:
		return "post-commit"
	case HookPostMerge:
		return "post-merge"
	default:
		return string(name)
	}
}

func templateFileFor(name HookName) string {
	return string(name) + ".sh.tmpl"
}

// gitHooksDir returns <repoRoot>/.git/hooks.
func gitHooksDir(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", "hooks")
}

// Install writes the script for a single hook kind into repoRoot's
// .git/hooks directory. If a non-UMS hook already occupies that path, it
// is preserved as "<hook>.pre-ums.bak" rather than silently overwritten.
func Install(repoRoot string, name HookName) error {
	hooksDir := gitHooksDir(repoRoot)
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return fmt.Errorf("create hooks dir: %w", err)
	}

	dest := filepath.Join(hooksDir, string(name))

	if existing, err := os.ReadFile(dest); err == nil {
		if !strings.Contains(string(existing), triggerFileFor(name)) {
			if err := os.WriteFile(dest+".pre-ums.bak", existing, 0755); err != nil {
				return fmt.Errorf("preserve existing hook %s: %w", name, err)
			}
		}
	}

	tmplSrc, err := templates.HookTemplate(templateFileFor(name))
	if err != nil {
		return fmt.Errorf("load hook template %s: %w", name, err)
	}

	tmpl, err := template.New(string(name)).Parse(string(tmplSrc))
	if err != nil {
		return fmt.Errorf("parse hook template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"TriggerFile": triggerFileFor(name),
		"Kind":        kindArgFor(name),
	}); err != nil {
		return fmt.Errorf("render hook template %s: %w", name, err)
	}

	if err := os.WriteFile(dest, buf.Bytes(), 0755); err != nil {
		return fmt.Errorf("write hook %s: %w", name, err)
	}
	return nil
}

// InstallAll installs all four hooks.
func InstallAll(repoRoot string) error {
	for _, name := range allHooks {
		if err := Install(repoRoot, name); err != nil {
			return err
		}
	}
	return nil
}

// IsInstalled reports whether name's hook file exists, is executable, and
// contains the canonical trigger file name substring — the installer's
// self-test.
func IsInstalled(repoRoot string, name HookName) bool {
	dest := filepath.Join(gitHooksDir(repoRoot), string(name))
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	if info.Mode()&0111 == 0 {
		return false
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		return false
	}
	return strings.Contains(string(content), triggerFileFor(name))
}

// Status reports installation state for every hook kind, for the
// umshooks status command.
func Status(repoRoot string) map[HookName]bool {
	out := make(map[HookName]bool, len(allHooks))
	for _, name := range allHooks {
		out[name] = IsInstalled(repoRoot, name)
	}
	return out
}
