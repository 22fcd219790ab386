// Package templates embeds the static assets shipped alongside the
// umshooks binary: the default project config and the per-hook-kind
// shell script bodies installed into .git/hooks.
package templates

import "embed"

//go:embed config.yaml hooks
var FS embed.FS

// DefaultConfig returns the embedded default config.yaml content.
func DefaultConfig() ([]byte, error) {
	return FS.ReadFile("config.yaml")
}

// HookTemplate returns the raw text/template source for a given hook
// script file name, e.g. "pre-commit.sh.tmpl".
func HookTemplate(name string) ([]byte, error) {
	return FS.ReadFile("hooks/" + name)
}
