// Command umshooks is the CLI entry point for the hook/watcher
// coordination layer: it installs git hooks, runs the coordinator
// process, and implements the hook script bodies themselves (invoked as
// `umshooks hook <kind>` by the installed shell shims).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vitruvius-tools/ums-hooks/internal/coordinator"
	"github.com/vitruvius-tools/ums-hooks/internal/hooks"
	"github.com/vitruvius-tools/ums-hooks/internal/model"
	"github.com/vitruvius-tools/ums-hooks/internal/outcome"
	"github.com/vitruvius-tools/ums-hooks/internal/setup"
	"github.com/vitruvius-tools/ums-hooks/internal/status"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
	"github.com/vitruvius-tools/ums-hooks/internal/ums"
	"github.com/vitruvius-tools/ums-hooks/internal/vcsutil"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "hook":
		runHook(os.Args[2:])
	case "run":
		runRun(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "version":
		fmt.Printf("umshooks %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runInit(args []string) {
	dir := "."
	name := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--name requires a value")
				os.Exit(1)
			}
			i++
			name = args[i]
		default:
			dir = args[i]
		}
	}

	if err := setup.Run(dir, name); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}

	if err := hooks.InstallAll(dir); err != nil {
		fmt.Fprintf(os.Stderr, "init: install hooks: %v\n", err)
		os.Exit(1)
	}

	absDir, _ := filepath.Abs(dir)
	fmt.Printf("Initialized .ums/ and installed hooks in %s\n", absDir)
}

func runHook(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: umshooks hook <install|pre-commit|post-checkout|post-commit|post-merge> [args...]")
		os.Exit(1)
	}

	repoRoot, err := findRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hook: %v\n", err)
		os.Exit(1)
	}

	if args[0] == "install" {
		if err := hooks.InstallAll(repoRoot); err != nil {
			fmt.Fprintf(os.Stderr, "hook install: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("hooks installed")
		return
	}

	paths := trigger.NewPaths(repoRoot)
	cfg, err := loadConfig(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hook: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	code, err := dispatchHook(ctx, paths, cfg, hooks.HookName(args[0]), repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hook %s: %v\n", args[0], err)
		os.Exit(1)
	}
	os.Exit(code)
}

// dispatchHook implements the body of each hook kind. Non-blocking hooks
// (post-checkout, post-commit, post-merge) always return 0: they write a
// trigger and exit immediately, per §6.4's "non-blocking hooks always
// exit 0". Only pre-commit polls for a result and can return 1.
func dispatchHook(ctx context.Context, paths trigger.Paths, cfg model.Config, kind hooks.HookName, repoRoot string) (int, error) {
	switch kind {
	case hooks.HookPreCommit:
		return runPreCommit(ctx, paths, cfg, repoRoot)
	case hooks.HookPostCheckout:
		branch, err := vcsutil.CurrentBranch(ctx, repoRoot)
		if err != nil {
			branch = ""
		}
		if err := trigger.CreateReloadTrigger(paths, branch); err != nil {
			return 0, fmt.Errorf("write reload trigger: %w", err)
		}
		return 0, nil
	case hooks.HookPostCommit:
		sha, err := vcsutil.RevParseHead(ctx, repoRoot)
		if err != nil {
			return 0, fmt.Errorf("resolve HEAD: %w", err)
		}
		branch, err := vcsutil.CurrentBranch(ctx, repoRoot)
		if err != nil {
			branch = ""
		}
		if err := trigger.CreatePostCommitTrigger(paths, sha, branch); err != nil {
			return 0, fmt.Errorf("write post-commit trigger: %w", err)
		}
		return 0, nil
	case hooks.HookPostMerge:
		mergeSha, err := vcsutil.RevParseHead(ctx, repoRoot)
		if err != nil {
			return 0, fmt.Errorf("resolve HEAD: %w", err)
		}
		target, err := vcsutil.CurrentBranch(ctx, repoRoot)
		if err != nil {
			target = ""
		}
		source, err := vcsutil.LastMergeSource(ctx, repoRoot)
		if err != nil {
			source = ""
		}
		if _, err := trigger.CreateMergeTrigger(paths, mergeSha, source, target); err != nil {
			return 0, fmt.Errorf("write merge trigger: %w", err)
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown hook kind %q", kind)
	}
}

// runPreCommit is the sole blocking hook: it writes the trigger, then
// polls the result directory until either a result appears or the
// configured timeout elapses.
func runPreCommit(ctx context.Context, paths trigger.Paths, cfg model.Config, repoRoot string) (int, error) {
	branch, err := vcsutil.CurrentBranch(ctx, repoRoot)
	if err != nil {
		branch = ""
	}
	sha, err := vcsutil.WriteTree(ctx, repoRoot)
	if err != nil {
		return 0, fmt.Errorf("compute provisional sha: %w", err)
	}

	requestID, err := trigger.CreateValidationTrigger(paths, sha, branch)
	if err != nil {
		return 0, fmt.Errorf("write validation trigger: %w", err)
	}

	timeout := cfg.Hook.Timeout()
	deadline := time.Now().Add(timeout)
	pollInterval := 100 * time.Millisecond

	for {
		o, err := trigger.ReadResult(paths.ResultsDir(), requestID)
		if err == nil {
			if o.IsValid() {
				fmt.Println(outcome.EncodeText(o))
				return 0, nil
			}
			fmt.Fprint(os.Stderr, outcome.EncodeText(o))
			return 1, nil
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(os.Stderr, "umshooks: timed out waiting %s for validation result\n", timeout)
			if cfg.Hook.FailOpen {
				return 0, nil
			}
			return 1, nil
		}
		time.Sleep(pollInterval)
	}
}

func runRun(args []string) {
	repoRoot, err := findRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}

	store, err := demoStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}

	c, err := coordinator.New(repoRoot, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}

	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}
}

// demoStore constructs the self-contained in-memory Store used by
// `umshooks run`. It is explicitly a test/demo double: a real deployment
// wires the Coordinator to an actual UMS process out of this binary's
// scope.
func demoStore() (*ums.MemStore, error) {
	return ums.NewMemStore(func() (map[string]string, error) {
		return map[string]string{}, nil
	}, nil)
}

func runStatus(args []string) {
	jsonOutput := false
	for _, a := range args {
		if a == "--json" {
			jsonOutput = true
		}
	}

	repoRoot, err := findRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}

	paths := trigger.NewPaths(repoRoot)
	if err := status.Run(paths.Root(), jsonOutput); err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(paths trigger.Paths) (model.Config, error) {
	cfg := model.DefaultConfig()
	data, err := os.ReadFile(paths.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", paths.ConfigPath(), err)
	}
	if err := yamlv3.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", paths.ConfigPath(), err)
	}
	return cfg, nil
}

// findRepoRoot walks up from the working directory looking for a .git
// directory, mirroring the reference corpus's project-directory discovery.
func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf(".git directory not found in %s or any parent", dir)
		}
		dir = parent
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `umshooks %s — hook/watcher coordination layer for the Unified Model Store

Usage: umshooks <command> [options]

Commands:
  init [dir] [--name NAME]   Initialize .ums/ and install git hooks
  run                        Start the coordinator (watchers + control socket)
  status [--json]            Query the running coordinator
  hook install               (Re)install git hooks into .git/hooks
  hook <kind> [args...]      Run a hook body: pre-commit, post-checkout,
                              post-commit, post-merge — invoked by the
                              installed shell shims, not by hand
  version                    Print the version
  help                       Show this message
`, version)
}
