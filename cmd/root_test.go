package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/miyamgo/tmod-launcher/internal/profile"
	"github.com/spf13/cobra"
)

func TestUsageArgsWrapsValidationErrors(t *testing.T) {
	wrapped := usageArgs(cobra.ExactArgs(1))
	cmd := &cobra.Command{Use: "test"}

	if err := wrapped(cmd, []string{"ok"}); err != nil {
		t.Fatalf("usageArgs returned unexpected error for valid args: %v", err)
	}

	err := wrapped(cmd, nil)
	if err == nil {
		t.Fatalf("usageArgs should return an error for invalid args")
	}
	if !isUsageError(err) {
		t.Fatalf("usageArgs error should be marked as usage error: %v", err)
	}
}

func TestIsUsageError(t *testing.T) {
	if !isUsageError(wrapUsageError(errors.New("bad args"))) {
		t.Fatalf("wrapped usage error not detected")
	}
	if !isUsageError(errors.New(`unknown command "foo" for "tmod-launcher"`)) {
		t.Fatalf("unknown command error should be treated as usage error")
	}
	if isUsageError(errors.New("runtime failure")) {
		t.Fatalf("runtime failure should not be treated as usage error")
	}
}

func resetFlags(t *testing.T) {
	t.Helper()
	saved := []any{installRoot, repo, githubToken, nonInteractive, verbose, logFile}
	t.Cleanup(func() {
		installRoot = saved[0].(string)
		repo = saved[1].(string)
		githubToken = saved[2].(string)
		nonInteractive = saved[3].(bool)
		verbose = saved[4].(bool)
		logFile = saved[5].(string)
	})
	installRoot, repo, githubToken, logFile = "", "", "", ""
	nonInteractive, verbose = false, false
}

func TestApplyProfileKeepsExplicitFlags(t *testing.T) {
	resetFlags(t)

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&installRoot, "install-root", "", "")
	cmd.Flags().StringVar(&repo, "repo", "", "")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "")
	if err := cmd.Flags().Parse([]string{"--install-root", "/from/flag"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	root, fork, on := "/from/profile", "me/tModLoader", true
	applyProfile(cmd, &profile.Profile{InstallRoot: &root, Repo: &fork, Verbose: &on})

	if installRoot != "/from/flag" {
		t.Fatalf("installRoot=%q want flag value", installRoot)
	}
	if repo != fork || !verbose {
		t.Fatalf("repo=%q verbose=%t want profile values", repo, verbose)
	}
}

func TestResolveInstallRootDefaultsToExecutableDir(t *testing.T) {
	resetFlags(t)

	got, err := resolveInstallRoot()
	if err != nil {
		t.Fatalf("resolveInstallRoot failed: %v", err)
	}
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable failed: %v", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	if got != filepath.Dir(exe) {
		t.Fatalf("root=%q want=%q", got, filepath.Dir(exe))
	}
}

func TestLoadConfigRepoOverride(t *testing.T) {
	resetFlags(t)
	installRoot = t.TempDir()

	repo = "someone/fork"
	cfg, _, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Repo != "someone/fork" {
		t.Fatalf("Repo=%q want override", cfg.Repo)
	}
	if cfg.ModLoader.RootDir != filepath.Join(installRoot, "tModLoader") {
		t.Fatalf("mod loader dir=%q", cfg.ModLoader.RootDir)
	}

	repo = "not-a-repo"
	if _, _, err := loadConfig(); !isUsageError(err) {
		t.Fatalf("invalid --repo err=%v want usage error", err)
	}
}
