// Package health provides the checks behind 'taglog doctor'. It validates that
// the configured history backend can read the repository and that the files
// taglog writes and edits are usable, returning a structured report.
package health

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ariel-frischer/taglog/internal/config"
	"github.com/ariel-frischer/taglog/internal/git"
	"github.com/ariel-frischer/taglog/internal/manifest"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks are reported but never fail the report.
	Optional bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

func (r *HealthReport) add(check CheckResult) {
	r.Checks = append(r.Checks, check)
	if !check.Passed && !check.Optional {
		r.Passed = false
	}
}

// RunHealthChecks runs all health checks against cfg and returns a report.
func RunHealthChecks(ctx context.Context, cfg *config.Configuration) *HealthReport {
	report := &HealthReport{
		Checks: make([]CheckResult, 0, 4),
		Passed: true,
	}

	gitCheck := CheckGitBinary(cfg.GitBinary)
	// The native backend reads objects itself; git is only needed by gitcli.
	gitCheck.Optional = cfg.Backend == git.BackendNative
	report.add(gitCheck)
	report.add(CheckRepository(ctx, cfg))
	report.add(CheckOutputFile(cfg.OutputFile))
	report.add(CheckManifest(cfg.ManifestPath))

	return report
}

// CheckGitBinary checks that the git executable is on PATH.
func CheckGitBinary(binary string) CheckResult {
	if binary == "" {
		binary = "git"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return CheckResult{
			Name:    "Git CLI",
			Passed:  false,
			Message: fmt.Sprintf("%s not found in PATH", binary),
		}
	}
	return CheckResult{
		Name:    "Git CLI",
		Passed:  true,
		Message: "found at " + path,
	}
}

// CheckRepository opens the repository with the configured backend and
// resolves HEAD.
func CheckRepository(ctx context.Context, cfg *config.Configuration) CheckResult {
	const name = "Repository"

	repo, err := git.Open(ctx, git.OpenOptions{
		Path:                   cfg.RepoPath,
		AllowBareCloneFallback: cfg.AllowBareCloneFallback,
		GitBinary:              cfg.GitBinary,
	})
	if err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("cannot open %s: %v", cfg.RepoPath, err)}
	}
	defer repo.Close()

	provider, err := repo.Provider(cfg.Backend)
	if err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	source := git.NewSource(provider)

	head, err := source.Resolve(git.Head)
	if err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("%s backend cannot resolve HEAD: %v", cfg.Backend, err)}
	}
	tags, err := source.AllTags()
	if err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("%s backend cannot list tags: %v", cfg.Backend, err)}
	}

	return CheckResult{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s (%s backend), HEAD at %s, %s", repo.Root(), cfg.Backend, shortID(head), tagCount(len(tags))),
	}
}

// CheckOutputFile checks that the changelog's directory exists.
func CheckOutputFile(path string) CheckResult {
	const name = "Changelog file"

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return CheckResult{Name: name, Message: fmt.Sprintf("directory %s does not exist", dir)}
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return CheckResult{Name: name, Passed: true, Message: path + " will be created"}
	}
	return CheckResult{Name: name, Passed: true, Message: path}
}

// CheckManifest reports the package manifest, if any. Projects without a
// package.json only lose the manifest commands, so the check is optional.
func CheckManifest(path string) CheckResult {
	const name = "Manifest"

	m, err := manifest.Load(path)
	switch {
	case err == nil:
		msg := m.NameVersion()
		if m.HasBower() {
			msg += " (with bower.json)"
		}
		if m.HasBlip() {
			msg += ", sl-blip hook"
		}
		return CheckResult{Name: name, Passed: true, Message: msg, Optional: true}
	case errors.Is(err, fs.ErrNotExist):
		return CheckResult{Name: name, Message: "no package.json in " + path, Optional: true}
	default:
		return CheckResult{Name: name, Message: err.Error()}
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var output string
	for _, check := range report.Checks {
		switch {
		case check.Passed:
			output += fmt.Sprintf("✓ %s: %s\n", check.Name, check.Message)
		case check.Optional:
			output += fmt.Sprintf("○ %s: %s\n", check.Name, check.Message)
		default:
			output += fmt.Sprintf("✗ %s: %s\n", check.Name, check.Message)
		}
	}
	return output
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func tagCount(n int) string {
	if n == 1 {
		return "1 tag"
	}
	return fmt.Sprintf("%d tags", n)
}
