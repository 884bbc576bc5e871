package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
)

// logFormat renders one commit as "<subject> (<author name>)".
const logFormat = "--pretty=format:%s (%an)"

// cliProvider reads history by spawning the git executable.
type cliProvider struct {
	binary string
	path   string
}

func newCLIProvider(binary, path string) *cliProvider {
	return &cliProvider{binary: binary, path: path}
}

func (g *cliProvider) RevParse(ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "-") {
		return "", fmt.Errorf("%w: %q", ErrUnresolvableRef, ref)
	}
	out, err := g.run([]string{"rev-parse", "-q", "--verify", ref + "^{commit}"}, true, "git rev-parse")
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(out)
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrUnresolvableRef, ref)
	}
	return id, nil
}

func (g *cliProvider) CommitDate(id string) (string, error) {
	out, err := g.run([]string{"log", "--date=iso", "--format=%ad", "-n1", id}, false, "git log")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", fmt.Errorf("git log: no date for %s", id)
	}
	return fields[0], nil
}

func (g *cliProvider) Log(r LogRange) ([]string, error) {
	// --full-history: include individual commits from merged branches
	// --date-order: order commits by date, not topological order
	args := []string{"log", "--full-history", "--date-order", logFormat}
	if r.NoMerges {
		args = append(args, "--no-merges")
	}
	args = append(args, rangeSpec(r))
	out, err := g.run(args, false, "git log")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (g *cliProvider) Tags() ([]string, error) {
	out, err := g.run([]string{"tag"}, false, "git tag")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (g *cliProvider) DecorationOrder() ([]string, error) {
	out, err := g.run([]string{"rev-list", "--simplify-by-decoration", "--topo-order", Head}, false, "git rev-list")
	if err != nil {
		return nil, err
	}
	ids := splitLines(out)
	slices.Reverse(ids)
	return ids, nil
}

func rangeSpec(r LogRange) string {
	to := r.To
	if to == "" {
		to = Head
	}
	if r.From == "" {
		return to
	}
	return r.From + ".." + to
}

// run executes git in the repository. With allowExit1, a silent exit status 1
// is returned as empty output, which is how rev-parse -q reports a miss.
func (g *cliProvider) run(args []string, allowExit1 bool, context string) (string, error) {
	if g.path == "" {
		return "", fmt.Errorf("%w: repository root not set", ErrSourceUnavailable)
	}
	cmdArgs := append([]string{"-C", g.path}, args...)
	logDebug("[git] %s %s", g.binary, strings.Join(cmdArgs, " "))

	cmd := exec.Command(g.binary, cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if allowExit1 && errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
			return "", nil
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%w: %s: %v: %s", ErrSourceUnavailable, context, err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, context, err)
	}
	return stdout.String(), nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
