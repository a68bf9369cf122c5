package process

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/shirou/gopsutil/v4/process"
)

// Proc is the part of a running process the liveness check reads.
type Proc interface {
	Name(ctx context.Context) (string, error)
}

// Lister enumerates the processes currently running on the host.
type Lister interface {
	Processes(ctx context.Context) ([]Proc, error)
}

type systemLister struct{}

type systemProc struct {
	p *process.Process
}

func (s systemProc) Name(ctx context.Context) (string, error) {
	return s.p.NameWithContext(ctx)
}

func (systemLister) Processes(ctx context.Context) ([]Proc, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Proc, 0, len(procs))
	for _, p := range procs {
		out = append(out, systemProc{p: p})
	}
	return out, nil
}

// SystemLister returns a Lister backed by the host process table.
func SystemLister() Lister {
	return systemLister{}
}

// Checker answers point-in-time liveness questions.
type Checker struct {
	lister Lister
}

// NewChecker creates a Checker. A nil lister uses the host process table.
func NewChecker(lister Lister) *Checker {
	if lister == nil {
		lister = systemLister{}
	}
	return &Checker{lister: lister}
}

// IsRunning reports whether any running process name contains the base
// filename of executablePath, ignoring case. Processes whose name cannot be
// read (exited mid-scan, access denied) are skipped one by one.
func (c *Checker) IsRunning(ctx context.Context, executablePath string) bool {
	exe := strings.ToLower(filepath.Base(executablePath))
	if exe == "" || exe == "." || exe == string(filepath.Separator) {
		return false
	}

	procs, err := c.lister.Processes(ctx)
	if err != nil {
		logging.Debugf("Verbose: process enumeration failed: %v\n", err)
		return false
	}

	skipped := 0
	for _, p := range procs {
		name, err := p.Name(ctx)
		if err != nil {
			skipped++
			continue
		}
		if name != "" && strings.Contains(strings.ToLower(name), exe) {
			logging.Debugf("Verbose: liveness exe=%q matched process=%q\n", exe, name)
			return true
		}
	}
	logging.Debugf("Verbose: liveness exe=%q processes=%d skipped=%d matched=false\n", exe, len(procs), skipped)
	return false
}
