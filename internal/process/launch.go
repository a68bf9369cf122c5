package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/miyamgo/tmod-launcher/internal/logging"
)

// ErrAlreadyRunning is returned alongside OutcomeAlreadyRunning. It is a
// notice for the user, not a failure.
var ErrAlreadyRunning = errors.New("already running")

// SpawnError wraps a failure to start the target executable.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return e.Err.Error()
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Outcome is what a launch attempt ended up doing.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeAlreadyRunning
	OutcomeStarted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAlreadyRunning:
		return "already-running"
	case OutcomeStarted:
		return "started"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// LaunchResult describes a single launch attempt.
type LaunchResult struct {
	Outcome     Outcome
	DisplayName string
	Path        string
	PID         int
	Err         error
}

// Starter starts path detached, with its containing directory as the
// working directory, and returns the new pid.
type Starter interface {
	Start(path string) (int, error)
}

type execStarter struct{}

// ExecStarter returns a Starter backed by os/exec.
func ExecStarter() Starter {
	return execStarter{}
}

func (execStarter) Start(path string) (int, error) {
	cmd := Command(path)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Not waited on; the launched game outlives this call.
	if err := cmd.Process.Release(); err != nil {
		logging.Debugf("Verbose: releasing pid=%d: %v\n", pid, err)
	}
	return pid, nil
}

// Command builds the exec.Cmd used to start path. Shell and batch entry
// points go through their interpreter.
func Command(path string) *exec.Cmd {
	var cmd *exec.Cmd
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sh":
		cmd = exec.Command("sh", path)
	case ".bat", ".cmd":
		if runtime.GOOS == "windows" {
			cmd = exec.Command("cmd", "/C", path)
		} else {
			cmd = exec.Command(path)
		}
	default:
		cmd = exec.Command(path)
	}
	cmd.Dir = filepath.Dir(path)
	return cmd
}

// Dispatcher launches targets unless they are already running.
type Dispatcher struct {
	checker *Checker
	starter Starter
}

// NewDispatcher creates a Dispatcher. Nil arguments select the host
// process table and os/exec.
func NewDispatcher(checker *Checker, starter Starter) *Dispatcher {
	if checker == nil {
		checker = NewChecker(nil)
	}
	if starter == nil {
		starter = execStarter{}
	}
	return &Dispatcher{checker: checker, starter: starter}
}

// Launch starts the executable at path. An empty path is a silent no-op.
// Spawn failures are reported in the result and never panic.
func (d *Dispatcher) Launch(ctx context.Context, path, displayName string) LaunchResult {
	res := LaunchResult{DisplayName: displayName, Path: path}
	if path == "" {
		res.Outcome = OutcomeSkipped
		return res
	}

	if d.checker.IsRunning(ctx, path) {
		res.Outcome = OutcomeAlreadyRunning
		res.Err = fmt.Errorf("%s is %w", displayName, ErrAlreadyRunning)
		return res
	}

	logging.Debugf("Verbose: launch name=%q path=%q dir=%q\n", displayName, path, filepath.Dir(path))
	pid, err := d.starter.Start(path)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = &SpawnError{Path: path, Err: err}
		return res
	}

	res.Outcome = OutcomeStarted
	res.PID = pid
	return res
}
