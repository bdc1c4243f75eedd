package executil

import (
	"context"
	"sync"
)

// RecordedCall captures one Runner invocation.
type RecordedCall struct {
	Shell    string
	Command  string
	Dir      string
	Path     string
	Contents []byte
}

// RecordingRunner captures Runner calls for testing. Configure Results
// and Errs to control return values per command or path.
type RecordingRunner struct {
	mu    sync.Mutex
	Calls []RecordedCall

	// Results maps command strings to their synthetic result.
	Results map[string]Result

	// Errs maps command strings or file paths to an error.
	Errs map[string]error
}

// RunShell records the invocation and returns the configured result.
func (r *RecordingRunner) RunShell(_ context.Context, shell, command, dir string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, RecordedCall{Shell: shell, Command: command, Dir: dir})

	if err, ok := r.Errs[command]; ok {
		return Result{}, err
	}
	if res, ok := r.Results[command]; ok {
		return res, nil
	}
	return Result{ExitCode: 0}, nil
}

// WriteFile records the invocation and returns the configured outcome.
func (r *RecordingRunner) WriteFile(path string, contents []byte) (Written, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, RecordedCall{Path: path, Contents: contents})

	if err, ok := r.Errs[path]; ok {
		return Written{}, err
	}
	return Written{Path: path}, nil
}

// Reset clears recorded calls.
func (r *RecordingRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = nil
}
