// Package executil provides the execution collaborators for the task
// controller: a shell runner and a backing-up file writer, each with a
// dry variant that produces synthetic results without side effects.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// maxCapture caps each captured output stream. Anything beyond it is
// silently discarded so one chatty command cannot bloat the
// conversation log.
const maxCapture = 64 * 1024

// BackupSuffix is appended to a file's name when it is backed up
// before an overwrite.
const BackupSuffix = ".sysmedic.bak"

// Result is the outcome of a shell command that ran to completion.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Written is the outcome of a file write. BackupPath is empty when the
// file was new or the runner is dry.
type Written struct {
	Path       string
	BackupPath string
}

// Runner executes commands and writes files on behalf of the
// controller. Implementations must be safe for sequential reuse; the
// controller never calls them concurrently.
type Runner interface {
	// RunShell executes command under the given shell interpreter,
	// optionally in dir, and returns the exit status with both output
	// streams captured. A non-zero exit is a Result, not an error;
	// errors mean the command could not be started at all.
	RunShell(ctx context.Context, shell, command, dir string) (Result, error)

	// WriteFile replaces the file at path with contents, creating
	// parent directories as needed and backing up any existing file
	// first.
	WriteFile(path string, contents []byte) (Written, error)
}

// limitedWriter caps writes to a bytes.Buffer at a maximum byte count.
// Bytes beyond the limit are silently discarded.
type limitedWriter struct {
	buf *bytes.Buffer
	n   int64
	max int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n >= w.max {
		return len(p), nil
	}
	remaining := w.max - w.n
	origLen := len(p)
	if int64(origLen) > remaining {
		p = p[:remaining]
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, err
	}
	return origLen, nil
}

// Shell is the real Runner backed by os/exec and the filesystem.
type Shell struct{}

// RunShell executes `shell -c command`, optionally in dir.
func (Shell) RunShell(ctx context.Context, shell, command, dir string) (Result, error) {
	c := exec.CommandContext(ctx, shell, "-c", command)
	if dir != "" {
		c.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &limitedWriter{buf: &stdout, max: maxCapture}
	c.Stderr = &limitedWriter{buf: &stderr, max: maxCapture}

	err := c.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Could not start: interpreter missing, bad dir, etc.
			return Result{}, fmt.Errorf("run %q under %s: %w", command, shell, err)
		}
	}

	return Result{
		ExitCode: c.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// WriteFile replaces path with contents, backing up any existing file
// to path + BackupSuffix first.
func (Shell) WriteFile(path string, contents []byte) (Written, error) {
	if path == "" {
		return Written{}, fmt.Errorf("file edit missing path")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Written{}, fmt.Errorf("create parent dirs for %s: %w", path, err)
		}
	}

	backup, err := backupIfExists(path)
	if err != nil {
		return Written{}, err
	}

	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return Written{}, fmt.Errorf("write %s: %w", path, err)
	}

	return Written{Path: path, BackupPath: backup}, nil
}

func backupIfExists(path string) (string, error) {
	prior, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s for backup: %w", path, err)
	}

	backup := path + BackupSuffix
	if err := os.WriteFile(backup, prior, 0o644); err != nil {
		return "", fmt.Errorf("write backup %s: %w", backup, err)
	}
	return backup, nil
}

// Dry is a Runner that performs no side effects. Commands report a
// synthetic zero status and file writes succeed without touching disk.
type Dry struct{}

// RunShell returns a synthetic success describing what would have run.
func (Dry) RunShell(_ context.Context, _, command, _ string) (Result, error) {
	return Result{
		ExitCode: 0,
		Stdout:   fmt.Sprintf("(dry-run) command would execute: %s", command),
	}, nil
}

// WriteFile reports the target path without writing anything.
func (Dry) WriteFile(path string, _ []byte) (Written, error) {
	if path == "" {
		return Written{}, fmt.Errorf("file edit missing path")
	}
	return Written{Path: path}, nil
}
