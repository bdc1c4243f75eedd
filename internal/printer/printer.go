// Package printer renders controller progress to the console. It is the
// only place worklist events are formatted for humans.
package printer

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/sysmedic/internal/core/styles"
	"github.com/colonyops/sysmedic/internal/core/task"
	"github.com/colonyops/sysmedic/pkg/executil"
)

const divider = "────────────────────────────────────────"

// Printer writes styled progress lines to a single output stream. It
// implements the controller's Notifier boundary.
type Printer struct {
	mu sync.Mutex
	w  io.Writer

	// historyLimit caps how many output lines of a command result are
	// echoed back; 0 means no cap.
	historyLimit int
}

func New(w io.Writer, historyLimit int) *Printer {
	return &Printer{w: w, historyLimit: historyLimit}
}

func (p *Printer) PlanInstalled(summary string, tasks []task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.DividerStyle.Render(divider))
	fmt.Fprintln(p.w, styles.HeaderStyle.Render("Plan: ")+styles.SummaryStyle.Render(summary))
	for _, t := range tasks {
		p.taskLine(t)
	}
}

func (p *Printer) NoteLogged(t task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.NoteStyle.Render(fmt.Sprintf("note: %s", t.Detail.Note.Details)))
}

func (p *Printer) TaskStarted(t task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("%s %s", styles.StatusMarker(task.StateRunning), t.Description)
	fmt.Fprintln(p.w, styles.StatusStyle(task.StateRunning).Render(line))
	if t.Detail.Command != nil {
		fmt.Fprintln(p.w, styles.CommandStyle.Render("  $ "+t.Detail.Command.Command))
	}
}

func (p *Printer) CommandResult(t task.Task, res executil.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := styles.SuccessStyle
	if res.ExitCode != 0 {
		status = styles.WarningStyle
	}
	fmt.Fprintln(p.w, status.Render(fmt.Sprintf("  exit %d", res.ExitCode)))

	p.echo(res.Stdout, styles.OutputStyle)
	p.echo(res.Stderr, styles.ErrorStyle)
}

func (p *Printer) FileWritten(t task.Task, w executil.Written) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.SuccessStyle.Render("  wrote "+w.Path))
	if w.BackupPath != "" {
		fmt.Fprintln(p.w, styles.OutputStyle.Render("  backup "+w.BackupPath))
	}
}

func (p *Printer) TaskBlocked(t task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("%s %s", styles.StatusMarker(task.StateBlocked), t.Status.Text())
	fmt.Fprintln(p.w, styles.StatusStyle(task.StateBlocked).Render(line))
}

func (p *Printer) ApprovalNeeded(t task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.WarningStyle.Render(fmt.Sprintf("approval needed: %s", t.Description)))
	fmt.Fprintln(p.w, styles.OutputStyle.Render("  reason: "+t.Status.Reason))
	if t.Detail.Command != nil {
		fmt.Fprintln(p.w, styles.CommandStyle.Render("  $ "+t.Detail.Command.Command))
	}
	fmt.Fprintln(p.w, styles.PromptStyle.Render("  approve? [y/N] "))
}

func (p *Printer) AllTasksResolved(completed, abandoned int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if abandoned > 0 {
		fmt.Fprintln(p.w, styles.WarningStyle.Render(
			fmt.Sprintf("worklist finished: %d complete, %d abandoned", completed, abandoned)))
		return
	}
	fmt.Fprintln(p.w, styles.SuccessStyle.Render(fmt.Sprintf("all tasks complete (%d)", completed)))
}

func (p *Printer) Synthesis(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.DividerStyle.Render(divider))
	fmt.Fprintln(p.w, styles.HeaderStyle.Render("Synthesis"))
	fmt.Fprintln(p.w, styles.SummaryStyle.Render(text))
}

func (p *Printer) PlanFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.ErrorStyle.Render("plan request failed: "+err.Error()))
}

// Info prints an unstructured status line.
func (p *Printer) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.OutputStyle.Render(msg))
}

// Printf prints a plain line.
func (p *Printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.SummaryStyle.Render(fmt.Sprintf(format, args...)))
}

// Successf prints a success-styled line.
func (p *Printer) Successf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints an error-styled line.
func (p *Printer) Errorf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, styles.ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) taskLine(t task.Task) {
	marker := styles.StatusMarker(t.Status.State)
	line := fmt.Sprintf("%s %s [%s]", marker, t.Description, t.Status.Text())
	fmt.Fprintln(p.w, styles.StatusStyle(t.Status.State).Render(line))
}

// echo prints captured output indented, one styled line per source line,
// truncated at the history limit.
func (p *Printer) echo(out string, style lipgloss.Style) {
	if out == "" {
		return
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	shown := lines
	if p.historyLimit > 0 && len(lines) > p.historyLimit {
		shown = lines[:p.historyLimit]
	}
	for _, line := range shown {
		fmt.Fprintln(p.w, style.Render("  "+line))
	}
	if len(shown) < len(lines) {
		fmt.Fprintln(p.w, styles.OutputStyle.Render(fmt.Sprintf("  … %d more lines", len(lines)-len(shown))))
	}
}
