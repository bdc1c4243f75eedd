package printer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/sysmedic/internal/core/task"
	"github.com/colonyops/sysmedic/pkg/executil"
)

func TestPlanInstalledListsTasks(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 0)

	tk := task.New("Check disk", task.Detail{Command: &task.CommandDetail{
		Shell:   "/bin/bash",
		Command: "df -h",
	}})
	tk.Status = task.Ready()

	p.PlanInstalled("Investigate disk", []task.Task{tk})

	out := buf.String()
	assert.Contains(t, out, "Investigate disk")
	assert.Contains(t, out, "Check disk")
	assert.Contains(t, out, "ready")
}

func TestCommandResultEchoesOutput(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 0)

	p.CommandResult(task.Task{}, executil.Result{
		ExitCode: 1,
		Stdout:   "line one\nline two\n",
		Stderr:   "warning\n",
	})

	out := buf.String()
	assert.Contains(t, out, "exit 1")
	assert.Contains(t, out, "line one")
	assert.Contains(t, out, "line two")
	assert.Contains(t, out, "warning")
}

func TestCommandResultHonorsHistoryLimit(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 2)

	p.CommandResult(task.Task{}, executil.Result{
		Stdout: "a\nb\nc\nd\n",
	})

	out := buf.String()
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "b")
	assert.NotContains(t, out, "  c")
	assert.Contains(t, out, "2 more lines")
}

func TestApprovalNeededShowsReasonAndCommand(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 0)

	tk := task.New("Wipe", task.Detail{Command: &task.CommandDetail{Command: "rm -rf /"}})
	tk.Status = task.Blocked("command 'rm -rf /' is not allowlisted")

	p.ApprovalNeeded(tk)

	out := buf.String()
	assert.Contains(t, out, "approval needed: Wipe")
	assert.Contains(t, out, "not allowlisted")
	assert.Contains(t, out, "rm -rf /")
}

func TestAllTasksResolvedMessaging(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 0)

	p.AllTasksResolved(3, 0)
	assert.Contains(t, buf.String(), "all tasks complete (3)")

	buf.Reset()
	p.AllTasksResolved(2, 1)
	out := buf.String()
	assert.Contains(t, out, "2 complete")
	assert.Contains(t, out, "1 abandoned")
	assert.False(t, strings.Contains(out, "all tasks complete"))
}

func TestPlanFailed(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 0)

	p.PlanFailed(errors.New("connection refused"))
	assert.Contains(t, buf.String(), "connection refused")
}
