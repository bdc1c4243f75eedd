// Package medic is the sequential execution controller: it installs
// vetted plans, walks the worklist strictly in creation order, runs
// permitted tasks, pauses on blocked ones for operator approval, and
// triggers one synthesis call when every executable task completes.
package medic

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/sysmedic/internal/core/convo"
	"github.com/colonyops/sysmedic/internal/core/logging"
	"github.com/colonyops/sysmedic/internal/core/policy"
	"github.com/colonyops/sysmedic/internal/core/session"
	"github.com/colonyops/sysmedic/internal/core/task"
	"github.com/colonyops/sysmedic/internal/planner"
	"github.com/colonyops/sysmedic/pkg/executil"
)

// Notifier is the display boundary. The controller reports progress
// through it and never formats console output itself.
type Notifier interface {
	PlanInstalled(summary string, tasks []task.Task)
	NoteLogged(t task.Task)
	TaskStarted(t task.Task)
	CommandResult(t task.Task, res executil.Result)
	FileWritten(t task.Task, w executil.Written)
	TaskBlocked(t task.Task)
	ApprovalNeeded(t task.Task)
	AllTasksResolved(completed, abandoned int)
	Synthesis(text string)
	PlanFailed(err error)
}

// Deps are the collaborators a Service needs. All are required except
// Notifier, which defaults to a no-op.
type Deps struct {
	Policy   *policy.Engine
	Planner  planner.Planner
	Runner   executil.Runner
	Store    *session.Store
	Log      *convo.Log
	Notifier Notifier
}

// Service owns the task list. All mutation happens on the caller's
// goroutine; the background fetch worker only computes responses.
type Service struct {
	policy   *policy.Engine
	planner  planner.Planner
	runner   executil.Runner
	store    *session.Store
	convoLog *convo.Log
	notify   Notifier
	log      zerolog.Logger

	fetch   *Fetch
	history []convo.Entry

	summary     string
	tasks       []task.Task
	approvals   []int
	rejected    map[string]bool
	synthesized bool
	results     int
	resolved    bool
}

func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Policy == nil:
		return nil, fmt.Errorf("medic: policy engine is required")
	case deps.Planner == nil:
		return nil, fmt.Errorf("medic: planner is required")
	case deps.Runner == nil:
		return nil, fmt.Errorf("medic: runner is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("medic: session store is required")
	case deps.Log == nil:
		return nil, fmt.Errorf("medic: conversation log is required")
	}

	notify := deps.Notifier
	if notify == nil {
		notify = nopNotifier{}
	}

	history, err := deps.Log.Load()
	if err != nil {
		return nil, fmt.Errorf("medic: loading conversation log: %w", err)
	}

	return &Service{
		policy:   deps.Policy,
		planner:  deps.Planner,
		runner:   deps.Runner,
		store:    deps.Store,
		convoLog: deps.Log,
		notify:   notify,
		log:      logging.Component("medic"),
		fetch:    NewFetch(),
		history:  history,
		rejected: map[string]bool{},
	}, nil
}

// SubmitPrompt dispatches a planning request for the operator's text on
// the background worker. It fails with ErrFetchInFlight when a request
// is already outstanding; the prompt is only recorded once accepted.
func (s *Service) SubmitPrompt(ctx context.Context, prompt string) error {
	snapshot := make([]convo.Entry, len(s.history))
	copy(snapshot, s.history)

	err := s.fetch.Submit(ctx, func(ctx context.Context) FetchResult {
		p, raw, err := s.planner.Plan(ctx, prompt, snapshot)
		return FetchResult{Plan: p, Raw: raw, Err: err}
	})
	if err != nil {
		return err
	}

	s.record(convo.NewPrompt(prompt))
	s.sessionLog("prompt: %s", prompt)
	return nil
}

// Tick polls the fetch slot once and, when a result arrived, drives the
// install/run chain. It returns true when a result was consumed.
func (s *Service) Tick(ctx context.Context) bool {
	res, ok := s.fetch.Poll()
	if !ok {
		return false
	}

	if res.Err != nil {
		// The request cycle aborts; any installed plan stays untouched.
		s.log.Warn().Err(res.Err).Msg("plan request failed")
		s.sessionLog("plan request failed: %v", res.Err)
		s.notify.PlanFailed(res.Err)
		return true
	}

	s.install(ctx, res.Plan.Summary, res.Plan.Tasks, res.Raw)
	return true
}

// InFlight reports whether a planning request is outstanding.
func (s *Service) InFlight() bool { return s.fetch.InFlight() }

// install replaces the current worklist wholesale: every task is policy
// evaluated, notes are logged as complete conversation entries and
// dropped from the visible list, and progression restarts from the head.
func (s *Service) install(ctx context.Context, summary string, tasks []task.Task, raw string) {
	kept := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Detail.Kind() == task.KindNote {
			t.Status = task.Complete()
			s.record(convo.NewNote(convo.NoteEntry{
				TaskID:      t.ID,
				Description: t.Description,
				Details:     t.Detail.Note.Details,
			}))
			s.sessionLog("note: %s", t.Detail.Note.Details)
			s.notify.NoteLogged(t)
			continue
		}

		if denial := s.policy.Evaluate(t); denial != nil {
			t.Status = task.Blocked(denial.Error())
		} else {
			t.Status = task.Ready()
		}
		kept = append(kept, t)
	}

	s.summary = summary
	s.tasks = kept
	s.rejected = map[string]bool{}
	s.synthesized = false
	s.results = 0
	s.resolved = false

	s.record(convo.NewPlan(summary, len(kept), raw))
	s.rebuildApprovals()
	s.snapshot()
	s.notify.PlanInstalled(summary, s.Tasks())

	s.Continue(ctx)
}

// Continue re-scans from the head of the list for the first unresolved
// task and acts on it: ready tasks run immediately, a blocked task halts
// progression pending approval. A task abandoned by rejection no longer
// counts as unresolved. Runs until the list halts or drains.
func (s *Service) Continue(ctx context.Context) {
	for {
		i, ok := s.nextPending()
		if !ok {
			s.finish(ctx)
			return
		}

		switch s.tasks[i].Status.State {
		case task.StateReady, task.StateProposed:
			s.run(ctx, i)
		case task.StateBlocked:
			s.rebuildApprovals()
			s.notify.ApprovalNeeded(s.tasks[i])
			return
		case task.StateRunning:
			// Execution is synchronous, so this should not occur.
			s.log.Warn().Str("task_id", s.tasks[i].ID).Msg("task already running")
			return
		default:
			return
		}
	}
}

// Approve pops the front of the approval queue, flips that task to
// ready, and resumes progression, which runs it immediately.
func (s *Service) Approve(ctx context.Context) error {
	i, err := s.popApproval()
	if err != nil {
		return err
	}

	s.tasks[i].Status = task.Ready()
	s.sessionLog("approved: %s", s.tasks[i].Description)
	s.snapshot()
	s.Continue(ctx)
	return nil
}

// Reject pops the front of the approval queue and abandons that task:
// it stays blocked permanently and progression skips past it.
func (s *Service) Reject(ctx context.Context) error {
	i, err := s.popApproval()
	if err != nil {
		return err
	}

	s.rejected[s.tasks[i].ID] = true
	s.sessionLog("rejected: %s", s.tasks[i].Description)
	s.snapshot()
	s.Continue(ctx)
	return nil
}

// PendingApproval returns the task at the front of the approval queue.
func (s *Service) PendingApproval() (task.Task, bool) {
	if len(s.approvals) == 0 {
		return task.Task{}, false
	}
	return s.tasks[s.approvals[0]], true
}

// Summary returns the installed plan's summary line.
func (s *Service) Summary() string { return s.summary }

// Tasks returns a copy of the current worklist.
func (s *Service) Tasks() []task.Task {
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// History returns a copy of the in-memory conversation history.
func (s *Service) History() []convo.Entry {
	out := make([]convo.Entry, len(s.history))
	copy(out, s.history)
	return out
}

// nextPending finds the first task by creation order that is neither
// complete nor abandoned. Insertion order equals creation order, so no
// sorting happens here.
func (s *Service) nextPending() (int, bool) {
	for i := range s.tasks {
		if s.tasks[i].Status.State == task.StateComplete {
			continue
		}
		if s.rejected[s.tasks[i].ID] {
			continue
		}
		return i, true
	}
	return 0, false
}

func (s *Service) run(ctx context.Context, i int) {
	ctx = logging.WithTaskID(ctx, s.tasks[i].ID)
	s.log.Debug().Ctx(ctx).Str("kind", s.tasks[i].Detail.Kind()).Msg("running task")

	s.tasks[i].Status = task.Running()
	s.snapshot()
	s.notify.TaskStarted(s.tasks[i])

	switch s.tasks[i].Detail.Kind() {
	case task.KindCommand:
		s.runCommand(ctx, i)
	case task.KindFileEdit:
		s.runFileEdit(i)
	default:
		// Notes are dropped at install time; complete defensively.
		s.tasks[i].Status = task.Complete()
	}

	s.snapshot()
}

func (s *Service) runCommand(ctx context.Context, i int) {
	t := &s.tasks[i]
	cmd := t.Detail.Command

	res, err := s.runner.RunShell(ctx, cmd.Shell, cmd.Command, cmd.Cwd)
	if err != nil {
		s.block(i, fmt.Sprintf("execution failed: %v", err))
		return
	}

	t.Annotate("exit code: %d", res.ExitCode)
	if res.Stdout != "" {
		t.Annotate("stdout: %s", res.Stdout)
	}
	if res.Stderr != "" {
		t.Annotate("stderr: %s", res.Stderr)
	}
	t.Status = task.Complete()
	s.results++

	s.record(convo.NewCommand(convo.CommandEntry{
		TaskID:      t.ID,
		Description: t.Description,
		Command:     cmd.Command,
		Shell:       cmd.Shell,
		ExitCode:    res.ExitCode,
		Stdout:      res.Stdout,
		Stderr:      res.Stderr,
	}))
	if err := s.store.AppendCommand(cmd.Command, cmd.Cwd, res.Stdout, res.Stderr); err != nil {
		s.log.Warn().Err(err).Msg("appending shell transcript")
	}
	s.sessionLog("ran %q (exit %d)", cmd.Command, res.ExitCode)
	s.notify.CommandResult(*t, res)
}

func (s *Service) runFileEdit(i int) {
	t := &s.tasks[i]
	edit := t.Detail.FileEdit

	written, err := s.runner.WriteFile(edit.Path, []byte(edit.NewText))
	if err != nil {
		s.block(i, fmt.Sprintf("file write failed: %v", err))
		return
	}

	t.Annotate("wrote: %s", written.Path)
	if written.BackupPath != "" {
		t.Annotate("backup: %s", written.BackupPath)
	}
	t.Status = task.Complete()
	s.results++

	s.record(convo.NewFileEdit(convo.FileEditEntry{
		TaskID:      t.ID,
		Description: t.Description,
		Path:        written.Path,
		BackupPath:  written.BackupPath,
	}))
	s.sessionLog("wrote file %s", written.Path)
	s.notify.FileWritten(*t, written)
}

// block marks a task blocked after an execution failure. The failure is
// terminal for automatic progression; the operator can approve a retry
// or reject to abandon it.
func (s *Service) block(i int, reason string) {
	s.tasks[i].Status = task.Blocked(reason)
	s.sessionLog("blocked: %s (%s)", s.tasks[i].Description, reason)
	s.notify.TaskBlocked(s.tasks[i])
}

// finish runs once the list has drained: report resolution and, at most
// once per plan, synthesize the captured results into prose. Synthesis
// is skipped when the plan had no executable tasks, when no results
// were captured, or when an abandoned executable task remains.
func (s *Service) finish(ctx context.Context) {
	if !s.resolved {
		s.resolved = true
		completed, abandoned := s.tally()
		s.sessionLog("worklist resolved: %d complete, %d abandoned", completed, abandoned)
		s.notify.AllTasksResolved(completed, abandoned)
	}

	if s.synthesized || s.results == 0 || !s.allExecutablesComplete() {
		return
	}
	s.synthesized = true

	text, err := s.planner.Synthesize(ctx, s.History())
	if err != nil {
		s.log.Warn().Err(err).Msg("synthesis request failed")
		s.notify.PlanFailed(fmt.Errorf("synthesis failed: %w", err))
		return
	}

	s.sessionLog("synthesis: %s", text)
	s.notify.Synthesis(text)
}

func (s *Service) tally() (completed, abandoned int) {
	for i := range s.tasks {
		switch {
		case s.tasks[i].Status.State == task.StateComplete:
			completed++
		case s.rejected[s.tasks[i].ID]:
			abandoned++
		}
	}
	return completed, abandoned
}

// allExecutablesComplete reports whether every command or file-edit task
// finished. An empty executable set returns false so note-only plans
// never trigger synthesis.
func (s *Service) allExecutablesComplete() bool {
	any := false
	for i := range s.tasks {
		if !s.tasks[i].Detail.Executable() {
			continue
		}
		any = true
		if s.tasks[i].Status.State != task.StateComplete {
			return false
		}
	}
	return any
}

func (s *Service) popApproval() (int, error) {
	s.rebuildApprovals()
	if len(s.approvals) == 0 {
		return 0, fmt.Errorf("no task is awaiting approval")
	}
	i := s.approvals[0]
	s.approvals = s.approvals[1:]
	return i, nil
}

// rebuildApprovals recomputes the queue from the blocked set, skipping
// abandoned tasks, in creation order.
func (s *Service) rebuildApprovals() {
	s.approvals = s.approvals[:0]
	for i := range s.tasks {
		if s.tasks[i].Status.State != task.StateBlocked {
			continue
		}
		if s.rejected[s.tasks[i].ID] {
			continue
		}
		s.approvals = append(s.approvals, i)
	}
}

// record appends one entry to the in-memory history and the durable
// conversation log. Log write failures are logged, not fatal.
func (s *Service) record(entry convo.Entry) {
	s.history = append(s.history, entry)
	if err := s.convoLog.Append(entry); err != nil {
		s.log.Warn().Err(err).Str("type", string(entry.Type)).Msg("appending conversation log")
	}
}

// snapshot rewrites the pretty-printed plan file so external viewers
// always see the latest task states.
func (s *Service) snapshot() {
	if err := s.store.WritePlan(s.summary, s.tasks); err != nil {
		s.log.Warn().Err(err).Msg("writing plan snapshot")
	}
}

func (s *Service) sessionLog(format string, args ...any) {
	if err := s.store.AppendLog(fmt.Sprintf(format, args...)); err != nil {
		s.log.Warn().Err(err).Msg("appending session log")
	}
}

type nopNotifier struct{}

func (nopNotifier) PlanInstalled(string, []task.Task)        {}
func (nopNotifier) NoteLogged(task.Task)                     {}
func (nopNotifier) TaskStarted(task.Task)                    {}
func (nopNotifier) CommandResult(task.Task, executil.Result) {}
func (nopNotifier) FileWritten(task.Task, executil.Written)  {}
func (nopNotifier) TaskBlocked(task.Task)                    {}
func (nopNotifier) ApprovalNeeded(task.Task)                 {}
func (nopNotifier) AllTasksResolved(int, int)                {}
func (nopNotifier) Synthesis(string)                         {}
func (nopNotifier) PlanFailed(error)                         {}
