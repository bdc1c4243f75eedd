// Package task defines the unit of work produced by plan parsing and
// driven through its lifecycle by the policy engine and the controller.
package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a task.
type State string

// Task lifecycle states. Proposed tasks have not been policy-evaluated.
// Blocked tasks carry a human-readable reason and re-enter the forward
// path only through explicit operator approval. Complete is terminal.
const (
	StateProposed State = "proposed"
	StateReady    State = "ready"
	StateBlocked  State = "blocked"
	StateRunning  State = "running"
	StateComplete State = "complete"
)

// Status pairs a lifecycle state with the block reason, which is only
// meaningful when State == StateBlocked.
type Status struct {
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// Proposed returns the initial status of a freshly parsed task.
func Proposed() Status { return Status{State: StateProposed} }

// Ready returns the policy-approved status.
func Ready() Status { return Status{State: StateReady} }

// Blocked returns a denied status with the given reason.
func Blocked(reason string) Status { return Status{State: StateBlocked, Reason: reason} }

// Running returns the dispatched status.
func Running() Status { return Status{State: StateRunning} }

// Complete returns the terminal status.
func Complete() Status { return Status{State: StateComplete} }

// Label returns a short display label for the status.
func (s Status) Label() string {
	switch s.State {
	case StateProposed:
		return "proposed"
	case StateReady:
		return "ready"
	case StateBlocked:
		return "blocked"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	default:
		return string(s.State)
	}
}

// Text returns the status with the block reason appended when present.
func (s Status) Text() string {
	if s.State == StateBlocked && s.Reason != "" {
		return fmt.Sprintf("blocked: %s", s.Reason)
	}
	return s.Label()
}

// Detail kind discriminators used on the wire and in the plan snapshot.
const (
	KindCommand  = "command"
	KindFileEdit = "file_edit"
	KindNote     = "note"
)

// Detail is the payload variant of a task. Exactly one of Command,
// FileEdit, or Note is set, fixed at creation. Kind reports which.
type Detail struct {
	Command  *CommandDetail  `json:"-"`
	FileEdit *FileEditDetail `json:"-"`
	Note     *NoteDetail     `json:"-"`
}

// CommandDetail is a shell command to run.
type CommandDetail struct {
	Shell        string `json:"shell"`
	Command      string `json:"command"`
	Cwd          string `json:"cwd,omitempty"`
	RequiresRoot bool   `json:"requires_root"`
}

// FileEditDetail is a whole-file replacement write.
type FileEditDetail struct {
	Path        string `json:"path,omitempty"`
	NewText     string `json:"new_text"`
	Description string `json:"description,omitempty"`
}

// NoteDetail is advisory free text with no side effects.
type NoteDetail struct {
	Details string `json:"details"`
}

// Kind returns the detail's wire discriminator.
func (d Detail) Kind() string {
	switch {
	case d.Command != nil:
		return KindCommand
	case d.FileEdit != nil:
		return KindFileEdit
	case d.Note != nil:
		return KindNote
	default:
		return ""
	}
}

// Executable reports whether the detail has real side effects. Notes do
// not count toward plan completion.
func (d Detail) Executable() bool {
	switch d.Kind() {
	case KindCommand, KindFileEdit:
		return true
	default:
		return false
	}
}

type detailWire struct {
	Kind string `json:"kind"`

	// command
	Shell        string `json:"shell,omitempty"`
	Command      string `json:"command,omitempty"`
	Cwd          string `json:"cwd,omitempty"`
	RequiresRoot bool   `json:"requires_root,omitempty"`

	// file_edit
	Path        string `json:"path,omitempty"`
	NewText     string `json:"new_text,omitempty"`
	Description string `json:"description,omitempty"`

	// note
	Details string `json:"details,omitempty"`
}

// MarshalJSON encodes the detail as a flat object tagged with "kind".
func (d Detail) MarshalJSON() ([]byte, error) {
	w := detailWire{Kind: d.Kind()}
	switch {
	case d.Command != nil:
		w.Shell = d.Command.Shell
		w.Command = d.Command.Command
		w.Cwd = d.Command.Cwd
		w.RequiresRoot = d.Command.RequiresRoot
	case d.FileEdit != nil:
		w.Path = d.FileEdit.Path
		w.NewText = d.FileEdit.NewText
		w.Description = d.FileEdit.Description
	case d.Note != nil:
		w.Details = d.Note.Details
	default:
		return nil, fmt.Errorf("task detail has no variant set")
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a "kind"-tagged detail object.
func (d *Detail) UnmarshalJSON(data []byte) error {
	var w detailWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case KindCommand:
		d.Command = &CommandDetail{
			Shell:        w.Shell,
			Command:      w.Command,
			Cwd:          w.Cwd,
			RequiresRoot: w.RequiresRoot,
		}
	case KindFileEdit:
		d.FileEdit = &FileEditDetail{
			Path:        w.Path,
			NewText:     w.NewText,
			Description: w.Description,
		}
	case KindNote:
		d.Note = &NoteDetail{Details: w.Details}
	default:
		return fmt.Errorf("unknown task detail kind %q", w.Kind)
	}
	return nil
}

// Task is one unit of work in a plan. CreatedAt never changes after
// creation and is the sole ordering key for linear progression.
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Detail      Detail    `json:"detail"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Annotations []string  `json:"annotations"`
}

// New creates a proposed task with a fresh ID and creation timestamp.
func New(description string, detail Detail) Task {
	return Task{
		ID:          uuid.NewString(),
		Description: description,
		Detail:      detail,
		Status:      Proposed(),
		CreatedAt:   time.Now().UTC(),
		Annotations: []string{},
	}
}

// Annotate appends a free-text annotation, e.g. an exit code or the
// path a file edit landed on.
func (t *Task) Annotate(format string, args ...any) {
	t.Annotations = append(t.Annotations, fmt.Sprintf(format, args...))
}
