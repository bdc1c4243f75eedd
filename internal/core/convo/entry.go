// Package convo is the append-only conversation memory fed back into
// planning requests: prompts, installed plans, and execution results.
package convo

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryType discriminates conversation entry variants on the wire.
type EntryType string

// Conversation entry types.
const (
	TypePrompt   EntryType = "prompt"
	TypePlan     EntryType = "plan"
	TypeCommand  EntryType = "command"
	TypeFileEdit EntryType = "file_edit"
	TypeNote     EntryType = "note"
)

// Entry is one immutable record in the conversation log. Exactly one
// variant pointer is set, matching Type.
type Entry struct {
	Type      EntryType
	Timestamp time.Time

	Prompt   *PromptEntry
	Plan     *PlanEntry
	Command  *CommandEntry
	FileEdit *FileEditEntry
	Note     *NoteEntry
}

// PromptEntry records an operator request.
type PromptEntry struct {
	Prompt string `json:"prompt"`
}

// PlanEntry records an installed plan. Response carries the full raw
// planning text so later requests can replay it as assistant context.
type PlanEntry struct {
	Summary   string `json:"summary,omitempty"`
	TaskCount int    `json:"task_count"`
	Response  string `json:"response,omitempty"`
}

// CommandEntry records a completed command execution.
type CommandEntry struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
	Command     string `json:"command"`
	Shell       string `json:"shell"`
	ExitCode    int    `json:"exit_code"`
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
}

// FileEditEntry records a completed file write.
type FileEditEntry struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
	Path        string `json:"path"`
	BackupPath  string `json:"backup_path,omitempty"`
}

// NoteEntry records an advisory note from a plan.
type NoteEntry struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
	Details     string `json:"details"`
}

// MarshalJSON flattens the active variant into a single object tagged
// with "type". Variants share field names (description, task_id), so
// the merge goes through a map rather than struct embedding.
func (e Entry) MarshalJSON() ([]byte, error) {
	var variant any
	switch e.Type {
	case TypePrompt:
		variant = e.Prompt
	case TypePlan:
		variant = e.Plan
	case TypeCommand:
		variant = e.Command
	case TypeFileEdit:
		variant = e.FileEdit
	case TypeNote:
		variant = e.Note
	default:
		return nil, fmt.Errorf("unknown conversation entry type %q", e.Type)
	}
	if variant == nil {
		return nil, fmt.Errorf("conversation entry %q has no payload", e.Type)
	}

	raw, err := json.Marshal(variant)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	typeRaw, err := json.Marshal(e.Type)
	if err != nil {
		return nil, err
	}
	tsRaw, err := json.Marshal(e.Timestamp)
	if err != nil {
		return nil, err
	}
	fields["type"] = typeRaw
	fields["timestamp"] = tsRaw

	return json.Marshal(fields)
}

// UnmarshalJSON decodes a "type"-tagged entry object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var head struct {
		Type      EntryType `json:"type"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	e.Type = head.Type
	e.Timestamp = head.Timestamp

	switch head.Type {
	case TypePrompt:
		e.Prompt = &PromptEntry{}
		return json.Unmarshal(data, e.Prompt)
	case TypePlan:
		e.Plan = &PlanEntry{}
		return json.Unmarshal(data, e.Plan)
	case TypeCommand:
		e.Command = &CommandEntry{}
		return json.Unmarshal(data, e.Command)
	case TypeFileEdit:
		e.FileEdit = &FileEditEntry{}
		return json.Unmarshal(data, e.FileEdit)
	case TypeNote:
		e.Note = &NoteEntry{}
		return json.Unmarshal(data, e.Note)
	default:
		return fmt.Errorf("unknown conversation entry type %q", head.Type)
	}
}

// NewPrompt builds a prompt entry stamped with the current time.
func NewPrompt(prompt string) Entry {
	return Entry{Type: TypePrompt, Timestamp: time.Now().UTC(), Prompt: &PromptEntry{Prompt: prompt}}
}

// NewPlan builds a plan entry stamped with the current time.
func NewPlan(summary string, taskCount int, response string) Entry {
	return Entry{Type: TypePlan, Timestamp: time.Now().UTC(), Plan: &PlanEntry{
		Summary:   summary,
		TaskCount: taskCount,
		Response:  response,
	}}
}

// NewCommand builds a command-result entry stamped with the current time.
func NewCommand(c CommandEntry) Entry {
	return Entry{Type: TypeCommand, Timestamp: time.Now().UTC(), Command: &c}
}

// NewFileEdit builds a file-edit-result entry stamped with the current time.
func NewFileEdit(f FileEditEntry) Entry {
	return Entry{Type: TypeFileEdit, Timestamp: time.Now().UTC(), FileEdit: &f}
}

// NewNote builds a note entry stamped with the current time.
func NewNote(n NoteEntry) Entry {
	return Entry{Type: TypeNote, Timestamp: time.Now().UTC(), Note: &n}
}
