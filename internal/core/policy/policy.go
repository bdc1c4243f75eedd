// Package policy decides whether a task may execute without explicit
// operator approval.
package policy

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/sysmedic/internal/core/task"
)

// DenialKind classifies why the engine refused a task.
type DenialKind string

// Denial kinds. These are outcomes, not errors: a denied task becomes
// Blocked and is always recoverable through operator approval.
const (
	DenialCommand      DenialKind = "command_denied"
	DenialFile         DenialKind = "file_denied"
	DenialEditTooLarge DenialKind = "edit_too_large"
)

// Denial is a typed policy refusal. Its message is used verbatim as
// the task's block reason.
type Denial struct {
	Kind    DenialKind
	Subject string
	LimitKB int
}

func (d *Denial) Error() string {
	switch d.Kind {
	case DenialCommand:
		return fmt.Sprintf("command '%s' is not allowlisted", d.Subject)
	case DenialFile:
		return fmt.Sprintf("file '%s' is not allowlisted", d.Subject)
	case DenialEditTooLarge:
		return fmt.Sprintf("edit for '%s' exceeds %d KiB limit", d.Subject, d.LimitKB)
	default:
		return fmt.Sprintf("task denied (%s)", d.Kind)
	}
}

// Config is the allowlist configuration as it appears in the config
// file. Zero values fall back to the built-in defaults, so the engine
// is usable with no configuration at all.
type Config struct {
	// CommandPatterns are regular expressions matched against the full
	// command string. Any match permits the command.
	CommandPatterns []string `yaml:"command_patterns"`
	// FilePatterns are doublestar globs matched against edit targets.
	FilePatterns []string `yaml:"file_patterns"`
	// MaxEditSizeKB caps file-edit content size. An edit of exactly
	// this size is permitted.
	MaxEditSizeKB int `yaml:"max_edit_size_kb"`
}

// withDefaults fills unset fields from the built-in defaults.
func (c Config) withDefaults() Config {
	if c.CommandPatterns == nil {
		c.CommandPatterns = DefaultCommandPatterns()
	}
	if c.FilePatterns == nil {
		c.FilePatterns = DefaultFilePatterns()
	}
	if c.MaxEditSizeKB == 0 {
		c.MaxEditSizeKB = DefaultMaxEditSizeKB
	}
	return c
}

// Engine evaluates tasks against the compiled allowlist. It never
// mutates the task it is given.
type Engine struct {
	commands      []*regexp.Regexp
	filePatterns  []string
	maxEditSizeKB int
}

// NewEngine compiles the allowlist. Patterns that fail to compile are
// a hard startup error, never a runtime one.
func NewEngine(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()

	commands := make([]*regexp.Regexp, 0, len(cfg.CommandPatterns))
	for _, pat := range cfg.CommandPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid command pattern %q: %w", pat, err)
		}
		commands = append(commands, re)
	}

	for _, pat := range cfg.FilePatterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid file pattern %q", pat)
		}
	}

	return &Engine{
		commands:      commands,
		filePatterns:  cfg.FilePatterns,
		maxEditSizeKB: cfg.MaxEditSizeKB,
	}, nil
}

// Evaluate returns nil when the task may run automatically, or a
// *Denial describing why it must wait for approval.
func (e *Engine) Evaluate(t task.Task) error {
	switch {
	case t.Detail.Command != nil:
		return e.evaluateCommand(t.Detail.Command)
	case t.Detail.FileEdit != nil:
		return e.evaluateFileEdit(t.Detail.FileEdit)
	case t.Detail.Note != nil:
		// Notes carry no side effects.
		return nil
	default:
		return fmt.Errorf("task %s has no detail variant", t.ID)
	}
}

func (e *Engine) evaluateCommand(cmd *task.CommandDetail) error {
	for _, re := range e.commands {
		if re.MatchString(cmd.Command) {
			return nil
		}
	}
	return &Denial{Kind: DenialCommand, Subject: cmd.Command}
}

func (e *Engine) evaluateFileEdit(edit *task.FileEditDetail) error {
	if edit.Path != "" {
		matched := false
		for _, pat := range e.filePatterns {
			ok, err := doublestar.Match(pat, edit.Path)
			if err == nil && ok {
				matched = true
				break
			}
		}
		if !matched {
			return &Denial{Kind: DenialFile, Subject: edit.Path}
		}
	}

	// Integer division: an edit under one full KiB over the limit
	// still rounds down, matching the documented S == L boundary.
	if len(edit.NewText)/1024 > e.maxEditSizeKB {
		subject := edit.Path
		if subject == "" {
			subject = "<buffer>"
		}
		return &Denial{Kind: DenialEditTooLarge, Subject: subject, LimitKB: e.maxEditSizeKB}
	}
	return nil
}
