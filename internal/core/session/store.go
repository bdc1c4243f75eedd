// Package session owns the on-disk artifacts of one operator session:
// the pretty-printed plan snapshot, the human-readable session log,
// and the replayable shell transcript.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/colonyops/sysmedic/internal/core/task"
)

// timestampLayout names the session's files; one session per process
// start.
const timestampLayout = "20060102-150405"

// Store writes session artifacts under a single session directory.
// All writers share one lock since command results, notes, and edits
// may append within the same controller tick.
type Store struct {
	mu             sync.Mutex
	id             string
	planPath       string
	logPath        string
	transcriptPath string
	convoPath      string
}

// snapshot is the exported plan file shape.
type snapshot struct {
	Summary     string      `json:"summary,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
	Tasks       []task.Task `json:"tasks"`
}

// New creates the session directory and derives this session's file
// names. Failure here is fatal to startup; there is nowhere to record
// anything without it.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create session root %s: %w", root, err)
	}

	ts := time.Now().UTC().Format(timestampLayout)
	return &Store{
		id:             ts,
		planPath:       filepath.Join(root, fmt.Sprintf("plan-%s.json", ts)),
		logPath:        filepath.Join(root, fmt.Sprintf("session-%s.log", ts)),
		transcriptPath: filepath.Join(root, fmt.Sprintf("history-%s.sh", ts)),
		convoPath:      filepath.Join(root, fmt.Sprintf("convo-%s.jsonl", ts)),
	}, nil
}

// ID returns the timestamp identifying this session's artifacts.
func (s *Store) ID() string { return s.id }

// ConvoPath returns the path for this session's conversation log.
func (s *Store) ConvoPath() string { return s.convoPath }

// PlanPath returns the path of the exported plan snapshot.
func (s *Store) PlanPath() string { return s.planPath }

// WritePlan exports the current plan state. Called after every
// task-list mutation so an external viewer always sees the latest
// statuses; the write goes through a temp file so the viewer never
// sees a torn snapshot.
func (s *Store) WritePlan(summary string, tasks []task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot{
		Summary:     summary,
		GeneratedAt: time.Now().UTC(),
		Tasks:       tasks,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan snapshot: %w", err)
	}

	tmp := s.planPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write plan snapshot: %w", err)
	}
	return os.Rename(tmp, s.planPath)
}

// AppendLog appends one timestamped line to the session log.
func (s *Store) AppendLog(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session log %s: %w", s.logPath, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, "[%s] %s\n", time.Now().UTC().Format(time.RFC3339), line); err != nil {
		return fmt.Errorf("append session log: %w", err)
	}
	return nil
}
