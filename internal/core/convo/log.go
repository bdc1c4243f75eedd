package convo

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/colonyops/sysmedic/internal/core/logging"
)

// Log is the append-only JSONL conversation log: one JSON object per
// line, one line per event. Appends are flushed immediately so a crash
// loses at most the final unflushed line.
type Log struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// OpenLog opens (creating if needed) the conversation log at path.
func OpenLog(path string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open conversation log %s: %w", path, err)
	}
	return &Log{file: file, path: path}, nil
}

// Append writes one entry and syncs it to disk.
func (l *Log) Append(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode conversation entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append conversation entry: %w", err)
	}
	return l.file.Sync()
}

// Close releases the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Load reads the whole log back in write order. Corrupt lines are
// skipped and logged rather than failing the load; the log as a whole
// matters more than one bad record.
func (l *Log) Load() ([]Entry, error) {
	return LoadLog(l.path)
}

// LoadLog reads a conversation log file. A missing file is an empty
// history, not an error.
func LoadLog(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open conversation log %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	log := logging.Component("convo")

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			log.Warn().Err(err).Str("line", truncateLine(line)).Msg("skipping corrupt conversation entry")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read conversation log %s: %w", path, err)
	}
	return entries, nil
}

func truncateLine(line string) string {
	const limit = 120
	if len(line) <= limit {
		return line
	}
	return line[:limit] + "..."
}
