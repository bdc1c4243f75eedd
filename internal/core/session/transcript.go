package session

import (
	"fmt"
	"os"
	"strings"
)

// AppendCommand records an executed command in the shell transcript,
// a bash-flavored file an operator can read or re-run by hand.
// Captured stdout lines are written as `#> ` comments and stderr as
// `#err: ` comments beneath the command itself.
func (s *Store) AppendCommand(command, cwd, stdout, stderr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.transcriptPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript %s: %w", s.transcriptPath, err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	if cwd != "" {
		fmt.Fprintf(&b, "cd %s\n", shellQuote(cwd))
	}
	b.WriteString(command)
	b.WriteByte('\n')

	if strings.TrimSpace(stdout) != "" {
		for _, line := range strings.Split(strings.TrimRight(stdout, "\n"), "\n") {
			fmt.Fprintf(&b, "#> %s\n", commentSafe(line))
		}
	}
	if strings.TrimSpace(stderr) != "" {
		for _, line := range strings.Split(strings.TrimRight(stderr, "\n"), "\n") {
			fmt.Fprintf(&b, "#err: %s\n", commentSafe(line))
		}
	}
	b.WriteByte('\n')

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// shellQuote single-quotes an argument for bash, escaping embedded
// single quotes.
func shellQuote(arg string) string {
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}

// commentSafe strips characters that would break a one-line comment.
func commentSafe(line string) string {
	line = strings.ReplaceAll(line, "\r", "")
	return strings.ReplaceAll(line, "\n", " ")
}
