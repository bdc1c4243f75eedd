package convo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convo.jsonl")

	log, err := OpenLog(path)
	require.NoError(t, err)
	defer func() { _ = log.Close() }()

	written := []Entry{
		NewPrompt("why is nginx down?"),
		NewPlan("restart nginx", 2, `{"summary":"restart nginx","plan":[]}`),
		NewCommand(CommandEntry{
			TaskID:      "t1",
			Description: "check status",
			Command:     "systemctl status nginx",
			Shell:       "/bin/bash",
			ExitCode:    3,
			Stdout:      "inactive (dead)",
			Stderr:      "",
		}),
		NewFileEdit(FileEditEntry{TaskID: "t2", Description: "fix conf", Path: "/etc/nginx/nginx.conf", BackupPath: "/etc/nginx/nginx.conf.sysmedic.bak"}),
		NewNote(NoteEntry{TaskID: "t3", Description: "verify", Details: "curl localhost afterwards"}),
	}

	for _, e := range written {
		require.NoError(t, log.Append(e))
	}

	loaded, err := log.Load()
	require.NoError(t, err)
	require.Len(t, loaded, len(written))

	for i := range written {
		assert.Equal(t, written[i].Type, loaded[i].Type, "entry %d type", i)
	}
	assert.Equal(t, "why is nginx down?", loaded[0].Prompt.Prompt)
	assert.Equal(t, 2, loaded[1].Plan.TaskCount)
	assert.Equal(t, 3, loaded[2].Command.ExitCode)
	assert.Equal(t, "systemctl status nginx", loaded[2].Command.Command)
	assert.Equal(t, "/etc/nginx/nginx.conf", loaded[3].FileEdit.Path)
	assert.Equal(t, "curl localhost afterwards", loaded[4].Note.Details)
}

func TestLoadSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convo.jsonl")

	log, err := OpenLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(NewPrompt("first")))
	require.NoError(t, log.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{this is not json}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	log, err = OpenLog(path)
	require.NoError(t, err)
	defer func() { _ = log.Close() }()
	require.NoError(t, log.Append(NewPrompt("second")))

	loaded, err := log.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "first", loaded[0].Prompt.Prompt)
	assert.Equal(t, "second", loaded[1].Prompt.Prompt)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	entries, err := LoadLog(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApproxTokensMonotonic(t *testing.T) {
	prev := 0
	for _, n := range []int{0, 1, 10, 100, 1000} {
		got := ApproxTokens(strings.Repeat("a", n))
		assert.GreaterOrEqual(t, got, prev, "token estimate must be monotonic in length")
		prev = got
	}
}

func TestEntryTokensScaleWithContent(t *testing.T) {
	small := NewCommand(CommandEntry{Command: "ls", Stdout: "ok"})
	big := NewCommand(CommandEntry{Command: "ls", Stdout: strings.Repeat("line\n", 500)})

	assert.Greater(t, EntryTokens(big), EntryTokens(small))
}

func TestTruncateKeepsNewestWithinBudget(t *testing.T) {
	history := []Entry{
		NewPrompt(strings.Repeat("old ", 200)),  // ~200 tokens
		NewPrompt(strings.Repeat("mid ", 100)),  // ~100 tokens
		NewPrompt(strings.Repeat("new ", 50)),   // ~50 tokens
	}

	// Budget leaves room for the newest two entries only:
	// 450 - 100(system) - 50(prompt) - 100(margin) = 200 available,
	// newest (~51) + middle (~101) fit, oldest (~201) does not.
	got := Truncate(history, 450, 100, 50)
	require.Len(t, got, 2)
	assert.Equal(t, history[1].Prompt.Prompt, got[0].Prompt.Prompt)
	assert.Equal(t, history[2].Prompt.Prompt, got[1].Prompt.Prompt)
}

func TestTruncateDropsOlderBeyondFirstOverflow(t *testing.T) {
	// The middle entry alone overflows; everything older than it is
	// dropped even though the oldest would have fit on its own.
	history := []Entry{
		NewPrompt("tiny"),
		NewPrompt(strings.Repeat("huge ", 1000)),
		NewPrompt("recent"),
	}

	got := Truncate(history, 300, 50, 50)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].Prompt.Prompt)
}

func TestTruncateNoBudgetReturnsEmpty(t *testing.T) {
	history := []Entry{NewPrompt("anything")}
	assert.Empty(t, Truncate(history, 10, 100, 50))
}

func TestTruncateIdempotent(t *testing.T) {
	history := []Entry{
		NewPrompt(strings.Repeat("a", 800)),
		NewPrompt(strings.Repeat("b", 400)),
		NewPrompt(strings.Repeat("c", 200)),
		NewPrompt(strings.Repeat("d", 100)),
	}

	once := Truncate(history, 500, 50, 50)
	twice := Truncate(once, 500, 50, 50)
	assert.Equal(t, once, twice, "already-truncated history is a fixed point")
}
