package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	before := time.Now().UTC()
	tk := New("check disk", Detail{Command: &CommandDetail{Shell: "/bin/bash", Command: "df -h"}})

	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, StateProposed, tk.Status.State)
	assert.False(t, tk.CreatedAt.Before(before))
	assert.Empty(t, tk.Annotations)
}

func TestDetailKind(t *testing.T) {
	tests := []struct {
		name       string
		detail     Detail
		kind       string
		executable bool
	}{
		{
			name:       "command",
			detail:     Detail{Command: &CommandDetail{Shell: "/bin/sh", Command: "ls"}},
			kind:       KindCommand,
			executable: true,
		},
		{
			name:       "file edit",
			detail:     Detail{FileEdit: &FileEditDetail{Path: "/etc/motd", NewText: "hi"}},
			kind:       KindFileEdit,
			executable: true,
		},
		{
			name:       "note",
			detail:     Detail{Note: &NoteDetail{Details: "remember"}},
			kind:       KindNote,
			executable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.detail.Kind())
			assert.Equal(t, tt.executable, tt.detail.Executable())
		})
	}
}

// Guards exhaustiveness: every kind discriminator must round-trip
// through the tagged JSON encoding. A new variant that is not handled
// in MarshalJSON/UnmarshalJSON fails here.
func TestDetailRoundTripAllKinds(t *testing.T) {
	details := map[string]Detail{
		KindCommand:  {Command: &CommandDetail{Shell: "/bin/bash", Command: "uptime", Cwd: "/tmp", RequiresRoot: true}},
		KindFileEdit: {FileEdit: &FileEditDetail{Path: "/etc/hosts", NewText: "127.0.0.1 localhost", Description: "reset hosts"}},
		KindNote:     {Note: &NoteDetail{Details: "inspect output by hand"}},
	}

	for kind, d := range details {
		t.Run(kind, func(t *testing.T) {
			data, err := json.Marshal(d)
			require.NoError(t, err)

			var got Detail
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, d, got)
			assert.Equal(t, kind, got.Kind())
		})
	}
}

func TestDetailUnmarshalUnknownKind(t *testing.T) {
	var d Detail
	err := json.Unmarshal([]byte(`{"kind":"reboot"}`), &d)
	assert.Error(t, err)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "ready", Ready().Text())
	assert.Equal(t, "blocked: command 'rm' is not allowlisted", Blocked("command 'rm' is not allowlisted").Text())
	assert.Equal(t, "complete", Complete().Text())
}

func TestAnnotate(t *testing.T) {
	tk := New("n", Detail{Note: &NoteDetail{Details: "d"}})
	tk.Annotate("exit %d", 0)
	tk.Annotate("written %s", "/etc/motd")

	require.Len(t, tk.Annotations, 2)
	assert.Equal(t, "exit 0", tk.Annotations[0])
	assert.Equal(t, "written /etc/motd", tk.Annotations[1])
}
