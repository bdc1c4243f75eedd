package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/sysmedic/internal/core/task"
)

const defaultShell = "/bin/bash"

func TestParseSimplePlan(t *testing.T) {
	input := `{
		"summary": "Check disk pressure",
		"plan": [
			{
				"id": "1",
				"kind": "command",
				"description": "Inspect disk usage",
				"command": "df -h",
				"shell": "/bin/sh"
			},
			{
				"id": "2",
				"kind": "note",
				"description": "Review high usage partitions"
			}
		]
	}`

	p, err := Parse(input, defaultShell)
	require.NoError(t, err)

	assert.Equal(t, "Check disk pressure", p.Summary)
	require.Len(t, p.Tasks, 2)

	cmd := p.Tasks[0]
	require.NotNil(t, cmd.Detail.Command)
	assert.Equal(t, "df -h", cmd.Detail.Command.Command)
	assert.Equal(t, "/bin/sh", cmd.Detail.Command.Shell)
	assert.Equal(t, task.StateProposed, cmd.Status.State)

	note := p.Tasks[1]
	require.NotNil(t, note.Detail.Note)
	assert.Equal(t, "Review high usage partitions", note.Description)
}

func TestParseCodeFencedPlan(t *testing.T) {
	input := "```json\n{\"summary\":\"s\",\"plan\":[{\"kind\":\"note\",\"description\":\"hi\"}]}\n```"

	p, err := Parse(input, defaultShell)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, "hi", p.Tasks[0].Description)
}

func TestParseFenceMissingClose(t *testing.T) {
	input := "```json\n{\"summary\":\"s\",\"plan\":[{\"kind\":\"note\",\"description\":\"hi\"}]}"

	p, err := Parse(input, defaultShell)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 1)
}

func TestParseIgnoresSurroundingProse(t *testing.T) {
	input := "Here is your plan:\n\n{\"summary\":\"ok\",\"plan\":[{\"kind\":\"command\",\"command\":\"uptime\"}]}\nGood luck!"

	p, err := Parse(input, defaultShell)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 1)
	require.NotNil(t, p.Tasks[0].Detail.Command)
	assert.Equal(t, "uptime", p.Tasks[0].Detail.Command.Command)
	// Missing shell falls back to the configured default.
	assert.Equal(t, defaultShell, p.Tasks[0].Detail.Command.Shell)
}

func TestParseTruncatedJSONFlagsHint(t *testing.T) {
	input := `{"summary":"s","plan":[{"kind":"command","command":"df -h"`

	_, err := Parse(input, defaultShell)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestParseDanglingCommaFlagsHint(t *testing.T) {
	// A list cut off after a comma decodes as a closer where a value
	// was expected.
	input := `{"summary":"s","plan":[{"kind":"note","details":"x"},]}`

	_, err := Parse(input, defaultShell)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestParsePlainSyntaxErrorHasNoTruncationHint(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing value", input: `{"summary": @, "plan":[]}`},
		{name: "bad literal", input: `{"summary": nulx, "plan":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, defaultShell)
			require.Error(t, err)
			assert.NotContains(t, err.Error(), "truncated")
		})
	}
}

func TestParseCommandMissingCommandField(t *testing.T) {
	input := `{"summary":"s","plan":[{"kind":"command","description":"no command"}]}`

	_, err := Parse(input, defaultShell)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing 'command'")
}

func TestParseFileEditMissingNewText(t *testing.T) {
	input := `{"summary":"s","plan":[{"kind":"file_edit","path":"/etc/motd"}]}`

	_, err := Parse(input, defaultShell)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing 'new_text'")
}

func TestParseEmptyPlanIsError(t *testing.T) {
	_, err := Parse(`{"summary":"nothing to do","plan":[]}`, defaultShell)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "any plan items")
}

func TestParseUnknownKindBecomesNote(t *testing.T) {
	tests := []struct {
		name        string
		item        string
		description string
		details     string
	}{
		{
			name:        "unrecognized kind",
			item:        `{"kind":"reboot","description":"Restart the box","details":"use with care"}`,
			description: "Restart the box",
			details:     "use with care",
		},
		{
			name:        "missing kind prefers details",
			item:        `{"details":"plain advisory text"}`,
			description: "plain advisory text",
			details:     "plain advisory text",
		},
		{
			name:        "nothing supplied at all",
			item:        `{"kind":"note"}`,
			description: "Note",
			details:     "Note",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(`{"summary":"s","plan":[`+tt.item+`]}`, defaultShell)
			require.NoError(t, err)
			require.Len(t, p.Tasks, 1)
			require.NotNil(t, p.Tasks[0].Detail.Note)
			assert.Equal(t, tt.description, p.Tasks[0].Description)
			assert.Equal(t, tt.details, p.Tasks[0].Detail.Note.Details)
		})
	}
}

func TestParseSynthesizedNoteDescriptionTruncates(t *testing.T) {
	long := strings.Repeat("x", 80) + "\nsecond line"
	p, err := Parse(`{"summary":"s","plan":[{"kind":"note","details":"`+strings.ReplaceAll(long, "\n", `\n`)+`"}]}`, defaultShell)
	require.NoError(t, err)

	desc := p.Tasks[0].Description
	assert.Equal(t, strings.Repeat("x", 60)+"…", desc)
}

func TestParseTaskOrderMatchesResponseOrder(t *testing.T) {
	input := `{"summary":"s","plan":[
		{"kind":"command","command":"first","description":"a"},
		{"kind":"command","command":"second","description":"b"},
		{"kind":"command","command":"third","description":"c"}
	]}`

	p, err := Parse(input, defaultShell)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 3)

	for i := 1; i < len(p.Tasks); i++ {
		assert.False(t, p.Tasks[i].CreatedAt.Before(p.Tasks[i-1].CreatedAt),
			"creation timestamps must preserve response order")
	}
}

func TestExtractJSONSegment(t *testing.T) {
	seg, ok := extractJSONSegment("Model output:\n\n{\n  \"summary\": \"ok\",\n  \"plan\": []\n}\nThanks!")
	require.True(t, ok)
	assert.Contains(t, seg, `"summary"`)

	_, ok = extractJSONSegment("no braces at all")
	assert.False(t, ok)
}
