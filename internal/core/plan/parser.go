package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/colonyops/sysmedic/internal/core/task"
)

const (
	// snippet bounds applied to the parse error context.
	snippetLines = 6
	snippetChars = 500

	// synthesized note descriptions are cut at this many characters.
	noteDescriptionLimit = 60
)

// rawItem is the shape of one entry in the planning service's "plan"
// array. Everything is optional; validation happens per kind.
type rawItem struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Description  string `json:"description"`
	Command      string `json:"command"`
	Shell        string `json:"shell"`
	RequiresRoot bool   `json:"requires_root"`
	Cwd          string `json:"cwd"`
	Path         string `json:"path"`
	NewText      string `json:"new_text"`
	Details      string `json:"details"`
}

type rawPlan struct {
	Summary string    `json:"summary"`
	Plan    []rawItem `json:"plan"`
}

// Parse extracts a structured plan from a raw planning-service
// response. The service is told to answer with bare JSON but routinely
// wraps it in code fences or commentary, so the parser strips a fence,
// recovers the outermost balanced {...} region, and only then decodes.
func Parse(raw, defaultShell string) (*Plan, error) {
	cleaned := strings.TrimSpace(stripCodeFence(raw))

	segment, ok := extractJSONSegment(cleaned)
	if !ok {
		// Some responses break brace balancing with stray newlines
		// inside string literals; retry against a flattened copy.
		segment, ok = extractJSONSegment(strings.ReplaceAll(cleaned, "\n", ""))
	}
	if !ok {
		segment = cleaned
	}

	var decoded rawPlan
	if err := json.Unmarshal([]byte(strings.TrimSpace(segment)), &decoded); err != nil {
		return nil, parseError(err, cleaned)
	}

	tasks := make([]task.Task, 0, len(decoded.Plan))
	for _, item := range decoded.Plan {
		tk, err := mapItem(item, defaultShell)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, tk)
	}

	if len(tasks) == 0 {
		return nil, fmt.Errorf("planning response did not include any plan items")
	}

	return &Plan{Summary: decoded.Summary, Tasks: tasks}, nil
}

// mapItem converts one raw plan entry into a task. Unrecognized kinds
// deliberately degrade to notes rather than failing the whole plan;
// planning services drift and an advisory entry is more useful than a
// rejected response.
func mapItem(item rawItem, defaultShell string) (task.Task, error) {
	switch item.Kind {
	case task.KindCommand:
		if item.Command == "" {
			return task.Task{}, fmt.Errorf("command task missing 'command' field")
		}
		description := item.Description
		if description == "" {
			description = "Command task"
		}
		shell := item.Shell
		if shell == "" {
			shell = defaultShell
		}
		return task.New(description, task.Detail{Command: &task.CommandDetail{
			Shell:        shell,
			Command:      item.Command,
			Cwd:          item.Cwd,
			RequiresRoot: item.RequiresRoot,
		}}), nil

	case task.KindFileEdit:
		if item.NewText == "" {
			return task.Task{}, fmt.Errorf("file_edit task missing 'new_text'")
		}
		description := item.Description
		if description == "" {
			description = "File edit"
		}
		return task.New(description, task.Detail{FileEdit: &task.FileEditDetail{
			Path:        item.Path,
			NewText:     item.NewText,
			Description: item.Details,
		}}), nil

	default:
		details := item.Details
		if details == "" {
			details = item.Description
		}
		if details == "" {
			details = "Note"
		}
		description := item.Description
		if description == "" {
			description = noteDescription(details)
		}
		return task.New(description, task.Detail{Note: &task.NoteDetail{Details: details}}), nil
	}
}

// noteDescription derives a worklist title from the first line of a
// note body so the list is never literally titled "Note".
func noteDescription(details string) string {
	line := details
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "Note"
	}
	runes := []rune(line)
	if len(runes) > noteDescriptionLimit {
		return string(runes[:noteDescriptionLimit]) + "…"
	}
	return line
}

// parseError wraps a JSON decode failure with a bounded snippet of the
// response and, when the failure pattern suggests the response was cut
// short by a token limit, a truncation hint.
func parseError(err error, cleaned string) error {
	msg := fmt.Sprintf("failed parsing plan JSON from planning response: %v. Snippet: %s", err, snippet(cleaned))
	if looksTruncated(err) {
		msg += " (response may have been truncated by the model's token limit)"
	}
	return fmt.Errorf("%s", msg)
}

func looksTruncated(err error) bool {
	s := err.Error()
	if strings.Contains(s, "unexpected end of JSON input") ||
		strings.Contains(s, "unexpected EOF") ||
		strings.Contains(s, "after top-level value") {
		return true
	}

	// A closer where a value was expected is the dangling-comma shape a
	// cut-off list leaves behind. Other "looking for beginning of
	// value" failures are plain syntax errors, not truncation.
	if !strings.Contains(s, "looking for beginning of value") {
		return false
	}
	return strings.Contains(s, "invalid character ']'") || strings.Contains(s, "invalid character '}'")
}

func snippet(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > snippetLines {
		lines = lines[:snippetLines]
	}
	joined := strings.Join(lines, " ")
	runes := []rune(joined)
	if len(runes) > snippetChars {
		return string(runes[:snippetChars])
	}
	return joined
}

// stripCodeFence removes a surrounding markdown code fence, tolerating
// a missing closing fence.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)

	body, found := strings.CutPrefix(trimmed, "```json")
	if !found {
		body, found = strings.CutPrefix(trimmed, "```JSON")
	}
	if !found {
		body, found = strings.CutPrefix(trimmed, "```")
	}
	if !found {
		return trimmed
	}

	body = strings.TrimLeft(body, " \t\r\n")
	if stripped, ok := strings.CutSuffix(strings.TrimSpace(body), "```"); ok {
		return stripped
	}
	return body
}

// extractJSONSegment returns the outermost balanced {...} region of
// raw, recovering the JSON object even when the service prepended or
// appended commentary. When brace counting never balances it falls
// back to the span from the first '{' to the end, provided the text
// happens to end with '}'.
func extractJSONSegment(raw string) (string, bool) {
	depth := 0
	start := -1
	for idx, ch := range raw {
		switch ch {
		case '{':
			if depth == 0 {
				start = idx
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return raw[start : idx+1], true
				}
			}
		}
	}

	if pos := strings.IndexByte(raw, '{'); pos >= 0 {
		tail := raw[pos:]
		if strings.HasSuffix(tail, "}") {
			return tail, true
		}
	}
	return "", false
}
