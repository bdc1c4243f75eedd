package convo

import "unicode/utf8"

// Token approximation constants. Four characters per token is a rough
// but monotonic estimate; per-kind overheads account for the structure
// wrapped around the content when the entry is replayed as a turn.
const (
	charsPerToken = 4

	planOverhead     = 50
	commandOverhead  = 20
	fileEditOverhead = 10
	noteOverhead     = 10

	// safetyMargin is reserved off the top of every budget.
	safetyMargin = 100
)

// ApproxTokens estimates the token count of a string. Monotonic in
// content length, never zero.
func ApproxTokens(text string) int {
	return utf8.RuneCountInString(text)/charsPerToken + 1
}

// EntryTokens estimates the token cost of replaying one entry.
func EntryTokens(e Entry) int {
	switch e.Type {
	case TypePrompt:
		if e.Prompt == nil {
			return 1
		}
		return ApproxTokens(e.Prompt.Prompt)
	case TypePlan:
		if e.Plan == nil {
			return planOverhead
		}
		if e.Plan.Response != "" {
			return ApproxTokens(e.Plan.Response)
		}
		if e.Plan.Summary != "" {
			return ApproxTokens(e.Plan.Summary) + planOverhead
		}
		return planOverhead
	case TypeCommand:
		if e.Command == nil {
			return commandOverhead
		}
		return ApproxTokens(e.Command.Description) +
			ApproxTokens(e.Command.Command) +
			ApproxTokens(e.Command.Stdout) +
			ApproxTokens(e.Command.Stderr) +
			commandOverhead
	case TypeFileEdit:
		if e.FileEdit == nil {
			return fileEditOverhead
		}
		return ApproxTokens(e.FileEdit.Description) + ApproxTokens(e.FileEdit.Path) + fileEditOverhead
	case TypeNote:
		if e.Note == nil {
			return noteOverhead
		}
		return ApproxTokens(e.Note.Description) + ApproxTokens(e.Note.Details) + noteOverhead
	default:
		return 1
	}
}

// Truncate fits history inside a token budget. The available budget is
// maxTokens minus the system prompt, the current prompt, and a fixed
// safety margin; the walk runs newest to oldest including each entry
// whole, and stops at the first entry that would overflow. Applying
// Truncate to its own output with the same budget is a no-op.
func Truncate(history []Entry, maxTokens, systemTokens, promptTokens int) []Entry {
	available := maxTokens - systemTokens - promptTokens - safetyMargin
	if available <= 0 {
		return nil
	}

	total := 0
	cut := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := EntryTokens(history[i])
		if total+cost > available {
			break
		}
		total += cost
		cut = i
	}

	if cut == len(history) {
		return nil
	}
	out := make([]Entry, len(history)-cut)
	copy(out, history[cut:])
	return out
}
