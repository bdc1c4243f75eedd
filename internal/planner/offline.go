package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/colonyops/sysmedic/internal/core/convo"
	"github.com/colonyops/sysmedic/internal/core/plan"
)

// Offline is a canned planner for demos and air-gapped hosts. Every
// request yields the same small investigative worklist, and synthesis
// returns a fixed acknowledgement.
type Offline struct {
	DefaultShell string
}

var _ Planner = (*Offline)(nil)

func (o *Offline) Plan(_ context.Context, prompt string, _ []convo.Entry) (*plan.Plan, string, error) {
	raw, err := json.Marshal(map[string]any{
		"summary": fmt.Sprintf("Offline worklist for: %s", prompt),
		"plan": []map[string]any{
			{
				"id":          "task-1",
				"kind":        "command",
				"description": "Check recent system log entries",
				"command":     "journalctl -n 50 --no-pager",
			},
			{
				"id":          "task-2",
				"kind":        "command",
				"description": "Check disk usage",
				"command":     "df -h",
			},
			{
				"id":          "task-3",
				"kind":        "note",
				"description": "Offline mode",
				"details":     "Planner is running offline; this is a canned diagnostic worklist.",
			},
		},
	})
	if err != nil {
		return nil, "", err
	}

	parsed, err := plan.Parse(string(raw), o.DefaultShell)
	if err != nil {
		return nil, string(raw), err
	}

	return parsed, string(raw), nil
}

func (o *Offline) Synthesize(_ context.Context, _ []convo.Entry) (string, error) {
	return "Offline mode: no synthesis available. Review the captured output above.", nil
}
