// Package planner talks to the planning service: it turns an operator
// request plus conversation history into a vetted worklist, and after a
// worklist completes it asks for a prose synthesis of the results.
package planner

import (
	"context"

	"github.com/colonyops/sysmedic/internal/core/convo"
	"github.com/colonyops/sysmedic/internal/core/plan"
)

// Planner is the boundary the controller depends on. Exactly two
// operations exist: propose a plan, and synthesize results into prose.
type Planner interface {
	// Plan returns the parsed worklist along with the raw model
	// response so the caller can persist it in the conversation log.
	Plan(ctx context.Context, prompt string, history []convo.Entry) (*plan.Plan, string, error)

	// Synthesize reviews the executed worklist's captured output and
	// returns a prose summary.
	Synthesize(ctx context.Context, history []convo.Entry) (string, error)
}
