// Package plan converts raw planning-service responses into ordered
// task lists.
package plan

import "github.com/colonyops/sysmedic/internal/core/task"

// Plan is one summary plus the ordered task list produced by a single
// successful parse. It is ephemeral: a new parse supersedes it
// wholesale, plans are never merged.
type Plan struct {
	Summary string
	Tasks   []task.Task
}
