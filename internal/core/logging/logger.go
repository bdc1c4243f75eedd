package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
// The returned logger tags events created with Ctx with the session
// and task identifiers carried by the context.
func Component(name string) zerolog.Logger {
	return log.Logger.Hook(ContextHook{}).With().Str("cmp", name).Logger()
}
