/*
Package log provides structured logging for memoria using zerolog.

The package wraps zerolog to give every component of the memory engine —
the storage engine, the coordinator, the hot indexes, the scheduler, and
the transports — a single global logger plus cheaply-derived child loggers
carrying the field that identifies what that component is doing: which
database, which tier, which route, which request, which background task.

# Initialization

Init(cfg Config) sets the global level and output format once, at process
startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true, // false selects a human-readable console writer
		Output:     os.Stdout,
	})

JSON output is the production default; the console writer (zerolog's
ConsoleWriter with an RFC3339 time format) is meant for local development,
matching the split already used by warren's own pkg/log.

# Component loggers

Each package obtains its own child logger once, at construction time, and
holds it as a struct field rather than touching the global Logger
variable per call site:

	type Engine struct {
		log zerolog.Logger
	}

	func Open(path string) (*Engine, error) {
		return &Engine{log: log.WithComponent("storage")}, nil
	}

Beyond WithComponent, this package has five correlation helpers: four
specific to the memory engine's own domain, plus the teacher's WithTaskID,
kept for scheduler tasks (the teacher's WithNodeID/WithServiceID named
cluster-orchestration concepts that don't apply here):

  - WithDB(name)        — a logical database/storage name, e.g.
    "conversations/active" or "knowledge/stable".
  - WithTier(tier)      — a temperature tier name, e.g. "recent" or
    "archive".
  - WithRoute(route)    — the route dispatch endpoint handling a request,
    e.g. "chat_completion".
  - WithRequestID(id)   — the correlation id the route dispatch logging
    middleware attaches to every request.
  - WithTaskID(id)      — a background scheduler task id.

# Usage

	logger := log.WithDB("conversations/active")
	logger.Debug().Str("tree", "nodes").Msg("lazily opened storage")

	reqLogger := log.WithRoute("chat_completion").With().Str("request_id", id).Logger()
	reqLogger.Info().Dur("duration", elapsed).Msg("request handled")
*/
package log
