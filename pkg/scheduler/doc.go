/*
Package scheduler implements the task scheduler (§4.8): a priority-aware
background queue, gated by an activity level, that runs enrichment tasks
(embedding generation, entity extraction, summarization, index updates)
without ever blocking the foreground request path.

# Priorities and activity levels

Four priority lanes, high to low: Urgent, Normal, Low, Batch. Tasks
submitted to the same lane are processed in FIFO order; across lanes the
guarantee is preference, not a strict order (§4.8, §5).

Three activity levels control how aggressively the scheduler drains its
lanes on each 100ms tick, with the exact per-tick caps taken from the Rust
original's task-scheduler/src/lib.rs (§12):

  - HighActivity: pop at most one task, and only from the Urgent lane.
  - LowActivity: pop up to five tasks from any lane, priority order.
  - SleepMode: pop up to one hundred tasks from any lane, priority order.

The activity level follows foreground load: callers set HighActivity
during active conversation and move it toward SleepMode (via
SetActivityLevel) as the agent goes idle.

# Task kinds

The task kind is opaque to the scheduler itself: GenerateEmbedding,
ExtractEntities, LinkEntities, GenerateSummary, CreateAssociativeLinks,
IndexNode, UpdateVectorIndex, RotateMemoryLayers, BackupData. Each task
carries its own priority and a Run function; the scheduler never inspects
Kind beyond using it as a metrics label.

# Cancellation and failure isolation

Submit returns a CancelToken. Cancellation is cooperative: a Run function
is expected to check token.Cancelled() at its own coarse checkpoints; the
scheduler does not interrupt a running goroutine. A panicking or
error-returning task is logged and otherwise has no effect on the rest of
the queue — failure in one task never affects another (§7).

Shutdown stops the tick loop; it does not drain the queues, and whatever
tasks remain queued are dropped (§4.8).
*/
package scheduler
