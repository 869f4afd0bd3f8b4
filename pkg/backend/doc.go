/*
Package backend implements the AppStateProvider (§4.10): the single trait
(here, a Go interface with one method) that every transport funnels
through to reach storage, the hot indexes, the scheduler, and the
stubbed inference operations.

RequestValue and ResponseValue are closed discriminated unions, following
the same tagged-union shape as pkg/types.Node: one Kind field selects
exactly one populated payload field. This is a deliberate mirror of the
Node union's "tagged unions over inheritance" design note (§9) — adding an
operation means adding a union variant and a route, not subclassing
anything.

Model inference, hardware probing, and ML feature extraction are external
collaborators in this spec (§1); MemoryBackend's handlers for those
operations return a deterministic stub good enough to exercise the
route-dispatch and transport layers end to end. No real inference backend
is called.
*/
package backend
