/*
Package graphindex implements the hot graph index (§4.5): an in-memory,
concurrent directed graph with weighted edges, adjacency lists, and the
traversal primitives the rest of the engine needs for recall.

Like pkg/vectorindex, it is built on sync.Map plus sync/atomic counters
rather than a third-party lock-free map — no package in the retrieved
example corpus imports a DashMap-equivalent (see DESIGN.md).
*/
package graphindex
