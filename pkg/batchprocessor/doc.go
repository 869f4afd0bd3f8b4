/*
Package batchprocessor wraps the hot vector and graph indexes with a bulk
operation API (§4.7): a heterogeneous list of operations is applied
sequentially to one index, with per-operation failures counted but not
fatal to the batch.

CombinedBatchProcessor fans a vector batch and a graph batch out
concurrently via golang.org/x/sync/errgroup, since the two indexes are
disjoint state (grounded in the SAGE-X example repo's use of errgroup for
its own agent fan-out; see DESIGN.md).
*/
package batchprocessor
