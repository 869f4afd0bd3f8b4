/*
Package vectorindex implements the hot vector index (§4.4): an in-memory,
concurrent index over quantized embeddings supporting top-k cosine search.

No package in the retrieved example corpus imports a DashMap-equivalent
concurrent map, so the index is built on sync.Map plus sync/atomic counters
rather than a third-party lock-free map — one of the two components in
this repository (with pkg/graphindex) for which no library in the example
pack could serve the need.
*/
package vectorindex
