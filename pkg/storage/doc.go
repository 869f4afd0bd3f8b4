/*
Package storage implements the crash-safe, ordered key-value engine each
logical database is built from. One Engine owns one directory: opening it
takes an exclusive OS-level lock (via bbolt's own file lock, surfaced here
as the distinguishable ErrLockHeld rather than a generic I/O error), and
every named sub-tree within that directory is a bbolt bucket.

Get and ScanPrefix return guards (ReadGuard, PrefixIterator) that borrow
directly from an open read transaction rather than copying eagerly — callers
that need to retain data past the guard's Release must call Copy first.
*/
package storage
