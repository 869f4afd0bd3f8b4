/*
Package apierr defines the closed set of error kinds shared by every
transport (§6.5, §7) plus the client/server HTTP status classification
used by the HTTP transport and mirrored as a boolean in the native
messaging and WebRTC envelopes.

The ten kinds and their classification are grounded in the Rust original's
native-messaging/src/error.rs: JSON_ERROR is a client error (malformed
request body) and IO_ERROR is a server error (storage failure) — an
asymmetry that is easy to get backwards and is therefore pinned down here
with a table-driven test rather than left to each transport to decide
independently.
*/
package apierr
