// Package store is the durable registry of debate sessions.
//
// A Store owns the data directory and the in-memory map of live Managers.
// Each registered session gets a single persistence writer goroutine;
// mutation events on the bus signal the writer, which coalesces bursts and
// serializes snapshot writes for its session. Snapshots are written
// atomically (temp file, sync, rename) with 0600 permissions because they
// contain participant credentials.
//
// A Get miss falls through to disk: the snapshot is decoded, structurally
// validated, and either restored (interrupted debates resume automatically)
// or moved to the quarantine directory with a reason sidecar and reported as
// not found. Corrupted snapshots are never deleted.
//
// Layout under the data directory:
//
//	sessions/    canonical snapshots, <id>.json
//	quarantine/  snapshots that failed validation, <id>.<unix>.json (+ .reason)
//	archive/     snapshots of archived sessions
//	logs/        process logs
package store
