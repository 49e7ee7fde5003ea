// Package checkpoint persists an in-progress Sum as bounded-size chunk
// files so that evaluation and merging can proceed one chunk at a time.
//
// A checkpoint directory holds a SQLite manifest and one sub-directory per
// run:
//
//	<dir>/manifest.db
//	<dir>/<run-id>/chunk-000000.json
//	<dir>/<run-id>/chunk-000001.json
//	<dir>/<run-id>/accumulator.json
//
// Chunk files hold the canonical JSON encoding of a Sum (term.Marshal).
// The manifest records, per chunk, its zero-based sequence number, file
// name, term count, content digest and whether it has been merged into the
// run's accumulator.
//
// # Critical Patterns
//
// Manifest order:
//   - Chunks are read back in ORDER BY seq ASC, never by listing files
//   - File names are derived from seq once, at split time
//
// Write then read:
//   - Every file is written to a temp file, synced, closed and renamed
//   - A manifest row is committed only after its file is in place
//   - Loads verify the recorded digest before decoding
//
// Atomic accumulation:
//   - The accumulator file and the chunk's merged flag move together; a
//     crash between the rename and the commit leaves the previous seq in
//     the manifest and the chunk is merged again on resume
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package checkpoint
