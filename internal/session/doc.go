// Package session owns the lifecycle of the image currently being worked
// on: its phase, status and error text, progress, the original/result
// payloads, the bounded result history, the model download progress and the
// selected model. It is structured into small files by concern:
//
//   - session.go: Session type, constructor, the mutating operations.
//   - config.go: Config and defaults; New applies them.
//   - types.go: Phase, DownloadProgress and the fixed status texts.
//   - cycle.go: Begin and the Cycle handle used by drivers.
//   - snapshot.go: Snapshot and derived read-only queries.
//   - events.go: Event, EventPublisher and subscriber fan-out.
//   - eventpub_memory.go: in-memory publisher for tests.
//
// Every operation is applied under the session lock and observers are
// notified before the lock is released, so nobody sees a partially
// updated session. No operation rejects a call for being issued in the
// "wrong" phase; ordering is the driver's responsibility.
package session
