// Package workflow runs the capture-confirm cycle.
//
// A Workflow moves through Idle, Capturing, AwaitingClassification, Reviewing
// and Committing. Only one cycle is ever in flight: Capture is rejected with
// ErrBusy outside Idle, and every operation carries a generation number so a
// result that arrives after Cancel or Retry is dropped instead of reopening a
// dialog. Classification and commit each run under their configured deadline.
//
// State changes and operator notices go to a single listener, always outside
// the workflow lock, so a UI can render them without re-entering the state
// machine. Finished cycles are written to the capture journal and, when
// configured, published through ntfy.
package workflow
