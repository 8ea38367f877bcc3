// Package console is the interactive operator console, a bubbletea program
// that drives the capture workflow.
//
// The main screen shows the room and drawer pickers, the stats panel and a
// notice line. Pressing the capture key runs a capture cycle; when the
// classification comes back a modal review dialog opens with the proposed
// label in an editable field. Enter confirms, Esc cancels, ctrl+r retries.
//
// Blocking work runs inside tea.Cmd goroutines. Workflow events and store
// repaints arrive through a buffered channel that Run forwards into the
// program, so no listener ever blocks the event loop.
package console
