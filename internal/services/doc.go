// Package services defines shared utilities consumed by the capture workflow
// and its backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp capture and correlation identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper, and Message, which turns
//     any wrapped failure into the single line shown to the operator.
//
// Use these helpers when wiring new components so failures surface with the
// same shape everywhere.
package services
