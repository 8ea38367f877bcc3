// Package logs reads the filingdesk log file for the `logs` command.
//
// Last returns the trailing lines with bounded memory; Follow polls from an
// offset and hands each appended line to a callback until the context ends.
// A log file that does not exist yet reads as empty.
package logs
