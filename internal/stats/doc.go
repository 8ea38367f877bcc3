// Package stats projects a location snapshot into the counts the operator
// sees: filled drawers over all drawers, and the folder list of the selected
// drawer.
package stats
