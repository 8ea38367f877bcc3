// Package preflight provides readiness checks for the filing backend, the
// camera device and the local state directories.
//
// The CLI "filingdesk status" command renders every check; the console runs
// RunAll once at startup and shows failures as warnings without refusing to
// start, since stats and selection still work without a camera.
package preflight
