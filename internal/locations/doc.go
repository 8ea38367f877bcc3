// Package locations caches the backend's room/drawer/folder tree and the
// current filing selection.
//
// The backend owns the truth. Store.Load replaces the local tree and
// selection wholesale, SetSelection and CommitFolder always finish with a
// reload, and a failed load keeps the previous snapshot. Subscribers (the
// stats view, the console) are notified synchronously after each successful
// load. Layout carries the static room/drawer table used to fill pickers
// before the first load.
package locations
