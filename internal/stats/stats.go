package stats

import (
	"fmt"
	"sync"

	"filingdesk/internal/locations"
)

// EmptyPlaceholder is the single detail entry shown for a drawer with no folders.
const EmptyPlaceholder = "No folders yet"

// Summary is the aggregate and detail projection of one snapshot.
type Summary struct {
	FilledDrawers int
	TotalDrawers  int
	Selection     locations.Selection
	Folders       []string
}

// Compute projects a snapshot. It has no side effects.
func Compute(snap locations.Snapshot) Summary {
	summary := Summary{Selection: snap.Selection}
	for _, drawers := range snap.Tree {
		for _, folders := range drawers {
			summary.TotalDrawers++
			if len(folders) > 0 {
				summary.FilledDrawers++
			}
		}
	}
	summary.Folders = append([]string{}, snap.Folders()...)
	return summary
}

// Aggregate renders the filled-over-total drawer count, e.g. "1/2 drawers".
func (s Summary) Aggregate() string {
	return fmt.Sprintf("%d/%d drawers", s.FilledDrawers, s.TotalDrawers)
}

// Detail renders the selected drawer's folder count, e.g. "3 folders".
func (s Summary) Detail() string {
	return fmt.Sprintf("%d folders", len(s.Folders))
}

// Entries renders the 1-indexed folder list, or the placeholder when empty.
func (s Summary) Entries() []string {
	if len(s.Folders) == 0 {
		return []string{EmptyPlaceholder}
	}
	out := make([]string, len(s.Folders))
	for i, folder := range s.Folders {
		out[i] = fmt.Sprintf("%d. %s", i+1, folder)
	}
	return out
}

// RoomRow is one line of the per-room breakdown.
type RoomRow struct {
	Room    string `json:"room"`
	Drawers int    `json:"drawers"`
	Filled  int    `json:"filled"`
	Folders int    `json:"folders"`
}

// Breakdown summarizes every room in display order.
func Breakdown(snap locations.Snapshot, order locations.Order) []RoomRow {
	rooms := snap.Tree.Rooms(order)
	rows := make([]RoomRow, 0, len(rooms))
	for _, room := range rooms {
		row := RoomRow{Room: room}
		for _, folders := range snap.Tree[room] {
			row.Drawers++
			row.Folders += len(folders)
			if len(folders) > 0 {
				row.Filled++
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// View keeps the latest Summary for a store and recomputes it synchronously
// after every successful load.
type View struct {
	mu      sync.RWMutex
	current Summary
	ready   bool
	onPaint func(Summary)
}

// NewView subscribes a View to store. onPaint, when non-nil, runs after each recompute.
func NewView(store *locations.Store, onPaint func(Summary)) *View {
	v := &View{onPaint: onPaint}
	store.Subscribe(v.update)
	return v
}

// Current returns the last computed summary and whether any load has happened.
func (v *View) Current() (Summary, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current, v.ready
}

func (v *View) update(snap locations.Snapshot) {
	summary := Compute(snap)
	v.mu.Lock()
	v.current = summary
	v.ready = true
	v.mu.Unlock()
	if v.onPaint != nil {
		v.onPaint(summary)
	}
}
