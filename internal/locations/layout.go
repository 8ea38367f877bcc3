package locations

import "filingdesk/internal/config"

// Layout is the static room/drawer table used to fill pickers before the
// server tree is known. It is a display hint only; commits never consult it.
type Layout struct {
	rooms   []string
	drawers map[string][]string
}

// NewLayout builds a Layout from configuration, preserving declaration order.
func NewLayout(cfg config.Layout) Layout {
	layout := Layout{drawers: make(map[string][]string, len(cfg.Rooms))}
	for _, room := range cfg.Rooms {
		if _, dup := layout.drawers[room.Name]; dup {
			continue
		}
		layout.rooms = append(layout.rooms, room.Name)
		layout.drawers[room.Name] = append([]string{}, room.Drawers...)
	}
	return layout
}

// Rooms returns room names in declaration order.
func (l Layout) Rooms() []string {
	return append([]string{}, l.rooms...)
}

// Drawers returns the drawer set for room.
func (l Layout) Drawers(room string) ([]string, bool) {
	drawers, ok := l.drawers[room]
	if !ok {
		return nil, false
	}
	return append([]string{}, drawers...), true
}

// Contains reports whether drawer is listed under room.
func (l Layout) Contains(room, drawer string) bool {
	for _, candidate := range l.drawers[room] {
		if candidate == drawer {
			return true
		}
	}
	return false
}

// DrawerOptions returns exactly room's drawer set and the drawer to pre-select:
// recorded when it belongs to the set, otherwise the first (default) drawer.
func (l Layout) DrawerOptions(room, recorded string) ([]string, string) {
	drawers, ok := l.Drawers(room)
	if !ok || len(drawers) == 0 {
		return nil, ""
	}
	for _, drawer := range drawers {
		if drawer == recorded {
			return drawers, recorded
		}
	}
	return drawers, drawers[0]
}

// DriftKind describes how the static table disagrees with the server.
type DriftKind string

const (
	DriftMissingOnServer DriftKind = "missing_on_server"
	DriftMissingInLayout DriftKind = "missing_in_layout"
)

// Drift is one disagreement between the layout and a fetched tree. An empty
// Drawer means the whole room differs.
type Drift struct {
	Kind   DriftKind
	Room   string
	Drawer string
}

// Drift compares the layout with tree and lists every disagreement in layout
// order, followed by server-only entries in display order.
func (l Layout) Drift(tree Tree, order Order) []Drift {
	var out []Drift
	for _, room := range l.rooms {
		if !tree.HasRoom(room) {
			out = append(out, Drift{Kind: DriftMissingOnServer, Room: room})
			continue
		}
		for _, drawer := range l.drawers[room] {
			if !tree.Contains(room, drawer) {
				out = append(out, Drift{Kind: DriftMissingOnServer, Room: room, Drawer: drawer})
			}
		}
	}
	for _, room := range tree.Rooms(order) {
		if _, ok := l.drawers[room]; !ok {
			out = append(out, Drift{Kind: DriftMissingInLayout, Room: room})
			continue
		}
		for _, drawer := range tree.Drawers(room, order) {
			if !l.Contains(room, drawer) {
				out = append(out, Drift{Kind: DriftMissingInLayout, Room: room, Drawer: drawer})
			}
		}
	}
	return out
}
