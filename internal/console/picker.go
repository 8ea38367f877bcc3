package console

import "filingdesk/internal/locations"

// picker holds the room/drawer choice shown on screen. It only reaches the
// server when the operator applies it.
type picker struct {
	rooms   []string
	room    int
	drawers []string
	drawer  int
	dirty   bool
}

// sync resets the picker to sel.
func (p *picker) sync(store Locations, sel locations.Selection) {
	p.rooms = store.RoomOptions()
	p.room = indexOf(p.rooms, sel.Room)
	p.loadDrawers(store, sel.Drawer)
	p.dirty = false
}

// refresh re-reads the option lists while keeping a pending choice.
func (p *picker) refresh(store Locations) {
	room, drawer := p.Room(), p.Drawer()
	p.rooms = store.RoomOptions()
	p.room = indexOf(p.rooms, room)
	p.loadDrawers(store, drawer)
}

// moveRoom cycles the room. The drawer defaults to recorded when the new
// room has it, otherwise to the room's first drawer.
func (p *picker) moveRoom(store Locations, delta int, recorded string) {
	if store == nil || len(p.rooms) == 0 {
		return
	}
	p.room = wrap(p.room+delta, len(p.rooms))
	p.loadDrawers(store, recorded)
	p.dirty = true
}

func (p *picker) moveDrawer(delta int) {
	if len(p.drawers) == 0 {
		return
	}
	p.drawer = wrap(p.drawer+delta, len(p.drawers))
	p.dirty = true
}

func (p *picker) loadDrawers(store Locations, recorded string) {
	drawers, selected := store.DrawerOptions(p.Room(), recorded)
	p.drawers = drawers
	p.drawer = indexOf(drawers, selected)
}

// Room returns the highlighted room.
func (p picker) Room() string {
	if p.room < 0 || p.room >= len(p.rooms) {
		return ""
	}
	return p.rooms[p.room]
}

// Drawer returns the highlighted drawer.
func (p picker) Drawer() string {
	if p.drawer < 0 || p.drawer >= len(p.drawers) {
		return ""
	}
	return p.drawers[p.drawer]
}

// differs reports whether the picker points somewhere other than sel.
func (p picker) differs(sel locations.Selection) bool {
	return p.Room() != sel.Room || p.Drawer() != sel.Drawer
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return 0
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
