package locations

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Tree maps room -> drawer -> folders in filing order.
type Tree map[string]map[string][]string

// Selection is the (room, drawer) pair targeted by the next commit.
type Selection struct {
	Room   string
	Drawer string
}

// IsZero reports whether no selection has been recorded.
func (s Selection) IsZero() bool {
	return s.Room == "" && s.Drawer == ""
}

func (s Selection) String() string {
	return s.Room + "/" + s.Drawer
}

// Snapshot is an immutable view of the last successful load.
type Snapshot struct {
	Tree      Tree
	Selection Selection
	LoadedAt  time.Time
}

// Folders returns the folders filed under the selected drawer.
func (s Snapshot) Folders() []string {
	return s.Tree.Folders(s.Selection.Room, s.Selection.Drawer)
}

// Folders returns the folder list for (room, drawer), or nil when unknown.
func (t Tree) Folders(room, drawer string) []string {
	drawers, ok := t[room]
	if !ok {
		return nil
	}
	return drawers[drawer]
}

// Contains reports whether drawer exists inside room.
func (t Tree) Contains(room, drawer string) bool {
	drawers, ok := t[room]
	if !ok {
		return false
	}
	_, ok = drawers[drawer]
	return ok
}

// HasRoom reports whether room exists.
func (t Tree) HasRoom(room string) bool {
	_, ok := t[room]
	return ok
}

// Clone returns a deep copy so snapshots handed to subscribers never alias.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for room, drawers := range t {
		copied := make(map[string][]string, len(drawers))
		for drawer, folders := range drawers {
			copied[drawer] = append([]string{}, folders...)
		}
		out[room] = copied
	}
	return out
}

// Rooms lists room names in display order.
func (t Tree) Rooms(order Order) []string {
	rooms := make([]string, 0, len(t))
	for room := range t {
		rooms = append(rooms, room)
	}
	return order.Sort(rooms)
}

// Drawers lists the drawers of room in display order.
func (t Tree) Drawers(room string, order Order) []string {
	drawers := t[room]
	names := make([]string, 0, len(drawers))
	for drawer := range drawers {
		names = append(names, drawer)
	}
	return order.Sort(names)
}

var (
	errEmptyRoom         = errors.New("room has no drawers")
	errSelectionNotFound = errors.New("selection is not part of the tree")
)

// buildSnapshot validates a fetched tree and selection. Null folder lists become empty.
func buildSnapshot(rooms map[string]map[string][]string, sel Selection, loadedAt time.Time) (Snapshot, error) {
	tree := make(Tree, len(rooms))
	for room, drawers := range rooms {
		if len(drawers) == 0 {
			return Snapshot{}, fmt.Errorf("%w: %q", errEmptyRoom, room)
		}
		copied := make(map[string][]string, len(drawers))
		for drawer, folders := range drawers {
			copied[drawer] = append([]string{}, folders...)
		}
		tree[room] = copied
	}
	if !tree.Contains(sel.Room, sel.Drawer) {
		return Snapshot{}, fmt.Errorf("%w: %s", errSelectionNotFound, sel)
	}
	return Snapshot{Tree: tree, Selection: sel, LoadedAt: loadedAt}, nil
}

// Order sorts room and drawer names with numeric-aware collation, so
// "Gaveta 2" sorts before "Gaveta 10".
type Order struct {
	tag language.Tag
}

// NewOrder builds an Order for a BCP 47 language tag; unknown tags fall back to root collation.
func NewOrder(lang string) Order {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	return Order{tag: tag}
}

// Sort returns a sorted copy of values.
func (o Order) Sort(values []string) []string {
	out := append([]string{}, values...)
	collate.New(o.tag, collate.Numeric).SortStrings(out)
	return out
}
