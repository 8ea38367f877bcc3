package locations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"filingdesk/internal/backend"
	"filingdesk/internal/logging"
	"filingdesk/internal/services"
)

// API is the subset of the backend client the store depends on.
type API interface {
	Locations(ctx context.Context) (backend.LocationsResponse, error)
	SetSelection(ctx context.Context, room, drawer string) error
	ConfirmName(ctx context.Context, name string) (backend.ConfirmResponse, error)
}

// CommitResult describes a folder the server accepted.
type CommitResult struct {
	Label   string
	Message string
	Room    string
	Drawer  string
	// RefreshErr is set when the commit succeeded but the follow-up reload failed.
	RefreshErr error
}

// Store is the client-side cache of the location tree and current selection.
// The server is authoritative: every mutation is followed by a full reload.
type Store struct {
	api    API
	layout Layout
	order  Order
	logger *slog.Logger
	now    func() time.Time

	// loadMu serializes reloads so snapshots are applied in request order.
	loadMu sync.Mutex

	mu       sync.RWMutex
	snapshot Snapshot
	loaded   bool

	listenersMu sync.Mutex
	listeners   []func(Snapshot)
	drift       map[Drift]struct{}
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the load timestamp source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOrder sets the collation used for room and drawer enumeration.
func WithOrder(order Order) Option {
	return func(s *Store) {
		s.order = order
	}
}

// NewStore constructs an empty store; call Load to populate it.
func NewStore(api API, layout Layout, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		api:    api,
		layout: layout,
		order:  NewOrder("und"),
		logger: logging.NewComponentLogger(logger, "locations"),
		now:    time.Now,
		drift:  make(map[Drift]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to run synchronously after every successful load.
// If the store is already loaded, fn is invoked immediately with the current snapshot.
func (s *Store) Subscribe(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()

	if snap, ok := s.Snapshot(); ok {
		fn(snap)
	}
}

// Snapshot returns the last successfully loaded state.
func (s *Store) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return Snapshot{}, false
	}
	snap := s.snapshot
	snap.Tree = s.snapshot.Tree.Clone()
	return snap, true
}

// Selection returns the current selection and whether the store has loaded.
func (s *Store) Selection() (Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Selection, s.loaded
}

// Layout returns the static room/drawer table.
func (s *Store) Layout() Layout {
	return s.layout
}

// Order returns the collation used for enumeration.
func (s *Store) Order() Order {
	return s.order
}

// Load fetches the full tree plus the server's selection. On success the local
// selection is replaced unconditionally and subscribers are notified. On
// failure the previous snapshot is left untouched.
func (s *Store) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	resp, err := s.api.Locations(ctx)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "location load failed", "locations_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the backend is running and reachable"),
			logging.String(logging.FieldImpact, "room, drawer, and stats show the previous state"),
		)
		return err
	}

	sel := Selection{Room: strings.TrimSpace(resp.CurrentRoom), Drawer: strings.TrimSpace(resp.CurrentDrawer)}
	snap, err := buildSnapshot(resp.Rooms, sel, s.now())
	if err != nil {
		return services.Wrap(services.ErrNetwork, "locations", "load", "server returned an invalid location tree", err)
	}

	s.mu.Lock()
	s.snapshot = snap
	s.loaded = true
	s.mu.Unlock()

	s.logger.Debug("locations loaded",
		logging.Int("rooms", len(snap.Tree)),
		logging.String(logging.FieldRoom, sel.Room),
		logging.String(logging.FieldDrawer, sel.Drawer),
	)
	s.reportDrift(snap.Tree)
	s.notify(snap)
	return nil
}

// SetSelection makes (room, drawer) the server-side target, then reloads.
// The pair is validated against the loaded tree, or the static layout before
// the first load; invalid input never reaches the network.
func (s *Store) SetSelection(ctx context.Context, room, drawer string) error {
	room = strings.TrimSpace(room)
	drawer = strings.TrimSpace(drawer)
	if err := s.validateSelection(room, drawer); err != nil {
		return err
	}
	if err := s.api.SetSelection(ctx, room, drawer); err != nil {
		return err
	}
	s.logger.Info("selection changed",
		logging.String(logging.FieldEventType, "selection_changed"),
		logging.String(logging.FieldRoom, room),
		logging.String(logging.FieldDrawer, drawer),
	)
	return s.Load(ctx)
}

func (s *Store) validateSelection(room, drawer string) error {
	s.mu.RLock()
	loaded := s.loaded
	tree := s.snapshot.Tree
	s.mu.RUnlock()

	var roomKnown, drawerKnown bool
	if loaded {
		roomKnown = tree.HasRoom(room)
		drawerKnown = tree.Contains(room, drawer)
	} else {
		_, roomKnown = s.layout.Drawers(room)
		drawerKnown = s.layout.Contains(room, drawer)
	}
	switch {
	case !roomKnown:
		return services.Wrap(services.ErrInvalidSelection, "locations", "set_selection",
			fmt.Sprintf("unknown room %q", room), nil)
	case !drawerKnown:
		return services.Wrap(services.ErrInvalidSelection, "locations", "set_selection",
			fmt.Sprintf("drawer %q does not belong to room %q", drawer, room), nil)
	default:
		return nil
	}
}

// CommitFolder asks the server to file label under its current selection and
// reloads on success. A server refusal is reported as services.ErrCommit with
// the server's message.
func (s *Store) CommitFolder(ctx context.Context, label string) (CommitResult, error) {
	sel, _ := s.Selection()

	resp, err := s.api.ConfirmName(ctx, label)
	if err != nil {
		return CommitResult{}, services.Wrap(services.ErrCommit, "locations", "commit", "", err)
	}
	if !resp.Success {
		reason := strings.TrimSpace(resp.Error)
		if reason == "" {
			reason = "server rejected the folder"
		}
		return CommitResult{}, services.Wrap(services.ErrCommit, "locations", "commit", reason, nil)
	}

	result := CommitResult{
		Label:   label,
		Message: strings.TrimSpace(resp.Message),
		Room:    sel.Room,
		Drawer:  sel.Drawer,
	}
	if result.Message == "" {
		result.Message = fmt.Sprintf("Added: %s -> %s/%s", label, sel.Room, sel.Drawer)
	}
	s.logger.Info("folder committed",
		logging.String(logging.FieldEventType, "folder_committed"),
		logging.String("label", label),
		logging.String(logging.FieldRoom, sel.Room),
		logging.String(logging.FieldDrawer, sel.Drawer),
	)

	if err := s.Load(ctx); err != nil {
		result.RefreshErr = err
	}
	return result, nil
}

// RoomOptions lists rooms for a picker: the server's rooms once loaded,
// otherwise the static layout.
func (s *Store) RoomOptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loaded {
		return s.snapshot.Tree.Rooms(s.order)
	}
	return s.layout.Rooms()
}

// DrawerOptions lists drawers of room for a picker and the one to pre-select.
// The static layout is used when it knows the room; rooms only the server
// knows fall back to the server's drawers.
func (s *Store) DrawerOptions(room, recorded string) ([]string, string) {
	if drawers, selected := s.layout.DrawerOptions(room, recorded); len(drawers) > 0 {
		return drawers, selected
	}
	s.mu.RLock()
	drawers := s.snapshot.Tree.Drawers(room, s.order)
	s.mu.RUnlock()
	if len(drawers) == 0 {
		return nil, ""
	}
	for _, drawer := range drawers {
		if drawer == recorded {
			return drawers, recorded
		}
	}
	return drawers, drawers[0]
}

func (s *Store) notify(snap Snapshot) {
	s.listenersMu.Lock()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		copied := snap
		copied.Tree = snap.Tree.Clone()
		fn(copied)
	}
}

// reportDrift logs each layout/server disagreement once per process.
func (s *Store) reportDrift(tree Tree) {
	for _, d := range s.layout.Drift(tree, s.order) {
		s.listenersMu.Lock()
		_, seen := s.drift[d]
		s.drift[d] = struct{}{}
		s.listenersMu.Unlock()
		if seen {
			continue
		}
		logging.WarnWithContext(s.logger, "static layout disagrees with server", "layout_drift",
			logging.String("drift", string(d.Kind)),
			logging.String(logging.FieldRoom, d.Room),
			logging.String(logging.FieldDrawer, d.Drawer),
			logging.String(logging.FieldErrorHint, "update [[layout.room]] in the config to match the backend"),
			logging.String(logging.FieldImpact, "pickers may offer drawers the server does not know"),
		)
	}
}
