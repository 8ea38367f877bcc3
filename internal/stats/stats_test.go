package stats_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"filingdesk/internal/backend"
	"filingdesk/internal/config"
	"filingdesk/internal/locations"
	"filingdesk/internal/logging"
	"filingdesk/internal/stats"
	"filingdesk/internal/testsupport"
)

func scenarioSnapshot(drawer string) locations.Snapshot {
	return locations.Snapshot{
		Tree: locations.Tree{
			"Room1": {"Drawer1": {"x"}, "Drawer2": {}},
		},
		Selection: locations.Selection{Room: "Room1", Drawer: drawer},
	}
}

func TestComputeSelectedDrawerWithFolder(t *testing.T) {
	summary := stats.Compute(scenarioSnapshot("Drawer1"))

	if got := summary.Aggregate(); got != "1/2 drawers" {
		t.Fatalf("Aggregate() = %q", got)
	}
	if got := summary.Detail(); got != "1 folders" {
		t.Fatalf("Detail() = %q", got)
	}
	if got := summary.Entries(); !reflect.DeepEqual(got, []string{"1. x"}) {
		t.Fatalf("Entries() = %v", got)
	}
}

func TestComputeEmptyDrawerShowsPlaceholder(t *testing.T) {
	summary := stats.Compute(scenarioSnapshot("Drawer2"))

	if got := summary.Aggregate(); got != "1/2 drawers" {
		t.Fatalf("Aggregate() = %q", got)
	}
	if got := summary.Detail(); got != "0 folders" {
		t.Fatalf("Detail() = %q", got)
	}
	if got := summary.Entries(); !reflect.DeepEqual(got, []string{stats.EmptyPlaceholder}) {
		t.Fatalf("Entries() = %v", got)
	}
}

func TestEntriesKeepFilingOrder(t *testing.T) {
	snap := locations.Snapshot{
		Tree:      locations.Tree{"Sala 1": {"Gaveta 1": {"Zé", "Ana", "Bruno"}}},
		Selection: locations.Selection{Room: "Sala 1", Drawer: "Gaveta 1"},
	}
	want := []string{"1. Zé", "2. Ana", "3. Bruno"}
	if got := stats.Compute(snap).Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}
}

func TestBreakdownPerRoom(t *testing.T) {
	snap := locations.Snapshot{
		Tree: locations.Tree{
			"Sala 2": {"Gaveta 1": {"a", "b"}, "Gaveta 2": nil},
			"Sala 1": {"Gaveta 1": nil},
		},
	}
	got := stats.Breakdown(snap, locations.NewOrder("pt-BR"))
	want := []stats.RoomRow{
		{Room: "Sala 1", Drawers: 1, Filled: 0, Folders: 0},
		{Room: "Sala 2", Drawers: 2, Filled: 1, Folders: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Breakdown() = %+v, want %+v", got, want)
	}
}

func TestViewRecomputesAfterEveryLoad(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	store := locations.NewStore(backend.NewClient(fake.URL(), 2*time.Second),
		locations.NewLayout(config.DefaultLayout()), logging.NewNop())

	var paints int
	view := stats.NewView(store, func(stats.Summary) { paints++ })
	if _, ok := view.Current(); ok {
		t.Fatal("expected no summary before load")
	}

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	summary, ok := view.Current()
	if !ok || summary.Aggregate() != "0/9 drawers" {
		t.Fatalf("unexpected summary after load: %+v", summary)
	}

	if _, err := store.CommitFolder(context.Background(), "Ana"); err != nil {
		t.Fatalf("CommitFolder: %v", err)
	}
	summary, _ = view.Current()
	if summary.Aggregate() != "1/9 drawers" || summary.Detail() != "1 folders" {
		t.Fatalf("unexpected summary after commit: %s %s", summary.Aggregate(), summary.Detail())
	}
	if paints != 2 {
		t.Fatalf("expected 2 paints, got %d", paints)
	}
}
