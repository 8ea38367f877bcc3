package locations_test

import (
	"reflect"
	"testing"

	"filingdesk/internal/config"
	"filingdesk/internal/locations"
)

func TestDrawerOptionsCoverEveryLayoutPair(t *testing.T) {
	cfg := config.DefaultLayout()
	layout := locations.NewLayout(cfg)

	for _, room := range cfg.Rooms {
		for _, recorded := range room.Drawers {
			drawers, selected := layout.DrawerOptions(room.Name, recorded)
			if !reflect.DeepEqual(drawers, room.Drawers) {
				t.Fatalf("%s: expected drawers %v, got %v", room.Name, room.Drawers, drawers)
			}
			if selected != recorded {
				t.Fatalf("%s: expected recorded drawer %q selected, got %q", room.Name, recorded, selected)
			}
		}
		drawers, selected := layout.DrawerOptions(room.Name, "Gaveta 99")
		if !reflect.DeepEqual(drawers, room.Drawers) || selected != room.Drawers[0] {
			t.Fatalf("%s: expected default selection, got %v %q", room.Name, drawers, selected)
		}
	}
}

func TestDrawerOptionsUnknownRoom(t *testing.T) {
	layout := locations.NewLayout(config.DefaultLayout())
	drawers, selected := layout.DrawerOptions("Sala 9", "Gaveta 1")
	if drawers != nil || selected != "" {
		t.Fatalf("expected no options for unknown room, got %v %q", drawers, selected)
	}
}

func TestDriftReportsBothDirections(t *testing.T) {
	layout := locations.NewLayout(config.Layout{Rooms: []config.Room{
		{Name: "Sala 1", Drawers: []string{"Gaveta 1", "Gaveta 2"}},
		{Name: "Sala 2", Drawers: []string{"Gaveta 1"}},
	}})
	tree := locations.Tree{
		"Sala 1": {"Gaveta 1": nil, "Gaveta 3": nil},
		"Sala 4": {"Gaveta 1": nil},
	}

	got := layout.Drift(tree, locations.NewOrder("pt-BR"))
	want := []locations.Drift{
		{Kind: locations.DriftMissingOnServer, Room: "Sala 1", Drawer: "Gaveta 2"},
		{Kind: locations.DriftMissingOnServer, Room: "Sala 2"},
		{Kind: locations.DriftMissingInLayout, Room: "Sala 1", Drawer: "Gaveta 3"},
		{Kind: locations.DriftMissingInLayout, Room: "Sala 4"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected drift:\n got %+v\nwant %+v", got, want)
	}
}

func TestOrderSortsNumerically(t *testing.T) {
	got := locations.NewOrder("pt-BR").Sort([]string{"Gaveta 10", "Gaveta 2", "Gaveta 1"})
	want := []string{"Gaveta 1", "Gaveta 2", "Gaveta 10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
