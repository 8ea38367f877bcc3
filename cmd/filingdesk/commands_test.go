package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filingdesk/internal/backend"
	"filingdesk/internal/camera"
	"filingdesk/internal/journal"
	"filingdesk/internal/testsupport"
	"filingdesk/internal/testsupport/camerafake"
)

func TestStatsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.SetTree(map[string]map[string][]string{
		"Sala 1": {"Gaveta 1": {"Ana Souza", "Bruno Lima"}, "Gaveta 2": {}},
		"Sala 2": {"Gaveta 1": {"Carla Dias"}},
	})

	out, _, err := runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Filled:    2/3 drawers")
	requireContains(t, out, "Selection: Sala 1 / Gaveta 1 (2 folders)")
	requireContains(t, out, "1. Ana Souza")
	requireContains(t, out, "2. Bruno Lima")
	requireContains(t, out, "Sala 2")
	requireContains(t, out, "Total")
}

func TestStatsCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}
	var got statsJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.Room != "Sala 1" || got.Drawer != "Gaveta 1" {
		t.Fatalf("unexpected selection %s/%s", got.Room, got.Drawer)
	}
	if got.TotalDrawers != 9 || got.FilledDrawers != 0 {
		t.Fatalf("unexpected counts %d/%d", got.FilledDrawers, got.TotalDrawers)
	}
	if got.Folders == nil || len(got.Folders) != 0 {
		t.Fatalf("expected empty folder list, got %v", got.Folders)
	}
	if len(got.Rooms) != 3 {
		t.Fatalf("expected 3 room rows, got %d", len(got.Rooms))
	}
}

func TestStatsCommandBackendDown(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.FailWith(backend.PathLocations, 500)

	if _, _, err := runCLI(t, []string{"stats"}, env.configPath); err == nil {
		t.Fatal("expected error when the backend fails")
	}
}

func TestSelectCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"select", "Sala 3", "Gaveta 4"}, env.configPath)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	requireContains(t, out, "Filing into Sala 3 / Gaveta 4")
	if room, drawer := env.backend.Selection(); room != "Sala 3" || drawer != "Gaveta 4" {
		t.Fatalf("server selection = %s/%s", room, drawer)
	}
}

func TestSelectCommandRejectsUnknownDrawer(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"select", "Sala 2", "Gaveta 9"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown drawer")
	}
	if calls := env.backend.Calls(backend.PathSetSelection); calls != 0 {
		t.Fatalf("expected no set request, got %d", calls)
	}
	if room, drawer := env.backend.Selection(); room != "Sala 1" || drawer != "Gaveta 1" {
		t.Fatalf("server selection changed to %s/%s", room, drawer)
	}
}

func TestSnapshotCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "shots", "frame.jpg")

	out, _, err := runCLI(t, []string{"snapshot", "--out", target}, env.configPath)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	requireContains(t, out, "Wrote 640x480 frame")
	requireContains(t, out, target)

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !bytes.Equal(data, camerafake.JPEG) {
		t.Fatalf("unexpected snapshot contents %x", data)
	}
	if env.camera.Closes() != 1 {
		t.Fatalf("expected camera released, closes=%d", env.camera.Closes())
	}
}

func TestSnapshotCommandCameraUnavailable(t *testing.T) {
	env := setupCLITestEnv(t)
	env.camera.FailOpen(os.ErrNotExist)

	_, _, err := runCLI(t, []string{"snapshot", "--out", filepath.Join(env.baseDir, "frame.jpg")}, env.configPath)
	if err == nil {
		t.Fatal("expected error without a camera")
	}
}

func TestCamerasCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	stubDevices(t, []camera.DeviceInfo{
		{Path: env.cfg.Camera.Device, Name: "USB Camera"},
		{Path: "/dev/video9", Name: "Loopback"},
	})

	out, _, err := runCLI(t, []string{"cameras"}, env.configPath)
	if err != nil {
		t.Fatalf("cameras: %v", err)
	}
	requireContains(t, out, "USB Camera")
	requireContains(t, out, "Loopback")
	requireContains(t, out, "yes")
}

func TestCamerasCommandNoDevices(t *testing.T) {
	env := setupCLITestEnv(t)
	stubDevices(t, nil)

	out, _, err := runCLI(t, []string{"cameras"}, env.configPath)
	if err != nil {
		t.Fatalf("cameras: %v", err)
	}
	requireContains(t, out, "No video devices found")
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No captures recorded yet")

	store := testsupport.MustOpenJournal(t, env.cfg)
	ctx := context.Background()
	for _, entry := range []journal.Entry{
		{CaptureID: "a", Outcome: journal.OutcomeCommitted, ProposedLabel: "Maria Silva", FinalLabel: "Maria S. Silva", Room: "Sala 1", Drawer: "Gaveta 1", Message: "Adicionado: Maria S. Silva -> Sala 1/Gaveta 1"},
		{CaptureID: "b", Outcome: journal.OutcomeClassifyFailed, Message: "Error processing image: timeout"},
		{CaptureID: "c", Outcome: journal.OutcomeDiscarded, ProposedLabel: "Joao"},
	} {
		if _, err := store.Record(ctx, entry); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Maria S. Silva (detected Maria Silva)")
	requireContains(t, out, "Sala 1/Gaveta 1")
	requireContains(t, out, "classify_failed")
	requireContains(t, out, "Totals: committed 1")

	out, _, err = runCLI(t, []string{"history", "--json", "--limit", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var entries []journal.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestHistoryCommandRejectsNegativeLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"history", "--limit", "-1"}, env.configPath); err == nil {
		t.Fatal("expected error for negative limit")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Configuration")
	requireContains(t, out, env.backend.URL())
	requireContains(t, out, "Reachable (3 rooms, selection Sala 1/Gaveta 1)")
	// The configured device path does not exist in the test environment.
	requireContains(t, out, "does not exist")
	requireContains(t, out, "[WARN]")
	requireContains(t, out, "0 filed, 0 failed, 0 discarded")
}

func TestNotifyTestDisabled(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"notify", "test"}, env.configPath)
	if err != nil {
		t.Fatalf("notify test: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Layout: 3 rooms, 9 drawers")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, env.configPath); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[camera]\njpeg_quality = 500\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"stats"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := env.cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	content := "INFO camera acquired\nINFO folder filed label=Ana\nWARN confirm failed\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "INFO folder filed label=Ana\nWARN confirm failed\n" {
		t.Fatalf("unexpected output %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--grep", "camera"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --grep: %v", err)
	}
	if out != "INFO camera acquired\n" {
		t.Fatalf("unexpected filtered output %q", out)
	}
}
