package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filingdesk/internal/camera"
	"filingdesk/internal/config"
	"filingdesk/internal/testsupport"
	"filingdesk/internal/testsupport/camerafake"
)

type cliTestEnv struct {
	cfg        *config.Config
	backend    *testsupport.FakeBackend
	camera     *camerafake.Camera
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("FILINGDESK_BACKEND_URL", "")
	t.Setenv("FILINGDESK_CAMERA", "")
	t.Setenv("FILINGDESK_NTFY_TOPIC", "")

	fake := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(fake.URL()))

	cam := camerafake.New()
	previous := openCamera
	openCamera = cam.Opener()
	t.Cleanup(func() { openCamera = previous })

	configPath := filepath.Join(homeDir, ".config", "filingdesk", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		backend:    fake,
		camera:     cam,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\nlog_dir = %q\n\n[backend]\nbase_url = %q\nrequest_timeout_seconds = 5\n\n[camera]\ndevice = %q\nhotplug = false\n\n[journal]\nenabled = true\n",
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Backend.BaseURL,
		cfg.Camera.Device,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func stubDevices(t *testing.T, devices []camera.DeviceInfo) {
	t.Helper()
	previous := listDevices
	listDevices = func(context.Context) ([]camera.DeviceInfo, error) {
		return devices, nil
	}
	t.Cleanup(func() { listDevices = previous })
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
