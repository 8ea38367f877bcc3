package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeCamera()
	c.normalizeLayout()
	c.normalizeDisplay()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	if value, ok := os.LookupEnv("FILINGDESK_BACKEND_URL"); ok && strings.TrimSpace(value) != "" {
		c.Backend.BaseURL = value
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendURL
	}
}

func (c *Config) normalizeCamera() {
	if value, ok := os.LookupEnv("FILINGDESK_CAMERA"); ok && strings.TrimSpace(value) != "" {
		c.Camera.Device = value
	}
	c.Camera.Device = strings.TrimSpace(c.Camera.Device)
	if c.Camera.Device == "" {
		c.Camera.Device = defaultCameraDevice
	}
}

func (c *Config) normalizeLayout() {
	rooms := make([]Room, 0, len(c.Layout.Rooms))
	for _, room := range c.Layout.Rooms {
		name := strings.TrimSpace(room.Name)
		drawers := make([]string, 0, len(room.Drawers))
		for _, drawer := range room.Drawers {
			if drawer = strings.TrimSpace(drawer); drawer != "" {
				drawers = append(drawers, drawer)
			}
		}
		rooms = append(rooms, Room{Name: name, Drawers: drawers})
	}
	if len(rooms) == 0 {
		rooms = DefaultLayout().Rooms
	}
	c.Layout.Rooms = rooms
}

func (c *Config) normalizeDisplay() {
	c.Display.Language = strings.TrimSpace(c.Display.Language)
	if c.Display.Language == "" {
		c.Display.Language = defaultDisplayLanguage
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("FILINGDESK_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
