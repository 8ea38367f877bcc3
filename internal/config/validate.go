package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("backend.base_url must be an http(s) URL, got %q", c.Backend.BaseURL)
	}
	return ensurePositiveMap(map[string]int{
		"backend.request_timeout_seconds":  c.Backend.RequestTimeoutSeconds,
		"backend.classify_timeout_seconds": c.Backend.ClassifyTimeoutSeconds,
		"backend.commit_timeout_seconds":   c.Backend.CommitTimeoutSeconds,
	})
}

func (c *Config) validateCamera() error {
	if c.Camera.JPEGQuality < 1 || c.Camera.JPEGQuality > 100 {
		return errors.New("camera.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateLayout() error {
	seen := make(map[string]struct{}, len(c.Layout.Rooms))
	for i, room := range c.Layout.Rooms {
		if room.Name == "" {
			return fmt.Errorf("layout.room[%d].name must be set", i)
		}
		if _, dup := seen[room.Name]; dup {
			return fmt.Errorf("layout.room %q is declared more than once", room.Name)
		}
		seen[room.Name] = struct{}{}
		if len(room.Drawers) == 0 {
			return fmt.Errorf("layout.room %q must list at least one drawer", room.Name)
		}
		drawers := make(map[string]struct{}, len(room.Drawers))
		for _, drawer := range room.Drawers {
			if _, dup := drawers[drawer]; dup {
				return fmt.Errorf("layout.room %q lists drawer %q more than once", room.Name, drawer)
			}
			drawers[drawer] = struct{}{}
		}
	}
	return nil
}

func (c *Config) validateDisplay() error {
	if _, err := language.Parse(c.Display.Language); err != nil {
		return fmt.Errorf("display.language %q is not a valid language tag: %w", c.Display.Language, err)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
