// Package config loads, normalizes, and validates filingdesk configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FILINGDESK_BACKEND_URL, optionally seeded from a .env file in the working
// directory. The Config type centralizes every knob the console and CLI need:
// the backend URL and deadlines, the camera device, the static room/drawer
// layout, and the journal and log locations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
