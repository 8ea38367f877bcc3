package config

const (
	defaultConfigPath             = "~/.config/filingdesk/config.toml"
	defaultStateDir               = "~/.local/share/filingdesk"
	defaultLogDir                 = "~/.local/share/filingdesk/logs"
	defaultBackendURL             = "http://127.0.0.1:5000"
	defaultRequestTimeoutSeconds  = 10
	defaultClassifyTimeoutSeconds = 30
	defaultCommitTimeoutSeconds   = 15
	defaultCameraDevice           = "/dev/video0"
	defaultJPEGQuality            = 90
	defaultDisplayLanguage        = "pt-BR"
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Backend: Backend{
			BaseURL:                defaultBackendURL,
			RequestTimeoutSeconds:  defaultRequestTimeoutSeconds,
			ClassifyTimeoutSeconds: defaultClassifyTimeoutSeconds,
			CommitTimeoutSeconds:   defaultCommitTimeoutSeconds,
		},
		Camera: Camera{
			Device:      defaultCameraDevice,
			JPEGQuality: defaultJPEGQuality,
			Hotplug:     true,
		},
		Layout: DefaultLayout(),
		Display: Display{
			Language: defaultDisplayLanguage,
		},
		Journal: Journal{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Commits:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultLayout returns the room/drawer table the backend ships with.
func DefaultLayout() Layout {
	return Layout{Rooms: []Room{
		{Name: "Sala 1", Drawers: []string{"Gaveta 1", "Gaveta 2", "Gaveta 3"}},
		{Name: "Sala 2", Drawers: []string{"Gaveta 1", "Gaveta 2"}},
		{Name: "Sala 3", Drawers: []string{"Gaveta 1", "Gaveta 2", "Gaveta 3", "Gaveta 4"}},
	}}
}
