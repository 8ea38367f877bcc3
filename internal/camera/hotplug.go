package camera

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"filingdesk/internal/logging"
)

// hotplugTarget receives device presence changes.
type hotplugTarget interface {
	deviceAdded()
	deviceRemoved()
}

// hotplugMonitor listens for udev netlink events on the video4linux subsystem
// and forwards add/remove of the configured device to the engine.
type hotplugMonitor struct {
	device string
	logger *slog.Logger
	target hotplugTarget

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newHotplugMonitor(device string, logger *slog.Logger, target hotplugTarget) *hotplugMonitor {
	device = strings.TrimSpace(device)
	if device == "" || target == nil {
		return nil
	}
	return &hotplugMonitor{
		device: device,
		logger: logging.NewComponentLogger(logger, "camera-hotplug"),
		target: target,
	}
}

// Start connects to the netlink socket. Connection failures are logged and
// swallowed; the camera still works without hotplug.
func (m *hotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; camera hotplug disabled", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the process may open netlink sockets"),
			logging.String(logging.FieldImpact, "a reconnected camera requires a restart"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("camera hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
		logging.String("device", m.device),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *hotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("camera hotplug monitor stopped",
		logging.String(logging.FieldEventType, "hotplug_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *hotplugMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *hotplugMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, videoMatcher("add|remove"))

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "camera hotplug may be missed"),
			)
		}
	}
}

func (m *hotplugMonitor) handleEvent(uevent netlink.UEvent) {
	devname := devicePath(uevent.Env)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if devname != m.device {
		m.logger.Debug("ignoring event for other device",
			logging.String("device", devname),
			logging.String("configured_device", m.device),
		)
		return
	}

	m.logger.Info("camera hotplug event",
		logging.String(logging.FieldEventType, "camera_hotplug"),
		logging.String("device", devname),
		logging.String("action", string(uevent.Action)),
	)
	switch uevent.Action {
	case netlink.ADD:
		m.target.deviceAdded()
	case netlink.REMOVE:
		m.target.deviceRemoved()
	}
}

// videoMatcher matches video4linux events with the given action pattern.
// An empty action matches any action.
func videoMatcher(action string) netlink.Matcher {
	rule := netlink.RuleDefinition{
		Env: map[string]string{"SUBSYSTEM": "video4linux"},
	}
	if action != "" {
		rule.Action = &action
	}
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(rule)
	return rules
}

// devicePath returns the /dev path for a uevent environment. Netlink events
// carry an absolute DEVNAME; sysfs uevent files carry it relative to /dev.
func devicePath(env map[string]string) string {
	if devname := strings.TrimSpace(env["DEVNAME"]); devname != "" {
		if filepath.IsAbs(devname) {
			return devname
		}
		return "/dev/" + devname
	}
	devpath := env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(strings.TrimSuffix(devpath, "/"), "/")
	last := parts[len(parts)-1]
	if last == "" {
		return ""
	}
	return "/dev/" + last
}
