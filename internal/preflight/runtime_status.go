package preflight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"filingdesk/internal/camera"
)

// CameraProbe reports whether the configured device is among the video nodes
// udev currently knows about.
type CameraProbe struct {
	Detected bool
	Device   string
	Name     string
	Others   []string
}

// ProbeCamera enumerates video4linux devices and looks for device.
func ProbeCamera(ctx context.Context, device string) CameraProbe {
	device = strings.TrimSpace(device)
	if device == "" {
		device = "/dev/video0"
	}
	probe := CameraProbe{Device: device}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	devices, err := camera.ListDevices(ctx)
	if err != nil {
		return probe
	}
	return probeFrom(device, devices)
}

func probeFrom(device string, devices []camera.DeviceInfo) CameraProbe {
	probe := CameraProbe{Device: device}
	for _, dev := range devices {
		if dev.Path == device {
			probe.Detected = true
			probe.Name = dev.Name
			continue
		}
		probe.Others = append(probe.Others, dev.Path)
	}
	return probe
}

// CameraDetail renders a display-friendly summary for status UIs.
func (p CameraProbe) CameraDetail() string {
	if !p.Detected {
		if len(p.Others) > 0 {
			return fmt.Sprintf("%s not found (available: %s)", p.Device, strings.Join(p.Others, ", "))
		}
		return fmt.Sprintf("%s not found", p.Device)
	}
	name := p.Name
	if name == "" {
		name = "Unknown camera"
	}
	return fmt.Sprintf("%s on %s", name, p.Device)
}
