package camera

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pilebones/go-udev/crawler"
)

// DeviceInfo describes one video4linux node found in sysfs.
type DeviceInfo struct {
	Path string
	Name string
}

// ListDevices enumerates existing video4linux devices.
func ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	queue := make(chan crawler.Device)
	errs := make(chan error, 1)
	quit := crawler.ExistingDevices(queue, errs, videoMatcher(""))
	return collectDevices(ctx, queue, errs, quit)
}

// collectDevices reads crawler results until the queue closes. On early
// return it signals quit and keeps draining queue so the walker can exit.
func collectDevices(ctx context.Context, queue <-chan crawler.Device, errs <-chan error, quit chan struct{}) ([]DeviceInfo, error) {
	var devices []DeviceInfo
	for {
		select {
		case <-ctx.Done():
			stopCrawler(queue, quit)
			return nil, ctx.Err()
		case err := <-errs:
			stopCrawler(queue, quit)
			return nil, err
		case dev, ok := <-queue:
			if !ok {
				// The walker reports its error before closing the queue.
				select {
				case err := <-errs:
					return nil, err
				default:
				}
				sortDevices(devices)
				return devices, nil
			}
			if info, ok := deviceInfo(dev); ok {
				devices = append(devices, info)
			}
		}
	}
}

func stopCrawler(queue <-chan crawler.Device, quit chan struct{}) {
	close(quit)
	go func() {
		for range queue {
		}
	}()
}

func deviceInfo(dev crawler.Device) (DeviceInfo, bool) {
	path := devicePath(dev.Env)
	if path == "" {
		return DeviceInfo{}, false
	}
	info := DeviceInfo{Path: path}
	if dev.KObj != "" {
		if raw, err := os.ReadFile(filepath.Join(dev.KObj, "name")); err == nil {
			info.Name = strings.TrimSpace(string(raw))
		}
	}
	return info, true
}

func sortDevices(devices []DeviceInfo) {
	sort.Slice(devices, func(i, j int) bool {
		if len(devices[i].Path) != len(devices[j].Path) {
			return len(devices[i].Path) < len(devices[j].Path)
		}
		return devices[i].Path < devices[j].Path
	})
}
