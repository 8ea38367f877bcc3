package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"filingdesk/internal/backend"
	"filingdesk/internal/services"
)

const backendCheckTimeout = 5 * time.Second

// CheckBackend verifies that the filing backend answers /get_salas with a
// well-formed location tree.
func CheckBackend(ctx context.Context, baseURL string, timeout time.Duration) Result {
	const name = "Filing backend"

	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if timeout <= 0 || timeout > backendCheckTimeout {
		timeout = backendCheckTimeout
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := backend.NewClient(base, timeout)
	resp, err := client.Locations(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeBackendError(err)}
	}
	if len(resp.Rooms) == 0 {
		return Result{Name: name, Detail: "reachable, but no rooms are defined"}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("Reachable (%d rooms, selection %s/%s)", len(resp.Rooms), resp.CurrentRoom, resp.CurrentDrawer),
	}
}

// CheckCameraDevice verifies that the configured video node exists and is
// readable and writable by this process.
func CheckCameraDevice(path string) Result {
	const name = "Camera device"

	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "no device configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a character device)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v; is the user in the video group?)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCameraLock reports whether another workstation process currently owns
// the camera.
func CheckCameraLock(lockPath string) Result {
	const name = "Camera lock"

	if _, err := os.Stat(lockPath); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: "free"}
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", lockPath, err)}
	}
	if !locked {
		return Result{Name: name, Detail: "held by another filingdesk process"}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: "free"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeBackendError(err error) string {
	if errors.Is(err, services.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (backend unresponsive)"
	}
	return services.Message(err)
}
