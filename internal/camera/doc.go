// Package camera owns the workstation's video device.
//
// Engine acquires the device once at startup behind an exclusive lock file,
// samples still frames on demand and encodes them as JPEG through OpenCV.
// When hotplug is enabled a udev netlink monitor releases the device on
// removal and re-acquires it when it comes back. ListDevices walks sysfs for
// the cameras command.
package camera
