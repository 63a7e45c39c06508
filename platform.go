package windowkit

import "runtime"

// OS identifies the operating system the process is running on.
type OS string

const (
	OSMacOS   OS = "darwin"
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
	OSUnknown OS = "unknown"
)

// CurrentOS returns the operating system the process is running on.
func CurrentOS() OS {
	switch runtime.GOOS {
	case "darwin":
		return OSMacOS
	case "linux":
		return OSLinux
	case "windows":
		return OSWindows
	default:
		return OSUnknown
	}
}

// IsMacOS reports whether the process is running on macOS.
func IsMacOS() bool { return CurrentOS() == OSMacOS }

// IsLinux reports whether the process is running on Linux.
func IsLinux() bool { return CurrentOS() == OSLinux }

// IsWindows reports whether the process is running on Windows.
func IsWindows() bool { return CurrentOS() == OSWindows }

// SupportsNativeControls reports whether the platform backend can host
// native controls (toolbars, popovers, panels). On platforms without a
// control host those affordances silently do not appear; the window remains
// fully usable for input and rendering.
func SupportsNativeControls() bool {
	return CurrentOS() == OSMacOS || CurrentOS() == OSWindows
}

// SupportsDisplayRefresh reports whether the platform backend provides a
// per-display vertical-sync callback. Without one the frame pacer degrades
// to a timer-paced fallback.
func SupportsDisplayRefresh() bool {
	return CurrentOS() != OSLinux
}
