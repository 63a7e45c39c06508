package windowkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for the checked degrade paths. Callers compare with
// errors.Is; none of these abort the window.
var (
	// ErrNoRefreshSource means the platform refused a display-refresh
	// subscription. The pacer degrades to forced frames only.
	ErrNoRefreshSource = errors.New("windowkit: no display refresh source")

	// ErrWindowClosed means the operation targeted a window whose
	// teardown has begun.
	ErrWindowClosed = errors.New("windowkit: window closed")

	// ErrHandleReleased means a native-control handle was used after its
	// release. Release itself is an idempotent no-op; other uses fail.
	ErrHandleReleased = errors.New("windowkit: native handle released")

	// ErrNoControlHost means the active platform backend cannot host
	// native controls. The affordance silently does not appear.
	ErrNoControlHost = errors.New("windowkit: platform has no native control host")

	// ErrUnknownAnchor means a popover or panel referenced a toolbar
	// item identifier that does not exist.
	ErrUnknownAnchor = errors.New("windowkit: unknown anchor identifier")
)

// PlatformError wraps a failed native call with its status code.
type PlatformError struct {
	Op   string
	Code int32
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("windowkit: %s failed (status %d)", e.Op, e.Code)
}
