//go:build darwin || windows

// Package native implements the platform adapter over the windowkit native
// shim library via purego. No CGo: the shim exports a flat C ABI and the Go
// side binds it at startup, which keeps cross-compilation working.
package native

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// ============================================================================
// Library Loading
// ============================================================================

var (
	libHandle uintptr
	libOnce   sync.Once
	libErr    error
)

// Library function pointers (populated by initLibrary)
var (
	// Window lifecycle
	fnWindowCreate    func(opts uintptr) uintptr
	fnWindowShow      func(win uintptr)
	fnWindowHide      func(win uintptr)
	fnWindowDestroy   func(win uintptr)
	fnWindowBounds    func(win uintptr, out uintptr)
	fnWindowSetBounds func(win uintptr, bounds uintptr)
	fnWindowSetTitle  func(win uintptr, title uintptr)
	fnWindowScale     func(win uintptr) float64
	fnWindowDisplay   func(win uintptr) uint32
	fnWindowDarkMode  func(win uintptr) int32

	fnWindowSetFullscreen  func(win uintptr, enabled int32) int32
	fnWindowMinimize       func(win uintptr)
	fnWindowToggleMaximize func(win uintptr)
	fnWindowSetCursor      func(win uintptr, cursor uint32)
	fnWindowSurfaceView    func(win uintptr) uintptr
	fnWindowSetHandler     func(win uintptr, callback uintptr) int32

	// Display link
	fnDisplayLinkCreate func(win uintptr, display uint32, callback uintptr) uintptr
	fnDisplayLinkCancel func(link uintptr)

	// Main-thread marshaling
	fnPostMain func(callback uintptr, token uintptr)

	// Native controls
	fnControlCreate    func(win uintptr, spec uintptr, outControl uintptr, outTarget uintptr) int32
	fnControlUpdate    func(control uintptr, spec uintptr) int32
	fnControlRelease   func(control uintptr, target uintptr)
	fnControlSetImage  func(control uintptr, rgba uintptr, width uint32, height uint32) int32
	fnControlSetAction func(target uintptr, callback uintptr)

	// Toolbar / popover / panel / alert
	fnToolbarInstall   func(win uintptr, spec uintptr, items uintptr, count uint32) int32
	fnToolbarRemove    func(win uintptr)
	fnToolbarItemView  func(win uintptr, identifier uintptr) uintptr
	fnPopoverPresent   func(win uintptr, anchor uintptr, content uintptr, count uint32) int32
	fnPopoverDismiss   func(win uintptr)
	fnPanelPresent     func(win uintptr, anchor uintptr, content uintptr, count uint32) int32
	fnPanelDismiss     func(win uintptr)
	fnAlertPresent     func(win uintptr, spec uintptr, callback uintptr, token uintptr) int32
	fnSidebarContainer func(win uintptr) uintptr

	// Surface reparenting
	fnViewReparent       func(win uintptr, view uintptr, parent uintptr, insets uintptr) int32
	fnMakeFirstResponder func(win uintptr, view uintptr) int32

	// Text input
	fnTextInputSetCallbacks func(callbacks uintptr)
	fnTextInputActivate     func(win uintptr, active int32)
)

// getLibraryPath returns the path to the native shim library.
func getLibraryPath() string {
	if path := os.Getenv("WINDOWKIT_SHIM_PATH"); path != "" {
		return path
	}

	var libName string
	switch runtime.GOOS {
	case "darwin":
		libName = "libwindowkit_shim.dylib"
	case "windows":
		libName = "windowkit_shim.dll"
	default:
		libName = "libwindowkit_shim.so"
	}

	searchPaths := []string{
		libName,
		filepath.Join(".", libName),
		filepath.Join("shim", "target", "release", libName),
		filepath.Join("shim", "target", "debug", libName),
	}
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		searchPaths = append(searchPaths,
			filepath.Join(execDir, libName),
			filepath.Join(execDir, "..", "lib", libName),
		)
		if runtime.GOOS == "darwin" {
			searchPaths = append(searchPaths,
				filepath.Join(execDir, "..", "Frameworks", libName),
			)
		}
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return libName
}

// initLibrary loads the shim and registers all function pointers.
func initLibrary() error {
	libOnce.Do(func() {
		libPath := getLibraryPath()
		log.Printf("native: loading shim from %s", libPath)

		const rtldLazy = 0x1
		libHandle, libErr = purego.Dlopen(libPath, rtldLazy)
		if libErr != nil {
			libErr = fmt.Errorf("failed to load windowkit shim from %s: %w", libPath, libErr)
			return
		}

		registerWindowFunctions()
		registerPacingFunctions()
		registerControlFunctions()
		registerChromeFunctions()
		registerTextInputFunctions()
		installStaticCallbacks()
	})
	return libErr
}

func registerWindowFunctions() {
	purego.RegisterLibFunc(&fnWindowCreate, libHandle, "wk_window_create")
	purego.RegisterLibFunc(&fnWindowShow, libHandle, "wk_window_show")
	purego.RegisterLibFunc(&fnWindowHide, libHandle, "wk_window_hide")
	purego.RegisterLibFunc(&fnWindowDestroy, libHandle, "wk_window_destroy")
	purego.RegisterLibFunc(&fnWindowBounds, libHandle, "wk_window_bounds")
	purego.RegisterLibFunc(&fnWindowSetBounds, libHandle, "wk_window_set_bounds")
	purego.RegisterLibFunc(&fnWindowSetTitle, libHandle, "wk_window_set_title")
	purego.RegisterLibFunc(&fnWindowScale, libHandle, "wk_window_scale_factor")
	purego.RegisterLibFunc(&fnWindowDisplay, libHandle, "wk_window_display")
	purego.RegisterLibFunc(&fnWindowDarkMode, libHandle, "wk_window_dark_mode")
	purego.RegisterLibFunc(&fnWindowSetFullscreen, libHandle, "wk_window_set_fullscreen")
	purego.RegisterLibFunc(&fnWindowMinimize, libHandle, "wk_window_minimize")
	purego.RegisterLibFunc(&fnWindowToggleMaximize, libHandle, "wk_window_toggle_maximize")
	purego.RegisterLibFunc(&fnWindowSetCursor, libHandle, "wk_window_set_cursor")
	purego.RegisterLibFunc(&fnWindowSurfaceView, libHandle, "wk_window_surface_view")
	purego.RegisterLibFunc(&fnWindowSetHandler, libHandle, "wk_window_set_event_handler")
}

func registerPacingFunctions() {
	purego.RegisterLibFunc(&fnDisplayLinkCreate, libHandle, "wk_display_link_create")
	purego.RegisterLibFunc(&fnDisplayLinkCancel, libHandle, "wk_display_link_cancel")
	purego.RegisterLibFunc(&fnPostMain, libHandle, "wk_post_main")
}

func registerControlFunctions() {
	purego.RegisterLibFunc(&fnControlCreate, libHandle, "wk_control_create")
	purego.RegisterLibFunc(&fnControlUpdate, libHandle, "wk_control_update")
	purego.RegisterLibFunc(&fnControlRelease, libHandle, "wk_control_release")
	purego.RegisterLibFunc(&fnControlSetImage, libHandle, "wk_control_set_image")
	purego.RegisterLibFunc(&fnControlSetAction, libHandle, "wk_control_set_action")
}

func registerChromeFunctions() {
	purego.RegisterLibFunc(&fnToolbarInstall, libHandle, "wk_toolbar_install")
	purego.RegisterLibFunc(&fnToolbarRemove, libHandle, "wk_toolbar_remove")
	purego.RegisterLibFunc(&fnToolbarItemView, libHandle, "wk_toolbar_item_view")
	purego.RegisterLibFunc(&fnPopoverPresent, libHandle, "wk_popover_present")
	purego.RegisterLibFunc(&fnPopoverDismiss, libHandle, "wk_popover_dismiss")
	purego.RegisterLibFunc(&fnPanelPresent, libHandle, "wk_panel_present")
	purego.RegisterLibFunc(&fnPanelDismiss, libHandle, "wk_panel_dismiss")
	purego.RegisterLibFunc(&fnAlertPresent, libHandle, "wk_alert_present")
	purego.RegisterLibFunc(&fnSidebarContainer, libHandle, "wk_sidebar_container")
	purego.RegisterLibFunc(&fnViewReparent, libHandle, "wk_view_reparent")
	purego.RegisterLibFunc(&fnMakeFirstResponder, libHandle, "wk_make_first_responder")
}

func registerTextInputFunctions() {
	purego.RegisterLibFunc(&fnTextInputSetCallbacks, libHandle, "wk_text_input_set_callbacks")
	purego.RegisterLibFunc(&fnTextInputActivate, libHandle, "wk_text_input_activate")
}

// ============================================================================
// String helpers
// ============================================================================

// cString returns a NUL-terminated byte buffer for s. The buffer must stay
// referenced for the duration of the native call.
func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func cStringPtr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

// goString converts a NUL-terminated C string pointer to a Go string.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	length := 0
	for {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(length)))
		if b == 0 {
			break
		}
		length++
	}
	bytes := make([]byte, length)
	for i := 0; i < length; i++ {
		bytes[i] = *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
	}
	return string(bytes)
}

// joinCString joins items with newlines into one NUL-terminated buffer; the
// shim splits on the other side.
func joinCString(items []string) []byte {
	return cString(strings.Join(items, "\n"))
}

// ============================================================================
// C struct mirrors
// ============================================================================
//
// Field order matches the shim headers exactly: 8-byte fields first, then
// 4-byte, then flags.

type windowOptionsC struct {
	Title        uintptr
	X, Y         float64
	Width        float64
	Height       float64
	MinWidth     float64
	MinHeight    float64
	MaxWidth     float64
	MaxHeight    float64
	CornerRadius float64
	Kind         uint32
	Background   uint32
	Flags        uint32 // bit0 decorations, bit1 resizable, bit2 always-on-top, bit3 transparent titlebar
	_            uint32
}

type boundsC struct {
	X, Y          float64
	Width, Height float64
}

type rawEventC struct {
	X, Y           float64
	DeltaX, DeltaY float64
	ScaleFactor    float64
	Paths          uintptr
	Kind           uint32
	Button         int32
	ClickCount     int32
	Keycode        uint32
	Rune           int32
	Modifiers      uint32
	Flags          uint32 // bit0 repeat, bit1 caps lock, bit2 first mouse
	Display        uint32
	Appearance     uint32
	DropOp         uint32
}

type controlSpecC struct {
	Identifier uintptr
	Title      uintptr
	Tooltip    uintptr
	Items      uintptr // newline-joined entries
	Progress   float64
	Width      float64
	Kind       uint32
	Selected   int32
	Color      uint32
	Flags      uint32 // bit0 checked, bit1 enabled
}

type toolbarSpecC struct {
	Identifier  uintptr
	Title       uintptr
	DisplayMode uint32
	SizeMode    uint32
	Flags       uint32 // bit0 baseline rule
	_           uint32
}

type anchorC struct {
	Item uintptr
	X, Y float64
	Kind uint32
	_    uint32
}

type alertSpecC struct {
	Title   uintptr
	Message uintptr
	Buttons uintptr // newline-joined
}

type insetsC struct {
	Top, Left, Bottom, Right float64
}

func controlSpecC_from(spec platform.ControlSpec, pins *[][]byte) controlSpecC {
	id := cString(spec.Identifier)
	title := cString(spec.Title)
	tooltip := cString(spec.Tooltip)
	items := joinCString(spec.Items)
	*pins = append(*pins, id, title, tooltip, items)

	var flags uint32
	if spec.Checked {
		flags |= 1 << 0
	}
	if spec.Enabled {
		flags |= 1 << 1
	}
	return controlSpecC{
		Identifier: cStringPtr(id),
		Title:      cStringPtr(title),
		Tooltip:    cStringPtr(tooltip),
		Items:      cStringPtr(items),
		Progress:   spec.Progress,
		Width:      spec.Width,
		Kind:       uint32(spec.Kind),
		Selected:   int32(spec.Selected),
		Color:      spec.Color,
		Flags:      flags,
	}
}

func anchorC_from(anchor platform.AnchorSpec, pins *[][]byte) anchorC {
	item := cString(anchor.Item)
	*pins = append(*pins, item)
	return anchorC{
		Item: cStringPtr(item),
		X:    anchor.X,
		Y:    anchor.Y,
		Kind: uint32(anchor.Kind),
	}
}
