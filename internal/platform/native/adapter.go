//go:build darwin || windows

package native

import (
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// ============================================================================
// Adapter
// ============================================================================
//
// One process-wide adapter fronts the shim. Per-window state (event handler,
// text client) lives in a registry keyed by the native handle, because the
// shim's callbacks only carry the handle back.

// Adapter implements platform.Adapter, platform.ControlHost, and
// platform.TextInputHost over the native shim.
type Adapter struct{}

// New loads the native shim and returns the adapter.
func New() (*Adapter, error) {
	if err := initLibrary(); err != nil {
		return nil, err
	}
	return &Adapter{}, nil
}

var (
	regMu    sync.Mutex
	handlers = map[uintptr]func(platform.RawEvent){}
	clients  = map[uintptr]platform.TextInputClient{}
	links    = map[uintptr]func(){}
	actions  = map[uintptr]func(platform.ActionPayload){}
	alerts   = map[uintptr]func(int){}
	posted   = map[uintptr]func(){}

	nextToken uintptr = 1
)

func takeToken() uintptr {
	t := nextToken
	nextToken++
	return t
}

// ----------------------------------------------------------------------------
// Static callbacks
// ----------------------------------------------------------------------------
//
// All callbacks are registered once; purego.NewCallback slots are a finite
// process-wide resource.

var (
	eventCallbackPtr  uintptr
	tickCallbackPtr   uintptr
	postCallbackPtr   uintptr
	actionCallbackPtr uintptr
	alertCallbackPtr  uintptr
)

func installStaticCallbacks() {
	eventCallbackPtr = purego.NewCallback(onRawEvent)
	tickCallbackPtr = purego.NewCallback(onDisplayTick)
	postCallbackPtr = purego.NewCallback(onPostedFunc)
	actionCallbackPtr = purego.NewCallback(onControlAction)
	alertCallbackPtr = purego.NewCallback(onAlertDone)
	installTextInputCallbacks()
}

func onRawEvent(win uintptr, evPtr uintptr) uintptr {
	regMu.Lock()
	handler := handlers[win]
	regMu.Unlock()
	if handler == nil || evPtr == 0 {
		return 0
	}

	ev := (*rawEventC)(unsafe.Pointer(evPtr))
	raw := platform.RawEvent{
		Kind:        platform.RawEventKind(ev.Kind),
		X:           ev.X,
		Y:           ev.Y,
		DeltaX:      ev.DeltaX,
		DeltaY:      ev.DeltaY,
		Button:      int(ev.Button),
		ClickCount:  int(ev.ClickCount),
		Keycode:     ev.Keycode,
		Rune:        rune(ev.Rune),
		Modifiers:   platform.RawModifiers(ev.Modifiers),
		Repeat:      ev.Flags&(1<<0) != 0,
		CapsLock:    ev.Flags&(1<<1) != 0,
		FirstMouse:  ev.Flags&(1<<2) != 0,
		ScaleFactor: ev.ScaleFactor,
		Display:     platform.DisplayID(ev.Display),
		Appearance:  platform.Appearance(ev.Appearance),
	}
	if ev.Paths != 0 {
		if joined := goString(ev.Paths); joined != "" {
			raw.Paths = strings.Split(joined, "\n")
		}
		raw.DropOperation = platform.RawDropOperation(ev.DropOp)
	}
	handler(raw)
	return 0
}

func onDisplayTick(link uintptr) uintptr {
	regMu.Lock()
	tick := links[link]
	regMu.Unlock()
	if tick != nil {
		tick()
	}
	return 0
}

func onPostedFunc(token uintptr) uintptr {
	regMu.Lock()
	fn := posted[token]
	delete(posted, token)
	regMu.Unlock()
	if fn != nil {
		fn()
	}
	return 0
}

func onControlAction(target uintptr, payloadPtr uintptr) uintptr {
	regMu.Lock()
	fn := actions[target]
	regMu.Unlock()
	if fn == nil || payloadPtr == 0 {
		return 0
	}
	p := (*actionPayloadC)(unsafe.Pointer(payloadPtr))
	fn(platform.ActionPayload{
		Identifier: goString(p.Identifier),
		Text:       goString(p.Text),
		Index:      int(p.Index),
		Checked:    p.Flags&1 != 0,
	})
	return 0
}

func onAlertDone(token uintptr, index int32) uintptr {
	regMu.Lock()
	fn := alerts[token]
	delete(alerts, token)
	regMu.Unlock()
	if fn != nil {
		fn(int(index))
	}
	return 0
}

type actionPayloadC struct {
	Identifier uintptr
	Text       uintptr
	Index      int32
	Flags      uint32 // bit0 checked
}

// ----------------------------------------------------------------------------
// platform.Adapter
// ----------------------------------------------------------------------------

func (a *Adapter) CreateWindow(opts platform.WindowOptions) (platform.WindowHandle, error) {
	title := cString(opts.Title)
	var flags uint32
	if opts.Decorations {
		flags |= 1 << 0
	}
	if opts.Resizable {
		flags |= 1 << 1
	}
	if opts.AlwaysOnTop {
		flags |= 1 << 2
	}
	if opts.TransparentTitlebar {
		flags |= 1 << 3
	}
	cOpts := windowOptionsC{
		Title:        cStringPtr(title),
		X:            opts.Bounds.X,
		Y:            opts.Bounds.Y,
		Width:        opts.Bounds.Width,
		Height:       opts.Bounds.Height,
		MinWidth:     opts.MinWidth,
		MinHeight:    opts.MinHeight,
		MaxWidth:     opts.MaxWidth,
		MaxHeight:    opts.MaxHeight,
		CornerRadius: opts.CornerRadius,
		Kind:         uint32(opts.Kind),
		Background:   uint32(opts.Background),
		Flags:        flags,
	}
	win := fnWindowCreate(uintptr(unsafe.Pointer(&cOpts)))
	// The mirror struct holds the title as a uintptr, which does not keep
	// the buffer alive across the native call.
	runtime.KeepAlive(title)
	if win == 0 {
		return 0, fmt.Errorf("wk_window_create failed")
	}
	return platform.WindowHandle(win), nil
}

func (a *Adapter) ShowWindow(h platform.WindowHandle) { fnWindowShow(uintptr(h)) }
func (a *Adapter) HideWindow(h platform.WindowHandle) { fnWindowHide(uintptr(h)) }

func (a *Adapter) DestroyWindow(h platform.WindowHandle) {
	regMu.Lock()
	delete(handlers, uintptr(h))
	delete(clients, uintptr(h))
	regMu.Unlock()
	fnWindowDestroy(uintptr(h))
}

func (a *Adapter) WindowBounds(h platform.WindowHandle) platform.RawBounds {
	var out boundsC
	fnWindowBounds(uintptr(h), uintptr(unsafe.Pointer(&out)))
	return platform.RawBounds{X: out.X, Y: out.Y, Width: out.Width, Height: out.Height}
}

func (a *Adapter) SetWindowBounds(h platform.WindowHandle, b platform.RawBounds) {
	in := boundsC{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
	fnWindowSetBounds(uintptr(h), uintptr(unsafe.Pointer(&in)))
}

func (a *Adapter) SetWindowTitle(h platform.WindowHandle, title string) {
	b := cString(title)
	fnWindowSetTitle(uintptr(h), cStringPtr(b))
	runtime.KeepAlive(b)
}

func (a *Adapter) ScaleFactor(h platform.WindowHandle) float64 {
	return fnWindowScale(uintptr(h))
}

func (a *Adapter) Display(h platform.WindowHandle) platform.DisplayID {
	return platform.DisplayID(fnWindowDisplay(uintptr(h)))
}

func (a *Adapter) Appearance(h platform.WindowHandle) platform.Appearance {
	if fnWindowDarkMode(uintptr(h)) != 0 {
		return platform.AppearanceDark
	}
	return platform.AppearanceLight
}

func (a *Adapter) SetFullscreen(h platform.WindowHandle, enabled bool) error {
	v := int32(0)
	if enabled {
		v = 1
	}
	if status := fnWindowSetFullscreen(uintptr(h), v); status != 0 {
		return fmt.Errorf("wk_window_set_fullscreen failed (status %d)", status)
	}
	return nil
}

func (a *Adapter) Minimize(h platform.WindowHandle)       { fnWindowMinimize(uintptr(h)) }
func (a *Adapter) ToggleMaximize(h platform.WindowHandle) { fnWindowToggleMaximize(uintptr(h)) }

func (a *Adapter) SetCursor(h platform.WindowHandle, c platform.Cursor) {
	fnWindowSetCursor(uintptr(h), uint32(c))
}

func (a *Adapter) SurfaceView(h platform.WindowHandle) platform.ViewRef {
	return platform.ViewRef(fnWindowSurfaceView(uintptr(h)))
}

// refreshSub is one live display link.
type refreshSub struct {
	link uintptr
	once sync.Once
}

func (s *refreshSub) Cancel() {
	s.once.Do(func() {
		regMu.Lock()
		delete(links, s.link)
		regMu.Unlock()
		fnDisplayLinkCancel(s.link)
	})
}

func (a *Adapter) SubscribeRefresh(h platform.WindowHandle, display platform.DisplayID, tick func()) (platform.RefreshSubscription, error) {
	link := fnDisplayLinkCreate(uintptr(h), uint32(display), tickCallbackPtr)
	if link == 0 {
		return nil, fmt.Errorf("wk_display_link_create failed for display %d", display)
	}
	regMu.Lock()
	links[link] = tick
	regMu.Unlock()
	return &refreshSub{link: link}, nil
}

func (a *Adapter) SetEventHandler(h platform.WindowHandle, fn func(platform.RawEvent)) {
	regMu.Lock()
	handlers[uintptr(h)] = fn
	regMu.Unlock()
	if status := fnWindowSetHandler(uintptr(h), eventCallbackPtr); status != 0 {
		log.Printf("native: wk_window_set_event_handler failed (status %d)", status)
	}
}

func (a *Adapter) PostToUIThread(fn func()) {
	regMu.Lock()
	token := takeToken()
	posted[token] = fn
	regMu.Unlock()
	fnPostMain(postCallbackPtr, token)
}

// ----------------------------------------------------------------------------
// platform.ControlHost
// ----------------------------------------------------------------------------

func (a *Adapter) CreateControl(h platform.WindowHandle, spec platform.ControlSpec, onAction func(platform.ActionPayload)) (platform.ControlRef, platform.TargetRef, error) {
	var pins [][]byte
	cSpec := controlSpecC_from(spec, &pins)

	var control, target uintptr
	status := fnControlCreate(uintptr(h), uintptr(unsafe.Pointer(&cSpec)),
		uintptr(unsafe.Pointer(&control)), uintptr(unsafe.Pointer(&target)))
	runtime.KeepAlive(pins)
	if status != 0 || control == 0 {
		return 0, 0, fmt.Errorf("wk_control_create %q failed (status %d)", spec.Identifier, status)
	}

	if onAction != nil && target != 0 {
		regMu.Lock()
		actions[target] = onAction
		regMu.Unlock()
		fnControlSetAction(target, actionCallbackPtr)
	}
	return platform.ControlRef(control), platform.TargetRef(target), nil
}

func (a *Adapter) UpdateControl(c platform.ControlRef, spec platform.ControlSpec) error {
	var pins [][]byte
	cSpec := controlSpecC_from(spec, &pins)
	status := fnControlUpdate(uintptr(c), uintptr(unsafe.Pointer(&cSpec)))
	runtime.KeepAlive(pins)
	if status != 0 {
		return fmt.Errorf("wk_control_update %q failed (status %d)", spec.Identifier, status)
	}
	return nil
}

func (a *Adapter) ReleaseControl(c platform.ControlRef, t platform.TargetRef) {
	regMu.Lock()
	delete(actions, uintptr(t))
	regMu.Unlock()
	fnControlRelease(uintptr(c), uintptr(t))
}

func (a *Adapter) SetControlImage(c platform.ControlRef, rgba []byte, width, height int) error {
	if len(rgba) < width*height*4 {
		return fmt.Errorf("control image buffer too small: %d for %dx%d", len(rgba), width, height)
	}
	status := fnControlSetImage(uintptr(c), uintptr(unsafe.Pointer(&rgba[0])), uint32(width), uint32(height))
	runtime.KeepAlive(rgba)
	if status != 0 {
		return fmt.Errorf("wk_control_set_image failed (status %d)", status)
	}
	return nil
}

func (a *Adapter) InstallToolbar(h platform.WindowHandle, spec platform.ToolbarChromeSpec, items []platform.ControlRef) error {
	id := cString(spec.Identifier)
	title := cString(spec.Title)
	var flags uint32
	if spec.ShowsBaselineRule {
		flags |= 1
	}
	cSpec := toolbarSpecC{
		Identifier:  cStringPtr(id),
		Title:       cStringPtr(title),
		DisplayMode: uint32(spec.DisplayMode),
		SizeMode:    uint32(spec.SizeMode),
		Flags:       flags,
	}
	var itemsPtr uintptr
	if len(items) > 0 {
		itemsPtr = uintptr(unsafe.Pointer(&items[0]))
	}
	status := fnToolbarInstall(uintptr(h), uintptr(unsafe.Pointer(&cSpec)), itemsPtr, uint32(len(items)))
	runtime.KeepAlive(id)
	runtime.KeepAlive(title)
	runtime.KeepAlive(items)
	if status != 0 {
		return fmt.Errorf("wk_toolbar_install failed (status %d)", status)
	}
	return nil
}

func (a *Adapter) RemoveToolbar(h platform.WindowHandle) {
	fnToolbarRemove(uintptr(h))
}

func (a *Adapter) ToolbarItemContainer(h platform.WindowHandle, identifier string) platform.ContainerRef {
	b := cString(identifier)
	view := fnToolbarItemView(uintptr(h), cStringPtr(b))
	runtime.KeepAlive(b)
	return platform.ContainerRef(view)
}

func (a *Adapter) PresentPopover(h platform.WindowHandle, anchor platform.AnchorSpec, content []platform.ControlRef) error {
	return presentChrome(fnPopoverPresent, "wk_popover_present", h, anchor, content)
}

func (a *Adapter) DismissPopover(h platform.WindowHandle) { fnPopoverDismiss(uintptr(h)) }

func (a *Adapter) PresentPanel(h platform.WindowHandle, anchor platform.AnchorSpec, content []platform.ControlRef) error {
	return presentChrome(fnPanelPresent, "wk_panel_present", h, anchor, content)
}

func (a *Adapter) DismissPanel(h platform.WindowHandle) { fnPanelDismiss(uintptr(h)) }

func presentChrome(fn func(uintptr, uintptr, uintptr, uint32) int32, name string, h platform.WindowHandle, anchor platform.AnchorSpec, content []platform.ControlRef) error {
	var pins [][]byte
	cAnchor := anchorC_from(anchor, &pins)
	var contentPtr uintptr
	if len(content) > 0 {
		contentPtr = uintptr(unsafe.Pointer(&content[0]))
	}
	status := fn(uintptr(h), uintptr(unsafe.Pointer(&cAnchor)), contentPtr, uint32(len(content)))
	runtime.KeepAlive(pins)
	runtime.KeepAlive(content)
	if status != 0 {
		return fmt.Errorf("%s failed (status %d)", name, status)
	}
	return nil
}

func (a *Adapter) PresentAlertSheet(h platform.WindowHandle, spec platform.AlertSpec, done func(int)) error {
	title := cString(spec.Title)
	message := cString(spec.Message)
	buttons := joinCString(spec.Buttons)
	cSpec := alertSpecC{
		Title:   cStringPtr(title),
		Message: cStringPtr(message),
		Buttons: cStringPtr(buttons),
	}

	regMu.Lock()
	token := takeToken()
	alerts[token] = done
	regMu.Unlock()

	status := fnAlertPresent(uintptr(h), uintptr(unsafe.Pointer(&cSpec)), alertCallbackPtr, token)
	runtime.KeepAlive(title)
	runtime.KeepAlive(message)
	runtime.KeepAlive(buttons)
	if status != 0 {
		regMu.Lock()
		delete(alerts, token)
		regMu.Unlock()
		return fmt.Errorf("wk_alert_present failed (status %d)", status)
	}
	return nil
}

func (a *Adapter) SidebarContainer(h platform.WindowHandle) platform.ContainerRef {
	return platform.ContainerRef(fnSidebarContainer(uintptr(h)))
}

func (a *Adapter) ReparentSurfaceView(h platform.WindowHandle, view platform.ViewRef, parent platform.ContainerRef, insets platform.SafeAreaInsets) error {
	in := insetsC{Top: insets.Top, Left: insets.Left, Bottom: insets.Bottom, Right: insets.Right}
	status := fnViewReparent(uintptr(h), uintptr(view), uintptr(parent), uintptr(unsafe.Pointer(&in)))
	if status != 0 {
		return fmt.Errorf("wk_view_reparent failed (status %d)", status)
	}
	return nil
}

func (a *Adapter) MakeFirstResponder(h platform.WindowHandle, view platform.ViewRef) bool {
	return fnMakeFirstResponder(uintptr(h), uintptr(view)) == 0
}

// ----------------------------------------------------------------------------
// platform.TextInputHost
// ----------------------------------------------------------------------------

func (a *Adapter) SetTextInputClient(h platform.WindowHandle, client platform.TextInputClient) {
	regMu.Lock()
	if client == nil {
		delete(clients, uintptr(h))
	} else {
		clients[uintptr(h)] = client
	}
	regMu.Unlock()

	active := int32(0)
	if client != nil {
		active = 1
	}
	fnTextInputActivate(uintptr(h), active)
}
