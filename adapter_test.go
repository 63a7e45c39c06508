package windowkit

import (
	"errors"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// fakeAdapter is an in-process backend for tests: PostToUIThread runs inline,
// refresh ticks are driven by hand, and every native resource operation is
// counted.
type fakeAdapter struct {
	refuseRefresh bool
	failControls  bool

	tick    func()
	sub     *fakeSub
	display platform.DisplayID

	handler func(platform.RawEvent)

	bounds     platform.RawBounds
	scale      float64
	title      string
	cursor     platform.Cursor
	fullscreen bool

	shown     int
	hidden    int
	destroyed int

	nextRef      uintptr
	liveControls map[platform.ControlRef]platform.TargetRef
	released     []platform.ControlRef
	actions      map[platform.TargetRef]func(platform.ActionPayload)
	images       int

	toolbarInstalled bool
	toolbarRemoved   int
	toolbarItems     map[string]platform.ContainerRef
	popoverShown     bool
	panelShown       bool
	alertDone        func(int)

	reparents      []reparentCall
	firstResponder platform.ViewRef
	responderCalls int

	client platform.TextInputClient
}

type reparentCall struct {
	view   platform.ViewRef
	parent platform.ContainerRef
}

type fakeSub struct {
	cancels int
}

func (s *fakeSub) Cancel() { s.cancels++ }

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		scale:        2,
		bounds:       platform.RawBounds{Width: 800, Height: 600},
		nextRef:      100,
		liveControls: make(map[platform.ControlRef]platform.TargetRef),
		actions:      make(map[platform.TargetRef]func(platform.ActionPayload)),
		toolbarItems: make(map[string]platform.ContainerRef),
	}
}

func (a *fakeAdapter) CreateWindow(opts platform.WindowOptions) (platform.WindowHandle, error) {
	a.title = opts.Title
	if opts.Bounds.Width > 0 {
		a.bounds = opts.Bounds
	}
	return 1, nil
}

func (a *fakeAdapter) ShowWindow(platform.WindowHandle) { a.shown++ }
func (a *fakeAdapter) HideWindow(platform.WindowHandle) { a.hidden++ }

func (a *fakeAdapter) DestroyWindow(platform.WindowHandle) { a.destroyed++ }

func (a *fakeAdapter) WindowBounds(platform.WindowHandle) platform.RawBounds { return a.bounds }

func (a *fakeAdapter) SetWindowBounds(_ platform.WindowHandle, b platform.RawBounds) {
	a.bounds = b
}

func (a *fakeAdapter) SetWindowTitle(_ platform.WindowHandle, title string) { a.title = title }

func (a *fakeAdapter) ScaleFactor(platform.WindowHandle) float64 { return a.scale }

func (a *fakeAdapter) Display(platform.WindowHandle) platform.DisplayID { return a.display }

func (a *fakeAdapter) Appearance(platform.WindowHandle) platform.Appearance {
	return platform.AppearanceLight
}

func (a *fakeAdapter) SetFullscreen(_ platform.WindowHandle, enabled bool) error {
	a.fullscreen = enabled
	return nil
}

func (a *fakeAdapter) Minimize(platform.WindowHandle)       {}
func (a *fakeAdapter) ToggleMaximize(platform.WindowHandle) {}

func (a *fakeAdapter) SetCursor(_ platform.WindowHandle, c platform.Cursor) { a.cursor = c }

func (a *fakeAdapter) SurfaceView(platform.WindowHandle) platform.ViewRef { return 77 }

func (a *fakeAdapter) SubscribeRefresh(_ platform.WindowHandle, display platform.DisplayID, tick func()) (platform.RefreshSubscription, error) {
	if a.refuseRefresh {
		return nil, errors.New("refresh refused")
	}
	a.tick = tick
	a.sub = &fakeSub{}
	a.display = display
	return a.sub, nil
}

func (a *fakeAdapter) SetEventHandler(_ platform.WindowHandle, fn func(platform.RawEvent)) {
	a.handler = fn
}

func (a *fakeAdapter) PostToUIThread(fn func()) { fn() }

// raw delivers an event as the platform would.
func (a *fakeAdapter) raw(e platform.RawEvent) {
	if a.handler != nil {
		a.handler(e)
	}
}

// ----------------------------------------------------------------------------
// platform.ControlHost
// ----------------------------------------------------------------------------

func (a *fakeAdapter) CreateControl(_ platform.WindowHandle, spec platform.ControlSpec, onAction func(platform.ActionPayload)) (platform.ControlRef, platform.TargetRef, error) {
	if a.failControls {
		return 0, 0, errors.New("control allocation failed")
	}
	a.nextRef++
	control := platform.ControlRef(a.nextRef)
	a.nextRef++
	target := platform.TargetRef(a.nextRef)
	a.liveControls[control] = target
	if onAction != nil {
		a.actions[target] = onAction
	}
	if spec.Identifier != "" {
		a.toolbarItems[spec.Identifier] = platform.ContainerRef(control)
	}
	return control, target, nil
}

func (a *fakeAdapter) UpdateControl(c platform.ControlRef, _ platform.ControlSpec) error {
	if _, ok := a.liveControls[c]; !ok {
		return errors.New("update of dead control")
	}
	return nil
}

func (a *fakeAdapter) ReleaseControl(c platform.ControlRef, t platform.TargetRef) {
	delete(a.liveControls, c)
	delete(a.actions, t)
	a.released = append(a.released, c)
}

func (a *fakeAdapter) SetControlImage(c platform.ControlRef, _ []byte, _, _ int) error {
	if _, ok := a.liveControls[c]; !ok {
		return errors.New("image on dead control")
	}
	a.images++
	return nil
}

func (a *fakeAdapter) InstallToolbar(_ platform.WindowHandle, _ platform.ToolbarChromeSpec, _ []platform.ControlRef) error {
	a.toolbarInstalled = true
	return nil
}

func (a *fakeAdapter) RemoveToolbar(platform.WindowHandle) {
	a.toolbarInstalled = false
	a.toolbarRemoved++
}

func (a *fakeAdapter) ToolbarItemContainer(_ platform.WindowHandle, identifier string) platform.ContainerRef {
	return a.toolbarItems[identifier]
}

func (a *fakeAdapter) PresentPopover(_ platform.WindowHandle, _ platform.AnchorSpec, _ []platform.ControlRef) error {
	a.popoverShown = true
	return nil
}

func (a *fakeAdapter) DismissPopover(platform.WindowHandle) { a.popoverShown = false }

func (a *fakeAdapter) PresentPanel(_ platform.WindowHandle, _ platform.AnchorSpec, _ []platform.ControlRef) error {
	a.panelShown = true
	return nil
}

func (a *fakeAdapter) DismissPanel(platform.WindowHandle) { a.panelShown = false }

func (a *fakeAdapter) PresentAlertSheet(_ platform.WindowHandle, _ platform.AlertSpec, done func(int)) error {
	a.alertDone = done
	return nil
}

func (a *fakeAdapter) SidebarContainer(platform.WindowHandle) platform.ContainerRef { return 900 }

func (a *fakeAdapter) ReparentSurfaceView(_ platform.WindowHandle, view platform.ViewRef, parent platform.ContainerRef, _ platform.SafeAreaInsets) error {
	a.reparents = append(a.reparents, reparentCall{view: view, parent: parent})
	return nil
}

func (a *fakeAdapter) MakeFirstResponder(_ platform.WindowHandle, view platform.ViewRef) bool {
	a.firstResponder = view
	a.responderCalls++
	return true
}

// ----------------------------------------------------------------------------
// platform.TextInputHost
// ----------------------------------------------------------------------------

func (a *fakeAdapter) SetTextInputClient(_ platform.WindowHandle, client platform.TextInputClient) {
	a.client = client
}

// justAdapter exposes only the platform.Adapter methods of fakeAdapter,
// modeling a backend like X11 that hosts no native controls or IME.
type justAdapter struct {
	fake *fakeAdapter
}

func (j justAdapter) CreateWindow(opts platform.WindowOptions) (platform.WindowHandle, error) {
	return j.fake.CreateWindow(opts)
}
func (j justAdapter) ShowWindow(h platform.WindowHandle)    { j.fake.ShowWindow(h) }
func (j justAdapter) HideWindow(h platform.WindowHandle)    { j.fake.HideWindow(h) }
func (j justAdapter) DestroyWindow(h platform.WindowHandle) { j.fake.DestroyWindow(h) }
func (j justAdapter) WindowBounds(h platform.WindowHandle) platform.RawBounds {
	return j.fake.WindowBounds(h)
}
func (j justAdapter) SetWindowBounds(h platform.WindowHandle, b platform.RawBounds) {
	j.fake.SetWindowBounds(h, b)
}
func (j justAdapter) SetWindowTitle(h platform.WindowHandle, t string) {
	j.fake.SetWindowTitle(h, t)
}
func (j justAdapter) ScaleFactor(h platform.WindowHandle) float64 { return j.fake.ScaleFactor(h) }
func (j justAdapter) Display(h platform.WindowHandle) platform.DisplayID {
	return j.fake.Display(h)
}
func (j justAdapter) Appearance(h platform.WindowHandle) platform.Appearance {
	return j.fake.Appearance(h)
}
func (j justAdapter) SetFullscreen(h platform.WindowHandle, e bool) error {
	return j.fake.SetFullscreen(h, e)
}
func (j justAdapter) Minimize(h platform.WindowHandle)       { j.fake.Minimize(h) }
func (j justAdapter) ToggleMaximize(h platform.WindowHandle) { j.fake.ToggleMaximize(h) }
func (j justAdapter) SetCursor(h platform.WindowHandle, c platform.Cursor) {
	j.fake.SetCursor(h, c)
}
func (j justAdapter) SurfaceView(h platform.WindowHandle) platform.ViewRef {
	return j.fake.SurfaceView(h)
}
func (j justAdapter) SubscribeRefresh(h platform.WindowHandle, d platform.DisplayID, tick func()) (platform.RefreshSubscription, error) {
	return j.fake.SubscribeRefresh(h, d, tick)
}
func (j justAdapter) SetEventHandler(h platform.WindowHandle, fn func(platform.RawEvent)) {
	j.fake.SetEventHandler(h, fn)
}
func (j justAdapter) PostToUIThread(fn func()) { j.fake.PostToUIThread(fn) }
