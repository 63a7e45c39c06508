package windowkit

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

func testIconPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test icon: %v", err)
	}
	return buf.Bytes()
}

func iconTestHandle(t *testing.T, a *fakeAdapter, id string) *NativeControlHandle {
	t.Helper()
	b := NewControlBridge(a, 1)
	h, err := b.CreateControl(platform.ControlSpec{Identifier: id, Kind: platform.ControlButton}, nil)
	if err != nil {
		t.Fatalf("CreateControl: %v", err)
	}
	return h
}

func awaitCompletion(t *testing.T, posts <-chan func()) func() {
	t.Helper()
	select {
	case fn := <-posts:
		return fn
	case <-time.After(5 * time.Second):
		t.Fatalf("icon load never completed")
		return nil
	}
}

func TestIconLoadInstallsOnLiveHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(testIconPNG(t))
	}))
	defer srv.Close()

	a := newFakeAdapter()
	h := iconTestHandle(t, a, "share")

	posts := make(chan func(), 1)
	l := NewIconLoader(func(fn func()) { posts <- fn }, 1)

	l.Load(srv.URL, h)
	awaitCompletion(t, posts)()

	if a.images != 1 {
		t.Fatalf("images installed = %d, want 1", a.images)
	}
}

func TestIconInstallAfterReleaseIsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(testIconPNG(t))
	}))
	defer srv.Close()

	a := newFakeAdapter()
	h := iconTestHandle(t, a, "share")

	posts := make(chan func(), 1)
	l := NewIconLoader(func(fn func()) { posts <- fn }, 1)

	l.Load(srv.URL, h)
	install := awaitCompletion(t, posts)

	// The owning configuration was torn down while the fetch was in
	// flight; the completion must detect the dead handle and do nothing.
	h.Release()
	install()

	if a.images != 0 {
		t.Fatalf("image installed on a released handle")
	}
}

func TestIconLoadsCollapseSameURL(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		<-gate
		w.Write(testIconPNG(t))
	}))
	defer srv.Close()

	a := newFakeAdapter()
	h1 := iconTestHandle(t, a, "one")
	h2 := iconTestHandle(t, a, "two")

	posts := make(chan func(), 2)
	l := NewIconLoader(func(fn func()) { posts <- fn }, 1)

	l.Load(srv.URL, h1)
	l.Load(srv.URL, h2)

	// Hold the first fetch open long enough for the second load to join
	// it, then let both complete.
	time.Sleep(50 * time.Millisecond)
	close(gate)

	awaitCompletion(t, posts)()
	awaitCompletion(t, posts)()

	mu.Lock()
	got := requests
	mu.Unlock()
	if got != 1 {
		t.Fatalf("requests = %d, want the loads collapsed to 1", got)
	}
	if a.images != 2 {
		t.Fatalf("images installed = %d, want 2", a.images)
	}
}
