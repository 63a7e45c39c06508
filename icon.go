package windowkit

import (
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ============================================================================
// Async Icon Loading
// ============================================================================
//
// Toolbar item icons referenced by URL are fetched and decoded off the UI
// goroutine, then installed back on it. The in-flight goroutine holds the
// control handle across the gap; if the owning configuration was replaced
// meanwhile, the install is a checked no-op and nothing double-releases.

const (
	iconFetchTimeout = 15 * time.Second
	iconMaxBytes     = 4 << 20
	iconPointSize    = 24
)

// iconClient is shared across loaders so connections are pooled.
var iconClient = &http.Client{Timeout: iconFetchTimeout}

type decodedIcon struct {
	rgba          []byte
	width, height int
}

// IconLoader fetches, decodes, and installs control icons.
type IconLoader struct {
	post  func(func())
	group singleflight.Group
	scale float64
}

// NewIconLoader returns a loader that marshals installs through post. scale
// is the window's backing scale, used to pick the decoded pixel size.
func NewIconLoader(post func(func()), scale float64) *IconLoader {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	if scale <= 0 {
		scale = 1
	}
	return &IconLoader{post: post, scale: scale}
}

// Load fetches url and installs the decoded image on the handle's control.
// Concurrent loads of the same URL share one fetch. The completion runs on
// the UI goroutine; a handle released before completion is skipped.
func (l *IconLoader) Load(url string, h *NativeControlHandle) {
	if url == "" || h == nil {
		return
	}
	go func() {
		v, err, _ := l.group.Do(url, func() (any, error) {
			return l.fetchAndDecode(url)
		})
		if err != nil {
			log.Printf("icon: load %s failed: %v", url, err)
			return
		}
		icon := v.(*decodedIcon)
		l.post(func() {
			if !h.IsLive() {
				return
			}
			if err := h.SetImage(icon.rgba, icon.width, icon.height); err != nil {
				log.Printf("icon: install %s failed: %v", url, err)
			}
		})
	}()
}

func (l *IconLoader) fetchAndDecode(url string) (*decodedIcon, error) {
	resp, err := iconClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch icon: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch icon: status %d", resp.StatusCode)
	}

	src, _, err := image.Decode(io.LimitReader(resp.Body, iconMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("decode icon: %w", err)
	}
	return l.rescale(src), nil
}

// rescale resamples the source to the icon point size at the backing scale.
func (l *IconLoader) rescale(src image.Image) *decodedIcon {
	px := int(iconPointSize * l.scale)
	if b := src.Bounds(); b.Dx() == px && b.Dy() == px {
		if rgba, ok := src.(*image.RGBA); ok {
			return &decodedIcon{rgba: rgba.Pix, width: px, height: px}
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, px, px))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return &decodedIcon{rgba: dst.Pix, width: px, height: px}
}
