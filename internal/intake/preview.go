package intake

import (
	"image"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// PreviewHandle is a revocable reference to a preview thumbnail.
type PreviewHandle string

// PreviewTable holds live preview thumbnails. A handle must be revoked when
// its image is replaced or cleared.
type PreviewTable struct {
	mu     sync.RWMutex
	thumbs map[PreviewHandle]image.Image
	width  int
	height int
}

func NewPreviewTable(maxWidth, maxHeight int) *PreviewTable {
	if maxWidth <= 0 {
		maxWidth = 40
	}
	if maxHeight <= 0 {
		maxHeight = 24
	}
	return &PreviewTable{
		thumbs: make(map[PreviewHandle]image.Image),
		width:  maxWidth,
		height: maxHeight,
	}
}

// Create stores a thumbnail of src and returns its handle. A nil src still
// yields a handle so undecodable images have a lifecycle like any other.
func (t *PreviewTable) Create(src image.Image) PreviewHandle {
	var thumb image.Image
	if src != nil {
		thumb = thumbnail(src, t.width, t.height)
	}

	h := PreviewHandle(uuid.NewString())
	t.mu.Lock()
	t.thumbs[h] = thumb
	t.mu.Unlock()
	return h
}

// Lookup returns the thumbnail for h. ok is false for revoked handles.
func (t *PreviewTable) Lookup(h PreviewHandle) (image.Image, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	thumb, ok := t.thumbs[h]
	return thumb, ok
}

func (t *PreviewTable) Revoke(h PreviewHandle) {
	t.mu.Lock()
	delete(t.thumbs, h)
	t.mu.Unlock()
}

func (t *PreviewTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.thumbs)
}

func thumbnail(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// fit scales w×h down to fit inside maxW×maxH, keeping the aspect ratio.
// Sizes already inside the box are returned unchanged.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return min(nw, maxW), min(nh, maxH)
}
