// Package intake accepts user-selected images, keeps the single active
// upload, and prepares its outgoing payload.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/atlas-vision/atlas/internal/models"
)

const (
	// MaxSourceBytes bounds how much of a selected file is read.
	MaxSourceBytes = 64 << 20

	// MaxDecodePixels bounds the size of any decoded image.
	MaxDecodePixels = 50_000_000
)

var (
	ErrNoImage  = errors.New("no image selected")
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("image file too large")
)

// IsValidationSkip reports whether err means the selection should be
// ignored silently.
func IsValidationSkip(err error) bool {
	return errors.Is(err, ErrNoImage) || errors.Is(err, ErrNotImage)
}

// UploadedImage is the active user selection. Data is never modified after
// creation.
type UploadedImage struct {
	Name      string
	MediaType string
	Data      []byte
	Width     int
	Height    int
	Preview   PreviewHandle
}

func (u *UploadedImage) Summary() *models.ImageSummary {
	if u == nil {
		return nil
	}
	return &models.ImageSummary{
		Name:      u.Name,
		MediaType: u.MediaType,
		Size:      len(u.Data),
		Width:     u.Width,
		Height:    u.Height,
		Preview:   string(u.Preview),
	}
}

// Intake owns at most one UploadedImage and its preview handle.
type Intake struct {
	mu       sync.Mutex
	previews *PreviewTable
	current  *UploadedImage
}

func New(previews *PreviewTable) *Intake {
	if previews == nil {
		previews = NewPreviewTable(0, 0)
	}
	return &Intake{previews: previews}
}

func (in *Intake) Previews() *PreviewTable {
	return in.previews
}

// Select reads the file at path and makes it the active image.
func (in *Intake) Select(path string) (*UploadedImage, error) {
	img, err := in.Load(path)
	if err != nil {
		return nil, err
	}
	in.Install(img)
	return img, nil
}

// SelectBytes makes data the active image if its content is an image type.
// On rejection the previous image stays active.
func (in *Intake) SelectBytes(name string, data []byte) (*UploadedImage, error) {
	img, err := in.Prepare(name, data)
	if err != nil {
		return nil, err
	}
	in.Install(img)
	return img, nil
}

// Load reads and validates the file at path without touching the active
// image. Install makes the result active.
func (in *Intake) Load(path string) (*UploadedImage, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNoImage
	}

	f, err := os.Open(expandHome(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoImage, path)
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxSourceBytes {
		return nil, ErrTooLarge
	}

	return in.Prepare(filepath.Base(path), data)
}

// Prepare validates data and builds its preview. Nothing is installed.
func (in *Intake) Prepare(name string, data []byte) (*UploadedImage, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}

	img := &UploadedImage{
		Name:      name,
		MediaType: mt.String(),
		Data:      data,
	}

	// Formats without a registered decoder are still accepted; they just
	// get no thumbnail and unknown dimensions. Images over the pixel budget
	// keep their dimensions but are never decoded.
	var decoded image.Image
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
		if withinPixelBudget(cfg.Width, cfg.Height) {
			if src, _, err := image.Decode(bytes.NewReader(data)); err == nil {
				decoded = src
			}
		}
	}
	img.Preview = in.previews.Create(decoded)
	return img, nil
}

// Install makes img the active image and revokes the previous preview.
func (in *Intake) Install(img *UploadedImage) {
	in.mu.Lock()
	prev := in.current
	in.current = img
	in.mu.Unlock()

	if prev != nil && prev != img {
		in.previews.Revoke(prev.Preview)
	}
}

// withinPixelBudget guards decoding against images whose headers claim
// huge dimensions.
func withinPixelBudget(w, h int) bool {
	return int64(w)*int64(h) <= MaxDecodePixels
}

func (in *Intake) Current() *UploadedImage {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current
}

// Clear drops the active image and revokes its preview.
func (in *Intake) Clear() {
	in.mu.Lock()
	prev := in.current
	in.current = nil
	in.mu.Unlock()

	if prev != nil {
		in.previews.Revoke(prev.Preview)
	}
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}
