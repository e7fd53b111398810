package intake

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const (
	DefaultMaxBytes       = 3 << 20
	DefaultMaxDimension   = 1600
	DefaultInitialQuality = 90
	DefaultMinQuality     = 40
)

type CompressOptions struct {
	MaxBytes       int64
	MaxDimension   int
	InitialQuality int
	MinQuality     int
}

func (o CompressOptions) withDefaults() CompressOptions {
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.InitialQuality <= 0 || o.InitialQuality > 100 {
		o.InitialQuality = DefaultInitialQuality
	}
	if o.MinQuality <= 0 || o.MinQuality > o.InitialQuality {
		o.MinQuality = min(DefaultMinQuality, o.InitialQuality)
	}
	return o
}

// CompressedImage is the outgoing payload derived from an UploadedImage.
type CompressedImage struct {
	Filename  string
	MediaType string
	Data      []byte
	Width     int
	Height    int
}

// Compress derives the upload payload from img on a worker goroutine. img is
// never modified. Images already within both limits pass through unchanged.
func Compress(ctx context.Context, img *UploadedImage, opts CompressOptions) (*CompressedImage, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	opts = opts.withDefaults()

	type outcome struct {
		out *CompressedImage
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := compress(img, opts)
		done <- outcome{out, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.out, o.err
	}
}

func compress(img *UploadedImage, opts CompressOptions) (*CompressedImage, error) {
	if int64(len(img.Data)) <= opts.MaxBytes && max(img.Width, img.Height) <= opts.MaxDimension {
		return &CompressedImage{
			Filename:  img.Name,
			MediaType: img.MediaType,
			Data:      bytes.Clone(img.Data),
			Width:     img.Width,
			Height:    img.Height,
		}, nil
	}

	if !withinPixelBudget(img.Width, img.Height) {
		return nil, fmt.Errorf("%w: %d×%d pixels", ErrTooLarge, img.Width, img.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", img.MediaType, err)
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), opts.MaxDimension, opts.MaxDimension)
	var scaled image.Image = src
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		scaled = dst
	}

	var buf bytes.Buffer
	for q := opts.InitialQuality; ; q -= 10 {
		buf.Reset()
		if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if int64(buf.Len()) <= opts.MaxBytes || q-10 < opts.MinQuality {
			break
		}
	}

	return &CompressedImage{
		Filename:  jpegName(img.Name),
		MediaType: "image/jpeg",
		Data:      bytes.Clone(buf.Bytes()),
		Width:     w,
		Height:    h,
	}, nil
}

func jpegName(name string) string {
	if name == "" {
		return "image.jpg"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
