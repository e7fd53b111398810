package intake

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSelectRejectsNonImages(t *testing.T) {
	in := New(nil)

	_, err := in.SelectBytes("notes.txt", []byte("hello, this is plain text"))
	assert.ErrorIs(t, err, ErrNotImage)
	assert.True(t, IsValidationSkip(err))

	_, err = in.SelectBytes("empty.png", nil)
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = in.Select("   ")
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = in.Select(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.True(t, IsValidationSkip(err))

	assert.Nil(t, in.Current())
	assert.Equal(t, 0, in.Previews().Len())
}

func TestRejectedSelectionKeepsPreviousImage(t *testing.T) {
	in := New(nil)
	first, err := in.SelectBytes("a.png", pngBytes(t, 8, 8))
	require.NoError(t, err)

	_, err = in.SelectBytes("b.txt", []byte("plain text"))
	require.Error(t, err)

	assert.Same(t, first, in.Current())
	assert.Equal(t, 1, in.Previews().Len())
}

func TestSelectFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "koutoubia.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 64, 32), 0o600))

	in := New(NewPreviewTable(16, 16))
	img, err := in.Select(path)
	require.NoError(t, err)

	assert.Equal(t, "koutoubia.png", img.Name)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 32, img.Height)

	thumb, ok := in.Previews().Lookup(img.Preview)
	require.True(t, ok)
	require.NotNil(t, thumb)
	assert.Equal(t, 16, thumb.Bounds().Dx())
	assert.Equal(t, 8, thumb.Bounds().Dy())

	s := img.Summary()
	assert.Equal(t, string(img.Preview), s.Preview)
	assert.Equal(t, len(img.Data), s.Size)
}

func TestReplacingImageRevokesPreview(t *testing.T) {
	in := New(nil)
	first, err := in.SelectBytes("a.png", pngBytes(t, 4, 4))
	require.NoError(t, err)
	second, err := in.SelectBytes("b.png", pngBytes(t, 4, 4))
	require.NoError(t, err)

	_, ok := in.Previews().Lookup(first.Preview)
	assert.False(t, ok, "old handle must be released")
	_, ok = in.Previews().Lookup(second.Preview)
	assert.True(t, ok)
	assert.Equal(t, 1, in.Previews().Len())

	in.Clear()
	assert.Nil(t, in.Current())
	assert.Equal(t, 0, in.Previews().Len())
}

func TestSelectRejectsOversizedFile(t *testing.T) {
	in := New(nil)
	prev, err := in.SelectBytes("a.png", pngBytes(t, 4, 4))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "huge.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxSourceBytes+1))
	require.NoError(t, f.Close())

	_, err = in.Select(path)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.False(t, IsValidationSkip(err))
	assert.Same(t, prev, in.Current())
}

func TestLoadDoesNotInstall(t *testing.T) {
	in := New(nil)
	path := filepath.Join(t.TempDir(), "tour.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 4), 0o600))

	img, err := in.Load(path)
	require.NoError(t, err)
	assert.Nil(t, in.Current())
	assert.Equal(t, 1, in.Previews().Len())

	in.Install(img)
	assert.Same(t, img, in.Current())
}

// hugeHeaderPNG returns a small valid PNG whose header claims w×h pixels.
func hugeHeaderPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	// signature (8) + length (4) + "IHDR" (4), then width and height.
	binary.BigEndian.PutUint32(data[16:], w)
	binary.BigEndian.PutUint32(data[20:], h)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestOversizedDimensionsAreNeverDecoded(t *testing.T) {
	in := New(nil)
	img, err := in.SelectBytes("bomb.png", hugeHeaderPNG(t, 50000, 50000))
	require.NoError(t, err)
	assert.Equal(t, 50000, img.Width)
	assert.Equal(t, 50000, img.Height)

	thumb, ok := in.Previews().Lookup(img.Preview)
	assert.True(t, ok)
	assert.Nil(t, thumb)

	_, err = Compress(context.Background(), img, CompressOptions{})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestCompressPassesSmallImagesThrough(t *testing.T) {
	in := New(nil)
	img, err := in.SelectBytes("small.png", pngBytes(t, 32, 32))
	require.NoError(t, err)

	out, err := Compress(context.Background(), img, CompressOptions{})
	require.NoError(t, err)

	assert.Equal(t, img.Data, out.Data)
	assert.Equal(t, "image/png", out.MediaType)
	assert.Equal(t, "small.png", out.Filename)
	out.Data[0] ^= 0xff
	assert.NotEqual(t, img.Data[0], out.Data[0], "payload must not alias the original")
}

func TestCompressDownscalesLargeImages(t *testing.T) {
	in := New(nil)
	original := pngBytes(t, 200, 100)
	img, err := in.SelectBytes("wide.png", original)
	require.NoError(t, err)
	kept := bytes.Clone(img.Data)

	out, err := Compress(context.Background(), img, CompressOptions{MaxDimension: 50})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.MediaType)
	assert.Equal(t, "wide.jpg", out.Filename)
	assert.Equal(t, 50, out.Width)
	assert.Equal(t, 25, out.Height)
	assert.Equal(t, kept, img.Data, "original image must not be mutated")

	decoded, format, err := image.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 50, decoded.Bounds().Dx())
}

func TestCompressReducesWeight(t *testing.T) {
	in := New(nil)
	img, err := in.SelectBytes("heavy.png", noisyPNG(t, 256, 256))
	require.NoError(t, err)

	limit := int64(len(img.Data) / 2)
	out, err := Compress(context.Background(), img, CompressOptions{MaxBytes: limit})
	require.NoError(t, err)
	assert.LessOrEqual(t, int64(len(out.Data)), limit)
}

func TestCompressHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := New(nil)
	img, err := in.SelectBytes("a.png", pngBytes(t, 4, 4))
	require.NoError(t, err)

	_, err = Compress(ctx, img, CompressOptions{})
	// The worker may win the race; either way no partial result is returned.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}

	_, err = Compress(context.Background(), nil, CompressOptions{})
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestFit(t *testing.T) {
	w, h := fit(3200, 1600, 1600, 1600)
	assert.Equal(t, 1600, w)
	assert.Equal(t, 800, h)

	w, h = fit(100, 50, 1600, 1600)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	w, h = fit(0, 10, 5, 5)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}
