package core

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-vision/atlas/internal/client"
	"github.com/atlas-vision/atlas/internal/directory"
	"github.com/atlas-vision/atlas/internal/intake"
)

func writePNG(t *testing.T, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// writeNoisyPNG writes a PNG of random pixels, which barely compresses.
func writeNoisyPNG(t *testing.T, name string, w, h int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func writeText(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0o600))
	return path
}

func confidence(v float64) *float64 { return &v }

func found(name string, conf float64, desc string) *client.AnalyzeResponse {
	return &client.AnalyzeResponse{Found: true, Name: name, Confidence: confidence(conf), AIDescription: desc}
}

// fakeRecognizer returns canned responses. When gate is set, each call
// blocks until a value is sent on it.
type fakeRecognizer struct {
	mu      sync.Mutex
	resp    *client.AnalyzeResponse
	err     error
	gate    chan struct{}
	started chan struct{}
	calls   atomic.Int32
	uploads []client.Upload
}

func (f *fakeRecognizer) Analyze(ctx context.Context, upload client.Upload) (*client.AnalyzeResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.uploads = append(f.uploads, upload)
	resp, err, gate, started := f.resp, f.err, f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp, err
}

type fakeResponder struct {
	mu       sync.Mutex
	reply    string
	err      error
	subjects []string
	onReply  func(subject, question string)
}

func (f *fakeResponder) Reply(_ context.Context, subject, question string) (string, error) {
	f.mu.Lock()
	f.subjects = append(f.subjects, subject)
	hook, reply, err := f.onReply, f.reply, f.err
	f.mu.Unlock()

	if hook != nil {
		hook(subject, question)
	}
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = "réponse: " + question
	}
	return reply, nil
}

type counter struct{ n atomic.Int32 }

func (c *counter) inc() { c.n.Add(1) }

func newOrchestrator(rec client.Recognizer) (*Orchestrator, *AtlasState) {
	return newOrchestratorWith(rec, intake.CompressOptions{})
}

func newOrchestratorWith(rec client.Recognizer, opts intake.CompressOptions) (*Orchestrator, *AtlasState) {
	state := NewAtlasState()
	return NewOrchestrator(state, intake.New(nil), rec, directory.Default(), opts), state
}
