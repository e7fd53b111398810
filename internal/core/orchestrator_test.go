package core

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-vision/atlas/internal/client"
	"github.com/atlas-vision/atlas/internal/directory"
	"github.com/atlas-vision/atlas/internal/intake"
	"github.com/atlas-vision/atlas/internal/models"
)

func TestSelectNonImageIsSilentNoOp(t *testing.T) {
	o, state := newOrchestrator(&fakeRecognizer{})
	var changes counter
	o.OnChange(changes.inc)

	before := state.Snapshot()
	err := o.SelectImage(writeText(t, "notes.txt"))
	require.Error(t, err)

	assert.Equal(t, before, state.Snapshot())
	assert.Nil(t, o.Intake().Current())
	assert.Equal(t, int32(0), changes.n.Load())
}

func TestSelectImageClearsPreviousOutcome(t *testing.T) {
	rec := &fakeRecognizer{resp: found("Hassan Tower", 0.8, "Minaret inachevé.")}
	rec.resp.Progress = "done"
	o, state := newOrchestrator(rec)

	require.NoError(t, o.SelectImage(writePNG(t, "a.png")))
	require.True(t, o.Analyze(context.Background()))
	require.NotNil(t, state.Snapshot().Result)

	require.NoError(t, o.SelectImage(writePNG(t, "b.png")))
	snap := state.Snapshot()
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.Error)
	assert.Nil(t, snap.Progress)
	assert.Equal(t, models.Idle, snap.Phase)
	assert.Equal(t, "b.png", snap.Image.Name)

	rec.err = errors.New("boom")
	rec.resp = nil
	o.Analyze(context.Background())
	require.Equal(t, models.Failed, state.Phase())

	require.NoError(t, o.SelectImage(writePNG(t, "c.png")))
	assert.Empty(t, state.Snapshot().Error)
}

func TestSelectImageValidatesOutsideLock(t *testing.T) {
	o, _ := newOrchestrator(&fakeRecognizer{})
	path := writeText(t, "notes.txt")

	o.mu.Lock()
	defer o.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- o.SelectImage(path) }()

	select {
	case err := <-done:
		assert.True(t, intake.IsValidationSkip(err))
	case <-time.After(time.Second):
		t.Fatal("rejected selection waited on the orchestrator lock")
	}
}

func TestAnalyzeRejectsOversizedUpload(t *testing.T) {
	rec := &fakeRecognizer{resp: found("Hassan II Mosque", 0.9, "d")}
	o, state := newOrchestratorWith(rec, intake.CompressOptions{MaxBytes: 8 << 20, MaxDimension: 2000})

	path := writeNoisyPNG(t, "noise.png", 1200, 1100)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(MaxUploadBytes))

	require.NoError(t, o.SelectImage(path))
	require.True(t, o.Analyze(context.Background()))

	snap := state.Snapshot()
	assert.Equal(t, models.Failed, snap.Phase)
	assert.Equal(t, ConnectionErrorMessage, snap.Error)
	assert.Equal(t, int32(0), rec.calls.Load(), "oversized payloads never reach the service")
}

func TestAnalyzeWithoutImageIsNoOp(t *testing.T) {
	rec := &fakeRecognizer{resp: found("Hassan II Mosque", 0.9, "d")}
	o, state := newOrchestrator(rec)

	before := state.Snapshot()
	assert.False(t, o.Analyze(context.Background()))
	assert.Equal(t, before, state.Snapshot())
	assert.Equal(t, int32(0), rec.calls.Load())
}

func TestAnalyzeFoundKnownLandmark(t *testing.T) {
	rec := &fakeRecognizer{resp: found("Hassan II Mosque", 0.97, "Une mosquée au bord de l'océan.")}
	o, state := newOrchestrator(rec)
	require.NoError(t, o.SelectImage(writePNG(t, "mosque.png")))

	require.True(t, o.Analyze(context.Background()))

	snap := state.Snapshot()
	require.True(t, snap.Result.Found())
	assert.Equal(t, models.ResultReady, snap.Phase)
	assert.Equal(t, "Mosquée Hassan II", snap.Result.DisplayName)
	assert.Equal(t, "Hassan II Mosque", snap.Result.Name)
	assert.Equal(t, "Casablanca, Maroc", snap.Result.Location)
	assert.InDelta(t, 0.97, snap.Result.Confidence, 1e-9)
	assert.Equal(t, "Une mosquée au bord de l'océan.", snap.Result.Description)
	assert.Contains(t, snap.Result.MapLink, "Hassan%20II%20Mosque%20Morocco")
	assert.Equal(t, directory.MapLink("Hassan II Mosque"), snap.Result.MapLink)

	require.Len(t, snap.Transcript, 1)
	assert.True(t, snap.Transcript[0].IsFromAssistant())
	assert.Equal(t, SeedMessage("Hassan II Mosque"), snap.Transcript[0].Content)
	assert.Equal(t, int32(1), rec.calls.Load())

	require.Len(t, rec.uploads, 1)
	assert.Equal(t, "mosque.png", rec.uploads[0].Filename)
	assert.Equal(t, "image/png", rec.uploads[0].MediaType)
}

func TestAnalyzeFoundUnknownLandmark(t *testing.T) {
	o, state := newOrchestrator(&fakeRecognizer{resp: found("Chefchaouen Blue Streets", 0.7, "La ville bleue.")})
	require.NoError(t, o.SelectImage(writePNG(t, "blue.png")))
	require.True(t, o.Analyze(context.Background()))

	r := state.Snapshot().Result
	require.True(t, r.Found())
	assert.Equal(t, "Chefchaouen Blue Streets", r.DisplayName)
	assert.Equal(t, directory.CountryLabel, r.Location)
}

func TestAnalyzeNotFoundLeavesTranscriptAlone(t *testing.T) {
	o, state := newOrchestrator(&fakeRecognizer{resp: &client.AnalyzeResponse{Found: false, Message: "Image trop volumineuse"}})
	require.NoError(t, o.SelectImage(writePNG(t, "x.png")))
	require.True(t, o.Analyze(context.Background()))

	snap := state.Snapshot()
	assert.True(t, snap.Result.NotFound())
	assert.Equal(t, "Image trop volumineuse", snap.Result.Message)
	assert.Equal(t, models.ResultReady, snap.Phase)
	assert.Empty(t, snap.Transcript)
}

func TestAnalyzeTransportFailure(t *testing.T) {
	o, state := newOrchestrator(&fakeRecognizer{err: &client.StatusError{Endpoint: "/analyze-landmark", StatusCode: 503}})
	require.NoError(t, o.SelectImage(writePNG(t, "x.png")))
	require.True(t, o.Analyze(context.Background()))

	snap := state.Snapshot()
	assert.Equal(t, models.Failed, snap.Phase)
	assert.Equal(t, ConnectionErrorMessage, snap.Error)
	assert.NotEmpty(t, snap.Error)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.Transcript)
}

func TestAnalyzeSurfacesProgress(t *testing.T) {
	resp := &client.AnalyzeResponse{Found: false, Progress: map[string]any{"stage": "classify"}}
	o, state := newOrchestrator(&fakeRecognizer{resp: resp})
	require.NoError(t, o.SelectImage(writePNG(t, "x.png")))
	o.Analyze(context.Background())

	assert.Equal(t, map[string]any{"stage": "classify"}, state.Snapshot().Progress)
}

func TestAnalyzeRejectsConcurrentRequest(t *testing.T) {
	rec := &fakeRecognizer{
		resp:    found("Koutoubia Mosque", 0.9, "d"),
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	o, state := newOrchestrator(rec)
	require.NoError(t, o.SelectImage(writePNG(t, "k.png")))

	done := make(chan bool)
	go func() { done <- o.Analyze(context.Background()) }()
	<-rec.started

	assert.Equal(t, models.Requesting, state.Phase())
	assert.False(t, o.Analyze(context.Background()), "second request while in flight")

	close(rec.gate)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Equal(t, "Mosquée Koutoubia", state.Snapshot().Result.DisplayName)
}

func TestResetDiscardsLateResponse(t *testing.T) {
	rec := &fakeRecognizer{
		resp:    found("Hassan II Mosque", 0.9, "d"),
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	o, state := newOrchestrator(rec)
	require.NoError(t, o.SelectImage(writePNG(t, "m.png")))

	done := make(chan bool)
	go func() { done <- o.Analyze(context.Background()) }()
	<-rec.started

	o.Reset()
	close(rec.gate)
	require.True(t, <-done)

	snap := state.Snapshot()
	assert.Nil(t, snap.Result)
	assert.Nil(t, snap.Image)
	assert.Equal(t, models.Idle, snap.Phase)
	assert.Empty(t, snap.Transcript, "stale seed must not be appended")
	assert.Equal(t, 0, o.Intake().Previews().Len())
}

func TestNewImageDiscardsLateFailure(t *testing.T) {
	rec := &fakeRecognizer{
		err:     errors.New("timeout"),
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	o, state := newOrchestrator(rec)
	require.NoError(t, o.SelectImage(writePNG(t, "first.png")))

	done := make(chan bool)
	go func() { done <- o.Analyze(context.Background()) }()
	<-rec.started

	require.NoError(t, o.SelectImage(writePNG(t, "second.png")))
	close(rec.gate)
	<-done

	snap := state.Snapshot()
	assert.Equal(t, models.Idle, snap.Phase)
	assert.Empty(t, snap.Error)
	assert.Equal(t, "second.png", snap.Image.Name)
}

func TestResetKeepsTranscript(t *testing.T) {
	o, state := newOrchestrator(&fakeRecognizer{resp: found("Jardin Majorelle", 0.8, "d")})
	require.NoError(t, o.SelectImage(writePNG(t, "j.png")))
	o.Analyze(context.Background())
	require.Len(t, state.Transcript(), 1)

	o.Reset()
	assert.Len(t, state.Transcript(), 1)
	assert.False(t, o.Analyze(context.Background()), "no image after reset")
}

func TestAnalyzeCancelledContextFails(t *testing.T) {
	rec := &fakeRecognizer{resp: found("Hassan Tower", 0.9, "d"), gate: make(chan struct{})}
	o, state := newOrchestrator(rec)
	require.NoError(t, o.SelectImage(writePNG(t, "t.png")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.True(t, o.Analyze(ctx))

	assert.Equal(t, models.Failed, state.Phase())
}
