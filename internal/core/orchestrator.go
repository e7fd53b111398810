package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atlas-vision/atlas/internal/client"
	"github.com/atlas-vision/atlas/internal/directory"
	"github.com/atlas-vision/atlas/internal/intake"
	"github.com/atlas-vision/atlas/internal/log"
	"github.com/atlas-vision/atlas/internal/models"
)

const (
	ConnectionErrorMessage = "Erreur de connexion avec le serveur."

	// MaxUploadBytes mirrors the recognition service's upload ceiling.
	MaxUploadBytes = 4_000_000
)

var errUploadTooLarge = errors.New("compressed image exceeds upload limit")

// SeedMessage announces an identification in the chat transcript.
func SeedMessage(name string) string {
	return fmt.Sprintf("J'ai identifié %s. Posez-moi vos questions !", name)
}

// Orchestrator owns the recognition lifecycle:
// Idle -> Requesting -> ResultReady(Found|NotFound) | Failed.
type Orchestrator struct {
	mu         sync.Mutex // serializes intake and state changes, never held across I/O or decoding
	state      *AtlasState
	intake     *intake.Intake
	recognizer client.Recognizer
	directory  directory.Directory
	compress   intake.CompressOptions
	notify     func()
}

func NewOrchestrator(state *AtlasState, in *intake.Intake, rec client.Recognizer, dir directory.Directory, opts intake.CompressOptions) *Orchestrator {
	return &Orchestrator{
		state:      state,
		intake:     in,
		recognizer: rec,
		directory:  dir,
		compress:   opts,
		notify:     func() {},
	}
}

// OnChange registers fn to run after every state transition.
func (o *Orchestrator) OnChange(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	o.notify = fn
}

// SelectImage makes path the active image. Rejected selections leave state
// untouched and return the intake error.
func (o *Orchestrator) SelectImage(path string) error {
	img, err := o.intake.Load(path)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.intake.Install(img)
	o.state.ImageSelected(img.Summary())
	o.mu.Unlock()

	log.Info(log.Fields{"image": img.Name, "type": img.MediaType, "bytes": len(img.Data)}, "[Orchestrator.SelectImage] image selected")
	o.notify()
	return nil
}

// Reset returns to Idle without an image. Late responses for requests issued
// before the reset are discarded.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.intake.Clear()
	o.state.Reset()
	o.mu.Unlock()

	o.notify()
}

// Analyze issues one recognition request for the active image and waits for
// its outcome. It returns false without side effects when there is no image
// or a request is already in flight.
func (o *Orchestrator) Analyze(ctx context.Context) bool {
	o.mu.Lock()
	img := o.intake.Current()
	var token uint64
	ok := false
	if img != nil {
		token, ok = o.state.BeginRequest()
	}
	o.mu.Unlock()

	if !ok {
		return false
	}
	o.notify()

	fields := log.Fields{"image": img.Name, "generation": token}

	resp, err := o.recognize(ctx, img)
	if err != nil {
		fields["error"] = err.Error()
		log.Warn(fields, "[Orchestrator.Analyze] recognition failed")
		if o.state.FinishWithError(token, ConnectionErrorMessage) {
			o.notify()
		}
		return true
	}

	result, seed := o.interpret(resp)
	if !o.state.FinishWithResult(token, result, resp.Progress, seed) {
		log.Info(fields, "[Orchestrator.Analyze] stale response discarded")
		return true
	}
	fields["found"] = result.Found()
	log.Info(fields, "[Orchestrator.Analyze] result applied")
	o.notify()
	return true
}

func (o *Orchestrator) recognize(ctx context.Context, img *intake.UploadedImage) (*client.AnalyzeResponse, error) {
	payload, err := intake.Compress(ctx, img, o.compress)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if len(payload.Data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", errUploadTooLarge, len(payload.Data))
	}

	return o.recognizer.Analyze(ctx, client.Upload{
		Filename:  payload.Filename,
		MediaType: payload.MediaType,
		Data:      payload.Data,
	})
}

// interpret maps a service response onto the local result model and the
// transcript seed, if any.
func (o *Orchestrator) interpret(resp *client.AnalyzeResponse) (*models.RecognitionResult, string) {
	if !resp.Found {
		return &models.RecognitionResult{Kind: models.ResultNotFound, Message: resp.Message}, ""
	}

	res := o.directory.Resolve(resp.Name)
	var confidence float64
	if resp.Confidence != nil {
		confidence = *resp.Confidence
	}

	return &models.RecognitionResult{
		Kind:        models.ResultFound,
		Name:        resp.Name,
		DisplayName: res.DisplayName,
		Confidence:  confidence,
		Description: resp.AIDescription,
		Location:    res.Location,
		MapLink:     directory.MapLink(resp.Name),
	}, SeedMessage(resp.Name)
}

func (o *Orchestrator) Intake() *intake.Intake {
	return o.intake
}
