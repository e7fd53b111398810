package core

import (
	"slices"
	"sync"

	"github.com/atlas-vision/atlas/internal/models"
)

// AtlasState is the single source of truth for recognition and chat state.
// Every transition is one locked method so no partial state is observable.
type AtlasState struct {
	mu sync.RWMutex

	phase      models.Phase
	image      *models.ImageSummary
	result     *models.RecognitionResult
	lastError  string
	progress   any
	generation uint64

	transcript []models.Message
	pending    int // user turns without a reply yet
}

func NewAtlasState() *AtlasState {
	return &AtlasState{
		phase:      models.Idle,
		transcript: make([]models.Message, 0),
	}
}

func (s *AtlasState) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.Snapshot{
		Phase:         s.phase,
		Error:         s.lastError,
		Progress:      s.progress,
		Transcript:    slices.Clone(s.transcript),
		AwaitingReply: s.pending > 0,
		Generation:    s.generation,
	}
	if s.image != nil {
		img := *s.image
		snap.Image = &img
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

func (s *AtlasState) Phase() models.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// ImageSelected installs a new image and starts from a clean result state.
// Any in-flight request is invalidated.
func (s *AtlasState) ImageSelected(img *models.ImageSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = img
	s.result = nil
	s.lastError = ""
	s.progress = nil
	s.phase = models.Idle
	s.generation++
}

// Reset clears image, result, error and progress. The transcript stays.
func (s *AtlasState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = nil
	s.result = nil
	s.lastError = ""
	s.progress = nil
	s.phase = models.Idle
	s.generation++
}

// BeginRequest enters Requesting and returns the token the outcome must
// present. ok is false when no image is present or a request is in flight.
func (s *AtlasState) BeginRequest() (token uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil || s.phase == models.Requesting {
		return 0, false
	}
	s.generation++
	s.phase = models.Requesting
	s.result = nil
	s.lastError = ""
	s.progress = nil
	return s.generation, true
}

// FinishWithResult applies a resolved result if token is still current.
// A non-empty seed is appended to the transcript as an assistant turn in the
// same step.
func (s *AtlasState) FinishWithResult(token uint64, result *models.RecognitionResult, progress any, seed string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.generation {
		return false
	}
	s.phase = models.ResultReady
	s.result = result
	s.progress = progress
	if seed != "" {
		s.transcript = append(s.transcript, models.Message{Content: seed, Type: models.Assistant})
	}
	return true
}

// FinishWithError moves to Failed if token is still current.
func (s *AtlasState) FinishWithError(token uint64, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.generation {
		return false
	}
	s.phase = models.Failed
	s.lastError = message
	return true
}

// Subject returns the landmark a chat turn is about: the resolved name of a
// found result, or fallback.
func (s *AtlasState) Subject(fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result.Found() && s.result.DisplayName != "" {
		return s.result.DisplayName
	}
	return fallback
}

// StartTurn appends the user turn and counts it as awaiting a reply.
func (s *AtlasState) StartTurn(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, models.Message{Content: text, Type: models.User})
	s.pending++
}

// FinishTurn appends the assistant turn for the oldest pending user turn.
func (s *AtlasState) FinishTurn(reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, models.Message{Content: reply, Type: models.Assistant})
	if s.pending > 0 {
		s.pending--
	}
}

func (s *AtlasState) AwaitingReply() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

func (s *AtlasState) Transcript() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transcript)
}
