package core

import (
	"context"
	"sync"

	"github.com/atlas-vision/atlas/internal/client"
	"github.com/atlas-vision/atlas/internal/directory"
	"github.com/atlas-vision/atlas/internal/eventbus"
	"github.com/atlas-vision/atlas/internal/intake"
	"github.com/atlas-vision/atlas/internal/log"
	"github.com/atlas-vision/atlas/internal/models"
)

type Dependencies struct {
	Recognizer client.Recognizer
	Responder  client.Responder
	Directory  directory.Directory
	Compress   intake.CompressOptions
	Previews   *intake.PreviewTable
}

// AtlasService runs the core event loop: it consumes UI events, drives the
// orchestrator and chat session, and pushes snapshots back to the UI.
type AtlasService struct {
	state        *AtlasState
	orchestrator *Orchestrator
	session      *Session
	eventBus     *eventbus.EventBus
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	pushMu       sync.Mutex
}

func NewAtlasService(deps Dependencies, eb *eventbus.EventBus) *AtlasService {
	state := NewAtlasState()
	ctx, cancel := context.WithCancel(context.Background())

	dir := deps.Directory
	if len(dir) == 0 {
		dir = directory.Default()
	}

	s := &AtlasService{
		state:        state,
		orchestrator: NewOrchestrator(state, intake.New(deps.Previews), deps.Recognizer, dir, deps.Compress),
		session:      NewSession(state, deps.Responder),
		eventBus:     eb,
		ctx:          ctx,
		cancel:       cancel,
	}
	s.orchestrator.OnChange(s.pushStateToUI)
	s.session.OnChange(s.pushStateToUI)
	return s
}

// Start sends the initial state and runs the event loop in a goroutine.
func (s *AtlasService) Start() {
	s.pushStateToUI()
	s.wg.Add(1)
	go s.eventLoop()
}

// Stop cancels in-flight work and waits for it to exit.
func (s *AtlasService) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *AtlasService) eventLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-s.eventBus.UIToCore():
			if !ok {
				return
			}
			s.handleUIEvent(event)
		}
	}
}

func (s *AtlasService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SelectImageEvent:
		if err := s.orchestrator.SelectImage(e.Path); err != nil {
			fields := log.Fields{"path": e.Path, "error": err.Error()}
			if intake.IsValidationSkip(err) {
				log.Debug(fields, "[AtlasService] selection ignored")
			} else {
				log.Warn(fields, "[AtlasService] selection failed")
			}
		}
	case eventbus.AnalyzeEvent:
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.orchestrator.Analyze(s.ctx)
		}()
	case eventbus.ResetEvent:
		s.orchestrator.Reset()
	case eventbus.SendMessageEvent:
		// Submit on the event loop so the turn and its subject are fixed
		// before any later UI event is handled.
		turn, ok := s.session.Submit(e.Message)
		if !ok {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.session.Complete(s.ctx, turn)
		}()
	}
}

func (s *AtlasService) pushStateToUI() {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	if err := s.eventBus.SendToUI(eventbus.StateUpdateEvent{Snapshot: s.state.Snapshot()}); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[AtlasService] failed to push state")
	}
}

func (s *AtlasService) Snapshot() models.Snapshot {
	return s.state.Snapshot()
}

func (s *AtlasService) IsReady() bool {
	return s.orchestrator.recognizer != nil && s.session.responder != nil
}
