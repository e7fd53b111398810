package core

import (
	"context"
	"strings"
	"sync"

	"github.com/atlas-vision/atlas/internal/client"
	"github.com/atlas-vision/atlas/internal/log"
)

const (
	// FallbackSubject is the chat subject when no landmark is identified.
	FallbackSubject = "Maroc"

	ChatFailureMessage = "Erreur IA."
)

// Turn is a submitted user message waiting for its reply. Subject is fixed
// when the turn is submitted.
type Turn struct {
	Text    string
	Subject string
	ticket  uint64
}

// Session runs chat turns against a Responder. Submitting a turn records it
// immediately; replies are requested one at a time and land in submit order.
type Session struct {
	mu        sync.Mutex
	cond      *sync.Cond
	issued    uint64
	serving   uint64
	state     *AtlasState
	responder client.Responder
	notify    func()
}

func NewSession(state *AtlasState, responder client.Responder) *Session {
	s := &Session{
		state:     state,
		responder: responder,
		notify:    func() {},
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *Session) OnChange(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	s.notify = fn
}

// SendTurn submits text and waits for its reply. Blank text is ignored and
// reports false.
func (s *Session) SendTurn(ctx context.Context, text string) bool {
	turn, ok := s.Submit(text)
	if !ok {
		return false
	}
	s.Complete(ctx, turn)
	return true
}

// Submit appends text as a user turn and binds the current subject to it.
// Blank text is ignored and reports false.
func (s *Session) Submit(text string) (Turn, bool) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, false
	}

	s.mu.Lock()
	turn := Turn{
		Text:    text,
		Subject: s.state.Subject(FallbackSubject),
		ticket:  s.issued,
	}
	s.issued++
	s.state.StartTurn(text)
	s.mu.Unlock()

	s.notify()
	return turn, true
}

// Complete asks the responder about turn once every earlier turn has its
// reply, then appends the reply. Failures become a fixed assistant turn.
func (s *Session) Complete(ctx context.Context, turn Turn) {
	s.mu.Lock()
	for s.serving != turn.ticket {
		s.cond.Wait()
	}
	s.mu.Unlock()

	reply := ChatFailureMessage
	defer func() {
		s.mu.Lock()
		s.state.FinishTurn(reply)
		s.serving++
		s.cond.Broadcast()
		s.mu.Unlock()
		s.notify()
	}()

	answer, err := s.responder.Reply(ctx, turn.Subject, turn.Text)
	if err != nil {
		log.Warn(log.Fields{"subject": turn.Subject, "error": err.Error()}, "[Session.Complete] chat failed")
		return
	}
	reply = answer
}
