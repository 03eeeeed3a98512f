package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrFeedbackInvalidInput indicates the caller supplied invalid input.
var ErrFeedbackInvalidInput = errors.New("feedback service: invalid input")

const defaultToastMessage = "Added to cart"

// FeedbackTimings hold the phase durations of the add-to-cart sequence.
type FeedbackTimings struct {
	TransitDelay time.Duration
	BounceDelay  time.Duration
	ToastVisible time.Duration
	ToastExit    time.Duration
}

func (t FeedbackTimings) withDefaults() FeedbackTimings {
	if t.TransitDelay <= 0 {
		t.TransitDelay = 600 * time.Millisecond
	}
	if t.BounceDelay <= 0 {
		t.BounceDelay = 400 * time.Millisecond
	}
	if t.ToastVisible <= 0 {
		t.ToastVisible = 2 * time.Second
	}
	if t.ToastExit <= 0 {
		t.ToastExit = 300 * time.Millisecond
	}
	return t
}

// FeedbackServiceDeps configure the feedback sequencer.
type FeedbackServiceDeps struct {
	Timings FeedbackTimings
}

type sessionFeedback struct {
	phase   FeedbackPhase
	message string
	// generation invalidates timers left over from a superseded sequence.
	generation uint64
	timer      *time.Timer
}

type feedbackService struct {
	timings FeedbackTimings

	mu       sync.Mutex
	sessions map[string]*sessionFeedback
}

// NewFeedbackService constructs the add-to-cart feedback sequencer.
func NewFeedbackService(deps FeedbackServiceDeps) (FeedbackService, error) {
	return &feedbackService{
		timings:  deps.Timings.withDefaults(),
		sessions: make(map[string]*sessionFeedback),
	}, nil
}

// ItemAdded starts the feedback sequence for the session. A sequence already
// in flight is replaced, matching the single-toast rule.
func (s *feedbackService) ItemAdded(ctx context.Context, cmd ItemAddedCommand) (FeedbackSnapshot, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return FeedbackSnapshot{}, ErrFeedbackInvalidInput
	}

	message := strings.TrimSpace(cmd.ItemName)
	if message == "" {
		message = defaultToastMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sid]
	if !ok {
		state = &sessionFeedback{}
		s.sessions[sid] = state
	}
	if state.timer != nil {
		state.timer.Stop()
		state.timer = nil
	}
	state.generation++
	state.message = message

	// Without a source card there is nothing to fly or bounce; the toast
	// shows straight away.
	if strings.TrimSpace(cmd.SourceRef) == "" {
		state.phase = FeedbackToast
		s.scheduleLocked(sid, state, FeedbackExiting, s.timings.ToastVisible)
		return FeedbackSnapshot{Phase: FeedbackToast, Message: message}, nil
	}

	state.phase = FeedbackTransit
	s.scheduleLocked(sid, state, FeedbackBounce, s.timings.TransitDelay)

	return FeedbackSnapshot{Phase: FeedbackTransit, Message: message}, nil
}

// Snapshot reports the session's current phase, idle when no sequence runs.
func (s *feedbackService) Snapshot(ctx context.Context, sessionID string) FeedbackSnapshot {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return FeedbackSnapshot{Phase: FeedbackIdle}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sid]
	if !ok || state.phase == "" || state.phase == FeedbackIdle {
		return FeedbackSnapshot{Phase: FeedbackIdle}
	}
	return FeedbackSnapshot{Phase: state.phase, Message: state.message}
}

// scheduleLocked arms the transition to the next phase. Callers hold s.mu.
func (s *feedbackService) scheduleLocked(sid string, state *sessionFeedback, next FeedbackPhase, wait time.Duration) {
	generation := state.generation
	state.timer = time.AfterFunc(wait, func() {
		s.advance(sid, generation, next)
	})
}

func (s *feedbackService) advance(sid string, generation uint64, phase FeedbackPhase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sid]
	if !ok || state.generation != generation {
		return
	}
	state.phase = phase

	switch phase {
	case FeedbackBounce:
		s.scheduleLocked(sid, state, FeedbackToast, s.timings.BounceDelay)
	case FeedbackToast:
		s.scheduleLocked(sid, state, FeedbackExiting, s.timings.ToastVisible)
	case FeedbackExiting:
		s.scheduleLocked(sid, state, FeedbackIdle, s.timings.ToastExit)
	case FeedbackIdle:
		delete(s.sessions, sid)
	}
}
