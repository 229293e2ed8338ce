package app

import (
	"sync"
	"time"

	"diagnostic-service/internal/domain"
)

// EventType classifies what a session event carries.
type EventType string

const (
	// EventStep signals a step transition; the payload is a fresh snapshot.
	EventStep EventType = "step"
	// EventNotice carries a transient, non-blocking notification (CRM sync
	// outcomes). Notices never revert or block a transition.
	EventNotice EventType = "notice"
)

// Event is what session subscribers receive.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot *View     `json:"snapshot,omitempty"`
	Notice   string    `json:"notice,omitempty"`
}

// View is a read-only snapshot of a session, safe to hand to transports.
type View struct {
	SessionID     string                   `json:"sessionId"`
	BankID        string                   `json:"bankId"`
	Step          domain.Step              `json:"step"`
	QuestionIndex int                      `json:"questionIndex"`
	Answered      int                      `json:"answered"`
	Total         int                      `json:"total"`
	Profile       *domain.UserProfile      `json:"profile,omitempty"`
	Result        *domain.DiagnosticResult `json:"result,omitempty"`
	Shared        *domain.SharePayload     `json:"shared,omitempty"`
}

// Session holds one visitor's diagnostic state. All mutation goes through
// the service; the mutex makes detached CRM goroutines safe against the
// event-driven main flow.
type Session struct {
	id        string
	bankID    string
	createdAt time.Time
	now       func() time.Time

	mu          sync.RWMutex
	step        domain.Step
	answers     domain.AnswerSet
	questionIdx int
	profile     *domain.UserProfile
	result      *domain.DiagnosticResult
	leadID      int64
	shared      *domain.SharePayload
	subscribers map[chan Event]struct{}
}

func newSession(id, bankID string) *Session {
	return newSessionWithClock(id, bankID, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id, bankID string, now func() time.Time) *Session {
	return &Session{
		id:          id,
		bankID:      bankID,
		createdAt:   now(),
		now:         now,
		step:        domain.StepContent,
		answers:     make(domain.AnswerSet),
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// BankID returns the bank this session runs against.
func (s *Session) BankID() string { return s.bankID }

// Step returns the current step.
func (s *Session) Step() domain.Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// Snapshot builds a View of the current state.
func (s *Session) Snapshot(total int) View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(total)
}

func (s *Session) snapshotLocked(total int) View {
	view := View{
		SessionID:     s.id,
		BankID:        s.bankID,
		Step:          s.step,
		QuestionIndex: s.questionIdx,
		Answered:      len(s.answers),
		Total:         total,
	}
	if s.profile != nil {
		profile := *s.profile
		view.Profile = &profile
	}
	if s.result != nil {
		result := *s.result
		view.Result = &result
	}
	if s.shared != nil {
		shared := *s.shared
		view.Shared = &shared
	}
	return view
}

func (s *Session) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// notify posts a transient notice without touching session state.
func (s *Session) notify(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(Event{Type: EventNotice, Notice: message})
}

func (s *Session) broadcastStepLocked(total int) {
	view := s.snapshotLocked(total)
	s.broadcastLocked(Event{Type: EventStep, Snapshot: &view})
}

func (s *Session) broadcastLocked(event Event) {
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest pending event so a slow reader never blocks
			// the state machine.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (s *Session) setLeadID(id int64) {
	s.mu.Lock()
	s.leadID = id
	s.mu.Unlock()
}

// LeadID returns the retained CRM lead reference, 0 when none was captured.
func (s *Session) LeadID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leadID
}
