package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"diagnostic-service/internal/crm"
	"diagnostic-service/internal/domain"
	"diagnostic-service/internal/scoring"
	"diagnostic-service/internal/share"
)

// SessionRepository abstracts how diagnostic sessions are stored.
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// LeadArchive keeps a local copy of every CRM sync attempt. Optional; the
// fire-and-forget contract does not change when it is absent.
type LeadArchive interface {
	SaveLead(ctx context.Context, lead domain.CapturedLead) error
}

const (
	noticeCreateLeadFailed = "Vos informations n'ont pas pu être transmises au CRM. Le diagnostic continue normalement."
	noticeUpdateLeadFailed = "Vos résultats n'ont pas pu être transmis au CRM. Ils restent affichés ci-dessous."
)

// DiagnosticService drives the diagnostic step machine. One instance serves
// all banks; the bank id travels with each session.
type DiagnosticService struct {
	sessions SessionRepository
	banks    BankRepository
	leads    crm.LeadAPI // nil disables CRM sync entirely
	archive  LeadArchive // nil disables the local audit copy

	syncTimeout time.Duration
	newID       func() string
}

func NewDiagnosticService(sessions SessionRepository, banks BankRepository, leads crm.LeadAPI, archive LeadArchive) *DiagnosticService {
	return &DiagnosticService{
		sessions:    sessions,
		banks:       banks,
		leads:       leads,
		archive:     archive,
		syncTimeout: 15 * time.Second,
		newID:       func() string { return uuid.NewString() },
	}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, bankID string) *Session {
	return newSession(id, bankID)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, bankID string, now func() time.Time) *Session {
	return newSessionWithClock(id, bankID, now)
}

// Open creates a session for a bank. With a decoded share payload the
// session starts at the shared step; otherwise at content. Visitors cannot
// open sessions against unknown banks.
func (s *DiagnosticService) Open(ctx context.Context, bankID string, payload *domain.SharePayload) (View, error) {
	bank, err := s.banks.GetBank(ctx, bankID)
	if err != nil {
		return View{}, err
	}

	session := newSession(s.newID(), bankID)
	if payload != nil {
		shared := *payload
		session.mu.Lock()
		session.step = domain.StepShared
		session.shared = &shared
		session.mu.Unlock()
	}
	s.sessions.Put(session)
	return session.Snapshot(len(bank.Questions)), nil
}

// Bank exposes the catalog a session runs against, so transports can render
// prompts and options.
func (s *DiagnosticService) Bank(ctx context.Context, bankID string) (domain.Bank, error) {
	return s.banks.GetBank(ctx, bankID)
}

// Subscribe returns a channel carrying step and notice events for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *DiagnosticService) Subscribe(_ context.Context, sessionID string) (<-chan Event, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Snapshot returns the current view of a session.
func (s *DiagnosticService) Snapshot(ctx context.Context, sessionID string) (View, error) {
	session, bank, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return session.Snapshot(len(bank.Questions)), nil
}

// StartDiagnostic moves content (or a shared entry) to the form step. Any
// share payload attached to the session is discarded, mirroring the URL
// parameter cleanup the page performs.
func (s *DiagnosticService) StartDiagnostic(ctx context.Context, sessionID string) (View, error) {
	return s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepContent && session.step != domain.StepShared {
			return domain.ErrInvalidTransition
		}
		session.step = domain.StepForm
		session.shared = nil
		return nil
	})
}

// StartOwn exits a shared entry straight into the visitor's own run,
// landing on the form step with the payload dropped.
func (s *DiagnosticService) StartOwn(ctx context.Context, sessionID string) (View, error) {
	return s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepShared {
			return domain.ErrInvalidTransition
		}
		session.step = domain.StepForm
		session.shared = nil
		return nil
	})
}

// ReadArticle moves a shared entry to the content step, dropping the payload.
func (s *DiagnosticService) ReadArticle(ctx context.Context, sessionID string) (View, error) {
	return s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepShared {
			return domain.ErrInvalidTransition
		}
		session.step = domain.StepContent
		session.shared = nil
		return nil
	})
}

// SubmitProfile validates the contact form and enters the quiz. The CRM
// create-lead call is detached: its failure is reported as a notice and
// never blocks or reverts the transition.
func (s *DiagnosticService) SubmitProfile(ctx context.Context, sessionID string, profile domain.UserProfile) (View, error) {
	if err := validateProfile(profile); err != nil {
		return View{}, err
	}

	view, err := s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepForm {
			return domain.ErrInvalidTransition
		}
		p := profile
		session.profile = &p
		session.step = domain.StepQuiz
		return nil
	})
	if err != nil {
		return View{}, err
	}

	if s.leads != nil {
		if session, bank, err := s.load(ctx, sessionID); err == nil {
			go s.syncCreateLead(session, bank, profile)
		}
	}
	return view, nil
}

// Answer records the chosen option for a question. Allowed only in the quiz
// step; the stored value is the option's point worth plus the option id for
// rendering and lead summaries.
func (s *DiagnosticService) Answer(ctx context.Context, sessionID, questionID, optionID string) (View, error) {
	return s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepQuiz {
			return domain.ErrInvalidTransition
		}
		question, ok := bank.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		option, ok := question.Option(optionID)
		if !ok {
			return domain.ErrOptionNotFound
		}
		session.answers[questionID] = domain.Answer{OptionID: option.ID, Points: option.Points}
		return nil
	})
}

// Next advances to the following question, only once the current one has a
// recorded answer.
func (s *DiagnosticService) Next(ctx context.Context, sessionID string) (View, error) {
	return s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepQuiz {
			return domain.ErrInvalidTransition
		}
		if session.questionIdx >= len(bank.Questions)-1 {
			return domain.ErrInvalidTransition
		}
		current := bank.Questions[session.questionIdx]
		if _, answered := session.answers[current.ID]; !answered {
			return domain.ErrInvalidTransition
		}
		session.questionIdx++
		return nil
	})
}

// Previous steps back one question; always allowed except on the first.
func (s *DiagnosticService) Previous(ctx context.Context, sessionID string) (View, error) {
	return s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepQuiz {
			return domain.ErrInvalidTransition
		}
		if session.questionIdx == 0 {
			return domain.ErrInvalidTransition
		}
		session.questionIdx--
		return nil
	})
}

// BackToForm returns to the form step without discarding anything.
func (s *DiagnosticService) BackToForm(ctx context.Context, sessionID string) (View, error) {
	return s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepQuiz {
			return domain.ErrInvalidTransition
		}
		session.step = domain.StepForm
		return nil
	})
}

// Finalize computes the result and enters the results step. Refused while
// any question is unanswered. The CRM update-lead call is detached and
// skipped entirely when no lead id was retained.
func (s *DiagnosticService) Finalize(ctx context.Context, sessionID string) (View, error) {
	var snapshotAnswers domain.AnswerSet
	var profile domain.UserProfile
	var result domain.DiagnosticResult

	view, err := s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepQuiz {
			return domain.ErrInvalidTransition
		}
		if len(session.answers) != len(bank.Questions) {
			return domain.ErrIncompleteAnswers
		}
		r := scoring.Score(bank, session.answers)
		session.result = &r
		session.step = domain.StepResults

		result = r
		snapshotAnswers = session.answers.Clone()
		if session.profile != nil {
			profile = *session.profile
		}
		return nil
	})
	if err != nil {
		return View{}, err
	}

	if s.leads != nil {
		if session, bank, err := s.load(ctx, sessionID); err == nil {
			go s.syncUpdateLead(session, bank, profile, snapshotAnswers, result)
		}
	}
	return view, nil
}

// Restart clears answers and result and re-enters the quiz. The profile and
// the retained lead id survive, so a second completion updates the same
// CRM record.
func (s *DiagnosticService) Restart(ctx context.Context, sessionID string) (View, error) {
	return s.transition(ctx, sessionID, func(session *Session, bank domain.Bank) error {
		if session.step != domain.StepResults {
			return domain.ErrInvalidTransition
		}
		session.answers = make(domain.AnswerSet)
		session.result = nil
		session.questionIdx = 0
		session.step = domain.StepQuiz
		return nil
	})
}

// ShareQuery produces the shareable URL query string for a completed
// diagnostic. Only available at the results step.
func (s *DiagnosticService) ShareQuery(ctx context.Context, sessionID string) (string, error) {
	session, _, err := s.load(ctx, sessionID)
	if err != nil {
		return "", err
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	if session.step != domain.StepResults || session.result == nil {
		return "", domain.ErrInvalidTransition
	}
	fromName := ""
	if session.profile != nil {
		fromName = session.profile.FirstName
	}
	return share.Encode(*session.result, fromName).Encode(), nil
}

// Close drops the session. In-flight CRM calls are not cancelled; they hold
// their own reference to the session.
func (s *DiagnosticService) Close(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

func (s *DiagnosticService) load(ctx context.Context, sessionID string) (*Session, domain.Bank, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.Bank{}, domain.ErrSessionNotFound
	}
	bank, err := s.banks.GetBank(ctx, session.BankID())
	if err != nil {
		return nil, domain.Bank{}, err
	}
	return session, bank, nil
}

// transition applies fn under the session lock and broadcasts the new
// snapshot on success. fn must not perform I/O.
func (s *DiagnosticService) transition(ctx context.Context, sessionID string, fn func(*Session, domain.Bank) error) (View, error) {
	session, bank, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if err := fn(session, bank); err != nil {
		return View{}, err
	}
	session.broadcastStepLocked(len(bank.Questions))
	return session.snapshotLocked(len(bank.Questions)), nil
}

func (s *DiagnosticService) syncCreateLead(session *Session, bank domain.Bank, profile domain.UserProfile) {
	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	leadID, err := s.leads.CreateLead(ctx, profile, bank.SourceLabel)
	if err != nil {
		log.Printf("create lead failed for session %s: %v", session.ID(), err)
		session.notify(noticeCreateLeadFailed)
	} else {
		session.setLeadID(leadID)
	}

	s.archiveLead(ctx, domain.CapturedLead{
		BankID:  bank.ID,
		LeadID:  leadID,
		Profile: profile,
		Synced:  err == nil,
	})
}

func (s *DiagnosticService) syncUpdateLead(session *Session, bank domain.Bank, profile domain.UserProfile, answers domain.AnswerSet, result domain.DiagnosticResult) {
	leadID := session.LeadID()
	summary := crm.FormatSummary(bank, profile, answers, result)

	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	var err error
	if leadID == 0 {
		// No lead id yet: either create-lead failed, or it is still in
		// flight. Either way the update is skipped, not retried against a
		// missing id. A create that lands after this check leaves the lead
		// without a summary, which the fire-and-forget contract accepts.
		log.Printf("no lead id for session %s, skipping update", session.ID())
	} else if err = s.leads.UpdateLead(ctx, leadID, summary); err != nil {
		log.Printf("update lead %d failed for session %s: %v", leadID, session.ID(), err)
		session.notify(noticeUpdateLeadFailed)
	}

	s.archiveLead(ctx, domain.CapturedLead{
		BankID:  bank.ID,
		LeadID:  leadID,
		Profile: profile,
		Summary: summary,
		Synced:  leadID != 0 && err == nil,
	})
}

func (s *DiagnosticService) archiveLead(ctx context.Context, lead domain.CapturedLead) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveLead(ctx, lead); err != nil {
		log.Printf("archive lead for bank %s failed: %v", lead.BankID, err)
	}
}

func validateProfile(profile domain.UserProfile) error {
	if strings.TrimSpace(profile.FirstName) == "" ||
		strings.TrimSpace(profile.LastName) == "" {
		return domain.ErrInvalidProfile
	}
	email := strings.TrimSpace(profile.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.ErrInvalidProfile
	}
	return nil
}
