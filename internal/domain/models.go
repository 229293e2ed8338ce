package domain

// Step identifies where a visitor currently is in a diagnostic flow.
type Step string

const (
	StepContent Step = "content"
	StepForm    Step = "form"
	StepQuiz    Step = "quiz"
	StepResults Step = "results"
	// StepShared is the read-only entry state reached through a share link.
	StepShared Step = "shared"
)

// Option represents a possible answer worth a fixed number of points.
type Option struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Points int    `json:"points"`
}

// Question models one diagnostic question with point-valued options.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// MaxPoints returns the highest option value for the question.
func (q Question) MaxPoints() int {
	max := 0
	for _, opt := range q.Options {
		if opt.Points > max {
			max = opt.Points
		}
	}
	return max
}

// Option returns the option with the given id, if present.
func (q Question) Option(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// Section groups questions for navigation labels only; scoring ignores it.
type Section struct {
	Title       string   `json:"title"`
	QuestionIDs []string `json:"questionIds"`
}

// TierBand maps a minimum percentage to a maturity label.
type TierBand struct {
	MinPercent int    `json:"minPercent"`
	Label      string `json:"label"`
}

// Bank is the static question catalog one diagnostic runs against.
type Bank struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	SourceLabel string     `json:"sourceLabel"` // CRM lead source tag
	Sections    []Section  `json:"sections,omitempty"`
	Questions   []Question `json:"questions"`
	Tiers       []TierBand `json:"tiers"`
}

// Question returns the question with the given id, if present.
func (b Bank) Question(id string) (Question, bool) {
	for _, q := range b.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Answer records the chosen option for one question. Points are copied from
// the option at selection time so scoring never re-reads the bank.
type Answer struct {
	OptionID string `json:"optionId"`
	Points   int    `json:"points"`
}

// AnswerSet maps question ids to recorded answers. It only grows, except on
// restart where it is replaced wholesale.
type AnswerSet map[string]Answer

// TotalPoints sums the recorded point values.
func (a AnswerSet) TotalPoints() int {
	total := 0
	for _, ans := range a {
		total += ans.Points
	}
	return total
}

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for id, ans := range a {
		out[id] = ans
	}
	return out
}

// DiagnosticResult is the immutable outcome of a completed quiz.
type DiagnosticResult struct {
	TotalScore int    `json:"totalScore"`
	MaxScore   int    `json:"maxScore"`
	Percentage int    `json:"percentage"`
	Tier       string `json:"tier"`
}

// UserProfile holds the contact fields collected at the form step.
type UserProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Employees string `json:"employees"` // bracket label, e.g. "10-49"
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
}

// SharePayload is the decoded content of a share link. It is trusted client
// input: a spoofed link only changes the numbers a visitor sees.
type SharePayload struct {
	Score    int    `json:"score"`
	Tier     string `json:"tier"`
	FromName string `json:"fromName,omitempty"`
}

// CapturedLead mirrors what was sent to the CRM, kept as a local audit copy.
type CapturedLead struct {
	BankID  string
	LeadID  int64
	Profile UserProfile
	Summary string
	Synced  bool
}
