package crm

import (
	"fmt"
	"strings"

	"diagnostic-service/internal/domain"
)

// FormatSummary renders the lead description sent on quiz completion: every
// prompt paired with the chosen answer, then the computed result. Questions
// follow bank order so the CRM note reads like the quiz did.
func FormatSummary(bank domain.Bank, profile domain.UserProfile, answers domain.AnswerSet, result domain.DiagnosticResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Diagnostic : %s\n", bank.Title)
	fmt.Fprintf(&b, "Contact : %s %s (%s)", profile.FirstName, profile.LastName, profile.Email)
	if profile.Company != "" {
		fmt.Fprintf(&b, " — %s", profile.Company)
	}
	b.WriteString("\n\n")

	for i, q := range bank.Questions {
		label := "(sans réponse)"
		if ans, ok := answers[q.ID]; ok {
			if opt, found := q.Option(ans.OptionID); found {
				label = opt.Label
			}
		}
		fmt.Fprintf(&b, "%d. %s\n   → %s\n", i+1, q.Prompt, label)
	}

	fmt.Fprintf(&b, "\nScore : %d/%d (%d%%)\n", result.TotalScore, result.MaxScore, result.Percentage)
	fmt.Fprintf(&b, "Niveau : %s\n", result.Tier)
	return b.String()
}
