// Package scoring turns an answer set into a diagnostic result. All
// functions are pure; the state machine decides when a score is final.
package scoring

import (
	"math"
	"sort"

	"diagnostic-service/internal/domain"
)

// Score computes the total, percentage and tier for the given answers.
//
// MaxScore is the sum of the highest option value per question in the bank.
// The "one point per answered question" convention seen elsewhere breaks as
// soon as options carry heterogeneous point values, so it is not used here.
// Partial answer sets are valid input (live progress display); completeness
// is enforced by the caller, not by this function.
func Score(bank domain.Bank, answers domain.AnswerSet) domain.DiagnosticResult {
	total := answers.TotalPoints()
	max := MaxScore(bank)
	pct := Percentage(total, max)
	return domain.DiagnosticResult{
		TotalScore: total,
		MaxScore:   max,
		Percentage: pct,
		Tier:       TierFor(bank.Tiers, pct),
	}
}

// MaxScore sums the best possible option value over every question.
func MaxScore(bank domain.Bank) int {
	max := 0
	for _, q := range bank.Questions {
		max += q.MaxPoints()
	}
	return max
}

// Percentage is round(100*total/max) clamped to [0,100]; 0 when max is 0.
func Percentage(total, max int) int {
	if max <= 0 {
		return 0
	}
	pct := int(math.Round(float64(total) / float64(max) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// TierFor returns the label of the highest band whose threshold is at or
// below the percentage. Bands are sorted defensively; banks are validated at
// registration but the codec path can hand us arbitrary data.
func TierFor(bands []domain.TierBand, percentage int) string {
	if len(bands) == 0 {
		return ""
	}
	sorted := make([]domain.TierBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinPercent < sorted[j].MinPercent
	})

	label := sorted[0].Label
	for _, band := range sorted {
		if percentage >= band.MinPercent {
			label = band.Label
		}
	}
	return label
}
