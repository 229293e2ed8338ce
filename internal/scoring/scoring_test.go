package scoring

import (
	"testing"

	"diagnostic-service/internal/domain"
)

func TestScoreSumsRecordedPoints(t *testing.T) {
	bank := threeQuestionBank()
	answers := domain.AnswerSet{
		"q1": {OptionID: "q1-o3", Points: 5},
		"q2": {OptionID: "q2-o2", Points: 2},
		"q3": {OptionID: "q3-o1", Points: 0},
	}

	result := Score(bank, answers)
	if result.TotalScore != 7 {
		t.Fatalf("expected total 7, got %d", result.TotalScore)
	}
	if result.MaxScore != 15 {
		t.Fatalf("expected max 15, got %d", result.MaxScore)
	}
	if result.Percentage != 47 {
		t.Fatalf("expected 47%%, got %d", result.Percentage)
	}
	if result.Tier != "Intermédiaire" {
		t.Fatalf("expected Intermédiaire, got %q", result.Tier)
	}
}

func TestScoreEmptyAnswerSet(t *testing.T) {
	result := Score(threeQuestionBank(), domain.AnswerSet{})
	if result.TotalScore != 0 || result.Percentage != 0 {
		t.Fatalf("expected zero score, got %+v", result)
	}
	if result.Tier != "Débutant" {
		t.Fatalf("expected lowest tier, got %q", result.Tier)
	}
}

func TestScoreIsOrderIndependent(t *testing.T) {
	bank := threeQuestionBank()
	a := domain.AnswerSet{}
	b := domain.AnswerSet{}
	entries := []struct {
		id  string
		ans domain.Answer
	}{
		{"q1", domain.Answer{OptionID: "q1-o3", Points: 5}},
		{"q2", domain.Answer{OptionID: "q2-o3", Points: 5}},
		{"q3", domain.Answer{OptionID: "q3-o2", Points: 2}},
	}
	for _, e := range entries {
		a[e.id] = e.ans
	}
	for i := len(entries) - 1; i >= 0; i-- {
		b[entries[i].id] = entries[i].ans
	}

	if Score(bank, a) != Score(bank, b) {
		t.Fatalf("score depends on insertion order")
	}
}

func TestPercentageBounds(t *testing.T) {
	if got := Percentage(5, 0); got != 0 {
		t.Fatalf("max=0 should give 0, got %d", got)
	}
	if got := Percentage(-3, 10); got != 0 {
		t.Fatalf("negative total should clamp to 0, got %d", got)
	}
	if got := Percentage(25, 10); got != 100 {
		t.Fatalf("overflow should clamp to 100, got %d", got)
	}
	if got := Percentage(1, 3); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
	if got := Percentage(2, 3); got != 67 {
		t.Fatalf("expected 67 (rounded), got %d", got)
	}
}

func TestTierAssignmentMonotonic(t *testing.T) {
	bands := defaultBands()
	rank := func(label string) int {
		for i, b := range bands {
			if b.Label == label {
				return i
			}
		}
		t.Fatalf("unknown label %q", label)
		return -1
	}

	prev := -1
	for pct := 0; pct <= 100; pct++ {
		r := rank(TierFor(bands, pct))
		if r < prev {
			t.Fatalf("tier rank decreased at %d%%", pct)
		}
		prev = r
	}
}

func TestTierForUnsortedBands(t *testing.T) {
	shuffled := []domain.TierBand{
		{MinPercent: 70, Label: "Avancé"},
		{MinPercent: 0, Label: "Débutant"},
		{MinPercent: 90, Label: "Expert"},
		{MinPercent: 40, Label: "Intermédiaire"},
	}
	if got := TierFor(shuffled, 85); got != "Avancé" {
		t.Fatalf("expected Avancé at 85%%, got %q", got)
	}
	if got := TierFor(shuffled, 90); got != "Expert" {
		t.Fatalf("expected Expert at 90%%, got %q", got)
	}
	if got := TierFor(nil, 50); got != "" {
		t.Fatalf("expected empty label for no bands, got %q", got)
	}
}

func defaultBands() []domain.TierBand {
	return []domain.TierBand{
		{MinPercent: 0, Label: "Débutant"},
		{MinPercent: 40, Label: "Intermédiaire"},
		{MinPercent: 70, Label: "Avancé"},
		{MinPercent: 90, Label: "Expert"},
	}
}

func threeQuestionBank() domain.Bank {
	options := func(prefix string) []domain.Option {
		return []domain.Option{
			{ID: prefix + "-o1", Label: "Pas du tout", Points: 0},
			{ID: prefix + "-o2", Label: "Partiellement", Points: 2},
			{ID: prefix + "-o3", Label: "Totalement", Points: 5},
		}
	}
	return domain.Bank{
		ID: "bank-test",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "Question 1", Options: options("q1")},
			{ID: "q2", Prompt: "Question 2", Options: options("q2")},
			{ID: "q3", Prompt: "Question 3", Options: options("q3")},
		},
		Tiers: defaultBands(),
	}
}
