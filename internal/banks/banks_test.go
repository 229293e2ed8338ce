package banks

import (
	"context"
	"errors"
	"testing"

	"diagnostic-service/internal/domain"
)

func TestCatalogIsValid(t *testing.T) {
	catalog := Catalog()
	for _, id := range []string{
		BankAutomatisationOdoo,
		BankControleGestion,
		BankPlanAction2026,
		BankAutomatisationDiagnostic,
	} {
		bank, ok := catalog[id]
		if !ok {
			t.Fatalf("catalog missing bank %s", id)
		}
		if bank.SourceLabel == "" {
			t.Fatalf("bank %s has no source label", id)
		}
	}
}

func TestValidateRejectsBrokenBanks(t *testing.T) {
	valid := Catalog()[BankPlanAction2026]

	noTiers := valid
	noTiers.Tiers = nil
	if err := Validate(noTiers); !errors.Is(err, domain.ErrInvalidBank) {
		t.Fatalf("expected invalid bank error, got %v", err)
	}

	badTiers := valid
	badTiers.Tiers = []domain.TierBand{
		{MinPercent: 0, Label: "a"},
		{MinPercent: 40, Label: "b"},
		{MinPercent: 40, Label: "c"},
	}
	if err := Validate(badTiers); !errors.Is(err, domain.ErrInvalidBank) {
		t.Fatalf("expected rejection of non-ascending tiers, got %v", err)
	}

	dup := valid
	dup.Questions = append([]domain.Question{}, valid.Questions...)
	dup.Questions = append(dup.Questions, valid.Questions[0])
	if err := Validate(dup); !errors.Is(err, domain.ErrInvalidBank) {
		t.Fatalf("expected rejection of duplicate question id, got %v", err)
	}
}

func TestStaticLoader(t *testing.T) {
	loader := NewStaticLoader(Catalog())

	bank, err := loader.LoadBank(context.Background(), BankControleGestion)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if bank.ID != BankControleGestion {
		t.Fatalf("wrong bank: %s", bank.ID)
	}

	if _, err := loader.LoadBank(context.Background(), "unknown"); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected bank not found, got %v", err)
	}
}
