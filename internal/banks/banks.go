// Package banks holds the embedded question catalogs for the four
// diagnostic flows of the marketing site. Content is data, not code: banks
// are registered once at startup and never mutated.
package banks

import (
	"context"
	"fmt"

	"diagnostic-service/internal/domain"
)

// Public bank ids, matching the guide page slugs.
const (
	BankAutomatisationOdoo       = "automatisation-odoo"
	BankControleGestion          = "controle-gestion"
	BankPlanAction2026           = "plan-action-2026"
	BankAutomatisationDiagnostic = "automatisation-diagnostic"
)

// defaultTiers is the maturity scale shared by the scored banks.
func defaultTiers() []domain.TierBand {
	return []domain.TierBand{
		{MinPercent: 0, Label: "Débutant"},
		{MinPercent: 40, Label: "Intermédiaire"},
		{MinPercent: 70, Label: "Avancé"},
		{MinPercent: 90, Label: "Expert"},
	}
}

// Catalog returns all embedded banks, validated. A broken catalog is a
// programming error, hence the panic at startup rather than an error return.
func Catalog() map[string]domain.Bank {
	all := []domain.Bank{
		automatisationOdoo(),
		controleGestion(),
		planAction2026(),
		automatisationDiagnostic(),
	}
	out := make(map[string]domain.Bank, len(all))
	for _, bank := range all {
		if err := Validate(bank); err != nil {
			panic(fmt.Sprintf("embedded bank %s: %v", bank.ID, err))
		}
		out[bank.ID] = bank
	}
	return out
}

// Validate checks the catalog invariants: non-empty questions, non-empty
// options with non-negative points, unique question ids, and tier bands
// strictly ascending starting at zero.
func Validate(bank domain.Bank) error {
	if bank.ID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidBank)
	}
	if len(bank.Questions) == 0 {
		return fmt.Errorf("%w: no questions", domain.ErrInvalidBank)
	}
	seen := make(map[string]struct{}, len(bank.Questions))
	for _, q := range bank.Questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %s", domain.ErrInvalidBank, q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %s has no options", domain.ErrInvalidBank, q.ID)
		}
		for _, opt := range q.Options {
			if opt.Points < 0 {
				return fmt.Errorf("%w: question %s option %s has negative points", domain.ErrInvalidBank, q.ID, opt.ID)
			}
		}
	}
	if len(bank.Tiers) == 0 {
		return fmt.Errorf("%w: no tier bands", domain.ErrInvalidBank)
	}
	if bank.Tiers[0].MinPercent != 0 {
		return fmt.Errorf("%w: first tier band must start at 0", domain.ErrInvalidBank)
	}
	for i := 1; i < len(bank.Tiers); i++ {
		if bank.Tiers[i].MinPercent <= bank.Tiers[i-1].MinPercent {
			return fmt.Errorf("%w: tier bands not strictly ascending", domain.ErrInvalidBank)
		}
	}
	return nil
}

// StaticLoader serves banks from an in-memory map. It backs the default
// deployment (embedded catalog) and tests.
type StaticLoader struct {
	banks map[string]domain.Bank
}

func NewStaticLoader(banks map[string]domain.Bank) *StaticLoader {
	return &StaticLoader{banks: banks}
}

func (l *StaticLoader) LoadBank(_ context.Context, bankID string) (domain.Bank, error) {
	if bank, ok := l.banks[bankID]; ok {
		return bank, nil
	}
	return domain.Bank{}, domain.ErrBankNotFound
}

// scale builds the standard four-option maturity scale for a question.
func scale(questionID string) []domain.Option {
	return []domain.Option{
		{ID: questionID + "-o1", Label: "Pas du tout", Points: 0},
		{ID: questionID + "-o2", Label: "Partiellement, de façon manuelle", Points: 2},
		{ID: questionID + "-o3", Label: "Oui, sur une partie du périmètre", Points: 3},
		{ID: questionID + "-o4", Label: "Oui, de façon systématique", Points: 5},
	}
}

// ouiNon builds a checklist yes/no pair where only "oui" scores.
func ouiNon(questionID string, points int) []domain.Option {
	return []domain.Option{
		{ID: questionID + "-oui", Label: "Oui", Points: points},
		{ID: questionID + "-non", Label: "Non", Points: 0},
	}
}

func automatisationOdoo() domain.Bank {
	return domain.Bank{
		ID:          BankAutomatisationOdoo,
		Title:       "Maturité d'automatisation Odoo",
		SourceLabel: "guide-automatisation-odoo",
		Sections: []domain.Section{
			{Title: "Ventes et facturation", QuestionIDs: []string{"odoo-q1", "odoo-q2", "odoo-q3"}},
			{Title: "Achats et stocks", QuestionIDs: []string{"odoo-q4", "odoo-q5"}},
			{Title: "Comptabilité", QuestionIDs: []string{"odoo-q6", "odoo-q7", "odoo-q8"}},
		},
		Questions: []domain.Question{
			{ID: "odoo-q1", Prompt: "Vos devis sont-ils générés depuis votre CRM sans ressaisie ?", Options: scale("odoo-q1")},
			{ID: "odoo-q2", Prompt: "La facturation client est-elle déclenchée automatiquement à la livraison ?", Options: scale("odoo-q2")},
			{ID: "odoo-q3", Prompt: "Les relances de paiement partent-elles sans intervention manuelle ?", Options: scale("odoo-q3")},
			{ID: "odoo-q4", Prompt: "Vos réapprovisionnements sont-ils pilotés par des règles de stock minimum ?", Options: scale("odoo-q4")},
			{ID: "odoo-q5", Prompt: "Les réceptions fournisseurs mettent-elles à jour le stock en temps réel ?", Options: scale("odoo-q5")},
			{ID: "odoo-q6", Prompt: "Le lettrage bancaire est-il rapproché automatiquement ?", Options: scale("odoo-q6")},
			{ID: "odoo-q7", Prompt: "Vos déclarations de TVA sont-elles préparées par l'outil ?", Options: scale("odoo-q7")},
			{ID: "odoo-q8", Prompt: "Disposez-vous de tableaux de bord mis à jour sans export manuel ?", Options: scale("odoo-q8")},
		},
		Tiers: defaultTiers(),
	}
}

func controleGestion() domain.Bank {
	return domain.Bank{
		ID:          BankControleGestion,
		Title:       "Maturité du contrôle de gestion",
		SourceLabel: "guide-controle-gestion",
		Sections: []domain.Section{
			{Title: "Pilotage", QuestionIDs: []string{"cg-q1", "cg-q2", "cg-q3"}},
			{Title: "Budgets et marges", QuestionIDs: []string{"cg-q4", "cg-q5", "cg-q6"}},
			{Title: "Outillage", QuestionIDs: []string{"cg-q7", "cg-q8"}},
		},
		Questions: []domain.Question{
			{ID: "cg-q1", Prompt: "Suivez-vous des indicateurs de pilotage à fréquence mensuelle ou mieux ?", Options: scale("cg-q1")},
			{ID: "cg-q2", Prompt: "Connaissez-vous votre marge par affaire ou par ligne de produit ?", Options: scale("cg-q2")},
			{ID: "cg-q3", Prompt: "Votre trésorerie est-elle projetée à trois mois ?", Options: scale("cg-q3")},
			{ID: "cg-q4", Prompt: "Construisez-vous un budget annuel décliné par service ?", Options: scale("cg-q4")},
			{ID: "cg-q5", Prompt: "Analysez-vous les écarts budget/réalisé chaque trimestre ?", Options: scale("cg-q5")},
			{ID: "cg-q6", Prompt: "Vos prix de vente sont-ils revus à partir de coûts de revient à jour ?", Options: scale("cg-q6")},
			{ID: "cg-q7", Prompt: "Vos reportings sortent-ils de votre outil de gestion plutôt que de fichiers Excel isolés ?", Options: scale("cg-q7")},
			{ID: "cg-q8", Prompt: "Une personne (interne ou externe) est-elle responsable du contrôle de gestion ?", Options: scale("cg-q8")},
		},
		Tiers: defaultTiers(),
	}
}

func planAction2026() domain.Bank {
	return domain.Bank{
		ID:          BankPlanAction2026,
		Title:       "Préparation du plan d'action 2026",
		SourceLabel: "guide-plan-action-2026",
		Questions: []domain.Question{
			{ID: "pa-q1", Prompt: "Avez-vous formalisé vos objectifs chiffrés pour 2026 ?", Options: scale("pa-q1")},
			{ID: "pa-q2", Prompt: "Vos priorités stratégiques sont-elles partagées avec vos équipes ?", Options: scale("pa-q2")},
			{ID: "pa-q3", Prompt: "Chaque chantier a-t-il un responsable et une échéance ?", Options: scale("pa-q3")},
			{ID: "pa-q4", Prompt: "Avez-vous identifié les investissements nécessaires et leur financement ?", Options: scale("pa-q4")},
			{ID: "pa-q5", Prompt: "Un point d'avancement est-il planifié à fréquence fixe ?", Options: scale("pa-q5")},
			{ID: "pa-q6", Prompt: "Vos décisions de l'an passé ont-elles fait l'objet d'un bilan ?", Options: scale("pa-q6")},
		},
		Tiers: []domain.TierBand{
			{MinPercent: 0, Label: "À structurer"},
			{MinPercent: 40, Label: "En progression"},
			{MinPercent: 70, Label: "Solide"},
			{MinPercent: 90, Label: "Prêt pour 2026"},
		},
	}
}

// automatisationDiagnostic is the checklist variant: binary items where
// each "oui" is worth the full weight of the item.
func automatisationDiagnostic() domain.Bank {
	return domain.Bank{
		ID:          BankAutomatisationDiagnostic,
		Title:       "Diagnostic d'automatisation",
		SourceLabel: "diagnostic-automatisation",
		Questions: []domain.Question{
			{ID: "ad-q1", Prompt: "Avez-vous éliminé la double saisie entre vos outils ?", Options: ouiNon("ad-q1", 5)},
			{ID: "ad-q2", Prompt: "Vos outils métiers sont-ils connectés entre eux ?", Options: ouiNon("ad-q2", 5)},
			{ID: "ad-q3", Prompt: "Les tâches récurrentes (relances, rapports) sont-elles automatisées ?", Options: ouiNon("ad-q3", 5)},
			{ID: "ad-q4", Prompt: "Savez-vous combien d'heures par semaine partent en tâches administratives ?", Options: ouiNon("ad-q4", 3)},
			{ID: "ad-q5", Prompt: "Avez-vous déjà cartographié vos processus clés ?", Options: ouiNon("ad-q5", 3)},
			{ID: "ad-q6", Prompt: "Une personne est-elle identifiée pour porter les sujets d'automatisation ?", Options: ouiNon("ad-q6", 4)},
		},
		Tiers: defaultTiers(),
	}
}
