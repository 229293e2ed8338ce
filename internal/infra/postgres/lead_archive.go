package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"diagnostic-service/internal/domain"
)

// capturedLeadRow is the bun model for the local lead audit table. One row
// per CRM sync attempt; the table is append-only.
type capturedLeadRow struct {
	bun.BaseModel `bun:"table:captured_leads"`

	ID        int64     `bun:"id,pk,autoincrement"`
	BankID    string    `bun:"bank_id,notnull"`
	LeadID    int64     `bun:"lead_id"`
	FirstName string    `bun:"first_name"`
	LastName  string    `bun:"last_name"`
	Email     string    `bun:"email,notnull"`
	Company   string    `bun:"company"`
	Employees string    `bun:"employees"`
	Role      string    `bun:"role"`
	Summary   string    `bun:"summary"`
	Synced    bool      `bun:"synced,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// LeadArchive keeps a local copy of every lead the site captures, so a CRM
// outage does not lose the contact entirely.
type LeadArchive struct {
	db *bun.DB
}

func NewLeadArchive(db *bun.DB) *LeadArchive {
	return &LeadArchive{db: db}
}

func (a *LeadArchive) SaveLead(ctx context.Context, lead domain.CapturedLead) error {
	row := &capturedLeadRow{
		BankID:    lead.BankID,
		LeadID:    lead.LeadID,
		FirstName: lead.Profile.FirstName,
		LastName:  lead.Profile.LastName,
		Email:     lead.Profile.Email,
		Company:   lead.Profile.Company,
		Employees: lead.Profile.Employees,
		Role:      lead.Profile.Role,
		Summary:   lead.Summary,
		Synced:    lead.Synced,
	}
	if _, err := a.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert captured lead: %w", err)
	}
	return nil
}
