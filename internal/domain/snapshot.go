package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a dated record of the portfolio's total value.
type Snapshot struct {
	ID             int64              `json:"id"`
	Date           time.Time          `json:"date"`
	TotalValue     decimal.Decimal    `json:"totalValue"`
	TotalInvested  decimal.Decimal    `json:"totalInvested"`
	Notes          *string            `json:"notes"`
	CreatedAt      time.Time          `json:"createdAt"`
	EvolutionPct   decimal.Decimal    `json:"evolutionPct"`
	EvolutionValue decimal.Decimal    `json:"evolutionValue"`
	Categories     []SnapshotCategory `json:"categories,omitempty"`
}

// SnapshotCategory is one category's value at snapshot time.
type SnapshotCategory struct {
	CategoryID    int64           `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	Value         decimal.Decimal `json:"value"`
	AllocationPct decimal.Decimal `json:"allocationPct"`
}

// WithEvolution fills the evolution fields from value and invested.
// Evolution percent is zero when nothing was invested.
func (s Snapshot) WithEvolution() Snapshot {
	s.EvolutionValue = s.TotalValue.Sub(s.TotalInvested)
	if s.TotalInvested.IsPositive() {
		s.EvolutionPct = s.EvolutionValue.Div(s.TotalInvested)
	} else {
		s.EvolutionPct = decimal.Zero
	}
	return s
}
