package dca

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wizard/internal/domain"
)

// Frequency is how often a plan schedules a contribution.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Entry generation caps.
const (
	MaxEntries       = 200
	OpenEndedEntries = 52
)

// Plan is a recurring contribution schedule, optionally tied to an asset.
type Plan struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	AssetID   *int64          `json:"assetId"`
	Frequency Frequency       `json:"frequency"`
	Amount    decimal.Decimal `json:"amount"`
	StartDate time.Time       `json:"startDate"`
	EndDate   *time.Time      `json:"endDate"`
	Notes     *string         `json:"notes"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PlanWithProgress adds entry counts and the linked asset's ticker.
type PlanWithProgress struct {
	Plan
	TotalEntries     int     `json:"totalEntries"`
	CompletedEntries int     `json:"completedEntries"`
	AssetTicker      *string `json:"assetTicker,omitempty"`
}

// Entry is one scheduled contribution.
type Entry struct {
	ID            int64           `json:"id"`
	PlanID        int64           `json:"planId"`
	ScheduledDate time.Time       `json:"scheduledDate"`
	Amount        decimal.Decimal `json:"amount"`
	Completed     bool            `json:"completed"`
	CompletedAt   *time.Time      `json:"completedAt"`
	Notes         *string         `json:"notes"`
}

// PlanInput holds the user-supplied plan fields. Dates use the YYYY-MM-DD layout.
type PlanInput struct {
	Name      string          `json:"name"`
	AssetID   *int64          `json:"assetId"`
	Frequency Frequency       `json:"frequency"`
	Amount    decimal.Decimal `json:"amount"`
	StartDate string          `json:"startDate"`
	EndDate   *string         `json:"endDate"`
	Notes     *string         `json:"notes"`
}

// Validate checks the plan input.
func (in PlanInput) Validate() error {
	var v domain.Validator
	v.Length(in.Name, 1, 100, "name")
	v.Check(in.AssetID == nil || *in.AssetID > 0, "assetId", "must be positive")
	v.Check(in.Frequency == Weekly || in.Frequency == Monthly, "frequency", "must be weekly or monthly")
	v.Check(in.Amount.IsPositive(), "amount", "must be positive")
	if in.StartDate == "" {
		v.Check(false, "startDate", "is required")
	} else {
		_, err := time.Parse(time.DateOnly, in.StartDate)
		v.Check(err == nil, "startDate", "must be a YYYY-MM-DD date")
	}
	if in.EndDate != nil && *in.EndDate != "" {
		_, err := time.Parse(time.DateOnly, *in.EndDate)
		v.Check(err == nil, "endDate", "must be a YYYY-MM-DD date")
	}
	v.OptionalLength(in.Notes, 500, "notes")
	return v.Err()
}

// dates returns the parsed start and optional end date of a validated input.
func (in PlanInput) dates() (time.Time, *time.Time) {
	start, _ := time.Parse(time.DateOnly, in.StartDate)
	if in.EndDate == nil || *in.EndDate == "" {
		return start, nil
	}
	end, _ := time.Parse(time.DateOnly, *in.EndDate)
	return start, &end
}

// GenerateEntries schedules contributions from start, one step at a time, until
// the step passes end. Without an end date the schedule stops after OpenEndedEntries.
// Monthly steps use calendar months, so day 31 overflows into the next month.
func GenerateEntries(start time.Time, end *time.Time, freq Frequency, amount decimal.Decimal) []Entry {
	var entries []Entry
	current := start
	for len(entries) < MaxEntries {
		if end != nil && current.After(*end) {
			break
		}
		if end == nil && len(entries) >= OpenEndedEntries {
			break
		}

		entries = append(entries, Entry{ScheduledDate: current, Amount: amount})

		if freq == Weekly {
			current = current.AddDate(0, 0, 7)
		} else {
			current = current.AddDate(0, 1, 0)
		}
	}
	return entries
}
