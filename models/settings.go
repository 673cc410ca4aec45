package models

// Settings is the single global configuration row.
type Settings struct {
	ID             int `json:"id" db:"id"`
	MaxOpenLoans   int `json:"max_open_loans" db:"max_open_loans"`
	LoanPeriodDays int `json:"loan_period_days" db:"loan_period_days"`
}
