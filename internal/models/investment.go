package models

import "time"

// Investment represents one purchase lot of a mutual fund by a user.
// Units is derived at creation (amount / nav) and re-derived on update;
// subsequent NAV movement never rewrites the record.
type Investment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	FundID          string    `json:"fundId"`
	InvestmentDate  time.Time `json:"investmentDate"`
	AmountInvested  float64   `json:"amountInvested"`
	NAVAtInvestment float64   `json:"navAtInvestment"`
	Units           float64   `json:"units"`
	CreatedAt       time.Time `json:"createdAt"`
}
