package models

import "time"

// MutualFund represents shared, read-only fund reference data
type MutualFund struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ISIN         string    `json:"isin"`
	FundType     string    `json:"fundType"`
	FundCategory string    `json:"fundCategory"`
	FundHouse    string    `json:"fundHouse"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SectorAllocation is one entry of a fund's sector partition
type SectorAllocation struct {
	ID         string  `json:"id"`
	FundID     string  `json:"fundId"`
	Sector     string  `json:"sector"`
	Percentage float64 `json:"percentage"`
}

// StockHolding is one entry of a fund's stock partition
type StockHolding struct {
	ID         string  `json:"id"`
	FundID     string  `json:"fundId"`
	StockName  string  `json:"stockName"`
	Percentage float64 `json:"percentage"`
}

// CapAllocation is one entry of a fund's market-cap partition
type CapAllocation struct {
	ID         string  `json:"id"`
	FundID     string  `json:"fundId"`
	CapType    string  `json:"capType"`
	Percentage float64 `json:"percentage"`
}
