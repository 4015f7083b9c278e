package models

import "time"

// NAVObservation is one point of a fund's append-only NAV time series.
// At most one observation is authoritative per (fund, date); when
// duplicates exist the most recently inserted row wins.
type NAVObservation struct {
	FundID     string    `json:"fundId"`
	Date       time.Time `json:"date"`
	NAV        float64   `json:"nav"`
	InsertedAt time.Time `json:"insertedAt"`
}
