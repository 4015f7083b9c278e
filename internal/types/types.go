// Package types provides common type definitions for the fund tracker system.
package types

import "time"

// Timeframe represents a supported performance window token
type Timeframe string

const (
	// Timeframe1M covers the trailing 30 days
	Timeframe1M Timeframe = "1M"
	// Timeframe3M covers the trailing 90 days
	Timeframe3M Timeframe = "3M"
	// Timeframe6M covers the trailing 180 days
	Timeframe6M Timeframe = "6M"
	// Timeframe1Y covers the trailing 365 days
	Timeframe1Y Timeframe = "1Y"
	// Timeframe3Y covers the trailing 1095 days
	Timeframe3Y Timeframe = "3Y"
	// TimeframeMax covers everything since the epoch floor
	TimeframeMax Timeframe = "MAX"
)

// MaxEpochFloor is the fixed start date used for the MAX timeframe.
var MaxEpochFloor = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// WindowStart resolves a timeframe token to the start date of its window,
// given the window's end date. Unrecognized tokens fall back to the 1M
// window rather than erroring.
func (tf Timeframe) WindowStart(end time.Time) time.Time {
	switch tf {
	case Timeframe1M:
		return end.AddDate(0, 0, -30)
	case Timeframe3M:
		return end.AddDate(0, 0, -90)
	case Timeframe6M:
		return end.AddDate(0, 0, -180)
	case Timeframe1Y:
		return end.AddDate(0, 0, -365)
	case Timeframe3Y:
		return end.AddDate(0, 0, -1095)
	case TimeframeMax:
		return MaxEpochFloor
	default:
		return end.AddDate(0, 0, -30)
	}
}

// AllocationKind identifies one of the three independent fund allocation
// partitions
type AllocationKind string

const (
	// AllocationSector partitions a fund by industry sector
	AllocationSector AllocationKind = "sector"
	// AllocationStock partitions a fund by individual stock holding
	AllocationStock AllocationKind = "stock"
	// AllocationCap partitions a fund by market-cap tier
	AllocationCap AllocationKind = "cap"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Service error codes shared across layers
const (
	// ErrNotFound indicates a referenced entity does not exist
	ErrNotFound = "NOT_FOUND"
	// ErrForbidden indicates an ownership mismatch on a user-scoped record
	ErrForbidden = "FORBIDDEN"
	// ErrInvalidInput indicates a malformed or out-of-range input value
	ErrInvalidInput = "INVALID_INPUT"
	// ErrUnauthorized indicates a missing caller identity
	ErrUnauthorized = "UNAUTHORIZED"
	// ErrConflict indicates a uniqueness violation (duplicate email or ISIN)
	ErrConflict = "CONFLICT"
)

// DateOnly normalizes a timestamp to midnight UTC so investment dates and
// NAV observation dates compare at day granularity.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
