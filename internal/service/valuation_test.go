package service

import (
	"math"
	"testing"
	"time"

	"github.com/fund-tracker/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obs(fundID string, date time.Time, nav float64, insertedAt time.Time) *models.NAVObservation {
	return &models.NAVObservation{FundID: fundID, Date: date, NAV: nav, InsertedAt: insertedAt}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNAVHistory_AsOf(t *testing.T) {
	base := day(2026, time.January, 1)
	history := NewNAVHistory([]*models.NAVObservation{
		obs("f1", day(2026, time.January, 5), 105, base),
		obs("f1", day(2026, time.January, 1), 100, base),
		obs("f1", day(2026, time.January, 10), 110, base),
	})

	if history.Len() != 3 {
		t.Fatalf("Expected 3 observations, got %d", history.Len())
	}

	// Exact date match
	nav, ok := history.AsOf(day(2026, time.January, 5))
	if !ok || nav != 105 {
		t.Errorf("Expected nav 105 on exact date, got %v (ok=%v)", nav, ok)
	}

	// Gap: falls back to latest observation before the target
	nav, ok = history.AsOf(day(2026, time.January, 8))
	if !ok || nav != 105 {
		t.Errorf("Expected nav 105 in gap, got %v (ok=%v)", nav, ok)
	}

	// After the last observation
	nav, ok = history.AsOf(day(2026, time.February, 1))
	if !ok || nav != 110 {
		t.Errorf("Expected nav 110 after last observation, got %v (ok=%v)", nav, ok)
	}

	// Before the first observation
	if _, ok := history.AsOf(day(2025, time.December, 31)); ok {
		t.Error("Expected no nav before first observation")
	}
}

func TestNAVHistory_DuplicateDates(t *testing.T) {
	date := day(2026, time.March, 1)
	history := NewNAVHistory([]*models.NAVObservation{
		obs("f1", date, 100, day(2026, time.March, 1)),
		obs("f1", date, 101, day(2026, time.March, 2)), // later insert wins
	})

	if history.Len() != 1 {
		t.Fatalf("Expected duplicate dates to collapse, got %d observations", history.Len())
	}

	nav, ok := history.AsOf(date)
	if !ok || nav != 101 {
		t.Errorf("Expected most recently inserted nav 101, got %v", nav)
	}
}

func TestNAVHistory_Empty(t *testing.T) {
	history := NewNAVHistory(nil)

	if _, ok := history.AsOf(day(2026, time.January, 1)); ok {
		t.Error("Expected no nav from empty history")
	}
	if _, ok := history.Latest(); ok {
		t.Error("Expected no latest nav from empty history")
	}
}

func TestCursor_Advance(t *testing.T) {
	base := day(2026, time.January, 1)
	history := NewNAVHistory([]*models.NAVObservation{
		obs("f1", day(2026, time.January, 1), 100, base),
		obs("f1", day(2026, time.January, 3), 103, base),
		obs("f1", day(2026, time.January, 7), 107, base),
	})

	cursor := history.Cursor()

	if _, ok := cursor.Advance(day(2025, time.December, 31)); ok {
		t.Error("Expected no nav before first observation")
	}

	expected := []struct {
		date time.Time
		nav  float64
	}{
		{day(2026, time.January, 1), 100},
		{day(2026, time.January, 2), 100},
		{day(2026, time.January, 3), 103},
		{day(2026, time.January, 6), 103},
		{day(2026, time.January, 7), 107},
		{day(2026, time.January, 20), 107},
	}

	for _, tc := range expected {
		nav, ok := cursor.Advance(tc.date)
		if !ok || nav != tc.nav {
			t.Errorf("Advance(%s): expected %v, got %v (ok=%v)", tc.date.Format("2006-01-02"), tc.nav, nav, ok)
		}
	}
}

func TestCursor_MatchesAsOf(t *testing.T) {
	base := day(2026, time.January, 1)
	history := NewNAVHistory([]*models.NAVObservation{
		obs("f1", day(2026, time.January, 2), 100, base),
		obs("f1", day(2026, time.January, 5), 102, base),
		obs("f1", day(2026, time.January, 9), 99, base),
		obs("f1", day(2026, time.January, 15), 104, base),
	})

	cursor := history.Cursor()
	for d := day(2026, time.January, 1); !d.After(day(2026, time.January, 20)); d = d.AddDate(0, 0, 1) {
		wantNAV, wantOK := history.AsOf(d)
		gotNAV, gotOK := cursor.Advance(d)
		if wantOK != gotOK || wantNAV != gotNAV {
			t.Errorf("Cursor diverged from AsOf on %s: cursor=(%v,%v) asof=(%v,%v)",
				d.Format("2006-01-02"), gotNAV, gotOK, wantNAV, wantOK)
		}
	}
}

func TestInvestmentValue(t *testing.T) {
	base := day(2026, time.January, 1)
	history := NewNAVHistory([]*models.NAVObservation{
		obs("f1", day(2026, time.January, 1), 100, base),
		obs("f1", day(2026, time.January, 10), 120, base),
	})

	inv := &models.Investment{
		FundID:          "f1",
		InvestmentDate:  day(2026, time.January, 1),
		AmountInvested:  100000,
		NAVAtInvestment: 100,
		Units:           1000,
	}

	// 1000 units at nav 120
	value := InvestmentValue(inv, history, day(2026, time.January, 15))
	if !almostEqual(value, 120000) {
		t.Errorf("Expected value 120000, got %v", value)
	}

	// Valuation date before the purchase contributes nothing
	early := *inv
	early.InvestmentDate = day(2026, time.January, 20)
	if v := InvestmentValue(&early, history, day(2026, time.January, 15)); v != 0 {
		t.Errorf("Expected 0 before investment date, got %v", v)
	}

	// No NAV on or before the valuation date contributes nothing
	if v := InvestmentValue(inv, NewNAVHistory(nil), day(2026, time.January, 15)); v != 0 {
		t.Errorf("Expected 0 with empty history, got %v", v)
	}
}
