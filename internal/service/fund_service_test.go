package service

import (
	"context"
	"testing"
	"time"

	"github.com/fund-tracker/internal/types"
)

func TestFundService_Create(t *testing.T) {
	fundRepo := newMockFundRepo()
	svc := NewFundService(fundRepo, newMockNAVRepo())

	fund, err := svc.Create(context.Background(), &CreateFundInput{
		Name:         "Blue Chip Growth Fund",
		ISIN:         "INF000000001",
		FundType:     "Equity",
		FundCategory: "Large Cap",
		FundHouse:    "Acme AMC",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fund.ID == "" {
		t.Error("Expected fund ID to be set")
	}

	// Duplicate ISIN is rejected
	_, err = svc.Create(context.Background(), &CreateFundInput{
		Name: "Copycat Fund",
		ISIN: "INF000000001",
	})
	if err == nil {
		t.Fatal("Expected duplicate ISIN to fail")
	}
	if code := serviceErrorCode(t, err); code != types.ErrConflict {
		t.Errorf("Expected CONFLICT, got %s", code)
	}
}

func TestFundService_Get_NotFound(t *testing.T) {
	svc := NewFundService(newMockFundRepo(), newMockNAVRepo())

	_, err := svc.Get(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if code := serviceErrorCode(t, err); code != types.ErrNotFound {
		t.Errorf("Expected NOT_FOUND, got %s", code)
	}
}

func TestFundService_RecordNAV(t *testing.T) {
	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Growth Fund")
	navRepo := newMockNAVRepo()
	svc := NewFundService(fundRepo, navRepo)

	obs, err := svc.RecordNAV(context.Background(), "f1", day(2026, time.April, 1), 123.45)
	if err != nil {
		t.Fatalf("RecordNAV failed: %v", err)
	}
	if !obs.Date.Equal(day(2026, time.April, 1)) {
		t.Errorf("Expected date normalized to midnight UTC, got %v", obs.Date)
	}

	if _, err := svc.RecordNAV(context.Background(), "f1", day(2026, time.April, 2), 0); err == nil {
		t.Error("Expected zero nav to fail")
	}
	if _, err := svc.RecordNAV(context.Background(), "missing", day(2026, time.April, 1), 100); err == nil {
		t.Error("Expected unknown fund to fail")
	}

	latest, err := svc.LatestNAV(context.Background(), "f1")
	if err != nil {
		t.Fatalf("LatestNAV failed: %v", err)
	}
	if latest.NAV != 123.45 {
		t.Errorf("Expected latest nav 123.45, got %v", latest.NAV)
	}
}

func TestFundService_LatestNAV_NoData(t *testing.T) {
	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Unpriced Fund")
	svc := NewFundService(fundRepo, newMockNAVRepo())

	_, err := svc.LatestNAV(context.Background(), "f1")
	if err == nil {
		t.Fatal("Expected error for fund without nav data")
	}
	if code := serviceErrorCode(t, err); code != types.ErrNotFound {
		t.Errorf("Expected NOT_FOUND, got %s", code)
	}
}

func TestFundService_AddAllocation(t *testing.T) {
	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Growth Fund")
	svc := NewFundService(fundRepo, newMockNAVRepo())

	ctx := context.Background()

	if err := svc.AddAllocation(ctx, "f1", types.AllocationSector, &AllocationInput{Category: "Technology", Percentage: 60}); err != nil {
		t.Fatalf("AddAllocation sector failed: %v", err)
	}
	if err := svc.AddAllocation(ctx, "f1", types.AllocationStock, &AllocationInput{Category: "Stock X", Percentage: 8.5}); err != nil {
		t.Fatalf("AddAllocation stock failed: %v", err)
	}
	if err := svc.AddAllocation(ctx, "f1", types.AllocationCap, &AllocationInput{Category: "Large Cap", Percentage: 90}); err != nil {
		t.Fatalf("AddAllocation cap failed: %v", err)
	}

	sectors, err := svc.SectorAllocations(ctx, "f1")
	if err != nil {
		t.Fatalf("SectorAllocations failed: %v", err)
	}
	if len(sectors) != 1 || sectors[0].Sector != "Technology" {
		t.Errorf("Unexpected sector allocations: %+v", sectors)
	}

	// Invalid inputs
	if err := svc.AddAllocation(ctx, "f1", types.AllocationSector, &AllocationInput{Category: "", Percentage: 10}); err == nil {
		t.Error("Expected empty category to fail")
	}
	if err := svc.AddAllocation(ctx, "f1", types.AllocationSector, &AllocationInput{Category: "X", Percentage: 150}); err == nil {
		t.Error("Expected percentage over 100 to fail")
	}
	if err := svc.AddAllocation(ctx, "f1", "bogus", &AllocationInput{Category: "X", Percentage: 10}); err == nil {
		t.Error("Expected unknown allocation kind to fail")
	}
}

func TestFundService_EmptyPartitionsAreNotErrors(t *testing.T) {
	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Bare Fund")
	svc := NewFundService(fundRepo, newMockNAVRepo())

	ctx := context.Background()

	holdings, err := svc.StockHoldings(ctx, "f1")
	if err != nil {
		t.Fatalf("StockHoldings failed: %v", err)
	}
	if holdings == nil || len(holdings) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", holdings)
	}

	history, err := svc.NAVHistory(ctx, "f1")
	if err != nil {
		t.Fatalf("NAVHistory failed: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Errorf("Expected empty non-nil history, got %v", history)
	}
}
