package service

import (
	"context"
	"testing"
	"time"

	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/storage"
	"github.com/fund-tracker/internal/types"
)

// Mock repositories for testing

type mockInvestmentRepo struct {
	investments []*models.Investment
}

func (m *mockInvestmentRepo) Create(ctx context.Context, inv *models.Investment) error {
	m.investments = append(m.investments, inv)
	return nil
}

func (m *mockInvestmentRepo) GetByID(ctx context.Context, id string) (*models.Investment, error) {
	for _, inv := range m.investments {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, storage.ErrNoRows
}

func (m *mockInvestmentRepo) ListByUser(ctx context.Context, userID string) ([]*models.Investment, error) {
	var result []*models.Investment
	for _, inv := range m.investments {
		if inv.UserID == userID {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (m *mockInvestmentRepo) Update(ctx context.Context, inv *models.Investment) error {
	for i, existing := range m.investments {
		if existing.ID == inv.ID {
			m.investments[i] = inv
			return nil
		}
	}
	return storage.ErrNoRows
}

func (m *mockInvestmentRepo) Delete(ctx context.Context, id string) error {
	for i, inv := range m.investments {
		if inv.ID == id {
			m.investments = append(m.investments[:i], m.investments[i+1:]...)
			return nil
		}
	}
	return storage.ErrNoRows
}

type mockFundRepo struct {
	funds    map[string]*models.MutualFund
	order    []string
	sectors  map[string][]*models.SectorAllocation
	holdings map[string][]*models.StockHolding
	caps     map[string][]*models.CapAllocation
}

func newMockFundRepo() *mockFundRepo {
	return &mockFundRepo{
		funds:    make(map[string]*models.MutualFund),
		sectors:  make(map[string][]*models.SectorAllocation),
		holdings: make(map[string][]*models.StockHolding),
		caps:     make(map[string][]*models.CapAllocation),
	}
}

func (m *mockFundRepo) addFund(id, name string) {
	m.funds[id] = &models.MutualFund{ID: id, Name: name, ISIN: "ISIN-" + id}
	m.order = append(m.order, id)
}

func (m *mockFundRepo) Create(ctx context.Context, fund *models.MutualFund) error {
	m.funds[fund.ID] = fund
	m.order = append(m.order, fund.ID)
	return nil
}

func (m *mockFundRepo) GetByID(ctx context.Context, id string) (*models.MutualFund, error) {
	if f, ok := m.funds[id]; ok {
		return f, nil
	}
	return nil, storage.ErrNoRows
}

func (m *mockFundRepo) GetByISIN(ctx context.Context, isin string) (*models.MutualFund, error) {
	for _, f := range m.funds {
		if f.ISIN == isin {
			return f, nil
		}
	}
	return nil, storage.ErrNoRows
}

func (m *mockFundRepo) List(ctx context.Context, limit, offset int) ([]*models.MutualFund, error) {
	var result []*models.MutualFund
	for _, id := range m.order {
		result = append(result, m.funds[id])
	}
	return result, nil
}

func (m *mockFundRepo) ListExcept(ctx context.Context, excludeID string) ([]*models.MutualFund, error) {
	var result []*models.MutualFund
	for _, id := range m.order {
		if id != excludeID {
			result = append(result, m.funds[id])
		}
	}
	return result, nil
}

func (m *mockFundRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.funds[id]
	return ok, nil
}

func (m *mockFundRepo) SectorAllocations(ctx context.Context, fundID string) ([]*models.SectorAllocation, error) {
	return m.sectors[fundID], nil
}

func (m *mockFundRepo) StockHoldings(ctx context.Context, fundID string) ([]*models.StockHolding, error) {
	return m.holdings[fundID], nil
}

func (m *mockFundRepo) CapAllocations(ctx context.Context, fundID string) ([]*models.CapAllocation, error) {
	return m.caps[fundID], nil
}

func (m *mockFundRepo) AddSectorAllocation(ctx context.Context, a *models.SectorAllocation) error {
	m.sectors[a.FundID] = append(m.sectors[a.FundID], a)
	return nil
}

func (m *mockFundRepo) AddStockHolding(ctx context.Context, h *models.StockHolding) error {
	m.holdings[h.FundID] = append(m.holdings[h.FundID], h)
	return nil
}

func (m *mockFundRepo) AddCapAllocation(ctx context.Context, a *models.CapAllocation) error {
	m.caps[a.FundID] = append(m.caps[a.FundID], a)
	return nil
}

type mockNAVRepo struct {
	observations map[string][]*models.NAVObservation
}

func newMockNAVRepo() *mockNAVRepo {
	return &mockNAVRepo{observations: make(map[string][]*models.NAVObservation)}
}

func (m *mockNAVRepo) add(fundID string, date time.Time, nav float64) {
	m.observations[fundID] = append(m.observations[fundID], &models.NAVObservation{
		FundID:     fundID,
		Date:       date,
		NAV:        nav,
		InsertedAt: date,
	})
}

func (m *mockNAVRepo) Insert(ctx context.Context, obs *models.NAVObservation) error {
	m.observations[obs.FundID] = append(m.observations[obs.FundID], obs)
	return nil
}

func (m *mockNAVRepo) InsertBatch(ctx context.Context, observations []*models.NAVObservation) error {
	for _, obs := range observations {
		m.observations[obs.FundID] = append(m.observations[obs.FundID], obs)
	}
	return nil
}

func (m *mockNAVRepo) History(ctx context.Context, fundID string) ([]*models.NAVObservation, error) {
	return m.observations[fundID], nil
}

func (m *mockNAVRepo) Latest(ctx context.Context, fundID string) (*models.NAVObservation, error) {
	series := m.observations[fundID]
	if len(series) == 0 {
		return nil, storage.ErrNoRows
	}
	latest := series[0]
	for _, obs := range series[1:] {
		if obs.Date.After(latest.Date) {
			latest = obs
		}
	}
	return latest, nil
}

type mockAnalyticsCache struct {
	invalidated []string
}

func (m *mockAnalyticsCache) SummaryKey(userID string) string     { return "summary:" + userID }
func (m *mockAnalyticsCache) CompositionKey(userID string) string { return "composition:" + userID }

func (m *mockAnalyticsCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (m *mockAnalyticsCache) Set(ctx context.Context, key string, value interface{}) error {
	return nil
}

func (m *mockAnalyticsCache) InvalidateUser(ctx context.Context, userID string) error {
	m.invalidated = append(m.invalidated, userID)
	return nil
}

func newTestPortfolioService(invRepo *mockInvestmentRepo, fundRepo *mockFundRepo, navRepo *mockNAVRepo, today time.Time) *PortfolioService {
	svc := NewPortfolioService(invRepo, fundRepo, navRepo, nil)
	svc.now = func() time.Time { return today }
	return svc
}

func investment(id, userID, fundID string, date time.Time, amount, nav float64) *models.Investment {
	return &models.Investment{
		ID:              id,
		UserID:          userID,
		FundID:          fundID,
		InvestmentDate:  date,
		AmountInvested:  amount,
		NAVAtInvestment: nav,
		Units:           amount / nav,
		CreatedAt:       date,
	}
}

func TestPortfolioService_Summarize(t *testing.T) {
	today := day(2026, time.June, 1)

	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Growth Fund")

	navRepo := newMockNAVRepo()
	navRepo.add("f1", day(2026, time.January, 1), 100)
	navRepo.add("f1", day(2026, time.May, 30), 120)

	invRepo := &mockInvestmentRepo{investments: []*models.Investment{
		investment("i1", "user-1", "f1", day(2026, time.January, 1), 100000, 100),
	}}

	svc := newTestPortfolioService(invRepo, fundRepo, navRepo, today)

	summary, err := svc.Summarize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	// 1000 units valued at nav 120
	if !almostEqual(summary.CurrentValue, 120000) {
		t.Errorf("Expected current value 120000, got %v", summary.CurrentValue)
	}
	if !almostEqual(summary.InitialInvestment, 100000) {
		t.Errorf("Expected initial investment 100000, got %v", summary.InitialInvestment)
	}
	if !almostEqual(summary.TotalReturn, 20000) {
		t.Errorf("Expected total return 20000, got %v", summary.TotalReturn)
	}
	if !almostEqual(summary.ReturnPercentage, 20) {
		t.Errorf("Expected return percentage 20, got %v", summary.ReturnPercentage)
	}
	if summary.BestPerformingFund != "Growth Fund" || summary.WorstPerformingFund != "Growth Fund" {
		t.Errorf("Expected single fund to be both best and worst, got best=%q worst=%q",
			summary.BestPerformingFund, summary.WorstPerformingFund)
	}
}

func TestPortfolioService_Summarize_Empty(t *testing.T) {
	svc := newTestPortfolioService(&mockInvestmentRepo{}, newMockFundRepo(), newMockNAVRepo(), day(2026, time.June, 1))

	summary, err := svc.Summarize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if summary.CurrentValue != 0 || summary.InitialInvestment != 0 || summary.ReturnPercentage != 0 {
		t.Errorf("Expected zero-valued summary, got %+v", summary)
	}
	if summary.BestPerformingFund != "" || summary.WorstPerformingFund != "" {
		t.Errorf("Expected empty fund names, got best=%q worst=%q",
			summary.BestPerformingFund, summary.WorstPerformingFund)
	}
}

func TestPortfolioService_Summarize_BestWorst(t *testing.T) {
	today := day(2026, time.June, 1)

	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Winner Fund")
	fundRepo.addFund("f2", "Loser Fund")
	fundRepo.addFund("f3", "Unpriced Fund")

	navRepo := newMockNAVRepo()
	navRepo.add("f1", day(2026, time.January, 1), 100)
	navRepo.add("f1", day(2026, time.May, 30), 150) // +50%
	navRepo.add("f2", day(2026, time.January, 1), 100)
	navRepo.add("f2", day(2026, time.May, 30), 80) // -20%
	// f3 has no nav data at all

	invRepo := &mockInvestmentRepo{investments: []*models.Investment{
		investment("i1", "user-1", "f1", day(2026, time.January, 1), 10000, 100),
		investment("i2", "user-1", "f2", day(2026, time.January, 1), 10000, 100),
		investment("i3", "user-1", "f3", day(2026, time.January, 1), 10000, 100),
	}}

	svc := newTestPortfolioService(invRepo, fundRepo, navRepo, today)

	summary, err := svc.Summarize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if summary.BestPerformingFund != "Winner Fund" {
		t.Errorf("Expected best fund 'Winner Fund', got %q", summary.BestPerformingFund)
	}
	if !almostEqual(summary.BestPerformingReturn, 50) {
		t.Errorf("Expected best return 50, got %v", summary.BestPerformingReturn)
	}
	if summary.WorstPerformingFund != "Loser Fund" {
		t.Errorf("Expected worst fund 'Loser Fund', got %q", summary.WorstPerformingFund)
	}
	if !almostEqual(summary.WorstPerformingReturn, -20) {
		t.Errorf("Expected worst return -20, got %v", summary.WorstPerformingReturn)
	}

	// Unpriced fund still counts toward initial investment
	if !almostEqual(summary.InitialInvestment, 30000) {
		t.Errorf("Expected initial investment 30000, got %v", summary.InitialInvestment)
	}
	// But contributes zero current value
	if !almostEqual(summary.CurrentValue, 15000+8000) {
		t.Errorf("Expected current value 23000, got %v", summary.CurrentValue)
	}
}

func TestPortfolioService_Summarize_BlendsLotsPerFund(t *testing.T) {
	today := day(2026, time.June, 1)

	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Growth Fund")

	navRepo := newMockNAVRepo()
	navRepo.add("f1", day(2026, time.January, 1), 100)
	navRepo.add("f1", day(2026, time.March, 1), 200)
	navRepo.add("f1", day(2026, time.May, 30), 200)

	// Lot 1 doubles, lot 2 is flat; blended return is +50%.
	invRepo := &mockInvestmentRepo{investments: []*models.Investment{
		investment("i1", "user-1", "f1", day(2026, time.January, 1), 10000, 100),
		investment("i2", "user-1", "f1", day(2026, time.March, 1), 10000, 200),
	}}

	svc := newTestPortfolioService(invRepo, fundRepo, navRepo, today)

	summary, err := svc.Summarize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if !almostEqual(summary.BestPerformingReturn, 50) {
		t.Errorf("Expected blended return 50, got %v", summary.BestPerformingReturn)
	}
	if summary.BestPerformingFund != "Growth Fund" {
		t.Errorf("Expected 'Growth Fund', got %q", summary.BestPerformingFund)
	}
}

func TestPortfolioService_BuildSeries(t *testing.T) {
	today := day(2026, time.June, 10)

	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Growth Fund")

	navRepo := newMockNAVRepo()
	navRepo.add("f1", day(2026, time.June, 1), 100)
	navRepo.add("f1", day(2026, time.June, 5), 110)

	invRepo := &mockInvestmentRepo{investments: []*models.Investment{
		investment("i1", "user-1", "f1", day(2026, time.June, 3), 1000, 100),
	}}

	svc := newTestPortfolioService(invRepo, fundRepo, navRepo, today)

	series, err := svc.BuildSeries(context.Background(), "user-1", types.Timeframe1M)
	if err != nil {
		t.Fatalf("BuildSeries failed: %v", err)
	}

	// Days before the purchase are omitted (zero value); June 3 through
	// June 10 have value.
	if len(series) != 8 {
		t.Fatalf("Expected 8 points, got %d", len(series))
	}

	if series[0].Date != "2026-06-03" {
		t.Errorf("Expected first point on 2026-06-03, got %s", series[0].Date)
	}
	// 10 units at nav 100 until June 4
	if !almostEqual(series[0].Value, 1000) {
		t.Errorf("Expected value 1000 on first day, got %v", series[0].Value)
	}
	// nav steps to 110 on June 5 and holds
	if series[2].Date != "2026-06-05" || !almostEqual(series[2].Value, 1100) {
		t.Errorf("Expected 1100 on 2026-06-05, got %v on %s", series[2].Value, series[2].Date)
	}
	if last := series[len(series)-1]; last.Date != "2026-06-10" || !almostEqual(last.Value, 1100) {
		t.Errorf("Expected 1100 on 2026-06-10, got %v on %s", last.Value, last.Date)
	}
}

func TestPortfolioService_BuildSeries_Empty(t *testing.T) {
	svc := newTestPortfolioService(&mockInvestmentRepo{}, newMockFundRepo(), newMockNAVRepo(), day(2026, time.June, 1))

	series, err := svc.BuildSeries(context.Background(), "user-1", types.Timeframe1Y)
	if err != nil {
		t.Fatalf("BuildSeries failed: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("Expected empty series, got %d points", len(series))
	}
}

func TestPortfolioService_Composition(t *testing.T) {
	today := day(2026, time.June, 1)

	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Tech Fund")
	fundRepo.addFund("f2", "Bank Fund")
	fundRepo.sectors["f1"] = []*models.SectorAllocation{
		{FundID: "f1", Sector: "Technology", Percentage: 60},
		{FundID: "f1", Sector: "Financials", Percentage: 40},
	}
	fundRepo.sectors["f2"] = []*models.SectorAllocation{
		{FundID: "f2", Sector: "Financials", Percentage: 100},
	}
	fundRepo.caps["f1"] = []*models.CapAllocation{
		{FundID: "f1", CapType: "Large Cap", Percentage: 100},
	}

	navRepo := newMockNAVRepo()
	navRepo.add("f1", day(2026, time.May, 30), 100)
	navRepo.add("f2", day(2026, time.May, 30), 100)

	// Both investments valued at 10000 each, portfolio 20000.
	invRepo := &mockInvestmentRepo{investments: []*models.Investment{
		investment("i1", "user-1", "f1", day(2026, time.January, 1), 10000, 100),
		investment("i2", "user-1", "f2", day(2026, time.January, 1), 10000, 100),
	}}

	svc := newTestPortfolioService(invRepo, fundRepo, navRepo, today)

	composition, err := svc.Composition(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Composition failed: %v", err)
	}

	// Financials: 40% of 10000 + 100% of 10000 = 14000 (70%)
	// Technology: 60% of 10000 = 6000 (30%)
	if len(composition.SectorAllocations) != 2 {
		t.Fatalf("Expected 2 sector entries, got %d", len(composition.SectorAllocations))
	}
	fin := composition.SectorAllocations[0]
	if fin.Category != "Financials" || !almostEqual(fin.Amount, 14000) || !almostEqual(fin.Percentage, 70) {
		t.Errorf("Expected Financials 14000 (70%%) first, got %+v", fin)
	}
	tech := composition.SectorAllocations[1]
	if tech.Category != "Technology" || !almostEqual(tech.Amount, 6000) || !almostEqual(tech.Percentage, 30) {
		t.Errorf("Expected Technology 6000 (30%%) second, got %+v", tech)
	}

	// Only f1 has cap facts; f2 contributes nothing to that partition.
	if len(composition.CapAllocations) != 1 {
		t.Fatalf("Expected 1 cap entry, got %d", len(composition.CapAllocations))
	}
	if cap := composition.CapAllocations[0]; cap.Category != "Large Cap" || !almostEqual(cap.Amount, 10000) || !almostEqual(cap.Percentage, 50) {
		t.Errorf("Expected Large Cap 10000 (50%%), got %+v", cap)
	}

	// No stock facts loaded at all
	if len(composition.StockAllocations) != 0 {
		t.Errorf("Expected no stock entries, got %d", len(composition.StockAllocations))
	}
}

func TestPortfolioService_Composition_Empty(t *testing.T) {
	svc := newTestPortfolioService(&mockInvestmentRepo{}, newMockFundRepo(), newMockNAVRepo(), day(2026, time.June, 1))

	composition, err := svc.Composition(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Composition failed: %v", err)
	}

	if len(composition.SectorAllocations) != 0 || len(composition.StockAllocations) != 0 || len(composition.CapAllocations) != 0 {
		t.Errorf("Expected empty partitions, got %+v", composition)
	}
}

func TestPortfolioService_Overlap_Pairwise(t *testing.T) {
	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Alpha Fund")
	fundRepo.addFund("f2", "Beta Fund")
	fundRepo.holdings["f1"] = []*models.StockHolding{
		{FundID: "f1", StockName: "Stock X", Percentage: 40},
		{FundID: "f1", StockName: "Stock Y", Percentage: 35},
		{FundID: "f1", StockName: "Stock Z", Percentage: 25},
	}
	fundRepo.holdings["f2"] = []*models.StockHolding{
		{FundID: "f2", StockName: "Stock Y", Percentage: 50},
		{FundID: "f2", StockName: "Stock Z", Percentage: 50},
	}

	svc := newTestPortfolioService(&mockInvestmentRepo{}, fundRepo, newMockNAVRepo(), day(2026, time.June, 1))

	// 2 of Alpha's 3 holdings appear in Beta
	results, err := svc.Overlap(context.Background(), "f1", "f2")
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Fund1Name != "Alpha Fund" || r.Fund2Name != "Beta Fund" {
		t.Errorf("Unexpected fund names: %q vs %q", r.Fund1Name, r.Fund2Name)
	}
	if !almostEqual(r.OverlapPercentage, 200.0/3.0) {
		t.Errorf("Expected overlap 66.67, got %v", r.OverlapPercentage)
	}
	if len(r.CommonStocks) != 2 || r.CommonStocks[0] != "Stock Y" || r.CommonStocks[1] != "Stock Z" {
		t.Errorf("Unexpected common stocks: %v", r.CommonStocks)
	}

	// The reverse direction uses Beta's holding count as denominator
	reverse, err := svc.Overlap(context.Background(), "f2", "f1")
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}
	if !almostEqual(reverse[0].OverlapPercentage, 100) {
		t.Errorf("Expected asymmetric overlap 100, got %v", reverse[0].OverlapPercentage)
	}
}

func TestPortfolioService_Overlap_Broadcast(t *testing.T) {
	fundRepo := newMockFundRepo()
	fundRepo.addFund("f1", "Alpha Fund")
	fundRepo.addFund("f2", "Beta Fund")
	fundRepo.addFund("f3", "Gamma Fund")
	fundRepo.holdings["f1"] = []*models.StockHolding{
		{FundID: "f1", StockName: "Stock X", Percentage: 50},
		{FundID: "f1", StockName: "Stock Y", Percentage: 50},
	}
	fundRepo.holdings["f2"] = []*models.StockHolding{
		{FundID: "f2", StockName: "Stock X", Percentage: 50},
		{FundID: "f2", StockName: "Stock Y", Percentage: 50},
	}
	fundRepo.holdings["f3"] = []*models.StockHolding{
		{FundID: "f3", StockName: "Stock Y", Percentage: 100},
	}

	svc := newTestPortfolioService(&mockInvestmentRepo{}, fundRepo, newMockNAVRepo(), day(2026, time.June, 1))

	results, err := svc.Overlap(context.Background(), "f1", "")
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	// Sorted by overlap descending: full match first
	if results[0].Fund2Name != "Beta Fund" || !almostEqual(results[0].OverlapPercentage, 100) {
		t.Errorf("Expected Beta Fund at 100%%, got %q at %v", results[0].Fund2Name, results[0].OverlapPercentage)
	}
	if results[1].Fund2Name != "Gamma Fund" || !almostEqual(results[1].OverlapPercentage, 50) {
		t.Errorf("Expected Gamma Fund at 50%%, got %q at %v", results[1].Fund2Name, results[1].OverlapPercentage)
	}
}

func TestPortfolioService_Overlap_UnknownFund(t *testing.T) {
	fundRepo := newMockFundRepo()
	fundRepo.addFund("f2", "Beta Fund")
	fundRepo.holdings["f2"] = []*models.StockHolding{
		{FundID: "f2", StockName: "Stock X", Percentage: 100},
	}

	svc := newTestPortfolioService(&mockInvestmentRepo{}, fundRepo, newMockNAVRepo(), day(2026, time.June, 1))

	results, err := svc.Overlap(context.Background(), "missing", "f2")
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}

	if results[0].Fund1Name != "Unknown Fund" {
		t.Errorf("Expected placeholder name for unknown fund, got %q", results[0].Fund1Name)
	}
	if results[0].OverlapPercentage != 0 {
		t.Errorf("Expected 0 overlap for holdingless fund, got %v", results[0].OverlapPercentage)
	}
}
