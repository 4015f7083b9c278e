package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fund-tracker/internal/logging"
	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/types"
)

// unknownFundName is the placeholder used when a referenced fund id cannot
// be resolved against the reference store.
const unknownFundName = "Unknown Fund"

// PortfolioService derives analytics views from the investment ledger and
// fund reference data. All computations are request-scoped and stateless
// between calls.
type PortfolioService struct {
	investmentRepo InvestmentRepository
	fundRepo       FundRepository
	navRepo        NAVRepository
	cache          AnalyticsCache
	logger         *logging.Logger
	now            func() time.Time
}

// NewPortfolioService creates a new portfolio service. The cache may be nil
// when no Redis backend is configured.
func NewPortfolioService(
	investmentRepo InvestmentRepository,
	fundRepo FundRepository,
	navRepo NAVRepository,
	cache AnalyticsCache,
) *PortfolioService {
	return &PortfolioService{
		investmentRepo: investmentRepo,
		fundRepo:       fundRepo,
		navRepo:        navRepo,
		cache:          cache,
		logger:         logging.GetGlobalLogger(),
		now:            time.Now,
	}
}

// Output types

// PortfolioSummary holds aggregate portfolio KPIs
type PortfolioSummary struct {
	CurrentValue          float64 `json:"currentValue"`
	InitialInvestment     float64 `json:"initialInvestment"`
	TotalReturn           float64 `json:"totalReturn"`
	ReturnPercentage      float64 `json:"returnPercentage"`
	BestPerformingFund    string  `json:"bestPerformingFund"`
	BestPerformingReturn  float64 `json:"bestPerformingReturn"`
	WorstPerformingFund   string  `json:"worstPerformingFund"`
	WorstPerformingReturn float64 `json:"worstPerformingReturn"`
}

// SeriesPoint is one day of the portfolio value curve
type SeriesPoint struct {
	Date  string  `json:"date"` // ISO date string
	Value float64 `json:"value"`
}

// CompositionEntry is one category of a composition partition
type CompositionEntry struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// PortfolioComposition holds the three weighted partition breakdowns
type PortfolioComposition struct {
	SectorAllocations []CompositionEntry `json:"sectorAllocations"`
	StockAllocations  []CompositionEntry `json:"stockAllocations"`
	CapAllocations    []CompositionEntry `json:"capAllocations"`
}

// FundOverlap is one pairwise holding comparison result
type FundOverlap struct {
	Fund1Name         string   `json:"fund1Name"`
	Fund2Name         string   `json:"fund2Name"`
	OverlapPercentage float64  `json:"overlapPercentage"`
	CommonStocks      []string `json:"commonStocks"`
}

// Summarize computes aggregate KPIs for a user's portfolio, valuing every
// investment at the latest available NAV per fund.
//
// Per-fund performance aggregates by fund id: multiple lots in the same
// fund blend into one invested/current pair before the return is computed.
// Best/worst ties resolve to the fund first seen in ledger order.
func (s *PortfolioService) Summarize(ctx context.Context, userID string) (*PortfolioSummary, error) {
	if s.cache != nil {
		var cached PortfolioSummary
		hit, err := s.cache.Get(ctx, s.cache.SummaryKey(userID), &cached)
		if err != nil {
			s.logger.WithError(err).Warn("summary cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	investments, err := s.investmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}

	summary := &PortfolioSummary{}
	if len(investments) == 0 {
		return summary, nil
	}

	today := types.DateOnly(s.now())
	histories := make(map[string]*NAVHistory)

	// Per-fund accumulation, keyed by fund id, iterated in first-seen order.
	type fundTotals struct {
		invested float64
		current  float64
		hasNAV   bool
	}
	totals := make(map[string]*fundTotals)
	var fundOrder []string

	for _, inv := range investments {
		history, err := s.fundHistory(ctx, histories, inv.FundID)
		if err != nil {
			return nil, err
		}

		value := InvestmentValue(inv, history, today)
		summary.CurrentValue += value
		summary.InitialInvestment += inv.AmountInvested

		ft, ok := totals[inv.FundID]
		if !ok {
			ft = &fundTotals{}
			totals[inv.FundID] = ft
			fundOrder = append(fundOrder, inv.FundID)
		}
		ft.invested += inv.AmountInvested
		ft.current += value
		if history.Len() > 0 {
			ft.hasNAV = true
		}
	}

	summary.TotalReturn = summary.CurrentValue - summary.InitialInvestment
	if summary.InitialInvestment > 0 {
		summary.ReturnPercentage = summary.TotalReturn / summary.InitialInvestment * 100
	}

	// Rank funds by blended return. Funds with no NAV data at all stay out
	// of the ranking: a missing series means "no price yet", not a loss.
	first := true
	for _, fundID := range fundOrder {
		ft := totals[fundID]
		if !ft.hasNAV || ft.invested <= 0 {
			continue
		}

		fundReturn := (ft.current - ft.invested) / ft.invested * 100
		name := s.fundName(ctx, fundID)

		if first {
			summary.BestPerformingFund = name
			summary.BestPerformingReturn = fundReturn
			summary.WorstPerformingFund = name
			summary.WorstPerformingReturn = fundReturn
			first = false
			continue
		}

		if fundReturn > summary.BestPerformingReturn {
			summary.BestPerformingFund = name
			summary.BestPerformingReturn = fundReturn
		}
		if fundReturn < summary.WorstPerformingReturn {
			summary.WorstPerformingFund = name
			summary.WorstPerformingReturn = fundReturn
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.SummaryKey(userID), summary); err != nil {
			s.logger.WithError(err).Warn("summary cache write failed")
		}
	}

	return summary, nil
}

// BuildSeries computes the daily portfolio value curve over the window the
// timeframe token resolves to. Days with zero portfolio value are omitted,
// so the sequence may contain gaps.
func (s *PortfolioService) BuildSeries(ctx context.Context, userID string, timeframe types.Timeframe) ([]SeriesPoint, error) {
	investments, err := s.investmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}

	series := []SeriesPoint{}
	if len(investments) == 0 {
		return series, nil
	}

	endDate := types.DateOnly(s.now())
	startDate := types.DateOnly(timeframe.WindowStart(endDate))

	// One history load and one monotonic cursor per fund; the day loop
	// never re-scans a fund's series.
	histories := make(map[string]*NAVHistory)
	cursors := make(map[string]*Cursor)
	for _, inv := range investments {
		if _, ok := cursors[inv.FundID]; ok {
			continue
		}
		history, err := s.fundHistory(ctx, histories, inv.FundID)
		if err != nil {
			return nil, err
		}
		cursors[inv.FundID] = history.Cursor()
	}

	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		navs := make(map[string]float64, len(cursors))
		for fundID, cursor := range cursors {
			if nav, ok := cursor.Advance(day); ok {
				navs[fundID] = nav
			}
		}

		var portfolioValue float64
		for _, inv := range investments {
			if types.DateOnly(inv.InvestmentDate).After(day) {
				continue
			}
			if nav, ok := navs[inv.FundID]; ok {
				portfolioValue += inv.Units * nav
			}
		}

		if portfolioValue > 0 {
			series = append(series, SeriesPoint{
				Date:  day.Format("2006-01-02"),
				Value: portfolioValue,
			})
		}
	}

	return series, nil
}

// Composition computes the weighted sector, stock and market-cap breakdowns
// of a user's portfolio. Each investment contributes its current value,
// split across its fund's allocation facts; a fund lacking facts for a
// partition contributes nothing to that partition.
func (s *PortfolioService) Composition(ctx context.Context, userID string) (*PortfolioComposition, error) {
	if s.cache != nil {
		var cached PortfolioComposition
		hit, err := s.cache.Get(ctx, s.cache.CompositionKey(userID), &cached)
		if err != nil {
			s.logger.WithError(err).Warn("composition cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	investments, err := s.investmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}

	composition := &PortfolioComposition{
		SectorAllocations: []CompositionEntry{},
		StockAllocations:  []CompositionEntry{},
		CapAllocations:    []CompositionEntry{},
	}
	if len(investments) == 0 {
		return composition, nil
	}

	today := types.DateOnly(s.now())
	histories := make(map[string]*NAVHistory)

	// Step 1: current value per investment and the portfolio total.
	values := make([]float64, len(investments))
	var portfolioValue float64
	for i, inv := range investments {
		history, err := s.fundHistory(ctx, histories, inv.FundID)
		if err != nil {
			return nil, err
		}
		values[i] = InvestmentValue(inv, history, today)
		portfolioValue += values[i]
	}

	// Step 2: weighted accumulation into the three partitions.
	facts := make(map[string]*fundFacts)
	sectors := newAccumulator()
	stocks := newAccumulator()
	caps := newAccumulator()

	for i, inv := range investments {
		if values[i] == 0 {
			continue
		}

		ff, err := s.fundAllocationFacts(ctx, facts, inv.FundID)
		if err != nil {
			return nil, err
		}

		for _, a := range ff.sectors {
			sectors.add(a.Sector, values[i]*a.Percentage/100)
		}
		for _, h := range ff.stocks {
			stocks.add(h.StockName, values[i]*h.Percentage/100)
		}
		for _, a := range ff.caps {
			caps.add(a.CapType, values[i]*a.Percentage/100)
		}
	}

	// Steps 3 and 4: percentages of portfolio value, sorted descending with
	// accumulation order as the stable tie-break.
	composition.SectorAllocations = sectors.entries(portfolioValue)
	composition.StockAllocations = stocks.entries(portfolioValue)
	composition.CapAllocations = caps.entries(portfolioValue)

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.CompositionKey(userID), composition); err != nil {
			s.logger.WithError(err).Warn("composition cache write failed")
		}
	}

	return composition, nil
}

// Overlap compares fund holding sets. With a second fund id it returns the
// single pairwise result; without one it broadcasts against every other
// fund in the reference store. The percentage is asymmetric: the
// denominator is always the first fund's holding count.
func (s *PortfolioService) Overlap(ctx context.Context, fundID, fundID2 string) ([]FundOverlap, error) {
	fund1Stocks, fund1Order, err := s.holdingSet(ctx, fundID)
	if err != nil {
		return nil, err
	}
	fund1Name := s.fundName(ctx, fundID)

	var results []FundOverlap

	if fundID2 != "" {
		fund2Stocks, _, err := s.holdingSet(ctx, fundID2)
		if err != nil {
			return nil, err
		}

		results = append(results, overlapResult(fund1Name, s.fundName(ctx, fundID2), fund1Stocks, fund1Order, fund2Stocks))
	} else {
		others, err := s.fundRepo.ListExcept(ctx, fundID)
		if err != nil {
			return nil, fmt.Errorf("failed to list funds: %w", err)
		}

		for _, other := range others {
			otherStocks, _, err := s.holdingSet(ctx, other.ID)
			if err != nil {
				return nil, err
			}
			results = append(results, overlapResult(fund1Name, other.Name, fund1Stocks, fund1Order, otherStocks))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OverlapPercentage > results[j].OverlapPercentage
	})

	return results, nil
}

// fundHistory loads a fund's NAV history once per request
func (s *PortfolioService) fundHistory(ctx context.Context, cache map[string]*NAVHistory, fundID string) (*NAVHistory, error) {
	if history, ok := cache[fundID]; ok {
		return history, nil
	}

	observations, err := s.navRepo.History(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load nav history for fund %s: %w", fundID, err)
	}

	history := NewNAVHistory(observations)
	cache[fundID] = history
	return history, nil
}

// fundFacts bundles the three allocation partitions of one fund
type fundFacts struct {
	sectors []*models.SectorAllocation
	stocks  []*models.StockHolding
	caps    []*models.CapAllocation
}

// fundAllocationFacts loads a fund's allocation facts once per request
func (s *PortfolioService) fundAllocationFacts(ctx context.Context, cache map[string]*fundFacts, fundID string) (*fundFacts, error) {
	if ff, ok := cache[fundID]; ok {
		return ff, nil
	}

	sectors, err := s.fundRepo.SectorAllocations(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sector allocations for fund %s: %w", fundID, err)
	}
	stocks, err := s.fundRepo.StockHoldings(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock holdings for fund %s: %w", fundID, err)
	}
	caps, err := s.fundRepo.CapAllocations(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cap allocations for fund %s: %w", fundID, err)
	}

	ff := &fundFacts{sectors: sectors, stocks: stocks, caps: caps}
	cache[fundID] = ff
	return ff, nil
}

// fundName resolves a fund id to its display name, falling back to a
// placeholder for unknown ids.
func (s *PortfolioService) fundName(ctx context.Context, fundID string) string {
	fund, err := s.fundRepo.GetByID(ctx, fundID)
	if err != nil {
		return unknownFundName
	}
	return fund.Name
}

// holdingSet reduces a fund's stock holdings to a presence set, keeping the
// stored order for deterministic common-stock listings.
func (s *PortfolioService) holdingSet(ctx context.Context, fundID string) (map[string]struct{}, []string, error) {
	holdings, err := s.fundRepo.StockHoldings(ctx, fundID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load holdings for fund %s: %w", fundID, err)
	}

	set := make(map[string]struct{}, len(holdings))
	var order []string
	for _, h := range holdings {
		if _, seen := set[h.StockName]; seen {
			continue
		}
		set[h.StockName] = struct{}{}
		order = append(order, h.StockName)
	}

	return set, order, nil
}

// overlapResult computes one asymmetric pairwise overlap
func overlapResult(fund1Name, fund2Name string, fund1Stocks map[string]struct{}, fund1Order []string, fund2Stocks map[string]struct{}) FundOverlap {
	common := []string{}
	for _, stock := range fund1Order {
		if _, ok := fund2Stocks[stock]; ok {
			common = append(common, stock)
		}
	}

	var percentage float64
	if len(fund1Stocks) > 0 {
		percentage = float64(len(common)) / float64(len(fund1Stocks)) * 100
	}

	return FundOverlap{
		Fund1Name:         fund1Name,
		Fund2Name:         fund2Name,
		OverlapPercentage: percentage,
		CommonStocks:      common,
	}
}

// accumulator aggregates weighted amounts per category while remembering
// first-seen order for the stable sort tie-break.
type accumulator struct {
	amounts map[string]float64
	order   []string
}

func newAccumulator() *accumulator {
	return &accumulator{amounts: make(map[string]float64)}
}

func (a *accumulator) add(category string, amount float64) {
	if _, ok := a.amounts[category]; !ok {
		a.order = append(a.order, category)
	}
	a.amounts[category] += amount
}

// entries converts accumulated amounts into percentage entries of the given
// total, sorted by percentage descending with insertion order preserved on
// ties. A zero total yields zero percentages.
func (a *accumulator) entries(total float64) []CompositionEntry {
	entries := make([]CompositionEntry, 0, len(a.order))
	for _, category := range a.order {
		amount := a.amounts[category]
		var percentage float64
		if total > 0 {
			percentage = amount / total * 100
		}
		entries = append(entries, CompositionEntry{
			Category:   category,
			Amount:     amount,
			Percentage: percentage,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Percentage > entries[j].Percentage
	})

	return entries
}
