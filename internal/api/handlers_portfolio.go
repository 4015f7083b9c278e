package api

import (
	"net/http"

	"github.com/fund-tracker/internal/service"
	"github.com/fund-tracker/internal/types"
)

// handlePortfolioSummary handles GET /api/portfolio/summary
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	summary, err := s.portfolioService.Summarize(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handlePortfolioPerformance handles GET /api/portfolio/performance?timeframe=1M
func (s *Server) handlePortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	timeframe := types.Timeframe(r.URL.Query().Get("timeframe"))
	if timeframe == "" {
		timeframe = types.Timeframe1M
	}

	series, err := s.portfolioService.BuildSeries(r.Context(), userID, timeframe)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, series)
}

// handlePortfolioComposition handles GET /api/portfolio/composition
func (s *Server) handlePortfolioComposition(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	composition, err := s.portfolioService.Composition(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, composition)
}

// handleFundOverlap handles GET /api/portfolio/overlap?fund_id1={id}&fund_id2={id}
// fund_id2 is optional; omitting it compares fund_id1 against every other fund.
func (s *Server) handleFundOverlap(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	fund1 := r.URL.Query().Get("fund_id1")
	if fund1 == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "fund_id1 query parameter is required", nil)
		return
	}
	fund2 := r.URL.Query().Get("fund_id2")

	results, err := s.portfolioService.Overlap(r.Context(), fund1, fund2)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if results == nil {
		results = []service.FundOverlap{}
	}

	respondJSON(w, http.StatusOK, results)
}
