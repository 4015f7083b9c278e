package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fund-tracker/internal/service"
	"github.com/fund-tracker/internal/types"
)

// handleListFunds handles GET /api/funds
func (s *Server) handleListFunds(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	funds, err := s.fundService.List(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, funds)
}

// handleGetFund handles GET /api/funds/{id}
func (s *Server) handleGetFund(w http.ResponseWriter, r *http.Request) {
	fund, err := s.fundService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, fund)
}

// handleCreateFund handles POST /api/funds
func (s *Server) handleCreateFund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		ISIN         string `json:"isin"`
		FundType     string `json:"fundType"`
		FundCategory string `json:"fundCategory"`
		FundHouse    string `json:"fundHouse"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	fund, err := s.fundService.Create(r.Context(), &service.CreateFundInput{
		Name:         req.Name,
		ISIN:         req.ISIN,
		FundType:     req.FundType,
		FundCategory: req.FundCategory,
		FundHouse:    req.FundHouse,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, fund)
}

// handleGetNAVHistory handles GET /api/funds/{id}/nav
func (s *Server) handleGetNAVHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.fundService.NAVHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// handleGetLatestNAV handles GET /api/funds/{id}/nav/latest
func (s *Server) handleGetLatestNAV(w http.ResponseWriter, r *http.Request) {
	obs, err := s.fundService.LatestNAV(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, obs)
}

// handleRecordNAV handles POST /api/funds/{id}/nav
func (s *Server) handleRecordNAV(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string  `json:"date"`
		NAV  float64 `json:"nav"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	date, err := parseISODate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "date must be YYYY-MM-DD", nil)
		return
	}

	obs, err := s.fundService.RecordNAV(r.Context(), mux.Vars(r)["id"], date, req.NAV)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, obs)
}

// handleGetSectorAllocations handles GET /api/funds/{id}/sectors
func (s *Server) handleGetSectorAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := s.fundService.SectorAllocations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, allocations)
}

// handleGetStockHoldings handles GET /api/funds/{id}/holdings
func (s *Server) handleGetStockHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.fundService.StockHoldings(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, holdings)
}

// handleGetCapAllocations handles GET /api/funds/{id}/cap-allocations
func (s *Server) handleGetCapAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := s.fundService.CapAllocations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, allocations)
}

// handleAddAllocation handles POST /api/funds/{id}/allocations
func (s *Server) handleAddAllocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind       string  `json:"kind"`
		Category   string  `json:"category"`
		Percentage float64 `json:"percentage"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	err := s.fundService.AddAllocation(r.Context(), mux.Vars(r)["id"], types.AllocationKind(req.Kind), &service.AllocationInput{
		Category:   req.Category,
		Percentage: req.Percentage,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}
