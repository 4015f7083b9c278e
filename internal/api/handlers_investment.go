package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/service"
)

// investmentRequest is the wire shape of investment create and update bodies
type investmentRequest struct {
	FundID          string  `json:"fundId,omitempty"`
	InvestmentDate  string  `json:"investmentDate"`
	AmountInvested  float64 `json:"amountInvested"`
	NAVAtInvestment float64 `json:"navAtInvestment"`
}

// parseISODate parses a YYYY-MM-DD date string
func parseISODate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// handleCreateInvestment handles POST /api/investments
func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req investmentRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	date, err := parseISODate(req.InvestmentDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "investmentDate must be YYYY-MM-DD", nil)
		return
	}

	inv, err := s.investmentService.Create(r.Context(), userID, &service.CreateInvestmentInput{
		FundID:          req.FundID,
		InvestmentDate:  date,
		AmountInvested:  req.AmountInvested,
		NAVAtInvestment: req.NAVAtInvestment,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, inv)
}

// handleListInvestments handles GET /api/investments
func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	investments, err := s.investmentService.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if investments == nil {
		investments = []*models.Investment{}
	}

	respondJSON(w, http.StatusOK, investments)
}

// handleGetInvestment handles GET /api/investments/{id}
func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	inv, err := s.investmentService.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inv)
}

// handleUpdateInvestment handles PUT /api/investments/{id}
func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req investmentRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	date, err := parseISODate(req.InvestmentDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "investmentDate must be YYYY-MM-DD", nil)
		return
	}

	inv, err := s.investmentService.Update(r.Context(), userID, mux.Vars(r)["id"], &service.UpdateInvestmentInput{
		InvestmentDate:  date,
		AmountInvested:  req.AmountInvested,
		NAVAtInvestment: req.NAVAtInvestment,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inv)
}

// handleDeleteInvestment handles DELETE /api/investments/{id}
func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := s.investmentService.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
