package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fund-tracker/internal/logging"
	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/storage"
	"github.com/fund-tracker/internal/types"
)

// InvestmentService manages the user investment ledger. Every write derives
// units from amount and purchase NAV, and drops the owner's cached analytics
// views.
type InvestmentService struct {
	investmentRepo InvestmentRepository
	fundRepo       FundRepository
	cache          AnalyticsCache
	logger         *logging.Logger
}

// NewInvestmentService creates a new investment service
func NewInvestmentService(investmentRepo InvestmentRepository, fundRepo FundRepository, cache AnalyticsCache) *InvestmentService {
	return &InvestmentService{
		investmentRepo: investmentRepo,
		fundRepo:       fundRepo,
		cache:          cache,
		logger:         logging.GetGlobalLogger(),
	}
}

// CreateInvestmentInput holds the caller-supplied fields of a new investment
type CreateInvestmentInput struct {
	FundID          string
	InvestmentDate  time.Time
	AmountInvested  float64
	NAVAtInvestment float64
}

// UpdateInvestmentInput holds the mutable fields of an investment
type UpdateInvestmentInput struct {
	InvestmentDate  time.Time
	AmountInvested  float64
	NAVAtInvestment float64
}

// Create records a new investment lot for a user. Units are derived as
// amount / nav and frozen at creation.
func (s *InvestmentService) Create(ctx context.Context, userID string, input *CreateInvestmentInput) (*models.Investment, error) {
	if err := validateInvestmentAmounts(input.AmountInvested, input.NAVAtInvestment); err != nil {
		return nil, err
	}
	if input.FundID == "" {
		return nil, &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "fund id is required",
		}
	}

	exists, err := s.fundRepo.Exists(ctx, input.FundID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &types.ServiceError{
			Code:    types.ErrNotFound,
			Message: "fund not found",
			Details: map[string]interface{}{"fundId": input.FundID},
		}
	}

	inv := &models.Investment{
		ID:              uuid.New().String(),
		UserID:          userID,
		FundID:          input.FundID,
		InvestmentDate:  types.DateOnly(input.InvestmentDate),
		AmountInvested:  input.AmountInvested,
		NAVAtInvestment: input.NAVAtInvestment,
		Units:           input.AmountInvested / input.NAVAtInvestment,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.investmentRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)

	s.logger.WithFields(map[string]interface{}{
		"investment_id": inv.ID,
		"user_id":       userID,
		"fund_id":       inv.FundID,
	}).Info("investment created")

	return inv, nil
}

// List returns every investment owned by the user, oldest first
func (s *InvestmentService) List(ctx context.Context, userID string) ([]*models.Investment, error) {
	return s.investmentRepo.ListByUser(ctx, userID)
}

// Get returns a single investment, enforcing ownership
func (s *InvestmentService) Get(ctx context.Context, userID, investmentID string) (*models.Investment, error) {
	return s.ownedInvestment(ctx, userID, investmentID)
}

// Update rewrites an investment's date, amount and purchase NAV, re-deriving
// units from the new figures.
func (s *InvestmentService) Update(ctx context.Context, userID, investmentID string, input *UpdateInvestmentInput) (*models.Investment, error) {
	if err := validateInvestmentAmounts(input.AmountInvested, input.NAVAtInvestment); err != nil {
		return nil, err
	}

	inv, err := s.ownedInvestment(ctx, userID, investmentID)
	if err != nil {
		return nil, err
	}

	inv.InvestmentDate = types.DateOnly(input.InvestmentDate)
	inv.AmountInvested = input.AmountInvested
	inv.NAVAtInvestment = input.NAVAtInvestment
	inv.Units = input.AmountInvested / input.NAVAtInvestment

	if err := s.investmentRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)

	return inv, nil
}

// Delete removes an investment, enforcing ownership
func (s *InvestmentService) Delete(ctx context.Context, userID, investmentID string) error {
	if _, err := s.ownedInvestment(ctx, userID, investmentID); err != nil {
		return err
	}

	if err := s.investmentRepo.Delete(ctx, investmentID); err != nil {
		return err
	}

	s.invalidate(ctx, userID)

	s.logger.WithFields(map[string]interface{}{
		"investment_id": investmentID,
		"user_id":       userID,
	}).Info("investment deleted")

	return nil
}

// ownedInvestment loads an investment and verifies the caller owns it
func (s *InvestmentService) ownedInvestment(ctx context.Context, userID, investmentID string) (*models.Investment, error) {
	inv, err := s.investmentRepo.GetByID(ctx, investmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    types.ErrNotFound,
				Message: "investment not found",
				Details: map[string]interface{}{"investmentId": investmentID},
			}
		}
		return nil, err
	}

	if inv.UserID != userID {
		return nil, &types.ServiceError{
			Code:    types.ErrForbidden,
			Message: "investment belongs to another user",
			Details: map[string]interface{}{"investmentId": investmentID},
		}
	}

	return inv, nil
}

// invalidate drops the owner's cached analytics views, logging rather than
// failing the write when the cache is unreachable.
func (s *InvestmentService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("analytics cache invalidation failed")
	}
}

func validateInvestmentAmounts(amount, nav float64) error {
	if amount <= 0 {
		return &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "amount invested must be positive",
		}
	}
	if nav <= 0 {
		return &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "nav at investment must be positive",
		}
	}
	return nil
}
