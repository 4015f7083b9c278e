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

// FundService manages mutual fund reference data: the fund catalog, per-fund
// NAV series and the three allocation partitions.
type FundService struct {
	fundRepo FundRepository
	navRepo  NAVRepository
	logger   *logging.Logger
}

// NewFundService creates a new fund service
func NewFundService(fundRepo FundRepository, navRepo NAVRepository) *FundService {
	return &FundService{
		fundRepo: fundRepo,
		navRepo:  navRepo,
		logger:   logging.GetGlobalLogger(),
	}
}

// CreateFundInput holds the caller-supplied fields of a new fund
type CreateFundInput struct {
	Name         string
	ISIN         string
	FundType     string
	FundCategory string
	FundHouse    string
}

// AllocationInput is one allocation fact for a fund partition
type AllocationInput struct {
	Category   string
	Percentage float64
}

// List returns a page of the fund catalog ordered by name
func (s *FundService) List(ctx context.Context, limit, offset int) ([]*models.MutualFund, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.fundRepo.List(ctx, limit, offset)
}

// Get returns a single fund by id
func (s *FundService) Get(ctx context.Context, fundID string) (*models.MutualFund, error) {
	fund, err := s.fundRepo.GetByID(ctx, fundID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return nil, s.notFound(fundID)
		}
		return nil, err
	}
	return fund, nil
}

// Create registers a new fund in the catalog. ISIN is unique across funds.
func (s *FundService) Create(ctx context.Context, input *CreateFundInput) (*models.MutualFund, error) {
	if input.Name == "" {
		return nil, &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "fund name is required",
		}
	}
	if input.ISIN == "" {
		return nil, &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "isin is required",
		}
	}

	if _, err := s.fundRepo.GetByISIN(ctx, input.ISIN); err == nil {
		return nil, &types.ServiceError{
			Code:    types.ErrConflict,
			Message: "fund with this isin already exists",
			Details: map[string]interface{}{"isin": input.ISIN},
		}
	} else if !errors.Is(err, storage.ErrNoRows) {
		return nil, err
	}

	fund := &models.MutualFund{
		ID:           uuid.New().String(),
		Name:         input.Name,
		ISIN:         input.ISIN,
		FundType:     input.FundType,
		FundCategory: input.FundCategory,
		FundHouse:    input.FundHouse,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.fundRepo.Create(ctx, fund); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"fund_id": fund.ID,
		"isin":    fund.ISIN,
	}).Info("fund created")

	return fund, nil
}

// NAVHistory returns a fund's deduplicated NAV series, oldest first
func (s *FundService) NAVHistory(ctx context.Context, fundID string) ([]*models.NAVObservation, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	history, err := s.navRepo.History(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*models.NAVObservation{}
	}
	return history, nil
}

// LatestNAV returns a fund's most recent NAV observation
func (s *FundService) LatestNAV(ctx context.Context, fundID string) (*models.NAVObservation, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	obs, err := s.navRepo.Latest(ctx, fundID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    types.ErrNotFound,
				Message: "fund has no recorded nav",
				Details: map[string]interface{}{"fundId": fundID},
			}
		}
		return nil, err
	}
	return obs, nil
}

// RecordNAV appends a NAV observation for a fund. Re-recording the same date
// supersedes the earlier value.
func (s *FundService) RecordNAV(ctx context.Context, fundID string, date time.Time, nav float64) (*models.NAVObservation, error) {
	if nav <= 0 {
		return nil, &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "nav must be positive",
		}
	}
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}

	obs := &models.NAVObservation{
		FundID:     fundID,
		Date:       types.DateOnly(date),
		NAV:        nav,
		InsertedAt: time.Now().UTC(),
	}

	if err := s.navRepo.Insert(ctx, obs); err != nil {
		return nil, err
	}

	return obs, nil
}

// SectorAllocations returns a fund's sector partition, largest first
func (s *FundService) SectorAllocations(ctx context.Context, fundID string) ([]*models.SectorAllocation, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	allocations, err := s.fundRepo.SectorAllocations(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if allocations == nil {
		allocations = []*models.SectorAllocation{}
	}
	return allocations, nil
}

// StockHoldings returns a fund's stock partition, largest first
func (s *FundService) StockHoldings(ctx context.Context, fundID string) ([]*models.StockHolding, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	holdings, err := s.fundRepo.StockHoldings(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []*models.StockHolding{}
	}
	return holdings, nil
}

// CapAllocations returns a fund's market-cap partition, largest first
func (s *FundService) CapAllocations(ctx context.Context, fundID string) ([]*models.CapAllocation, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	allocations, err := s.fundRepo.CapAllocations(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if allocations == nil {
		allocations = []*models.CapAllocation{}
	}
	return allocations, nil
}

// AddAllocation records one allocation fact in the named partition
func (s *FundService) AddAllocation(ctx context.Context, fundID string, kind types.AllocationKind, input *AllocationInput) error {
	if input.Category == "" {
		return &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "allocation category is required",
		}
	}
	if input.Percentage <= 0 || input.Percentage > 100 {
		return &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "allocation percentage must be in (0, 100]",
		}
	}
	if err := s.requireFund(ctx, fundID); err != nil {
		return err
	}

	switch kind {
	case types.AllocationSector:
		return s.fundRepo.AddSectorAllocation(ctx, &models.SectorAllocation{
			ID:         uuid.New().String(),
			FundID:     fundID,
			Sector:     input.Category,
			Percentage: input.Percentage,
		})
	case types.AllocationStock:
		return s.fundRepo.AddStockHolding(ctx, &models.StockHolding{
			ID:         uuid.New().String(),
			FundID:     fundID,
			StockName:  input.Category,
			Percentage: input.Percentage,
		})
	case types.AllocationCap:
		return s.fundRepo.AddCapAllocation(ctx, &models.CapAllocation{
			ID:         uuid.New().String(),
			FundID:     fundID,
			CapType:    input.Category,
			Percentage: input.Percentage,
		})
	default:
		return &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "unknown allocation kind",
			Details: map[string]interface{}{"kind": string(kind)},
		}
	}
}

func (s *FundService) requireFund(ctx context.Context, fundID string) error {
	exists, err := s.fundRepo.Exists(ctx, fundID)
	if err != nil {
		return err
	}
	if !exists {
		return s.notFound(fundID)
	}
	return nil
}

func (s *FundService) notFound(fundID string) error {
	return &types.ServiceError{
		Code:    types.ErrNotFound,
		Message: "fund not found",
		Details: map[string]interface{}{"fundId": fundID},
	}
}
