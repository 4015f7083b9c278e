package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fund-tracker/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FundRepository handles mutual fund reference data persistence, including
// the three allocation-fact partitions.
type FundRepository struct {
	db *PostgresDB
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *PostgresDB) *FundRepository {
	return &FundRepository{db: db}
}

// Create creates a new mutual fund
func (r *FundRepository) Create(ctx context.Context, fund *models.MutualFund) error {
	if fund.ID == "" {
		fund.ID = uuid.New().String()
	}
	fund.CreatedAt = time.Now()

	query := `
		INSERT INTO mutual_funds (id, name, isin, fund_type, fund_category, fund_house, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		fund.ID,
		fund.Name,
		fund.ISIN,
		fund.FundType,
		fund.FundCategory,
		fund.FundHouse,
		fund.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create fund: %w", err)
	}

	return nil
}

// GetByID retrieves a mutual fund by ID
func (r *FundRepository) GetByID(ctx context.Context, id string) (*models.MutualFund, error) {
	query := `
		SELECT id, name, isin, fund_type, fund_category, fund_house, created_at
		FROM mutual_funds
		WHERE id = $1
	`

	var fund models.MutualFund
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&fund.ID,
		&fund.Name,
		&fund.ISIN,
		&fund.FundType,
		&fund.FundCategory,
		&fund.FundHouse,
		&fund.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}

	return &fund, nil
}

// GetByISIN retrieves a mutual fund by its ISIN code
func (r *FundRepository) GetByISIN(ctx context.Context, isin string) (*models.MutualFund, error) {
	query := `
		SELECT id, name, isin, fund_type, fund_category, fund_house, created_at
		FROM mutual_funds
		WHERE isin = $1
	`

	var fund models.MutualFund
	err := r.db.Pool().QueryRow(ctx, query, isin).Scan(
		&fund.ID,
		&fund.Name,
		&fund.ISIN,
		&fund.FundType,
		&fund.FundCategory,
		&fund.FundHouse,
		&fund.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get fund by isin: %w", err)
	}

	return &fund, nil
}

// List retrieves mutual funds with pagination, ordered by name
func (r *FundRepository) List(ctx context.Context, limit, offset int) ([]*models.MutualFund, error) {
	query := `
		SELECT id, name, isin, fund_type, fund_category, fund_house, created_at
		FROM mutual_funds
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool().Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	defer rows.Close()

	var funds []*models.MutualFund
	for rows.Next() {
		var fund models.MutualFund
		err := rows.Scan(
			&fund.ID,
			&fund.Name,
			&fund.ISIN,
			&fund.FundType,
			&fund.FundCategory,
			&fund.FundHouse,
			&fund.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		funds = append(funds, &fund)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funds: %w", err)
	}

	return funds, nil
}

// ListExcept retrieves every fund except the given ID, ordered by name.
// Used by the overlap analyzer in broadcast mode.
func (r *FundRepository) ListExcept(ctx context.Context, excludeID string) ([]*models.MutualFund, error) {
	query := `
		SELECT id, name, isin, fund_type, fund_category, fund_house, created_at
		FROM mutual_funds
		WHERE id != $1
		ORDER BY name ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	defer rows.Close()

	var funds []*models.MutualFund
	for rows.Next() {
		var fund models.MutualFund
		err := rows.Scan(
			&fund.ID,
			&fund.Name,
			&fund.ISIN,
			&fund.FundType,
			&fund.FundCategory,
			&fund.FundHouse,
			&fund.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		funds = append(funds, &fund)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funds: %w", err)
	}

	return funds, nil
}

// Exists checks if a fund exists by ID
func (r *FundRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM mutual_funds WHERE id = $1)`

	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check fund existence: %w", err)
	}

	return exists, nil
}

// SectorAllocations retrieves the sector partition for a fund
func (r *FundRepository) SectorAllocations(ctx context.Context, fundID string) ([]*models.SectorAllocation, error) {
	query := `
		SELECT id, fund_id, sector, percentage
		FROM fund_sector_allocations
		WHERE fund_id = $1
		ORDER BY percentage DESC, id ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sector allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*models.SectorAllocation
	for rows.Next() {
		var a models.SectorAllocation
		if err := rows.Scan(&a.ID, &a.FundID, &a.Sector, &a.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan sector allocation: %w", err)
		}
		allocations = append(allocations, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sector allocations: %w", err)
	}

	return allocations, nil
}

// StockHoldings retrieves the stock partition for a fund
func (r *FundRepository) StockHoldings(ctx context.Context, fundID string) ([]*models.StockHolding, error) {
	query := `
		SELECT id, fund_id, stock_name, percentage
		FROM fund_stock_holdings
		WHERE fund_id = $1
		ORDER BY percentage DESC, id ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.StockHolding
	for rows.Next() {
		var h models.StockHolding
		if err := rows.Scan(&h.ID, &h.FundID, &h.StockName, &h.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan stock holding: %w", err)
		}
		holdings = append(holdings, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock holdings: %w", err)
	}

	return holdings, nil
}

// CapAllocations retrieves the market-cap partition for a fund
func (r *FundRepository) CapAllocations(ctx context.Context, fundID string) ([]*models.CapAllocation, error) {
	query := `
		SELECT id, fund_id, cap_type, percentage
		FROM fund_cap_allocations
		WHERE fund_id = $1
		ORDER BY percentage DESC, id ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cap allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*models.CapAllocation
	for rows.Next() {
		var a models.CapAllocation
		if err := rows.Scan(&a.ID, &a.FundID, &a.CapType, &a.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan cap allocation: %w", err)
		}
		allocations = append(allocations, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cap allocations: %w", err)
	}

	return allocations, nil
}

// AddSectorAllocation appends one sector fact for a fund
func (r *FundRepository) AddSectorAllocation(ctx context.Context, a *models.SectorAllocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO fund_sector_allocations (id, fund_id, sector, percentage)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Pool().Exec(ctx, query, a.ID, a.FundID, a.Sector, a.Percentage); err != nil {
		return fmt.Errorf("failed to add sector allocation: %w", err)
	}

	return nil
}

// AddStockHolding appends one stock fact for a fund
func (r *FundRepository) AddStockHolding(ctx context.Context, h *models.StockHolding) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}

	query := `
		INSERT INTO fund_stock_holdings (id, fund_id, stock_name, percentage)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Pool().Exec(ctx, query, h.ID, h.FundID, h.StockName, h.Percentage); err != nil {
		return fmt.Errorf("failed to add stock holding: %w", err)
	}

	return nil
}

// AddCapAllocation appends one market-cap fact for a fund
func (r *FundRepository) AddCapAllocation(ctx context.Context, a *models.CapAllocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO fund_cap_allocations (id, fund_id, cap_type, percentage)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Pool().Exec(ctx, query, a.ID, a.FundID, a.CapType, a.Percentage); err != nil {
		return fmt.Errorf("failed to add cap allocation: %w", err)
	}

	return nil
}
