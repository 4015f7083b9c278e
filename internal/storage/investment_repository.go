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

// InvestmentRepository handles investment ledger persistence
type InvestmentRepository struct {
	db *PostgresDB
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *PostgresDB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

// Create creates a new investment record
func (r *InvestmentRepository) Create(ctx context.Context, inv *models.Investment) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.CreatedAt = time.Now()

	query := `
		INSERT INTO investments (id, user_id, fund_id, investment_date, amount_invested, nav_at_investment, units, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		inv.ID,
		inv.UserID,
		inv.FundID,
		inv.InvestmentDate,
		inv.AmountInvested,
		inv.NAVAtInvestment,
		inv.Units,
		inv.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}

	return nil
}

// GetByID retrieves an investment by ID
func (r *InvestmentRepository) GetByID(ctx context.Context, id string) (*models.Investment, error) {
	query := `
		SELECT id, user_id, fund_id, investment_date, amount_invested, nav_at_investment, units, created_at
		FROM investments
		WHERE id = $1
	`

	var inv models.Investment
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&inv.ID,
		&inv.UserID,
		&inv.FundID,
		&inv.InvestmentDate,
		&inv.AmountInvested,
		&inv.NAVAtInvestment,
		&inv.Units,
		&inv.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}

	return &inv, nil
}

// ListByUser retrieves all investments for a user, oldest first. The stable
// creation order is what the analytics engine uses as its first-seen
// tie-break.
func (r *InvestmentRepository) ListByUser(ctx context.Context, userID string) ([]*models.Investment, error) {
	query := `
		SELECT id, user_id, fund_id, investment_date, amount_invested, nav_at_investment, units, created_at
		FROM investments
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []*models.Investment
	for rows.Next() {
		var inv models.Investment
		err := rows.Scan(
			&inv.ID,
			&inv.UserID,
			&inv.FundID,
			&inv.InvestmentDate,
			&inv.AmountInvested,
			&inv.NAVAtInvestment,
			&inv.Units,
			&inv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investments: %w", err)
	}

	return investments, nil
}

// Update rewrites the mutable fields of an investment record
func (r *InvestmentRepository) Update(ctx context.Context, inv *models.Investment) error {
	query := `
		UPDATE investments
		SET investment_date = $2, amount_invested = $3, nav_at_investment = $4, units = $5
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		inv.ID,
		inv.InvestmentDate,
		inv.AmountInvested,
		inv.NAVAtInvestment,
		inv.Units,
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoRows
	}

	return nil
}

// Delete deletes an investment by ID
func (r *InvestmentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM investments WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoRows
	}

	return nil
}
