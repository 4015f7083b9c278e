package service

import (
	"context"

	"github.com/fund-tracker/internal/models"
)

// Repository interfaces for dependency injection and testing

// InvestmentRepository defines the investment ledger operations the
// services consume
type InvestmentRepository interface {
	Create(ctx context.Context, inv *models.Investment) error
	GetByID(ctx context.Context, id string) (*models.Investment, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Investment, error)
	Update(ctx context.Context, inv *models.Investment) error
	Delete(ctx context.Context, id string) error
}

// FundRepository defines the fund reference data operations the services
// consume
type FundRepository interface {
	Create(ctx context.Context, fund *models.MutualFund) error
	GetByID(ctx context.Context, id string) (*models.MutualFund, error)
	GetByISIN(ctx context.Context, isin string) (*models.MutualFund, error)
	List(ctx context.Context, limit, offset int) ([]*models.MutualFund, error)
	ListExcept(ctx context.Context, excludeID string) ([]*models.MutualFund, error)
	Exists(ctx context.Context, id string) (bool, error)
	SectorAllocations(ctx context.Context, fundID string) ([]*models.SectorAllocation, error)
	StockHoldings(ctx context.Context, fundID string) ([]*models.StockHolding, error)
	CapAllocations(ctx context.Context, fundID string) ([]*models.CapAllocation, error)
	AddSectorAllocation(ctx context.Context, a *models.SectorAllocation) error
	AddStockHolding(ctx context.Context, h *models.StockHolding) error
	AddCapAllocation(ctx context.Context, a *models.CapAllocation) error
}

// NAVRepository defines the NAV series operations the services consume
type NAVRepository interface {
	Insert(ctx context.Context, obs *models.NAVObservation) error
	InsertBatch(ctx context.Context, observations []*models.NAVObservation) error
	History(ctx context.Context, fundID string) ([]*models.NAVObservation, error)
	Latest(ctx context.Context, fundID string) (*models.NAVObservation, error)
}

// UserRepository defines the user store operations the services consume
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// AnalyticsCache defines the derived-view cache the services consume. A nil
// implementation is valid; services treat cache errors as misses.
type AnalyticsCache interface {
	SummaryKey(userID string) string
	CompositionKey(userID string) string
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	InvalidateUser(ctx context.Context, userID string) error
}
