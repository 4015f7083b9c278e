package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/types"
)

// NAVRepository handles the append-only NAV observation series in ClickHouse.
// Duplicate (fund, date) rows are collapsed at read time to the most
// recently inserted observation.
type NAVRepository struct {
	db *ClickHouseDB
}

// NewNAVRepository creates a new NAV repository
func NewNAVRepository(db *ClickHouseDB) *NAVRepository {
	return &NAVRepository{db: db}
}

// Insert appends a single NAV observation
func (r *NAVRepository) Insert(ctx context.Context, obs *models.NAVObservation) error {
	query := `
		INSERT INTO nav_observations (fund_id, date, nav, inserted_at)
		VALUES (?, ?, ?, ?)
	`

	insertedAt := obs.InsertedAt
	if insertedAt.IsZero() {
		insertedAt = time.Now()
	}

	err := r.db.Exec(ctx, query,
		obs.FundID,
		types.DateOnly(obs.Date),
		obs.NAV,
		insertedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert nav observation: %w", err)
	}

	return nil
}

// InsertBatch appends NAV observations in bulk, used by the seeder and
// reference data ingest.
func (r *NAVRepository) InsertBatch(ctx context.Context, observations []*models.NAVObservation) error {
	if len(observations) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO nav_observations (fund_id, date, nav, inserted_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare nav batch: %w", err)
	}

	now := time.Now()
	for _, obs := range observations {
		insertedAt := obs.InsertedAt
		if insertedAt.IsZero() {
			insertedAt = now
		}

		if err := batch.Append(obs.FundID, types.DateOnly(obs.Date), obs.NAV, insertedAt); err != nil {
			return fmt.Errorf("failed to append nav observation: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send nav batch: %w", err)
	}

	return nil
}

// History retrieves the full NAV series for a fund, ordered by date
// ascending, one authoritative observation per date.
func (r *NAVRepository) History(ctx context.Context, fundID string) ([]*models.NAVObservation, error) {
	query := `
		SELECT
			fund_id,
			date,
			argMax(nav, inserted_at) AS nav,
			max(inserted_at) AS inserted_at
		FROM nav_observations
		WHERE fund_id = ?
		GROUP BY fund_id, date
		ORDER BY date ASC
	`

	rows, err := r.db.Conn().Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nav history: %w", err)
	}
	defer rows.Close()

	var history []*models.NAVObservation
	for rows.Next() {
		var obs models.NAVObservation
		if err := rows.Scan(&obs.FundID, &obs.Date, &obs.NAV, &obs.InsertedAt); err != nil {
			return nil, fmt.Errorf("failed to scan nav observation: %w", err)
		}
		history = append(history, &obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nav history: %w", err)
	}

	return history, nil
}

// Latest retrieves the most recent NAV observation for a fund, or ErrNoRows
// when the fund has no recorded NAV yet.
func (r *NAVRepository) Latest(ctx context.Context, fundID string) (*models.NAVObservation, error) {
	query := `
		SELECT
			fund_id,
			date,
			argMax(nav, inserted_at) AS nav,
			max(inserted_at) AS inserted_at
		FROM nav_observations
		WHERE fund_id = ?
		GROUP BY fund_id, date
		ORDER BY date DESC
		LIMIT 1
	`

	var obs models.NAVObservation
	row := r.db.Conn().QueryRow(ctx, query, fundID)
	if err := row.Scan(&obs.FundID, &obs.Date, &obs.NAV, &obs.InsertedAt); err != nil {
		return nil, ErrNoRows
	}

	return &obs, nil
}
