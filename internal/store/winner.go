package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pointsboard/apiserver/types"
)

// WinnerRepository handles persistence for winner records.
type WinnerRepository struct {
	db *sql.DB
}

func NewWinnerRepository(db *sql.DB) *WinnerRepository {
	return &WinnerRepository{db: db}
}

func (r *WinnerRepository) Create(ctx context.Context, winner types.Winner) (types.Winner, error) {
	if winner.SelectedAt.IsZero() {
		winner.SelectedAt = time.Now()
	}

	const query = `
		INSERT INTO winners (user_id, points, selected_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		winner.UserID,
		winner.Points,
		winner.SelectedAt,
	).Scan(&winner.ID); err != nil {
		return types.Winner{}, err
	}
	return winner, nil
}

func (r *WinnerRepository) List(ctx context.Context) ([]types.Winner, error) {
	const query = `
		SELECT id, user_id, points, selected_at
		FROM winners
		ORDER BY selected_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	winners := make([]types.Winner, 0)
	for rows.Next() {
		var winner types.Winner
		if err := rows.Scan(&winner.ID, &winner.UserID, &winner.Points, &winner.SelectedAt); err != nil {
			return nil, err
		}
		winners = append(winners, winner)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return winners, nil
}
