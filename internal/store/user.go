package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pointsboard/apiserver/types"
)

// ListOptions narrows and orders a user listing.
type ListOptions struct {
	// Search filters users to names containing the substring,
	// case-insensitively and literally. Empty means no filter.
	Search string

	// SortBy names the column to order by. Empty defaults to points.
	SortBy string

	// Ascending flips the default descending order.
	Ascending bool
}

// Columns users may be sorted by. Sort fields are interpolated into SQL,
// so anything outside this set is rejected.
var sortableColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"age":        "age",
	"points":     "points",
	"address":    "address",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// searchEscaper neutralizes the ILIKE pattern characters, so a search
// substring matches literally. Backslash is Postgres' default LIKE escape.
var searchEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeSearch(s string) string {
	return searchEscaper.Replace(s)
}

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, opts ListOptions) ([]types.User, error) {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "points"
	}
	column, ok := sortableColumns[sortBy]
	if !ok {
		return nil, ErrInvalidSortField
	}
	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, name, age, points, address, created_at, updated_at
		FROM users
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s, id`, column, direction)

	rows, err := r.db.QueryContext(ctx, query, escapeSearch(opts.Search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Age,
			&user.Points,
			&user.Address,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT id, name, age, points, address, created_at, updated_at
		FROM users
		WHERE id = $1`
	var user types.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Age,
		&user.Points,
		&user.Address,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts a user. Points always start at 0; any value on the
// passed struct is ignored.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.Points = 0
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (name, age, points, address, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Age,
		user.Address,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// AdjustPoints applies a signed delta to a user's points as a single
// atomic update and returns the new value.
func (r *UserRepository) AdjustPoints(ctx context.Context, id, delta int) (int, error) {
	const query = `
		UPDATE users
		SET points = points + $1,
			updated_at = $2
		WHERE id = $3
		RETURNING points`
	var points int
	err := r.db.QueryRowContext(ctx, query, delta, time.Now(), id).Scan(&points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return points, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetAllPoints sets every user's points back to 0.
func (r *UserRepository) ResetAllPoints(ctx context.Context) (int64, error) {
	const query = `UPDATE users SET points = 0, updated_at = $1`
	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// TopByPoints returns up to limit users ordered by points descending.
// Users with equal points keep insertion order.
func (r *UserRepository) TopByPoints(ctx context.Context, limit int) ([]types.User, error) {
	const query = `
		SELECT id, name, age, points, address, created_at, updated_at
		FROM users
		ORDER BY points DESC, id
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0, limit)
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Age,
			&user.Points,
			&user.Address,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Leaderboard groups all users by points: the names in each bucket in
// insertion order, and the mean age rounded to two decimals. Buckets come
// back ordered by points descending.
func (r *UserRepository) Leaderboard(ctx context.Context) ([]types.LeaderboardGroup, error) {
	const query = `
		SELECT points,
			array_agg(name ORDER BY id) AS names,
			ROUND(AVG(age)::numeric, 2) AS average_age
		FROM users
		GROUP BY points
		ORDER BY points DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]types.LeaderboardGroup, 0)
	for rows.Next() {
		var group types.LeaderboardGroup
		if err := rows.Scan(&group.Points, pq.Array(&group.Names), &group.AverageAge); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
