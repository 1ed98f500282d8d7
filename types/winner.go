package types

import "time"

// Winner records a winner-selection event. Winner rows are insert-only;
// a user may appear more than once.
type Winner struct {
	ID int `json:"id" db:"id"`

	// UserID references the winning user's ID at selection time.
	UserID int `json:"user_id" db:"user_id"`

	// Points is the winning score at the moment of selection.
	Points int `json:"points" db:"points"`

	// SelectedAt is the moment the selection was recorded.
	SelectedAt time.Time `json:"selected_at" db:"selected_at"`
}
