package types

import "time"

// User represents a tracked participant record.
// Points are only ever mutated through the atomic increment operation.
type User struct {
	// ID is the unique identifier of the user, assigned by the store.
	ID int `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Age is the user's age in years.
	Age int `json:"age" db:"age"`

	// Points is the user's current score. It is always 0 at creation,
	// regardless of what the creation request supplied.
	Points int `json:"points" db:"points"`

	// Address is the user's postal address. It is the payload encoded
	// into the user's QR artifact.
	Address string `json:"address" db:"address"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
