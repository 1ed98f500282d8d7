package types

// UserInsertedChannel is the broker channel carrying user insertion events.
const UserInsertedChannel = "users.inserted"

// UserInsertedEvent is published whenever a user record is created, through
// the API or the seeding command. The change reactor consumes these events
// to drive QR artifact generation.
type UserInsertedEvent struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}
