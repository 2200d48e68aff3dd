package auth

import "time"

// User roles. The role is an explicit attribute set at registration time:
// the first registered user becomes the admin, everyone after that is a
// member until an admin changes it in the database.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User represents a library member as stored in the users table.
// BorrowingLimit caps the number of simultaneous active loans; the lending
// service enforces it on every borrow.
type User struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // never serialized
	Role           string    `json:"role"`
	BorrowingLimit int       `json:"borrowingLimit"`
	CreatedAt      time.Time `json:"createdAt"`
}
