package domain

type ContextKey string

const UserContextKey ContextKey = "user"

// User is the authenticated-identity fact the core consumes. Session
// management itself lives outside this service; the middleware builds
// this from token claims.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports the role flag the admin surface gates on.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}
