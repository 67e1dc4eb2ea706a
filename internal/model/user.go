package model

import "time"

// Role values stored in users.role.  The role is fixed at registration
// and drives the authorization checks for every mutating operation.
const (
	RoleDriver    = "driver"
	RolePassenger = "passenger"
)

// ValidRole reports whether s is one of the known role values.
func ValidRole(s string) bool {
	return s == RoleDriver || s == RolePassenger
}

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column. Handlers define
// separate response types with JSON tags; this struct is used by the
// repository layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name shown to other users.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Phone        – contact phone number.
//  Role         – either "driver" or "passenger"; immutable after creation.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Phone        string    // users.phone
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
