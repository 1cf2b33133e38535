package model

import "time"

// Roles carried in the access token's "role" claim.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents an account as stored in the `users` table.  Buyers
// hold the CUSTOMER role; box office staff who scan tickets hold ADMIN.
//
// Fields:
//  ID           – UUID primary key.
//  Email        – unique, lower-cased email address.
//  Name         – display name, used as the check-in operator label.
//  PasswordHash – bcrypt hash.
//  Role         – CUSTOMER or ADMIN.
//  IsActive     – disabled accounts cannot log in.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 of the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
