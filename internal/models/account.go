package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusActive   AccountStatus = "active"
	AccountStatusRejected AccountStatus = "rejected"
	AccountStatusInactive AccountStatus = "inactive"
)

// Account is a persisted identity. Lock state is derived from LockUntil
// against the clock; there is no stored "locked" status.
type Account struct {
	ID             string
	Email          string
	PasswordHash   []byte
	DisplayName    string
	Role           Role
	RequestedRole  Role
	Status         AccountStatus
	FailedAttempts int
	LockUntil      *time.Time
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session is the durable record of an authenticated client context. One
// active session per account; a new login replaces the previous record.
type Session struct {
	ID        string
	AccountID string
	Role      Role
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}
