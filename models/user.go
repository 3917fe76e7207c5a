// Package models - application data models
package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserRoleENUMType user role ENUM value type
type UserRoleENUMType string

const (
	// UserRolePatient the user is a patient and owns health records
	UserRolePatient UserRoleENUMType = "PATIENT"
	// UserRoleDoctor the user is a doctor and may be granted record access
	UserRoleDoctor UserRoleENUMType = "DOCTOR"
)

// User an application user
//
// Connection membership sets are only mutated by the consent workflow. A
// doctor must appear in a patient's successful connections before any of
// that patient's records may be read by the doctor.
type User struct {
	// ID user ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,uuid_rfc4122"`

	// Name user display name
	Name string `json:"name" gorm:"column:name;not null" validate:"required"`

	// Role user role
	Role UserRoleENUMType `json:"role" gorm:"column:role;not null" validate:"required,user_role"`

	// LedgerIdentity the user's identity on the access registry ledger, if enrolled
	LedgerIdentity string `json:"ledger_identity,omitempty" gorm:"column:ledger_identity"`

	// PendingConnections IDs of users with an unresolved connection request
	// involving this user
	PendingConnections datatypes.JSONSlice[string] `json:"pending_connections" gorm:"column:pending_connections"`

	// SuccessfulConnections IDs of users this user holds an approved
	// connection with
	SuccessfulConnections datatypes.JSONSlice[string] `json:"successful_connections" gorm:"column:successful_connections"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPendingConnection check whether a connection request involving the
// other user is unresolved
func (u *User) HasPendingConnection(otherID string) bool {
	for _, id := range u.PendingConnections {
		if id == otherID {
			return true
		}
	}
	return false
}

// IsConnectedTo check whether an approved connection with the other user exists
func (u *User) IsConnectedTo(otherID string) bool {
	for _, id := range u.SuccessfulConnections {
		if id == otherID {
			return true
		}
	}
	return false
}
