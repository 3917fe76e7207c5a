package db

import "github.com/carelock/carelock/models"

// --------------------------------------------------------------------------------------
// System audit events

// SystemEventAuditDBEntry system audit event DB entry
type SystemEventAuditDBEntry struct {
	models.SystemEventAudit
}

// TableName hard code table name
func (SystemEventAuditDBEntry) TableName() string {
	return "system_audit_events"
}

// --------------------------------------------------------------------------------------
// Users

// UserDBEntry user DB entry
type UserDBEntry struct {
	models.User
}

// TableName hard code table name
func (UserDBEntry) TableName() string {
	return "users"
}

// --------------------------------------------------------------------------------------
// Health records

// HealthRecordDBEntry health record DB entry
type HealthRecordDBEntry struct {
	models.HealthRecord
	User UserDBEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID" validate:"-"`
}

// TableName hard code table name
func (HealthRecordDBEntry) TableName() string {
	return "health_records"
}
