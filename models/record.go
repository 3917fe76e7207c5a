package models

import "time"

// RecordTypeENUMType health record type ENUM value type
type RecordTypeENUMType string

const (
	// RecordTypeConsultation consultation notes
	RecordTypeConsultation RecordTypeENUMType = "CONSULTATION"
	// RecordTypeLabResult laboratory result
	RecordTypeLabResult RecordTypeENUMType = "LAB_RESULT"
	// RecordTypePrescription prescription
	RecordTypePrescription RecordTypeENUMType = "PRESCRIPTION"
	// RecordTypeImaging imaging study report
	RecordTypeImaging RecordTypeENUMType = "IMAGING"
	// RecordTypeVitals vital sign measurements
	RecordTypeVitals RecordTypeENUMType = "VITALS"
)

// HealthRecord one health record owned by a single patient
//
// Only the plain metadata columns (owner, type, date) are queryable. All
// sensitive content lives in `EncryptedData` and is never persisted in
// plain text.
type HealthRecord struct {
	// ID record ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,uuid_rfc4122"`

	// UserID the owning patient
	UserID string `json:"user_id" gorm:"column:user_id;not null" validate:"required,uuid_rfc4122"`

	// RecordType record category, queryable without decryption
	RecordType RecordTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,record_type"`

	// RecordDate the clinical date the record refers to
	RecordDate time.Time `json:"record_date" gorm:"column:record_date;not null" validate:"required"`

	// EncryptedData the encrypted sensitive payload
	EncryptedData EncryptedBlob `json:"encrypted_data" gorm:"embedded;embeddedPrefix:enc_"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}
