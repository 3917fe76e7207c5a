package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// SystemEventTypeENUMType system event type ENUM value type
type SystemEventTypeENUMType string

const (
	// SystemEventTypeUserRegistered a new user entry was created
	SystemEventTypeUserRegistered SystemEventTypeENUMType = "USER_REGISTERED"

	// SystemEventTypeConnectionRequested a doctor requested a connection with a patient
	SystemEventTypeConnectionRequested SystemEventTypeENUMType = "CONNECTION_REQUESTED"

	// SystemEventTypeConnectionApproved a patient approved a connection request
	SystemEventTypeConnectionApproved SystemEventTypeENUMType = "CONNECTION_APPROVED"

	// SystemEventTypeConnectionDenied a patient denied a connection request
	SystemEventTypeConnectionDenied SystemEventTypeENUMType = "CONNECTION_DENIED"

	// SystemEventTypeConnectionRevoked a patient revoked an approved connection
	SystemEventTypeConnectionRevoked SystemEventTypeENUMType = "CONNECTION_REVOKED"

	// SystemEventTypeAddNewRecord a new health record was created
	SystemEventTypeAddNewRecord SystemEventTypeENUMType = "ADD_NEW_RECORD"

	// SystemEventTypeDiagnosisWritten a doctor wrote a diagnosis into a record
	SystemEventTypeDiagnosisWritten SystemEventTypeENUMType = "DIAGNOSIS_WRITTEN"

	// SystemEventTypeFileRegistered an attachment was registered on the access registry
	SystemEventTypeFileRegistered SystemEventTypeENUMType = "FILE_REGISTERED"

	// SystemEventTypeAccessGranted ledger access to an attachment was granted
	SystemEventTypeAccessGranted SystemEventTypeENUMType = "ACCESS_GRANTED"

	// SystemEventTypeAccessRevoked ledger access to an attachment was revoked
	SystemEventTypeAccessRevoked SystemEventTypeENUMType = "ACCESS_REVOKED"

	// SystemEventTypeAttachmentOpened an attachment was fetched and decrypted
	SystemEventTypeAttachmentOpened SystemEventTypeENUMType = "ATTACHMENT_OPENED"
)

// SystemEventAudit recording of events occurring at the system level
type SystemEventAudit struct {
	// ID audit entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`
	// EventType system event type
	EventType SystemEventTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,system_event_type"`
	// Metadata a metadata relating to the event
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;default:null"`
	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseMetadata parse the metadata based on the event type
func (a SystemEventAudit) ParseMetadata(validator *validator.Validate) (interface{}, error) {
	switch a.EventType {
	// User related system audit events
	case SystemEventTypeUserRegistered:
		var parsed SystemEventUserRelated
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("system event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	// Connection workflow related system audit events
	case SystemEventTypeConnectionRequested:
		fallthrough
	case SystemEventTypeConnectionApproved:
		fallthrough
	case SystemEventTypeConnectionDenied:
		fallthrough
	case SystemEventTypeConnectionRevoked:
		var parsed SystemEventConnectionRelated
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("system event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	// Health record related system audit events
	case SystemEventTypeAddNewRecord:
		fallthrough
	case SystemEventTypeDiagnosisWritten:
		var parsed SystemEventRecordRelated
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("system event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validator.Struct(&parsed)

	// Attachment and access registry related system audit events
	case SystemEventTypeFileRegistered:
		fallthrough
	case SystemEventTypeAccessGranted:
		fallthrough
	case SystemEventTypeAccessRevoked:
		fallthrough
	case SystemEventTypeAttachmentOpened:
		var parsed SystemEventFileRelated
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("system event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validator.Struct(&parsed)
	}
	return nil, nil
}

// SystemEventUserRelated system event metadata related to a user
type SystemEventUserRelated struct {
	// UserID the user involved
	UserID string `json:"user_id" validate:"required,uuid_rfc4122"`
}

// SystemEventConnectionRelated system event metadata related to the consent workflow
type SystemEventConnectionRelated struct {
	// DoctorID the requesting doctor
	DoctorID string `json:"doctor_id" validate:"required,uuid_rfc4122"`
	// PatientID the patient the request targets
	PatientID string `json:"patient_id" validate:"required,uuid_rfc4122"`
}

// SystemEventRecordRelated system event metadata related to a health record
type SystemEventRecordRelated struct {
	// RecordID the health record ID
	RecordID string `json:"record_id" validate:"required,uuid_rfc4122"`
	// UserID the record owner
	UserID string `json:"user_id" validate:"required,uuid_rfc4122"`
}

// SystemEventFileRelated system event metadata related to a stored attachment
type SystemEventFileRelated struct {
	// RecordID the health record holding the attachment envelope
	RecordID string `json:"record_id" validate:"required,uuid_rfc4122"`
	// CID content identifier of the attachment ciphertext
	CID string `json:"cid" validate:"required"`
	// LedgerFileID the registry assigned file ID, when known
	LedgerFileID *uint64 `json:"ledger_file_id,omitempty"`
	// GranteeIdentity the ledger identity access was granted to or revoked from
	GranteeIdentity string `json:"grantee_identity,omitempty"`
}
