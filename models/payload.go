package models

import "time"

const (
	// EncryptionAlgA256GCM AES-256-GCM algorithm tag recorded on every blob
	EncryptionAlgA256GCM = "A256GCM"

	// EncryptedBlobVersion current blob format version
	EncryptedBlobVersion = 1

	// SensitivePayloadVersion current sensitive payload schema version
	SensitivePayloadVersion = 1
)

// EncryptedBlob an encrypted sensitive payload, immutable once written
//
// A decryption failure against a blob is an authentication error and must
// be surfaced, never downgraded to empty content.
type EncryptedBlob struct {
	// CipherText AEAD ciphertext, tag included
	CipherText []byte `json:"ciphertext" gorm:"column:ciphertext;not null" validate:"required"`

	// Nonce the 96-bit nonce used for this blob
	Nonce []byte `json:"nonce" gorm:"column:nonce;not null" validate:"required,len=12"`

	// Alg algorithm tag
	Alg string `json:"alg" gorm:"column:alg;not null" validate:"required"`

	// Version blob format version
	Version int `json:"version" gorm:"column:version;not null" validate:"required,min=1"`
}

// SensitivePayload the sensitive portion of a health record
//
// Serialized to JSON and encrypted as a whole before persistence; the
// metadata store never sees these fields in plain text.
type SensitivePayload struct {
	// Version payload schema version
	Version int `json:"version" validate:"required,min=1"`

	// Title record title
	Title string `json:"title" validate:"required"`

	// Content free-form record body
	Content string `json:"content,omitempty"`

	// Vitals vital sign measurements, if recorded
	Vitals *Vitals `json:"vitals,omitempty"`

	// Diagnosis doctor-authored diagnosis, one per record, last writer wins
	Diagnosis *Diagnosis `json:"diagnosis,omitempty"`

	// Attachment envelope around the encrypted attachment, if one exists
	Attachment *AttachmentEnvelope `json:"attachment,omitempty"`
}

// Vitals vital sign measurements
type Vitals struct {
	// HeartRate beats per minute
	HeartRate int `json:"heart_rate,omitempty"`
	// SystolicBP systolic blood pressure, mmHg
	SystolicBP int `json:"systolic_bp,omitempty"`
	// DiastolicBP diastolic blood pressure, mmHg
	DiastolicBP int `json:"diastolic_bp,omitempty"`
	// TemperatureC body temperature, Celsius
	TemperatureC float64 `json:"temperature_c,omitempty"`
	// OxygenSaturation SpO2 percentage
	OxygenSaturation int `json:"oxygen_saturation,omitempty"`
}

// Diagnosis a doctor-authored diagnosis embedded in a record payload
type Diagnosis struct {
	// DoctorID the authoring doctor. The doctor must hold an approved
	// connection with the record owner at write time.
	DoctorID string `json:"doctor_id" validate:"required,uuid_rfc4122"`

	// Text diagnosis text
	Text string `json:"text" validate:"required"`

	// WrittenAt authoring timestamp
	WrittenAt time.Time `json:"written_at"`
}

// AttachmentEnvelope reference to an encrypted attachment on the content
// addressed storage network
//
// The key and nonce here decrypt the attachment ciphertext. They exist only
// inside the record's already-encrypted payload; the storage network holds
// ciphertext alone.
type AttachmentEnvelope struct {
	// CID content identifier of the stored ciphertext
	CID string `json:"cid" validate:"required"`

	// SHA256 hex digest of the ciphertext, checked after every retrieval
	SHA256 string `json:"sha256" validate:"required,len=64,hexadecimal"`

	// KeyBase64 base64 encoded 256-bit attachment encryption key
	KeyBase64 string `json:"key_base64" validate:"required,base64"`

	// IVBase64 base64 encoded 96-bit nonce used for the attachment
	IVBase64 string `json:"iv_base64" validate:"required,base64"`

	// SizeBytes ciphertext size
	SizeBytes int64 `json:"size_bytes" validate:"required,min=1"`

	// FileName original file name
	FileName string `json:"file_name" validate:"required"`

	// MimeType attachment MIME type
	MimeType string `json:"mime_type" validate:"required"`

	// LedgerFileID the file ID assigned by the access registry. Nil when
	// ledger registration has not succeeded yet; registration is retryable
	// after the fact.
	LedgerFileID *uint64 `json:"ledger_file_id,omitempty"`
}
