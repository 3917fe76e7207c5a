package records

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/carelock/carelock/consent"
	"github.com/carelock/carelock/db"
	"github.com/carelock/carelock/encryption"
	"github.com/carelock/carelock/ledger"
	"github.com/carelock/carelock/models"
	"github.com/carelock/carelock/pinning"
)

// NewAttachment plain text attachment handed in at record creation
type NewAttachment struct {
	// Content attachment plain text
	Content []byte
	// FileName original file name
	FileName string
	// MimeType attachment MIME type
	MimeType string
}

// AttachmentContent a fetched and decrypted attachment
type AttachmentContent struct {
	// Content attachment plain text
	Content []byte
	// FileName original file name
	FileName string
	// MimeType attachment MIME type
	MimeType string
}

// CreateRecordResult outcome of record creation
type CreateRecordResult struct {
	// Record the persisted record entry
	Record models.HealthRecord
	// LedgerWarning non-fatal registry registration failure, if one occurred.
	// The record and its pinned attachment are intact; registration can be
	// retried through RetryFileRegistration.
	LedgerWarning error
}

/*
Manager health record orchestration.

Composes the consent gate, the metadata store, the two cipher layers, the
pinning clients, and the access registry. Every read or write on behalf of a
non-owner passes the consent gate first; a ledger grant alone never opens a
record.
*/
type Manager interface {
	/*
		CreateRecord create a health record for a patient

		When an attachment rides along it is encrypted under a fresh key,
		pinned, registered on the access registry best-effort, and its
		envelope embedded in the sensitive payload before record encryption.

			@param ctx context.Context - execution context
			@param patientID string - owning patient user ID
			@param recordType models.RecordTypeENUMType - record category
			@param recordDate time.Time - clinical date of the record
			@param payload models.SensitivePayload - sensitive payload
			@param attachment *NewAttachment - optional attachment plain text
			@returns creation outcome
	*/
	CreateRecord(
		ctx context.Context,
		patientID string,
		recordType models.RecordTypeENUMType,
		recordDate time.Time,
		payload models.SensitivePayload,
		attachment *NewAttachment,
	) (CreateRecordResult, error)

	/*
		GetRecord fetch and decrypt a health record

			@param ctx context.Context - execution context
			@param callerID string - acting user ID
			@param recordID string - health record ID
			@returns the record entry and its decrypted payload
	*/
	GetRecord(
		ctx context.Context, callerID string, recordID string,
	) (models.HealthRecord, models.SensitivePayload, error)

	/*
		ListRecords list a patient's records by unencrypted metadata

			@param ctx context.Context - execution context
			@param callerID string - acting user ID
			@param filters db.HealthRecordQueryFilter - listing filter, target user required
			@returns matching record entries, payloads still encrypted
	*/
	ListRecords(
		ctx context.Context, callerID string, filters db.HealthRecordQueryFilter,
	) ([]models.HealthRecord, error)

	/*
		OpenAttachment fetch, verify, and decrypt a record's attachment

		Every disclosure is recorded on the audit trail; a failed audit write
		withholds the attachment.

			@param ctx context.Context - execution context
			@param callerID string - acting user ID
			@param recordID string - health record ID
			@returns the attachment plain text
	*/
	OpenAttachment(
		ctx context.Context, callerID string, recordID string,
	) (AttachmentContent, error)

	/*
		WriteDiagnosis write a diagnosis into a record, last writer wins

			@param ctx context.Context - execution context
			@param doctorID string - authoring doctor user ID
			@param recordID string - health record ID
			@param text string - diagnosis text
	*/
	WriteDiagnosis(ctx context.Context, doctorID string, recordID string, text string) error

	/*
		RetryFileRegistration retry registry registration for an attachment

			@param ctx context.Context - execution context
			@param ownerID string - record owner user ID
			@param recordID string - health record ID
			@returns the registry assigned file ID
	*/
	RetryFileRegistration(ctx context.Context, ownerID string, recordID string) (uint64, error)

	/*
		GrantFileAccess grant a doctor ledger access to a record's attachment

			@param ctx context.Context - execution context
			@param ownerID string - record owner user ID
			@param recordID string - health record ID
			@param doctorID string - grantee doctor user ID
	*/
	GrantFileAccess(ctx context.Context, ownerID string, recordID string, doctorID string) error

	/*
		RevokeFileAccess revoke a doctor's ledger access to a record's attachment

			@param ctx context.Context - execution context
			@param ownerID string - record owner user ID
			@param recordID string - health record ID
			@param doctorID string - revoked doctor user ID
	*/
	RevokeFileAccess(ctx context.Context, ownerID string, recordID string, doctorID string) error

	/*
		DeleteRecord delete a health record, owner only

		Pinned ciphertext is not unpinned; without the envelope key it is
		inert.

			@param ctx context.Context - execution context
			@param ownerID string - record owner user ID
			@param recordID string - health record ID
	*/
	DeleteRecord(ctx context.Context, ownerID string, recordID string) error
}

// managerImpl implements Manager
type managerImpl struct {
	goutils.Component

	persistence        db.Client
	recordCipher       encryption.RecordCipher
	fileCipher         encryption.FileCipher
	uploader           pinning.Uploader
	fetcher            pinning.Fetcher
	consent            consent.Manager
	registry           ledger.RegistryClient
	maxAttachmentBytes int64
}

// ManagerParams record orchestration init parameters
type ManagerParams struct {
	// Persistence metadata store client
	Persistence db.Client
	// RecordCipher application-record cipher
	RecordCipher encryption.RecordCipher
	// FileCipher per-attachment envelope cipher
	FileCipher encryption.FileCipher
	// Uploader pinning upload client
	Uploader pinning.Uploader
	// Fetcher content retrieval client
	Fetcher pinning.Fetcher
	// Consent consent workflow manager
	Consent consent.Manager
	// Registry optional access registry client. Without it, records and
	// attachments still work; registry registration and grants are refused.
	Registry ledger.RegistryClient
	// MaxAttachmentBytes optional attachment intake ceiling override
	MaxAttachmentBytes *int64
}

/*
NewManager define a new record orchestration manager

	@param params ManagerParams - init parameters
	@returns manager instance
*/
func NewManager(params ManagerParams) (Manager, error) {
	logTags := log.Fields{"module": "records", "component": "manager"}

	if params.Persistence == nil || params.RecordCipher == nil || params.FileCipher == nil ||
		params.Uploader == nil || params.Fetcher == nil || params.Consent == nil {
		return nil, fmt.Errorf("record manager init parameters incomplete")
	}

	maxBytes := DefaultMaxAttachmentBytes
	if params.MaxAttachmentBytes != nil {
		maxBytes = *params.MaxAttachmentBytes
	}

	return &managerImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence:        params.Persistence,
		recordCipher:       params.RecordCipher,
		fileCipher:         params.FileCipher,
		uploader:           params.Uploader,
		fetcher:            params.Fetcher,
		consent:            params.Consent,
		registry:           params.Registry,
		maxAttachmentBytes: maxBytes,
	}, nil
}

// recordAudit persist an audit event, reusing an active database session
// when the caller already holds one
func (m *managerImpl) recordAudit(
	ctx context.Context,
	activeDBClient db.Database,
	eventType models.SystemEventTypeENUMType,
	metadata interface{},
) error {
	return db.ActiveSessionWrapper(
		ctx, activeDBClient, m.persistence,
		func(ctx context.Context, dbClient db.Database) error {
			_, err := dbClient.RecordSystemEvent(ctx, eventType, metadata)
			return err
		},
	)
}

// prepareAttachment encrypt and pin an attachment, returning its envelope.
// Registry registration is best-effort; a failure is returned separately and
// never unwinds the pinned upload.
func (m *managerImpl) prepareAttachment(
	ctx context.Context, attachment *NewAttachment,
) (*models.AttachmentEnvelope, error, error) {
	if int64(len(attachment.Content)) > m.maxAttachmentBytes {
		return nil, nil, fmt.Errorf(
			"attachment of %d bytes [%w]", len(attachment.Content), ErrAttachmentTooLarge,
		)
	}

	key, err := m.fileCipher.GenerateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate attachment key [%w]", err)
	}
	nonce, cipherText, err := m.fileCipher.Encrypt(attachment.Content, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt attachment [%w]", err)
	}
	digest := m.fileCipher.Digest(cipherText)

	uploaded, err := m.uploader.Upload(
		ctx, cipherText, attachment.FileName, attachment.MimeType, digest,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pin attachment ciphertext [%w]", err)
	}

	envelope := &models.AttachmentEnvelope{
		CID:       uploaded.CID,
		SHA256:    digest,
		KeyBase64: base64.StdEncoding.EncodeToString(key),
		IVBase64:  base64.StdEncoding.EncodeToString(nonce),
		SizeBytes: int64(len(cipherText)),
		FileName:  attachment.FileName,
		MimeType:  attachment.MimeType,
	}

	var ledgerWarning error
	if m.registry != nil {
		fileID, err := m.registry.RegisterFile(
			ctx, uploaded.CID, digest, attachment.MimeType, int64(len(cipherText)),
		)
		if err != nil {
			ledgerWarning = fmt.Errorf("attachment pinned but registry registration failed [%w]", err)
			log.WithError(err).WithFields(m.LogTags).WithField("cid", uploaded.CID).
				Warn("Registry registration failed")
		} else {
			envelope.LedgerFileID = &fileID
		}
	}

	return envelope, ledgerWarning, nil
}

/*
CreateRecord create a health record for a patient

	@param ctx context.Context - execution context
	@param patientID string - owning patient user ID
	@param recordType models.RecordTypeENUMType - record category
	@param recordDate time.Time - clinical date of the record
	@param payload models.SensitivePayload - sensitive payload
	@param attachment *NewAttachment - optional attachment plain text
	@returns creation outcome
*/
func (m *managerImpl) CreateRecord(
	ctx context.Context,
	patientID string,
	recordType models.RecordTypeENUMType,
	recordDate time.Time,
	payload models.SensitivePayload,
	attachment *NewAttachment,
) (CreateRecordResult, error) {
	result := CreateRecordResult{}

	if payload.Version == 0 {
		payload.Version = models.SensitivePayloadVersion
	}

	if attachment != nil {
		envelope, warning, err := m.prepareAttachment(ctx, attachment)
		if err != nil {
			return CreateRecordResult{}, err
		}
		payload.Attachment = envelope
		result.LedgerWarning = warning
	}

	encrypted, err := m.recordCipher.EncryptObject(payload)
	if err != nil {
		return CreateRecordResult{}, err
	}

	err = m.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			owner, err := dbClient.GetUser(ctx, patientID)
			if err != nil {
				return fmt.Errorf("failed to fetch record owner %s [%w]", patientID, err)
			}
			if owner.Role != models.UserRolePatient {
				return fmt.Errorf("user %s [%w]", patientID, consent.ErrRoleMismatch)
			}

			entry, err := dbClient.DefineNewHealthRecord(
				ctx, patientID, recordType, recordDate, encrypted,
			)
			if err != nil {
				return err
			}
			result.Record = entry

			if payload.Attachment != nil && payload.Attachment.LedgerFileID != nil {
				if err := m.recordAudit(
					ctx,
					dbClient,
					models.SystemEventTypeFileRegistered,
					models.SystemEventFileRelated{
						RecordID:     entry.ID,
						CID:          payload.Attachment.CID,
						LedgerFileID: payload.Attachment.LedgerFileID,
					},
				); err != nil {
					return fmt.Errorf("failed to log file registration audit event [%w]", err)
				}
			}
			return nil
		},
	)
	if err != nil {
		return CreateRecordResult{}, err
	}

	log.WithFields(m.LogTags).
		WithField("record", result.Record.ID).
		WithField("owner", patientID).
		Info("Created health record")
	return result, nil
}

// fetchAuthorized fetch a record and pass the caller through the consent gate
func (m *managerImpl) fetchAuthorized(
	ctx context.Context, callerID string, recordID string,
) (models.HealthRecord, error) {
	var record models.HealthRecord
	err := m.persistence.UseDatabase(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			entry, err := dbClient.GetHealthRecord(ctx, recordID)
			if err != nil {
				return err
			}
			record = entry
			return nil
		},
	)
	if err != nil {
		return models.HealthRecord{}, err
	}

	if err := m.consent.Authorize(ctx, callerID, record.UserID); err != nil {
		return models.HealthRecord{}, err
	}

	return record, nil
}

/*
GetRecord fetch and decrypt a health record

	@param ctx context.Context - execution context
	@param callerID string - acting user ID
	@param recordID string - health record ID
	@returns the record entry and its decrypted payload
*/
func (m *managerImpl) GetRecord(
	ctx context.Context, callerID string, recordID string,
) (models.HealthRecord, models.SensitivePayload, error) {
	record, err := m.fetchAuthorized(ctx, callerID, recordID)
	if err != nil {
		return models.HealthRecord{}, models.SensitivePayload{}, err
	}

	payload, err := m.recordCipher.DecryptObject(record.EncryptedData)
	if err != nil {
		return models.HealthRecord{}, models.SensitivePayload{}, err
	}

	return record, payload, nil
}

/*
ListRecords list a patient's records by unencrypted metadata

	@param ctx context.Context - execution context
	@param callerID string - acting user ID
	@param filters db.HealthRecordQueryFilter - listing filter, target user required
	@returns matching record entries, payloads still encrypted
*/
func (m *managerImpl) ListRecords(
	ctx context.Context, callerID string, filters db.HealthRecordQueryFilter,
) ([]models.HealthRecord, error) {
	if filters.TargetUserID == nil {
		return nil, fmt.Errorf("record listing requires a target user")
	}

	if err := m.consent.Authorize(ctx, callerID, *filters.TargetUserID); err != nil {
		return nil, err
	}

	var entries []models.HealthRecord
	err := m.persistence.UseDatabase(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			found, err := dbClient.ListHealthRecords(ctx, filters)
			if err != nil {
				return err
			}
			entries = found
			return nil
		},
	)
	return entries, err
}

/*
OpenAttachment fetch, verify, and decrypt a record's attachment

	@param ctx context.Context - execution context
	@param callerID string - acting user ID
	@param recordID string - health record ID
	@returns the attachment plain text
*/
func (m *managerImpl) OpenAttachment(
	ctx context.Context, callerID string, recordID string,
) (AttachmentContent, error) {
	record, payload, err := m.GetRecord(ctx, callerID, recordID)
	if err != nil {
		return AttachmentContent{}, err
	}
	if payload.Attachment == nil {
		return AttachmentContent{}, fmt.Errorf("record %s [%w]", recordID, ErrNoAttachment)
	}
	envelope := payload.Attachment

	key, err := base64.StdEncoding.DecodeString(envelope.KeyBase64)
	if err != nil {
		return AttachmentContent{}, fmt.Errorf("attachment key is not valid base64 [%w]", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(envelope.IVBase64)
	if err != nil {
		return AttachmentContent{}, fmt.Errorf("attachment nonce is not valid base64 [%w]", err)
	}

	cipherText, err := m.fetcher.VerifiedFetch(ctx, envelope.CID, envelope.SHA256)
	if err != nil {
		return AttachmentContent{}, err
	}

	plainText, err := m.fileCipher.Decrypt(cipherText, key, nonce)
	if err != nil {
		return AttachmentContent{}, fmt.Errorf(
			"failed to decrypt attachment %s [%w]", envelope.CID, err,
		)
	}

	// Disclosure tracking fails closed. An attachment is only handed out
	// together with its audit record; if the audit write fails, so does the
	// open.
	if err := m.recordAudit(
		ctx,
		nil,
		models.SystemEventTypeAttachmentOpened,
		models.SystemEventFileRelated{
			RecordID:     record.ID,
			CID:          envelope.CID,
			LedgerFileID: envelope.LedgerFileID,
		},
	); err != nil {
		return AttachmentContent{}, fmt.Errorf("failed to log attachment open audit event [%w]", err)
	}

	return AttachmentContent{
		Content:  plainText,
		FileName: envelope.FileName,
		MimeType: envelope.MimeType,
	}, nil
}

/*
WriteDiagnosis write a diagnosis into a record, last writer wins

	@param ctx context.Context - execution context
	@param doctorID string - authoring doctor user ID
	@param recordID string - health record ID
	@param text string - diagnosis text
*/
func (m *managerImpl) WriteDiagnosis(
	ctx context.Context, doctorID string, recordID string, text string,
) error {
	record, payload, err := m.GetRecord(ctx, doctorID, recordID)
	if err != nil {
		return err
	}

	payload.Diagnosis = &models.Diagnosis{
		DoctorID:  doctorID,
		Text:      text,
		WrittenAt: time.Now().UTC(),
	}

	encrypted, err := m.recordCipher.EncryptObject(payload)
	if err != nil {
		return err
	}

	return m.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			doctor, err := dbClient.GetUser(ctx, doctorID)
			if err != nil {
				return fmt.Errorf("failed to fetch doctor %s [%w]", doctorID, err)
			}
			if doctor.Role != models.UserRoleDoctor {
				return fmt.Errorf("user %s [%w]", doctorID, consent.ErrRoleMismatch)
			}

			if _, err := dbClient.UpdateHealthRecordPayload(ctx, recordID, encrypted); err != nil {
				return err
			}

			if _, err := dbClient.RecordSystemEvent(
				ctx,
				models.SystemEventTypeDiagnosisWritten,
				models.SystemEventRecordRelated{RecordID: record.ID, UserID: record.UserID},
			); err != nil {
				return fmt.Errorf("failed to log diagnosis audit event [%w]", err)
			}
			return nil
		},
	)
}

// fetchOwned fetch a record and verify the caller owns it
func (m *managerImpl) fetchOwned(
	ctx context.Context, ownerID string, recordID string,
) (models.HealthRecord, error) {
	var record models.HealthRecord
	err := m.persistence.UseDatabase(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			entry, err := dbClient.GetHealthRecord(ctx, recordID)
			if err != nil {
				return err
			}
			record = entry
			return nil
		},
	)
	if err != nil {
		return models.HealthRecord{}, err
	}

	if record.UserID != ownerID {
		return models.HealthRecord{}, fmt.Errorf(
			"record %s, caller %s [%w]", recordID, ownerID, ErrNotOwner,
		)
	}
	return record, nil
}

/*
RetryFileRegistration retry registry registration for an attachment

	@param ctx context.Context - execution context
	@param ownerID string - record owner user ID
	@param recordID string - health record ID
	@returns the registry assigned file ID
*/
func (m *managerImpl) RetryFileRegistration(
	ctx context.Context, ownerID string, recordID string,
) (uint64, error) {
	if m.registry == nil {
		return 0, ErrLedgerUnavailable
	}

	record, err := m.fetchOwned(ctx, ownerID, recordID)
	if err != nil {
		return 0, err
	}

	payload, err := m.recordCipher.DecryptObject(record.EncryptedData)
	if err != nil {
		return 0, err
	}
	if payload.Attachment == nil {
		return 0, fmt.Errorf("record %s [%w]", recordID, ErrNoAttachment)
	}
	if payload.Attachment.LedgerFileID != nil {
		return 0, fmt.Errorf("record %s [%w]", recordID, ErrAlreadyRegistered)
	}

	fileID, err := m.registry.RegisterFile(
		ctx,
		payload.Attachment.CID,
		payload.Attachment.SHA256,
		payload.Attachment.MimeType,
		payload.Attachment.SizeBytes,
	)
	if err != nil {
		return 0, err
	}
	payload.Attachment.LedgerFileID = &fileID

	encrypted, err := m.recordCipher.EncryptObject(payload)
	if err != nil {
		return 0, err
	}

	err = m.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			if _, err := dbClient.UpdateHealthRecordPayload(ctx, recordID, encrypted); err != nil {
				return err
			}
			_, err := dbClient.RecordSystemEvent(
				ctx,
				models.SystemEventTypeFileRegistered,
				models.SystemEventFileRelated{
					RecordID:     record.ID,
					CID:          payload.Attachment.CID,
					LedgerFileID: &fileID,
				},
			)
			return err
		},
	)
	return fileID, err
}

// resolveGrantTarget find the attachment file ID and the doctor's ledger identity
func (m *managerImpl) resolveGrantTarget(
	ctx context.Context, ownerID string, recordID string, doctorID string,
) (models.HealthRecord, uint64, string, string, error) {
	if m.registry == nil {
		return models.HealthRecord{}, 0, "", "", ErrLedgerUnavailable
	}

	record, err := m.fetchOwned(ctx, ownerID, recordID)
	if err != nil {
		return models.HealthRecord{}, 0, "", "", err
	}

	payload, err := m.recordCipher.DecryptObject(record.EncryptedData)
	if err != nil {
		return models.HealthRecord{}, 0, "", "", err
	}
	if payload.Attachment == nil {
		return models.HealthRecord{}, 0, "", "", fmt.Errorf("record %s [%w]", recordID, ErrNoAttachment)
	}
	if payload.Attachment.LedgerFileID == nil {
		return models.HealthRecord{}, 0, "", "", fmt.Errorf("record %s [%w]", recordID, ErrNotRegistered)
	}

	var identity string
	err = m.persistence.UseDatabase(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			doctor, err := dbClient.GetUser(ctx, doctorID)
			if err != nil {
				return fmt.Errorf("failed to fetch doctor %s [%w]", doctorID, err)
			}
			if doctor.LedgerIdentity == "" {
				return fmt.Errorf("doctor %s [%w]", doctorID, ErrNoLedgerIdentity)
			}
			identity = doctor.LedgerIdentity
			return nil
		},
	)
	if err != nil {
		return models.HealthRecord{}, 0, "", "", err
	}

	return record, *payload.Attachment.LedgerFileID, payload.Attachment.CID, identity, nil
}

/*
GrantFileAccess grant a doctor ledger access to a record's attachment

	@param ctx context.Context - execution context
	@param ownerID string - record owner user ID
	@param recordID string - health record ID
	@param doctorID string - grantee doctor user ID
*/
func (m *managerImpl) GrantFileAccess(
	ctx context.Context, ownerID string, recordID string, doctorID string,
) error {
	record, fileID, cid, identity, err := m.resolveGrantTarget(ctx, ownerID, recordID, doctorID)
	if err != nil {
		return err
	}

	if err := m.registry.GrantAccess(ctx, fileID, identity); err != nil {
		return err
	}

	return m.recordAudit(
		ctx,
		nil,
		models.SystemEventTypeAccessGranted,
		models.SystemEventFileRelated{
			RecordID:        record.ID,
			CID:             cid,
			LedgerFileID:    &fileID,
			GranteeIdentity: identity,
		},
	)
}

/*
RevokeFileAccess revoke a doctor's ledger access to a record's attachment

	@param ctx context.Context - execution context
	@param ownerID string - record owner user ID
	@param recordID string - health record ID
	@param doctorID string - revoked doctor user ID
*/
func (m *managerImpl) RevokeFileAccess(
	ctx context.Context, ownerID string, recordID string, doctorID string,
) error {
	record, fileID, cid, identity, err := m.resolveGrantTarget(ctx, ownerID, recordID, doctorID)
	if err != nil {
		return err
	}

	if err := m.registry.RevokeAccess(ctx, fileID, identity); err != nil {
		return err
	}

	return m.recordAudit(
		ctx,
		nil,
		models.SystemEventTypeAccessRevoked,
		models.SystemEventFileRelated{
			RecordID:        record.ID,
			CID:             cid,
			LedgerFileID:    &fileID,
			GranteeIdentity: identity,
		},
	)
}

/*
DeleteRecord delete a health record, owner only

	@param ctx context.Context - execution context
	@param ownerID string - record owner user ID
	@param recordID string - health record ID
*/
func (m *managerImpl) DeleteRecord(ctx context.Context, ownerID string, recordID string) error {
	if _, err := m.fetchOwned(ctx, ownerID, recordID); err != nil {
		return err
	}

	return m.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			return dbClient.DeleteHealthRecord(ctx, recordID)
		},
	)
}
