package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/carelock/carelock/models"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CommonListEntryQueryFilter common query filter when listing data entries
type CommonListEntryQueryFilter struct {
	Limit  *int
	Offset *int
}

// SystemEventQueryFilter audit event query filter conditions
type SystemEventQueryFilter struct {
	CommonListEntryQueryFilter
	// EventTypes the specific event types to query for
	EventTypes []models.SystemEventTypeENUMType
	// EventsAfter filter for events after this timestamp
	EventsAfter *time.Time
	// EventsBefore filter for events before this timestamp
	EventsBefore *time.Time
}

// UserQueryFilter user query filter conditions
type UserQueryFilter struct {
	CommonListEntryQueryFilter
	// TargetRoles the specific user roles to query for
	TargetRoles []models.UserRoleENUMType
}

// HealthRecordQueryFilter health record query filter conditions.
//
// Filters operate on the unencrypted metadata columns only; sensitive
// content is not searchable without decryption.
type HealthRecordQueryFilter struct {
	CommonListEntryQueryFilter
	// TargetUserID fetch only records owned by this patient
	TargetUserID *string
	// TargetRecordTypes the specific record types to query for
	TargetRecordTypes []models.RecordTypeENUMType
	// RecordsAfter filter for records dated after this timestamp
	RecordsAfter *time.Time
	// RecordsBefore filter for records dated before this timestamp
	RecordsBefore *time.Time
}

// Database the database handle to interacting with the data base
type Database interface {
	// ------------------------------------------------------------------------------------
	// System audit events

	/*
		RecordSystemEvent record a new system event

			@param ctx context.Context - execution context
			@param eventType models.SystemEventTypeENUMType - the event type
			@param metadata interface{} - metadata relating to the event
			@returns the audit entry
	*/
	RecordSystemEvent(
		ctx context.Context, eventType models.SystemEventTypeENUMType, metadata interface{},
	) (models.SystemEventAudit, error)

	/*
		ListSystemEvents list captured system events

			@param ctx context.Context - execution context
			@param filters SystemEventQueryFilter - entry listing filter
			@return list of system events
	*/
	ListSystemEvents(
		ctx context.Context, filters SystemEventQueryFilter,
	) ([]models.SystemEventAudit, error)

	// ------------------------------------------------------------------------------------
	// Users

	/*
		DefineNewUser define new user

			@param ctx context.Context - execution context
			@param name string - user display name
			@param role models.UserRoleENUMType - user role
			@param ledgerIdentity string - the user's ledger identity, or empty
			@returns user entry
	*/
	DefineNewUser(
		ctx context.Context, name string, role models.UserRoleENUMType, ledgerIdentity string,
	) (models.User, error)

	/*
		GetUser fetch a user by ID

			@param ctx context.Context - execution context
			@param userID string - user ID
			@returns user entry
	*/
	GetUser(ctx context.Context, userID string) (models.User, error)

	/*
		ListUsers list users

			@param ctx context.Context - execution context
			@param filters UserQueryFilter - entry listing filter
			@return list of users
	*/
	ListUsers(ctx context.Context, filters UserQueryFilter) ([]models.User, error)

	/*
		AddPendingConnection add a user ID to another user's pending connection set

			@param ctx context.Context - execution context
			@param userID string - the user whose set is mutated
			@param otherID string - the ID being added
	*/
	AddPendingConnection(ctx context.Context, userID string, otherID string) error

	/*
		RemovePendingConnection remove a user ID from another user's pending connection set

			@param ctx context.Context - execution context
			@param userID string - the user whose set is mutated
			@param otherID string - the ID being removed
	*/
	RemovePendingConnection(ctx context.Context, userID string, otherID string) error

	/*
		AddSuccessfulConnection add a user ID to another user's successful connection set

			@param ctx context.Context - execution context
			@param userID string - the user whose set is mutated
			@param otherID string - the ID being added
	*/
	AddSuccessfulConnection(ctx context.Context, userID string, otherID string) error

	/*
		RemoveSuccessfulConnection remove a user ID from another user's successful
		connection set

			@param ctx context.Context - execution context
			@param userID string - the user whose set is mutated
			@param otherID string - the ID being removed
	*/
	RemoveSuccessfulConnection(ctx context.Context, userID string, otherID string) error

	// ------------------------------------------------------------------------------------
	// Health records

	/*
		DefineNewHealthRecord define new health record

			@param ctx context.Context - execution context
			@param userID string - the owning patient
			@param recordType models.RecordTypeENUMType - record category
			@param recordDate time.Time - the clinical date of the record
			@param encrypted models.EncryptedBlob - the encrypted sensitive payload
			@returns record entry
	*/
	DefineNewHealthRecord(
		ctx context.Context,
		userID string,
		recordType models.RecordTypeENUMType,
		recordDate time.Time,
		encrypted models.EncryptedBlob,
	) (models.HealthRecord, error)

	/*
		GetHealthRecord fetch a health record by ID

			@param ctx context.Context - execution context
			@param recordID string - health record ID
			@returns record entry
	*/
	GetHealthRecord(ctx context.Context, recordID string) (models.HealthRecord, error)

	/*
		ListHealthRecords list health records by unencrypted metadata

			@param ctx context.Context - execution context
			@param filters HealthRecordQueryFilter - entry listing filter
			@return list of records
	*/
	ListHealthRecords(
		ctx context.Context, filters HealthRecordQueryFilter,
	) ([]models.HealthRecord, error)

	/*
		UpdateHealthRecordPayload replace the encrypted payload of a record

			@param ctx context.Context - execution context
			@param recordID string - health record ID
			@param encrypted models.EncryptedBlob - the new encrypted sensitive payload
			@returns updated record entry
	*/
	UpdateHealthRecordPayload(
		ctx context.Context, recordID string, encrypted models.EncryptedBlob,
	) (models.HealthRecord, error)

	/*
		DeleteHealthRecord delete a health record

			@param ctx context.Context - execution context
			@param recordID string - health record ID
	*/
	DeleteHealthRecord(ctx context.Context, recordID string) error
}

// databaseImpl implements Database
type databaseImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

// newDatabase define a new database client
func newDatabase(_ context.Context, sqlClient *gorm.DB) (Database, error) {
	logTags := log.Fields{"package": "carelock", "module": "db", "component": "db-client"}

	instance := &databaseImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        sqlClient,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}
