package db

import (
	"context"
	"fmt"
	"time"

	"github.com/carelock/carelock/models"
	"github.com/google/uuid"
)

// ======================================================================================
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
func (d *databaseImpl) DefineNewHealthRecord(
	ctx context.Context,
	userID string,
	recordType models.RecordTypeENUMType,
	recordDate time.Time,
	encrypted models.EncryptedBlob,
) (models.HealthRecord, error) {
	newEntry := HealthRecordDBEntry{
		HealthRecord: models.HealthRecord{
			ID:            uuid.NewString(),
			UserID:        userID,
			RecordType:    recordType,
			RecordDate:    recordDate,
			EncryptedData: encrypted,
		},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.HealthRecord{}, fmt.Errorf(
			"new health record for user %s is not valid [%w]", userID, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.HealthRecord{}, fmt.Errorf(
			"new health record for user %s failed insert [%w]", userID, tmp.Error,
		)
	}

	// Record this event
	if _, err := d.RecordSystemEvent(
		ctx,
		models.SystemEventTypeAddNewRecord,
		models.SystemEventRecordRelated{RecordID: newEntry.ID, UserID: userID},
	); err != nil {
		return models.HealthRecord{}, fmt.Errorf(
			"failed to log add new health record audit event [%w]", err,
		)
	}

	return newEntry.HealthRecord, nil
}

// getHealthRecordEntry find a health record by ID
func (d *databaseImpl) getHealthRecordEntry(recordID string) (HealthRecordDBEntry, error) {
	var entry HealthRecordDBEntry
	err := d.db.Where("id = ?", recordID).First(&entry).Error
	return entry, err
}

/*
GetHealthRecord fetch a health record by ID

	@param ctx context.Context - execution context
	@param recordID string - health record ID
	@returns record entry
*/
func (d *databaseImpl) GetHealthRecord(
	_ context.Context, recordID string,
) (models.HealthRecord, error) {
	entry, err := d.getHealthRecordEntry(recordID)
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf(
			"failed to fetch health record %s [%w]", recordID, err,
		)
	}

	return entry.HealthRecord, nil
}

/*
ListHealthRecords list health records by unencrypted metadata

	@param ctx context.Context - execution context
	@param filters HealthRecordQueryFilter - entry listing filter
	@return list of records
*/
func (d *databaseImpl) ListHealthRecords(
	_ context.Context, filters HealthRecordQueryFilter,
) ([]models.HealthRecord, error) {
	query := d.db.Model(&HealthRecordDBEntry{})

	if filters.TargetUserID != nil {
		query = query.Where("user_id = ?", *filters.TargetUserID)
	}

	if len(filters.TargetRecordTypes) > 0 {
		query = query.Where("type in ?", filters.TargetRecordTypes)
	}

	if filters.RecordsAfter != nil {
		query = query.Where("record_date >= ?", *filters.RecordsAfter)
	}
	if filters.RecordsBefore != nil {
		query = query.Where("record_date <= ?", *filters.RecordsBefore)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("record_date desc")

	var entries []HealthRecordDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list health records [%w]", tmp.Error)
	}

	result := []models.HealthRecord{}
	for _, entry := range entries {
		result = append(result, entry.HealthRecord)
	}

	return result, nil
}

/*
UpdateHealthRecordPayload replace the encrypted payload of a record

	@param ctx context.Context - execution context
	@param recordID string - health record ID
	@param encrypted models.EncryptedBlob - the new encrypted sensitive payload
	@returns updated record entry
*/
func (d *databaseImpl) UpdateHealthRecordPayload(
	_ context.Context, recordID string, encrypted models.EncryptedBlob,
) (models.HealthRecord, error) {
	entry, err := d.getHealthRecordEntry(recordID)
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf(
			"failed to fetch health record %s [%w]", recordID, err,
		)
	}

	entry.EncryptedData = encrypted

	if err := d.validator.Struct(&entry); err != nil {
		return models.HealthRecord{}, fmt.Errorf(
			"updated health record %s is not valid [%w]", recordID, err,
		)
	}

	if tmp := d.db.Save(&entry); tmp.Error != nil {
		return models.HealthRecord{}, fmt.Errorf(
			"failed to update health record %s [%w]", recordID, tmp.Error,
		)
	}

	return entry.HealthRecord, nil
}

/*
DeleteHealthRecord delete a health record

	@param ctx context.Context - execution context
	@param recordID string - health record ID
*/
func (d *databaseImpl) DeleteHealthRecord(_ context.Context, recordID string) error {
	entry, err := d.getHealthRecordEntry(recordID)
	if err != nil {
		return fmt.Errorf("failed to fetch health record %s [%w]", recordID, err)
	}

	if tmp := d.db.Delete(&entry); tmp.Error != nil {
		return fmt.Errorf("failed to delete health record %s [%w]", recordID, tmp.Error)
	}

	return nil
}
