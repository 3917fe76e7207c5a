package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/carelock/carelock/db"
	"github.com/carelock/carelock/models"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func testEncryptedBlob() models.EncryptedBlob {
	return models.EncryptedBlob{
		CipherText: []byte(uuid.NewString()),
		Nonce:      []byte("0123456789ab"),
		Alg:        models.EncryptionAlgA256GCM,
		Version:    models.EncryptedBlobVersion,
	}
}

// TestDBHealthRecordLifecycle verifies `Database.DefineNewHealthRecord`,
// `Database.GetHealthRecord`, `Database.UpdateHealthRecordPayload`, and
// `Database.DeleteHealthRecord`.
func TestDBHealthRecordLifecycle(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/carelock_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	var patient models.User
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.DefineNewUser(ctx, "Alice", models.UserRolePatient, "")
		if err != nil {
			return err
		}
		patient = p
		return nil
	})
	assert.Nil(err)

	recordDate := time.Now().UTC().Truncate(time.Second)

	// 1 – Define a new health record
	var record models.HealthRecord
	blob := testEncryptedBlob()
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		r, err := dbClient.DefineNewHealthRecord(
			ctx, patient.ID, models.RecordTypeLabResult, recordDate, blob,
		)
		if err != nil {
			return err
		}
		record = r
		return nil
	})
	assert.Nil(err)

	// 2 – Get it back and verify its content
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		r, err := dbClient.GetHealthRecord(ctx, record.ID)
		if err != nil {
			return err
		}
		assert.Equal(patient.ID, r.UserID)
		assert.Equal(models.RecordTypeLabResult, r.RecordType)
		assert.Equal(blob.CipherText, r.EncryptedData.CipherText)
		assert.Equal(models.EncryptionAlgA256GCM, r.EncryptedData.Alg)
		return nil
	})
	assert.Nil(err)

	// 3 – Replace the encrypted payload
	newBlob := testEncryptedBlob()
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		r, err := dbClient.UpdateHealthRecordPayload(ctx, record.ID, newBlob)
		if err != nil {
			return err
		}
		assert.Equal(newBlob.CipherText, r.EncryptedData.CipherText)
		return nil
	})
	assert.Nil(err)

	// 4 – Delete the record
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		return dbClient.DeleteHealthRecord(ctx, record.ID)
	})
	assert.Nil(err)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		_, err := dbClient.GetHealthRecord(ctx, record.ID)
		assert.NotNil(err)
		return nil
	})
	assert.Nil(err)
}

// TestDBHealthRecordListFilters verifies listing restricted to unencrypted
// metadata columns.
func TestDBHealthRecordListFilters(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/carelock_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	var alice, carol models.User
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		a, err := dbClient.DefineNewUser(ctx, "Alice", models.UserRolePatient, "")
		if err != nil {
			return err
		}
		alice = a
		c, err := dbClient.DefineNewUser(ctx, "Carol", models.UserRolePatient, "")
		if err != nil {
			return err
		}
		carol = c
		return nil
	})
	assert.Nil(err)

	baseDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		for idx, seed := range []struct {
			owner      string
			recordType models.RecordTypeENUMType
		}{
			{alice.ID, models.RecordTypeConsultation},
			{alice.ID, models.RecordTypeLabResult},
			{alice.ID, models.RecordTypeLabResult},
			{carol.ID, models.RecordTypeLabResult},
		} {
			if _, err := dbClient.DefineNewHealthRecord(
				ctx, seed.owner, seed.recordType, baseDate.AddDate(0, 0, idx), testEncryptedBlob(),
			); err != nil {
				return err
			}
		}
		return nil
	})
	assert.Nil(err)

	// 1 – Filter by owner
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		records, err := dbClient.ListHealthRecords(ctx, db.HealthRecordQueryFilter{
			TargetUserID: &alice.ID,
		})
		if err != nil {
			return err
		}
		assert.Len(records, 3)
		return nil
	})
	assert.Nil(err)

	// 2 – Filter by owner and type
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		records, err := dbClient.ListHealthRecords(ctx, db.HealthRecordQueryFilter{
			TargetUserID:      &alice.ID,
			TargetRecordTypes: []models.RecordTypeENUMType{models.RecordTypeLabResult},
		})
		if err != nil {
			return err
		}
		assert.Len(records, 2)
		return nil
	})
	assert.Nil(err)

	// 3 – Filter by date window
	windowStart := baseDate.AddDate(0, 0, 1)
	windowEnd := baseDate.AddDate(0, 0, 2)
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		records, err := dbClient.ListHealthRecords(ctx, db.HealthRecordQueryFilter{
			TargetUserID: &alice.ID,
			RecordsAfter: &windowStart,
			RecordsBefore: &windowEnd,
		})
		if err != nil {
			return err
		}
		assert.Len(records, 2)
		return nil
	})
	assert.Nil(err)
}
