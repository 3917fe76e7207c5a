package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/apex/log"
	"github.com/carelock/carelock/db"
	"github.com/carelock/carelock/models"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// TestDBUserLifecycle verifies the behavior of `Database.DefineNewUser`,
// `Database.GetUser`, and `Database.ListUsers`.
func TestDBUserLifecycle(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/carelock_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	// Create a new DB connection
	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	// Create database tables
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// -------------------------------------------------------------------------
	// 1 – Define a patient and a doctor
	var patient, doctor models.User
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.DefineNewUser(ctx, "Alice", models.UserRolePatient, "")
		if err != nil {
			return err
		}
		patient = p
		d, err := dbClient.DefineNewUser(ctx, "Dr. Bob", models.UserRoleDoctor, "x509::doctor-bob")
		if err != nil {
			return err
		}
		doctor = d
		return nil
	})
	assert.Nil(err)

	// 2 – Get them back and verify their content
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.GetUser(ctx, patient.ID)
		if err != nil {
			return err
		}
		assert.Equal("Alice", p.Name)
		assert.Equal(models.UserRolePatient, p.Role)
		assert.Empty(p.PendingConnections)
		assert.Empty(p.SuccessfulConnections)

		d, err := dbClient.GetUser(ctx, doctor.ID)
		if err != nil {
			return err
		}
		assert.Equal(models.UserRoleDoctor, d.Role)
		assert.Equal("x509::doctor-bob", d.LedgerIdentity)
		return nil
	})
	assert.Nil(err)

	// 3 – List only doctors
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		doctors, err := dbClient.ListUsers(ctx, db.UserQueryFilter{
			TargetRoles: []models.UserRoleENUMType{models.UserRoleDoctor},
		})
		if err != nil {
			return err
		}
		assert.Len(doctors, 1)
		assert.Equal(doctor.ID, doctors[0].ID)
		return nil
	})
	assert.Nil(err)

	// 4 – A user registration audit event exists per user
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		events, err := dbClient.ListSystemEvents(ctx, db.SystemEventQueryFilter{
			EventTypes: []models.SystemEventTypeENUMType{models.SystemEventTypeUserRegistered},
		})
		if err != nil {
			return err
		}
		assert.Len(events, 2)
		return nil
	})
	assert.Nil(err)
}

// TestDBConnectionSets verifies the idempotent connection membership set
// mutations.
func TestDBConnectionSets(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/carelock_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	var patient, doctor models.User
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.DefineNewUser(ctx, "Alice", models.UserRolePatient, "")
		if err != nil {
			return err
		}
		patient = p
		d, err := dbClient.DefineNewUser(ctx, "Dr. Bob", models.UserRoleDoctor, "")
		if err != nil {
			return err
		}
		doctor = d
		return nil
	})
	assert.Nil(err)

	// 1 – Add a pending connection on both sides, twice; sets stay singular
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		for i := 0; i < 2; i++ {
			if err := dbClient.AddPendingConnection(ctx, patient.ID, doctor.ID); err != nil {
				return err
			}
			if err := dbClient.AddPendingConnection(ctx, doctor.ID, patient.ID); err != nil {
				return err
			}
		}
		return nil
	})
	assert.Nil(err)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.GetUser(ctx, patient.ID)
		if err != nil {
			return err
		}
		assert.Len(p.PendingConnections, 1)
		assert.True(p.HasPendingConnection(doctor.ID))
		return nil
	})
	assert.Nil(err)

	// 2 – Promote to successful connections and clear pending
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		if err := dbClient.RemovePendingConnection(ctx, patient.ID, doctor.ID); err != nil {
			return err
		}
		if err := dbClient.RemovePendingConnection(ctx, doctor.ID, patient.ID); err != nil {
			return err
		}
		if err := dbClient.AddSuccessfulConnection(ctx, patient.ID, doctor.ID); err != nil {
			return err
		}
		return dbClient.AddSuccessfulConnection(ctx, doctor.ID, patient.ID)
	})
	assert.Nil(err)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.GetUser(ctx, patient.ID)
		if err != nil {
			return err
		}
		assert.Empty(p.PendingConnections)
		assert.True(p.IsConnectedTo(doctor.ID))

		d, err := dbClient.GetUser(ctx, doctor.ID)
		if err != nil {
			return err
		}
		assert.True(d.IsConnectedTo(patient.ID))
		return nil
	})
	assert.Nil(err)

	// 3 – Revoke the successful connection
	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		if err := dbClient.RemoveSuccessfulConnection(ctx, patient.ID, doctor.ID); err != nil {
			return err
		}
		return dbClient.RemoveSuccessfulConnection(ctx, doctor.ID, patient.ID)
	})
	assert.Nil(err)

	err = uut.UseDatabaseInTransaction(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.GetUser(ctx, patient.ID)
		if err != nil {
			return err
		}
		assert.False(p.IsConnectedTo(doctor.ID))
		return nil
	})
	assert.Nil(err)
}
