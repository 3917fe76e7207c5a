package consent_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/apex/log"
	"github.com/carelock/carelock/consent"
	"github.com/carelock/carelock/db"
	"github.com/carelock/carelock/models"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// prepareTestUsers create a fresh metadata store with one patient and one doctor
func prepareTestUsers(
	t *testing.T, utCtx context.Context,
) (db.Client, models.User, models.User) {
	assert := assert.New(t)

	// Create a unique temporary DB file for this test
	testDB := fmt.Sprintf("/tmp/carelock_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	persistence, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(persistence.RunSQLInTransaction(utCtx, db.DefineTables))

	var patient, doctor models.User
	err = persistence.UseDatabaseInTransaction(
		utCtx, func(ctx context.Context, dbClient db.Database) error {
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
		},
	)
	assert.Nil(err)

	return persistence, patient, doctor
}

// TestConsentRequestLifecycle verifies the behavior of
// `Manager.RequestConnection` and `Manager.ResolveConnection` on approval.
func TestConsentRequestLifecycle(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	persistence, patient, doctor := prepareTestUsers(t, utCtx)

	uut, err := consent.NewManager(persistence)
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Doctor requests a connection; pending state is symmetric
	assert.Nil(uut.RequestConnection(utCtx, doctor.ID, patient.ID))

	err = persistence.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.GetUser(ctx, patient.ID)
		assert.Nil(err)
		assert.True(p.HasPendingConnection(doctor.ID))
		d, err := dbClient.GetUser(ctx, doctor.ID)
		assert.Nil(err)
		assert.True(d.HasPendingConnection(patient.ID))
		return nil
	})
	assert.Nil(err)

	// 2 – A duplicate request is rejected
	assert.ErrorIs(uut.RequestConnection(utCtx, doctor.ID, patient.ID), consent.ErrAlreadyRequested)

	// 3 – Patient approves; pending clears and the connection is symmetric
	assert.Nil(uut.ResolveConnection(utCtx, patient.ID, doctor.ID, true))

	err = persistence.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.GetUser(ctx, patient.ID)
		assert.Nil(err)
		assert.False(p.HasPendingConnection(doctor.ID))
		assert.True(p.IsConnectedTo(doctor.ID))
		d, err := dbClient.GetUser(ctx, doctor.ID)
		assert.Nil(err)
		assert.False(d.HasPendingConnection(patient.ID))
		assert.True(d.IsConnectedTo(patient.ID))
		return nil
	})
	assert.Nil(err)

	// 4 – A request against an approved pair is rejected
	assert.ErrorIs(uut.RequestConnection(utCtx, doctor.ID, patient.ID), consent.ErrAlreadyConnected)

	// 5 – The workflow left an audit trail with parseable metadata
	validate := validator.New()
	assert.Nil(models.RegisterWithValidator(validate))
	err = persistence.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		events, err := dbClient.ListSystemEvents(ctx, db.SystemEventQueryFilter{
			EventTypes: []models.SystemEventTypeENUMType{
				models.SystemEventTypeConnectionRequested,
				models.SystemEventTypeConnectionApproved,
			},
		})
		assert.Nil(err)
		assert.Len(events, 2)
		for _, event := range events {
			parsed, err := event.ParseMetadata(validate)
			assert.Nil(err)
			metadata, ok := parsed.(models.SystemEventConnectionRelated)
			assert.True(ok)
			assert.Equal(doctor.ID, metadata.DoctorID)
			assert.Equal(patient.ID, metadata.PatientID)
		}
		return nil
	})
	assert.Nil(err)
}

// TestConsentDenial verifies the behavior of `Manager.ResolveConnection` on denial.
func TestConsentDenial(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	persistence, patient, doctor := prepareTestUsers(t, utCtx)

	uut, err := consent.NewManager(persistence)
	assert.Nil(err)

	// Resolution without a request is rejected
	assert.ErrorIs(
		uut.ResolveConnection(utCtx, patient.ID, doctor.ID, false), consent.ErrNoPendingRequest,
	)

	assert.Nil(uut.RequestConnection(utCtx, doctor.ID, patient.ID))
	assert.Nil(uut.ResolveConnection(utCtx, patient.ID, doctor.ID, false))

	// Denial clears pending without connecting, and the doctor may ask again
	err = persistence.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		p, err := dbClient.GetUser(ctx, patient.ID)
		assert.Nil(err)
		assert.False(p.HasPendingConnection(doctor.ID))
		assert.False(p.IsConnectedTo(doctor.ID))
		return nil
	})
	assert.Nil(err)
	assert.Nil(uut.RequestConnection(utCtx, doctor.ID, patient.ID))
}

// TestConsentRevocation verifies the behavior of `Manager.RevokeConnection`.
func TestConsentRevocation(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	persistence, patient, doctor := prepareTestUsers(t, utCtx)

	uut, err := consent.NewManager(persistence)
	assert.Nil(err)

	// Revocation without a connection is rejected
	assert.ErrorIs(uut.RevokeConnection(utCtx, patient.ID, doctor.ID), consent.ErrNotConnected)

	assert.Nil(uut.RequestConnection(utCtx, doctor.ID, patient.ID))
	assert.Nil(uut.ResolveConnection(utCtx, patient.ID, doctor.ID, true))
	assert.Nil(uut.Authorize(utCtx, doctor.ID, patient.ID))

	assert.Nil(uut.RevokeConnection(utCtx, patient.ID, doctor.ID))

	// Both sides dropped, and the gate denies again
	err = persistence.UseDatabase(utCtx, func(ctx context.Context, dbClient db.Database) error {
		d, err := dbClient.GetUser(ctx, doctor.ID)
		assert.Nil(err)
		assert.False(d.IsConnectedTo(patient.ID))
		return nil
	})
	assert.Nil(err)
	assert.ErrorIs(uut.Authorize(utCtx, doctor.ID, patient.ID), consent.ErrNotAuthorized)
}

// TestConsentAuthorizeGate verifies the behavior of `Manager.Authorize`.
func TestConsentAuthorizeGate(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	persistence, patient, doctor := prepareTestUsers(t, utCtx)

	uut, err := consent.NewManager(persistence)
	assert.Nil(err)

	// Owners always pass
	assert.Nil(uut.Authorize(utCtx, patient.ID, patient.ID))

	// An unconnected doctor is denied even while a request is pending
	assert.ErrorIs(uut.Authorize(utCtx, doctor.ID, patient.ID), consent.ErrNotAuthorized)
	assert.Nil(uut.RequestConnection(utCtx, doctor.ID, patient.ID))
	assert.ErrorIs(uut.Authorize(utCtx, doctor.ID, patient.ID), consent.ErrNotAuthorized)

	// Approval opens the gate
	assert.Nil(uut.ResolveConnection(utCtx, patient.ID, doctor.ID, true))
	assert.Nil(uut.Authorize(utCtx, doctor.ID, patient.ID))
}

// TestConsentRoleEnforcement verifies connection calls reject role mismatches.
func TestConsentRoleEnforcement(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	persistence, patient, doctor := prepareTestUsers(t, utCtx)

	uut, err := consent.NewManager(persistence)
	assert.Nil(err)

	// Swapped roles are rejected
	assert.ErrorIs(uut.RequestConnection(utCtx, patient.ID, doctor.ID), consent.ErrRoleMismatch)
}
