package consent

import (
	"context"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/carelock/carelock/db"
	"github.com/carelock/carelock/models"
)

/*
Manager patient consent workflow.

The connection membership sets in the metadata store are the authoritative
consent state. Ledger connection entries are audit material only; no call
here reads the ledger, and no ledger state can substitute for an approved
connection.
*/
type Manager interface {
	/*
		RequestConnection record a doctor's connection request against a patient

			@param ctx context.Context - execution context
			@param doctorID string - requesting doctor user ID
			@param patientID string - target patient user ID
	*/
	RequestConnection(ctx context.Context, doctorID string, patientID string) error

	/*
		ResolveConnection resolve a pending connection request, patient only

			@param ctx context.Context - execution context
			@param patientID string - resolving patient user ID
			@param doctorID string - requesting doctor user ID
			@param approve bool - whether the patient approved the request
	*/
	ResolveConnection(ctx context.Context, patientID string, doctorID string, approve bool) error

	/*
		RevokeConnection remove an approved connection, patient only

			@param ctx context.Context - execution context
			@param patientID string - revoking patient user ID
			@param doctorID string - doctor whose access is withdrawn
	*/
	RevokeConnection(ctx context.Context, patientID string, doctorID string) error

	/*
		Authorize verify an actor may read a patient's records

		Owners always pass. Anyone else must hold an approved connection with
		the owner.

			@param ctx context.Context - execution context
			@param actorID string - acting user ID
			@param ownerID string - record owner user ID
	*/
	Authorize(ctx context.Context, actorID string, ownerID string) error
}

// managerImpl implements Manager
type managerImpl struct {
	goutils.Component
	persistence db.Client
}

/*
NewManager define a new consent workflow manager

	@param persistence db.Client - metadata store client
	@returns manager instance
*/
func NewManager(persistence db.Client) (Manager, error) {
	logTags := log.Fields{"module": "consent", "component": "workflow"}

	return &managerImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
	}, nil
}

// fetchPair fetch the doctor and patient entries, verifying roles
func fetchPair(
	ctx context.Context, dbClient db.Database, doctorID string, patientID string,
) (models.User, models.User, error) {
	doctor, err := dbClient.GetUser(ctx, doctorID)
	if err != nil {
		return models.User{}, models.User{}, fmt.Errorf(
			"failed to fetch doctor %s [%w]", doctorID, err,
		)
	}
	patient, err := dbClient.GetUser(ctx, patientID)
	if err != nil {
		return models.User{}, models.User{}, fmt.Errorf(
			"failed to fetch patient %s [%w]", patientID, err,
		)
	}

	if doctor.Role != models.UserRoleDoctor || patient.Role != models.UserRolePatient {
		return models.User{}, models.User{}, fmt.Errorf(
			"pair %s / %s [%w]", doctorID, patientID, ErrRoleMismatch,
		)
	}

	return doctor, patient, nil
}

/*
RequestConnection record a doctor's connection request against a patient

	@param ctx context.Context - execution context
	@param doctorID string - requesting doctor user ID
	@param patientID string - target patient user ID
*/
func (m *managerImpl) RequestConnection(
	ctx context.Context, doctorID string, patientID string,
) error {
	// Both membership set updates land in one transaction so the pending
	// state is symmetric or absent, never one-sided.
	return m.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			doctor, patient, err := fetchPair(ctx, dbClient, doctorID, patientID)
			if err != nil {
				return err
			}

			if patient.IsConnectedTo(doctorID) {
				return fmt.Errorf("doctor %s, patient %s [%w]", doctorID, patientID, ErrAlreadyConnected)
			}
			if patient.HasPendingConnection(doctorID) || doctor.HasPendingConnection(patientID) {
				return fmt.Errorf("doctor %s, patient %s [%w]", doctorID, patientID, ErrAlreadyRequested)
			}

			if err := dbClient.AddPendingConnection(ctx, patientID, doctorID); err != nil {
				return err
			}
			if err := dbClient.AddPendingConnection(ctx, doctorID, patientID); err != nil {
				return err
			}

			if _, err := dbClient.RecordSystemEvent(
				ctx,
				models.SystemEventTypeConnectionRequested,
				models.SystemEventConnectionRelated{DoctorID: doctorID, PatientID: patientID},
			); err != nil {
				return fmt.Errorf("failed to log connection request audit event [%w]", err)
			}

			log.WithFields(m.LogTags).
				WithField("doctor", doctorID).
				WithField("patient", patientID).
				Info("Connection requested")
			return nil
		},
	)
}

/*
ResolveConnection resolve a pending connection request, patient only

	@param ctx context.Context - execution context
	@param patientID string - resolving patient user ID
	@param doctorID string - requesting doctor user ID
	@param approve bool - whether the patient approved the request
*/
func (m *managerImpl) ResolveConnection(
	ctx context.Context, patientID string, doctorID string, approve bool,
) error {
	return m.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			_, patient, err := fetchPair(ctx, dbClient, doctorID, patientID)
			if err != nil {
				return err
			}

			if !patient.HasPendingConnection(doctorID) {
				return fmt.Errorf("doctor %s, patient %s [%w]", doctorID, patientID, ErrNoPendingRequest)
			}

			if err := dbClient.RemovePendingConnection(ctx, patientID, doctorID); err != nil {
				return err
			}
			if err := dbClient.RemovePendingConnection(ctx, doctorID, patientID); err != nil {
				return err
			}

			eventType := models.SystemEventTypeConnectionDenied
			if approve {
				eventType = models.SystemEventTypeConnectionApproved
				if err := dbClient.AddSuccessfulConnection(ctx, patientID, doctorID); err != nil {
					return err
				}
				if err := dbClient.AddSuccessfulConnection(ctx, doctorID, patientID); err != nil {
					return err
				}
			}

			if _, err := dbClient.RecordSystemEvent(
				ctx,
				eventType,
				models.SystemEventConnectionRelated{DoctorID: doctorID, PatientID: patientID},
			); err != nil {
				return fmt.Errorf("failed to log connection resolution audit event [%w]", err)
			}

			log.WithFields(m.LogTags).
				WithField("doctor", doctorID).
				WithField("patient", patientID).
				WithField("approved", approve).
				Info("Connection request resolved")
			return nil
		},
	)
}

/*
RevokeConnection remove an approved connection, patient only

	@param ctx context.Context - execution context
	@param patientID string - revoking patient user ID
	@param doctorID string - doctor whose access is withdrawn
*/
func (m *managerImpl) RevokeConnection(
	ctx context.Context, patientID string, doctorID string,
) error {
	return m.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			_, patient, err := fetchPair(ctx, dbClient, doctorID, patientID)
			if err != nil {
				return err
			}

			if !patient.IsConnectedTo(doctorID) {
				return fmt.Errorf("doctor %s, patient %s [%w]", doctorID, patientID, ErrNotConnected)
			}

			if err := dbClient.RemoveSuccessfulConnection(ctx, patientID, doctorID); err != nil {
				return err
			}
			if err := dbClient.RemoveSuccessfulConnection(ctx, doctorID, patientID); err != nil {
				return err
			}

			if _, err := dbClient.RecordSystemEvent(
				ctx,
				models.SystemEventTypeConnectionRevoked,
				models.SystemEventConnectionRelated{DoctorID: doctorID, PatientID: patientID},
			); err != nil {
				return fmt.Errorf("failed to log connection revocation audit event [%w]", err)
			}

			log.WithFields(m.LogTags).
				WithField("doctor", doctorID).
				WithField("patient", patientID).
				Info("Connection revoked")
			return nil
		},
	)
}

/*
Authorize verify an actor may read a patient's records

Owners always pass. Anyone else must hold an approved connection with the
owner.

	@param ctx context.Context - execution context
	@param actorID string - acting user ID
	@param ownerID string - record owner user ID
*/
func (m *managerImpl) Authorize(ctx context.Context, actorID string, ownerID string) error {
	if actorID == ownerID {
		return nil
	}

	return m.persistence.UseDatabase(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			owner, err := dbClient.GetUser(ctx, ownerID)
			if err != nil {
				return fmt.Errorf("failed to fetch record owner %s [%w]", ownerID, err)
			}

			if !owner.IsConnectedTo(actorID) {
				return fmt.Errorf("actor %s, owner %s [%w]", actorID, ownerID, ErrNotAuthorized)
			}
			return nil
		},
	)
}
