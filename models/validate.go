package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	if err := v.RegisterValidation(
		"user_role", validateUserRoleType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"record_type", validateRecordType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"system_event_type", validateSystemEventType,
	); err != nil {
		return err
	}

	return nil
}

func validateUserRoleType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch UserRoleENUMType(fl.Field().String()) {
	case UserRolePatient:
		fallthrough
	case UserRoleDoctor:
		return true
	}
	return false
}

func validateRecordType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch RecordTypeENUMType(fl.Field().String()) {
	case RecordTypeConsultation:
		fallthrough
	case RecordTypeLabResult:
		fallthrough
	case RecordTypePrescription:
		fallthrough
	case RecordTypeImaging:
		fallthrough
	case RecordTypeVitals:
		return true
	}
	return false
}

func validateSystemEventType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch SystemEventTypeENUMType(fl.Field().String()) {
	case SystemEventTypeUserRegistered:
		fallthrough
	case SystemEventTypeConnectionRequested:
		fallthrough
	case SystemEventTypeConnectionApproved:
		fallthrough
	case SystemEventTypeConnectionDenied:
		fallthrough
	case SystemEventTypeConnectionRevoked:
		fallthrough
	case SystemEventTypeAddNewRecord:
		fallthrough
	case SystemEventTypeDiagnosisWritten:
		fallthrough
	case SystemEventTypeFileRegistered:
		fallthrough
	case SystemEventTypeAccessGranted:
		fallthrough
	case SystemEventTypeAccessRevoked:
		fallthrough
	case SystemEventTypeAttachmentOpened:
		return true
	}
	return false
}
