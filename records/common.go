// Package records - health record orchestration
package records

import "errors"

// DefaultMaxAttachmentBytes intake ceiling for attachment plain text. This is
// deliberately below the pinning upload ceiling so the encrypted form still
// fits.
const DefaultMaxAttachmentBytes = int64(5 * 1024 * 1024)

// ErrNoAttachment the record carries no attachment envelope
var ErrNoAttachment = errors.New("record has no attachment")

// ErrAttachmentTooLarge the attachment exceeds the intake ceiling
var ErrAttachmentTooLarge = errors.New("attachment exceeds size ceiling")

// ErrNotOwner the operation is reserved for the record owner
var ErrNotOwner = errors.New("caller does not own this record")

// ErrLedgerUnavailable no access registry client was configured
var ErrLedgerUnavailable = errors.New("access registry not configured")

// ErrNotRegistered the attachment has no registry file ID yet
var ErrNotRegistered = errors.New("attachment not registered on the access registry")

// ErrAlreadyRegistered the attachment already holds a registry file ID
var ErrAlreadyRegistered = errors.New("attachment already registered on the access registry")

// ErrNoLedgerIdentity the target user is not enrolled on the access registry
var ErrNoLedgerIdentity = errors.New("user has no ledger identity")
