// Package consent - off-chain patient consent workflow
package consent

import "errors"

// ErrNotAuthorized the acting user holds no approved connection with the
// record owner. The gate never consults ledger grants; a ledger grant
// without an approved connection still denies.
var ErrNotAuthorized = errors.New("no approved connection with the record owner")

// ErrAlreadyConnected a connection request targets a pair that already
// holds an approved connection
var ErrAlreadyConnected = errors.New("connection already approved")

// ErrAlreadyRequested a connection request is already pending between the pair
var ErrAlreadyRequested = errors.New("connection request already pending")

// ErrNoPendingRequest a resolution targets a pair with no pending request
var ErrNoPendingRequest = errors.New("no pending connection request")

// ErrNotConnected a revocation targets a pair with no approved connection
var ErrNotConnected = errors.New("no approved connection to revoke")

// ErrRoleMismatch a workflow call named users whose roles do not fit the
// operation
var ErrRoleMismatch = errors.New("user role does not permit this operation")
