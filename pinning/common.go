// Package pinning - content addressed storage network client
package pinning

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultFetchTimeout per-gateway retrieval timeout
	DefaultFetchTimeout = time.Second * 30

	// DefaultMaxUploadBytes upload size ceiling enforced before any network call
	DefaultMaxUploadBytes = int64(10 << 20)
)

// ErrIntegrityMismatch retrieved bytes do not match the expected content
// digest. Distinct from a fetch failure; the bytes arrived but cannot be
// trusted.
var ErrIntegrityMismatch = errors.New("retrieved content failed digest verification")

// GatewayAttempt the outcome of trying one gateway during a fetch
type GatewayAttempt struct {
	// Gateway the gateway base URL
	Gateway string
	// Err why this gateway did not produce the content
	Err error
}

// StorageUnavailableError every configured gateway failed to produce the
// content. Carries the CID and the per-gateway failures for operator
// diagnosis.
type StorageUnavailableError struct {
	// CID the content identifier being fetched
	CID string
	// Attempts per-gateway outcomes, in the order tried
	Attempts []GatewayAttempt
}

// Error implement error
func (e *StorageUnavailableError) Error() string {
	last := "no gateways configured"
	if len(e.Attempts) > 0 {
		last = e.Attempts[len(e.Attempts)-1].Err.Error()
	}
	return fmt.Sprintf(
		"content %s unavailable after %d gateway attempts (last: %s)",
		e.CID, len(e.Attempts), last,
	)
}

// Unwrap expose the last underlying gateway error
func (e *StorageUnavailableError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
