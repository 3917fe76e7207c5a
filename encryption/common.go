// Package encryption - data encryption processing engines
package encryption

import "errors"

// ErrAuthentication ciphertext failed AEAD authentication during decryption.
// Wrong key, wrong nonce, or altered ciphertext all surface as this error;
// no partial plaintext is ever returned.
var ErrAuthentication = errors.New("ciphertext authentication failed")

// ErrUnsupportedFormat the encrypted blob carries an algorithm tag or format
// version this build does not understand. Unknown formats are rejected
// outright instead of guessed at.
var ErrUnsupportedFormat = errors.New("unsupported encrypted blob format")

const (
	// SymmetricKeyLen length in bytes of all symmetric encryption keys
	SymmetricKeyLen = 32

	// NonceLen length in bytes of the AEAD nonce
	NonceLen = 12
)
