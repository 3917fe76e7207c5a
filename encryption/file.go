package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

/*
FileCipher per-attachment envelope cipher.

Every attachment is encrypted under its own fresh 256-bit AES-GCM key with a
fresh 96-bit nonce per call. Reusing a nonce under the same key is a
correctness violation, so callers never supply nonces; Encrypt always draws
a new one. The cipher performs no I/O.
*/
type FileCipher interface {
	/*
		GenerateKey generate a new 256-bit symmetric key

			@returns the raw key bytes
	*/
	GenerateKey() ([]byte, error)

	/*
		Encrypt encrypt plain text under the given key with a fresh random nonce

			@param plainText []byte - the plain text to encrypt
			@param key []byte - 256-bit symmetric key
			@returns the nonce used, and the cipher text (AEAD tag appended)
	*/
	Encrypt(plainText []byte, key []byte) ([]byte, []byte, error)

	/*
		Decrypt decrypt cipher text

			@param cipherText []byte - the cipher text to decrypt
			@param key []byte - 256-bit symmetric key
			@param nonce []byte - the nonce used at encryption
			@returns the plain text
	*/
	Decrypt(cipherText []byte, key []byte, nonce []byte) ([]byte, error)

	/*
		Digest compute the content digest of a byte sequence

			@param data []byte - the bytes to digest
			@returns lowercase hex SHA-256 digest
	*/
	Digest(data []byte) string
}

// fileCipher implements FileCipher
type fileCipher struct {
	goutils.Component
}

/*
NewFileCipher define a new per-attachment envelope cipher

	@returns cipher instance
*/
func NewFileCipher() (FileCipher, error) {
	logTags := log.Fields{"module": "encryption", "component": "file-cipher"}

	return &fileCipher{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
	}, nil
}

// newAEAD build the AES-GCM AEAD for a key
func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != SymmetricKeyLen {
		return nil, fmt.Errorf("symmetric key must be %d bytes, got %d", SymmetricKeyLen, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES block cipher [%w]", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM AEAD [%w]", err)
	}

	return aead, nil
}

/*
GenerateKey generate a new 256-bit symmetric key

	@returns the raw key bytes
*/
func (c *fileCipher) GenerateKey() ([]byte, error) {
	newKey := make([]byte, SymmetricKeyLen)
	if n, err := rand.Read(newKey); err != nil {
		return nil, fmt.Errorf("failed to read %d bytes from RNG [%w]", SymmetricKeyLen, err)
	} else if n != SymmetricKeyLen {
		return nil, fmt.Errorf("did not get %d bytes from RNG, only %d", SymmetricKeyLen, n)
	}
	return newKey, nil
}

/*
Encrypt encrypt plain text under the given key with a fresh random nonce

	@param plainText []byte - the plain text to encrypt
	@param key []byte - 256-bit symmetric key
	@returns the nonce used, and the cipher text (AEAD tag appended)
*/
func (c *fileCipher) Encrypt(plainText []byte, key []byte) ([]byte, []byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup AEAD client [%w]", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate AEAD nonce [%w]", err)
	}

	cipherText := aead.Seal(nil, nonce, plainText, nil)
	return nonce, cipherText, nil
}

/*
Decrypt decrypt cipher text

	@param cipherText []byte - the cipher text to decrypt
	@param key []byte - 256-bit symmetric key
	@param nonce []byte - the nonce used at encryption
	@returns the plain text
*/
func (c *fileCipher) Decrypt(cipherText []byte, key []byte, nonce []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("failed to setup AEAD client [%w]", err)
	}

	if len(nonce) != aead.NonceSize() {
		log.WithFields(c.LogTags).
			WithField("nonce-length", len(nonce)).
			Warn("Rejected cipher text with malformed nonce")
		return nil, fmt.Errorf("nonce must be %d bytes, got %d [%w]", aead.NonceSize(), len(nonce), ErrAuthentication)
	}

	plainText, err := aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		log.WithError(err).WithFields(c.LogTags).Warn("Cipher text failed authentication")
		return nil, fmt.Errorf("failed to decrypt cipher text [%w]", ErrAuthentication)
	}

	return plainText, nil
}

/*
Digest compute the content digest of a byte sequence

	@param data []byte - the bytes to digest
	@returns lowercase hex SHA-256 digest
*/
func (c *fileCipher) Digest(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}
