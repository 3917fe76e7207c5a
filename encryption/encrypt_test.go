package encryption_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/carelock/carelock/encryption"
	"github.com/carelock/carelock/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFileCipherRoundTrip(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, err := encryption.NewFileCipher()
	assert.Nil(err)

	key, err := uut.GenerateKey()
	assert.Nil(err)
	assert.Len(key, encryption.SymmetricKeyLen)

	plainText := []byte(uuid.NewString())

	nonce, cipherText, err := uut.Encrypt(plainText, key)
	assert.Nil(err)
	assert.Len(nonce, encryption.NonceLen)
	// GCM appends a 16 byte tag
	assert.Len(cipherText, len(plainText)+16)

	decrypted, err := uut.Decrypt(cipherText, key, nonce)
	assert.Nil(err)
	assert.Equal(plainText, decrypted)
}

func TestFileCipherNonceUniquePerCall(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, err := encryption.NewFileCipher()
	assert.Nil(err)

	key, err := uut.GenerateKey()
	assert.Nil(err)

	plainText := []byte(uuid.NewString())

	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		nonce, _, err := uut.Encrypt(plainText, key)
		assert.Nil(err)
		assert.False(seen[string(nonce)])
		seen[string(nonce)] = true
	}
}

func TestFileCipherAuthenticationFailures(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, err := encryption.NewFileCipher()
	assert.Nil(err)

	key, err := uut.GenerateKey()
	assert.Nil(err)

	plainText := []byte(uuid.NewString())
	nonce, cipherText, err := uut.Encrypt(plainText, key)
	assert.Nil(err)

	// Case 0: corrupted ciphertext
	{
		tampered := make([]byte, len(cipherText))
		copy(tampered, cipherText)
		tampered[0] ^= 0xff
		decrypted, err := uut.Decrypt(tampered, key, nonce)
		assert.ErrorIs(err, encryption.ErrAuthentication)
		assert.Nil(decrypted)
	}

	// Case 1: wrong key
	{
		otherKey, err := uut.GenerateKey()
		assert.Nil(err)
		decrypted, err := uut.Decrypt(cipherText, otherKey, nonce)
		assert.ErrorIs(err, encryption.ErrAuthentication)
		assert.Nil(decrypted)
	}

	// Case 2: wrong nonce
	{
		otherNonce := make([]byte, len(nonce))
		copy(otherNonce, nonce)
		otherNonce[3] ^= 0x01
		decrypted, err := uut.Decrypt(cipherText, key, otherNonce)
		assert.ErrorIs(err, encryption.ErrAuthentication)
		assert.Nil(decrypted)
	}
}

func TestFileCipherDigest(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, err := encryption.NewFileCipher()
	assert.Nil(err)

	data := []byte(uuid.NewString())

	// Stable across repeated calls
	assert.Equal(uut.Digest(data), uut.Digest(data))
	assert.Len(uut.Digest(data), 64)

	// Distinct content yields distinct digest
	other := []byte(uuid.NewString())
	assert.NotEqual(uut.Digest(data), uut.Digest(other))
}

func TestRecordCipherKeyValidation(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	// Case 0: missing key
	{
		_, err := encryption.NewRecordCipher(encryption.RecordCipherParams{})
		assert.NotNil(err)
	}

	// Case 1: not base64
	{
		_, err := encryption.NewRecordCipher(encryption.RecordCipherParams{
			KeyBase64: "not-\x00-base64!!",
		})
		assert.NotNil(err)
	}

	// Case 2: wrong decoded length
	{
		_, err := encryption.NewRecordCipher(encryption.RecordCipherParams{
			KeyBase64: base64.StdEncoding.EncodeToString([]byte("short")),
		})
		assert.NotNil(err)
	}

	// Case 3: valid 32 byte key
	{
		core, err := encryption.NewFileCipher()
		assert.Nil(err)
		key, err := core.GenerateKey()
		assert.Nil(err)
		_, err = encryption.NewRecordCipher(encryption.RecordCipherParams{
			KeyBase64: base64.StdEncoding.EncodeToString(key),
		})
		assert.Nil(err)
	}
}

func TestRecordCipherRoundTrip(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	core, err := encryption.NewFileCipher()
	assert.Nil(err)
	key, err := core.GenerateKey()
	assert.Nil(err)

	uut, err := encryption.NewRecordCipher(encryption.RecordCipherParams{
		KeyBase64: base64.StdEncoding.EncodeToString(key),
	})
	assert.Nil(err)

	fileID := uint64(42)
	payload := models.SensitivePayload{
		Version: models.SensitivePayloadVersion,
		Title:   "Annual physical",
		Content: uuid.NewString(),
		Vitals: &models.Vitals{
			HeartRate: 62, SystolicBP: 118, DiastolicBP: 76, TemperatureC: 36.7, OxygenSaturation: 99,
		},
		Diagnosis: &models.Diagnosis{
			DoctorID: uuid.NewString(), Text: "unremarkable", WrittenAt: time.Now().UTC().Truncate(time.Second),
		},
		Attachment: &models.AttachmentEnvelope{
			CID:          "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
			SHA256:       core.Digest([]byte("ciphertext")),
			KeyBase64:    base64.StdEncoding.EncodeToString(key),
			IVBase64:     base64.StdEncoding.EncodeToString(make([]byte, encryption.NonceLen)),
			SizeBytes:    2048,
			FileName:     "bloodwork.pdf",
			MimeType:     "application/pdf",
			LedgerFileID: &fileID,
		},
	}

	blob, err := uut.EncryptObject(payload)
	assert.Nil(err)
	assert.Equal(models.EncryptionAlgA256GCM, blob.Alg)
	assert.Equal(models.EncryptedBlobVersion, blob.Version)
	assert.Len(blob.Nonce, encryption.NonceLen)

	decrypted, err := uut.DecryptObject(blob)
	assert.Nil(err)
	assert.Equal(payload, decrypted)
}

func TestRecordCipherRejectsUnknownFormats(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	core, err := encryption.NewFileCipher()
	assert.Nil(err)
	key, err := core.GenerateKey()
	assert.Nil(err)

	uut, err := encryption.NewRecordCipher(encryption.RecordCipherParams{
		KeyBase64: base64.StdEncoding.EncodeToString(key),
	})
	assert.Nil(err)

	blob, err := uut.EncryptObject(models.SensitivePayload{
		Version: models.SensitivePayloadVersion, Title: "x",
	})
	assert.Nil(err)

	// Case 0: unknown algorithm tag
	{
		altered := blob
		altered.Alg = "XC20P"
		_, err := uut.DecryptObject(altered)
		assert.ErrorIs(err, encryption.ErrUnsupportedFormat)
	}

	// Case 1: future format version
	{
		altered := blob
		altered.Version = models.EncryptedBlobVersion + 1
		_, err := uut.DecryptObject(altered)
		assert.ErrorIs(err, encryption.ErrUnsupportedFormat)
	}

	// Case 2: tampered ciphertext still authenticates as crypto error
	{
		altered := blob
		altered.CipherText = make([]byte, len(blob.CipherText))
		copy(altered.CipherText, blob.CipherText)
		altered.CipherText[0] ^= 0xff
		_, err := uut.DecryptObject(altered)
		assert.ErrorIs(err, encryption.ErrAuthentication)
	}
}
