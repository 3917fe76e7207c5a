package encryption

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/carelock/carelock/models"
	"github.com/go-playground/validator/v10"
)

/*
RecordCipher application-record cipher.

Encrypts the serialized sensitive payload of a health record under a single
long-lived operator key. The key is loaded once at construction from
configuration; a missing or malformed key fails the constructor, not a later
request.
*/
type RecordCipher interface {
	/*
		EncryptObject serialize and encrypt a sensitive payload

			@param payload models.SensitivePayload - the payload to protect
			@returns the encrypted blob
	*/
	EncryptObject(payload models.SensitivePayload) (models.EncryptedBlob, error)

	/*
		DecryptObject decrypt and deserialize a sensitive payload

			@param blob models.EncryptedBlob - the encrypted blob
			@returns the payload
	*/
	DecryptObject(blob models.EncryptedBlob) (models.SensitivePayload, error)
}

// recordCipher implements RecordCipher
type recordCipher struct {
	goutils.Component

	key    []byte
	cipher FileCipher
}

// RecordCipherParams record cipher init parameters
type RecordCipherParams struct {
	// KeyBase64 base64 encoded 256-bit operator key
	KeyBase64 string `validate:"required,base64"`
}

/*
NewRecordCipher define a new application-record cipher

	@param params RecordCipherParams - cipher parameters
	@returns cipher instance
*/
func NewRecordCipher(params RecordCipherParams) (RecordCipher, error) {
	logTags := log.Fields{"module": "encryption", "component": "record-cipher"}

	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid record cipher init parameters [%w]", err)
	}

	key, err := base64.StdEncoding.DecodeString(params.KeyBase64)
	if err != nil {
		return nil, fmt.Errorf("record encryption key is not valid base64 [%w]", err)
	}
	if len(key) != SymmetricKeyLen {
		return nil, fmt.Errorf(
			"record encryption key must decode to %d bytes, got %d", SymmetricKeyLen, len(key),
		)
	}

	core, err := NewFileCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare core cipher [%w]", err)
	}

	return &recordCipher{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		key:    key,
		cipher: core,
	}, nil
}

/*
EncryptObject serialize and encrypt a sensitive payload

	@param payload models.SensitivePayload - the payload to protect
	@returns the encrypted blob
*/
func (c *recordCipher) EncryptObject(payload models.SensitivePayload) (models.EncryptedBlob, error) {
	serialized, err := json.Marshal(&payload)
	if err != nil {
		return models.EncryptedBlob{}, fmt.Errorf("failed to serialize sensitive payload [%w]", err)
	}

	nonce, cipherText, err := c.cipher.Encrypt(serialized, c.key)
	if err != nil {
		return models.EncryptedBlob{}, fmt.Errorf("failed to encrypt sensitive payload [%w]", err)
	}

	return models.EncryptedBlob{
		CipherText: cipherText,
		Nonce:      nonce,
		Alg:        models.EncryptionAlgA256GCM,
		Version:    models.EncryptedBlobVersion,
	}, nil
}

/*
DecryptObject decrypt and deserialize a sensitive payload

	@param blob models.EncryptedBlob - the encrypted blob
	@returns the payload
*/
func (c *recordCipher) DecryptObject(blob models.EncryptedBlob) (models.SensitivePayload, error) {
	if blob.Alg != models.EncryptionAlgA256GCM {
		return models.SensitivePayload{}, fmt.Errorf(
			"blob algorithm '%s' unknown [%w]", blob.Alg, ErrUnsupportedFormat,
		)
	}
	if blob.Version != models.EncryptedBlobVersion {
		return models.SensitivePayload{}, fmt.Errorf(
			"blob format version %d unknown [%w]", blob.Version, ErrUnsupportedFormat,
		)
	}

	serialized, err := c.cipher.Decrypt(blob.CipherText, c.key, blob.Nonce)
	if err != nil {
		return models.SensitivePayload{}, fmt.Errorf("failed to decrypt record blob [%w]", err)
	}

	var payload models.SensitivePayload
	if err := json.Unmarshal(serialized, &payload); err != nil {
		return models.SensitivePayload{}, fmt.Errorf(
			"failed to deserialize sensitive payload [%w]", err,
		)
	}

	return payload, nil
}
