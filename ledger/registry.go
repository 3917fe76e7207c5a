package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// FileRecord an access registry entry for one stored attachment
type FileRecord struct {
	// FileID registry assigned file ID
	FileID uint64 `json:"fileId"`
	// Owner ledger identity of the file owner
	Owner string `json:"owner"`
	// CID content identifier of the attachment ciphertext
	CID string `json:"cid"`
	// Hash hex digest of the attachment ciphertext
	Hash string `json:"hash"`
	// MimeType attachment MIME type
	MimeType string `json:"mimeType"`
	// Size ciphertext size in bytes
	Size int64 `json:"size"`
	// Timestamp registration time, Unix seconds
	Timestamp int64 `json:"timestamp"`
	// AuthorizedDoctors ledger identities currently granted access
	AuthorizedDoctors []string `json:"authorizedDoctors"`
	// Exists distinguishes a registered file from an out-of-range ID
	Exists bool `json:"exists"`
}

/*
RegistryClient access registry operations.

State-mutating calls require a signing contract context; they are reported
to the caller on failure and never silently retried. The ConnectIdentities
primitive maintains the ledger's own coarse connection audit trail only; no
access decision in this system consults it.
*/
type RegistryClient interface {
	/*
		RegisterFile register a stored attachment, called once by its owner

			@param ctx context.Context - execution context
			@param cid string - content identifier of the ciphertext
			@param hash string - hex digest of the ciphertext
			@param mimeType string - attachment MIME type
			@param size int64 - ciphertext size in bytes
			@returns the registry assigned file ID
	*/
	RegisterFile(
		ctx context.Context, cid string, hash string, mimeType string, size int64,
	) (uint64, error)

	/*
		GrantAccess grant a doctor read access to a file, owner only

			@param ctx context.Context - execution context
			@param fileID uint64 - registry file ID
			@param grantee string - doctor ledger identity
	*/
	GrantAccess(ctx context.Context, fileID uint64, grantee string) error

	/*
		RevokeAccess revoke a doctor's access to a file, owner only

			@param ctx context.Context - execution context
			@param fileID uint64 - registry file ID
			@param grantee string - doctor ledger identity
	*/
	RevokeAccess(ctx context.Context, fileID uint64, grantee string) error

	/*
		HasAccess check whether an identity may read a file

			@param ctx context.Context - execution context
			@param fileID uint64 - registry file ID
			@param grantee string - ledger identity
			@returns whether access is granted
	*/
	HasAccess(ctx context.Context, fileID uint64, grantee string) (bool, error)

	/*
		GetFile fetch one registry entry

			@param ctx context.Context - execution context
			@param fileID uint64 - registry file ID
			@returns the registry entry
	*/
	GetFile(ctx context.Context, fileID uint64) (FileRecord, error)

	/*
		ListFilesForOwner list registry entries owned by an identity

			@param ctx context.Context - execution context
			@param owner string - owner ledger identity
			@returns registry entries
	*/
	ListFilesForOwner(ctx context.Context, owner string) ([]FileRecord, error)

	/*
		ListFilesForGrantee list registry entries an identity was granted access to

			@param ctx context.Context - execution context
			@param grantee string - grantee ledger identity
			@returns registry entries
	*/
	ListFilesForGrantee(ctx context.Context, grantee string) ([]FileRecord, error)

	/*
		ConnectIdentities record a coarse connection between two identities on
		the ledger audit trail

			@param ctx context.Context - execution context
			@param identityA string - first ledger identity
			@param identityB string - second ledger identity
	*/
	ConnectIdentities(ctx context.Context, identityA string, identityB string) error

	/*
		GetTotalFiles read the total registered file count

			@param ctx context.Context - execution context
			@returns file count
	*/
	GetTotalFiles(ctx context.Context) (uint64, error)
}

// registryClient implements RegistryClient
type registryClient struct {
	goutils.Component

	contract Contract
}

// registrationResult the transaction payload emitted by file registration
type registrationResult struct {
	FileID *uint64 `json:"fileId"`
}

/*
NewRegistryClient define a new access registry client

Verifies the designated channel is reachable before returning; a client
pointed at the wrong network fails here, not on first submission.

	@param ctx context.Context - execution context
	@param contract Contract - registry contract binding
	@returns client instance
*/
func NewRegistryClient(_ context.Context, contract Contract) (RegistryClient, error) {
	logTags := log.Fields{"module": "ledger", "component": "registry-client"}

	instance := &registryClient{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		contract: contract,
	}

	// Reachability probe against the designated channel
	if _, err := contract.EvaluateTransaction("GetTotalFiles"); err != nil {
		return nil, fmt.Errorf("registry probe failed: %v [%w]", err, ErrWrongNetwork)
	}

	return instance, nil
}

/*
RegisterFile register a stored attachment, called once by its owner

	@param ctx context.Context - execution context
	@param cid string - content identifier of the ciphertext
	@param hash string - hex digest of the ciphertext
	@param mimeType string - attachment MIME type
	@param size int64 - ciphertext size in bytes
	@returns the registry assigned file ID
*/
func (c *registryClient) RegisterFile(
	ctx context.Context, cid string, hash string, mimeType string, size int64,
) (uint64, error) {
	payload, err := c.contract.SubmitTransaction(
		"RegisterFile", cid, hash, mimeType, strconv.FormatInt(size, 10),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to submit file registration for %s [%w]", cid, err)
	}

	// The assigned ID rides on the transaction payload. Payload encoding has
	// varied across chaincode versions, so an unparsable payload falls back
	// to the total-file-count reconciliation read.
	var result registrationResult
	if parseErr := json.Unmarshal(payload, &result); parseErr == nil && result.FileID != nil {
		return *result.FileID, nil
	}

	log.WithFields(c.LogTags).
		WithField("cid", cid).
		Warn("Registration payload unparsable, falling back to file count read")

	total, err := c.GetTotalFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf(
			"registration committed for %s but ID recovery failed [%w]", cid, ErrEventParse,
		)
	}

	return total, nil
}

/*
GrantAccess grant a doctor read access to a file, owner only

	@param ctx context.Context - execution context
	@param fileID uint64 - registry file ID
	@param grantee string - doctor ledger identity
*/
func (c *registryClient) GrantAccess(_ context.Context, fileID uint64, grantee string) error {
	if _, err := c.contract.SubmitTransaction(
		"GrantAccess", strconv.FormatUint(fileID, 10), grantee,
	); err != nil {
		return fmt.Errorf("failed to grant access on file %d to %s [%w]", fileID, grantee, err)
	}
	return nil
}

/*
RevokeAccess revoke a doctor's access to a file, owner only

	@param ctx context.Context - execution context
	@param fileID uint64 - registry file ID
	@param grantee string - doctor ledger identity
*/
func (c *registryClient) RevokeAccess(_ context.Context, fileID uint64, grantee string) error {
	if _, err := c.contract.SubmitTransaction(
		"RevokeAccess", strconv.FormatUint(fileID, 10), grantee,
	); err != nil {
		return fmt.Errorf("failed to revoke access on file %d from %s [%w]", fileID, grantee, err)
	}
	return nil
}

/*
HasAccess check whether an identity may read a file

	@param ctx context.Context - execution context
	@param fileID uint64 - registry file ID
	@param grantee string - ledger identity
	@returns whether access is granted
*/
func (c *registryClient) HasAccess(
	_ context.Context, fileID uint64, grantee string,
) (bool, error) {
	payload, err := c.contract.EvaluateTransaction(
		"HasAccess", strconv.FormatUint(fileID, 10), grantee,
	)
	if err != nil {
		return false, fmt.Errorf("failed to query access on file %d for %s [%w]", fileID, grantee, err)
	}

	granted, err := strconv.ParseBool(string(payload))
	if err != nil {
		return false, fmt.Errorf("access query on file %d returned '%s' [%w]", fileID, payload, err)
	}

	return granted, nil
}

/*
GetFile fetch one registry entry

	@param ctx context.Context - execution context
	@param fileID uint64 - registry file ID
	@returns the registry entry
*/
func (c *registryClient) GetFile(_ context.Context, fileID uint64) (FileRecord, error) {
	payload, err := c.contract.EvaluateTransaction("GetFile", strconv.FormatUint(fileID, 10))
	if err != nil {
		return FileRecord{}, fmt.Errorf("failed to fetch registry file %d [%w]", fileID, err)
	}

	var record FileRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return FileRecord{}, fmt.Errorf("registry file %d payload parse failed [%w]", fileID, err)
	}

	return record, nil
}

// listFiles shared list query helper
func (c *registryClient) listFiles(query string, arg string) ([]FileRecord, error) {
	payload, err := c.contract.EvaluateTransaction(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query '%s' for %s [%w]", query, arg, err)
	}

	records := []FileRecord{}
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("'%s' payload parse failed [%w]", query, err)
	}

	return records, nil
}

/*
ListFilesForOwner list registry entries owned by an identity

	@param ctx context.Context - execution context
	@param owner string - owner ledger identity
	@returns registry entries
*/
func (c *registryClient) ListFilesForOwner(
	_ context.Context, owner string,
) ([]FileRecord, error) {
	return c.listFiles("GetFilesByOwner", owner)
}

/*
ListFilesForGrantee list registry entries an identity was granted access to

	@param ctx context.Context - execution context
	@param grantee string - grantee ledger identity
	@returns registry entries
*/
func (c *registryClient) ListFilesForGrantee(
	_ context.Context, grantee string,
) ([]FileRecord, error) {
	return c.listFiles("GetFilesByGrantee", grantee)
}

/*
ConnectIdentities record a coarse connection between two identities on the
ledger audit trail

	@param ctx context.Context - execution context
	@param identityA string - first ledger identity
	@param identityB string - second ledger identity
*/
func (c *registryClient) ConnectIdentities(
	_ context.Context, identityA string, identityB string,
) error {
	if _, err := c.contract.SubmitTransaction(
		"ConnectIdentities", identityA, identityB,
	); err != nil {
		return fmt.Errorf(
			"failed to connect identities %s and %s [%w]", identityA, identityB, err,
		)
	}
	return nil
}

/*
GetTotalFiles read the total registered file count

	@param ctx context.Context - execution context
	@returns file count
*/
func (c *registryClient) GetTotalFiles(_ context.Context) (uint64, error) {
	payload, err := c.contract.EvaluateTransaction("GetTotalFiles")
	if err != nil {
		return 0, fmt.Errorf("failed to read total file count [%w]", err)
	}

	total, err := strconv.ParseUint(string(payload), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("total file count payload '%s' unparsable [%w]", payload, err)
	}

	return total, nil
}
