// Package carelock - encrypted health record storage and consent core
package carelock

import (
	"context"
	"fmt"
	"time"

	"github.com/carelock/carelock/consent"
	"github.com/carelock/carelock/db"
	"github.com/carelock/carelock/encryption"
	"github.com/carelock/carelock/ledger"
	"github.com/carelock/carelock/pinning"
	"github.com/carelock/carelock/records"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// VaultParams vault init parameters
type VaultParams struct {
	// DBDialector GORM dialector for the metadata store
	DBDialector gorm.Dialector
	// DBLogLevel SQL log level
	DBLogLevel logger.LogLevel
	// RecordKeyBase64 base64 encoded 256-bit application record key
	RecordKeyBase64 string
	// PinningEndpointURL pinning service upload endpoint
	PinningEndpointURL string
	// PinningAuthToken pinning service credential
	PinningAuthToken string
	// GatewayURLs ordered content gateway base URLs, primary first
	GatewayURLs []string
	// FetchTimeout optional per-gateway fetch timeout override
	FetchTimeout *time.Duration
	// RedisAddr optional Redis address for the ciphertext cache
	RedisAddr string
	// CacheTTL ciphertext cache entry lifetime, used when RedisAddr is set
	CacheTTL time.Duration
	// Ledger optional Fabric gateway connection parameters. Without it, the
	// vault runs with no access registry; registry operations are refused.
	Ledger *ledger.GatewayParams
	// MaxAttachmentBytes optional attachment intake ceiling override
	MaxAttachmentBytes *int64
}

// Vault the assembled health record core
//
// Two vaults backed by the same database and record key are copies of each
// other.
type Vault struct {
	// Persistence metadata store client
	Persistence db.Client
	// Consent consent workflow manager
	Consent consent.Manager
	// Records health record orchestration
	Records records.Manager
	// Registry access registry client, nil when no ledger was configured
	Registry ledger.RegistryClient

	closers []func()
}

// Close release held connections
func (v *Vault) Close() {
	for _, closer := range v.closers {
		closer()
	}
}

/*
NewVault initialize the health record core.

	@param ctx context.Context - execution context
	@param params VaultParams - init parameters
	@returns new vault instance
*/
func NewVault(ctx context.Context, params VaultParams) (*Vault, error) {
	// Prepare persistence
	persistence, err := db.NewConnection(params.DBDialector, params.DBLogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized persistence client [%w]", err)
	}

	// Prepare cipher layers
	recordCipher, err := encryption.NewRecordCipher(encryption.RecordCipherParams{
		KeyBase64: params.RecordKeyBase64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialized record cipher [%w]", err)
	}
	fileCipher, err := encryption.NewFileCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to initialized file cipher [%w]", err)
	}

	// Prepare storage network clients
	uploader, err := pinning.NewUploader(pinning.UploaderParams{
		EndpointURL: params.PinningEndpointURL,
		AuthToken:   params.PinningAuthToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialized pinning uploader [%w]", err)
	}

	closers := []func(){}

	var cache pinning.ContentCache
	if params.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: params.RedisAddr})
		closers = append(closers, func() { _ = rdb.Close() })
		cache = pinning.NewRedisContentCache(rdb, params.CacheTTL)
	}

	fetcher, err := pinning.NewFetcher(pinning.FetcherParams{
		GatewayURLs:  params.GatewayURLs,
		FetchTimeout: params.FetchTimeout,
		Cache:        cache,
	})
	if err != nil {
		for _, closer := range closers {
			closer()
		}
		return nil, fmt.Errorf("failed to initialized content fetcher [%w]", err)
	}

	// Prepare the access registry client
	var registry ledger.RegistryClient
	if params.Ledger != nil {
		contract, closeContract, err := ledger.NewGatewayContract(*params.Ledger)
		if err != nil {
			for _, closer := range closers {
				closer()
			}
			return nil, fmt.Errorf("failed to connect with access registry [%w]", err)
		}
		closers = append(closers, closeContract)

		registry, err = ledger.NewRegistryClient(ctx, contract)
		if err != nil {
			for _, closer := range closers {
				closer()
			}
			return nil, fmt.Errorf("failed to initialized access registry client [%w]", err)
		}
	}

	// Prepare the consent workflow
	consentMgr, err := consent.NewManager(persistence)
	if err != nil {
		for _, closer := range closers {
			closer()
		}
		return nil, fmt.Errorf("failed to initialized consent manager [%w]", err)
	}

	// Assemble record orchestration
	recordMgr, err := records.NewManager(records.ManagerParams{
		Persistence:        persistence,
		RecordCipher:       recordCipher,
		FileCipher:         fileCipher,
		Uploader:           uploader,
		Fetcher:            fetcher,
		Consent:            consentMgr,
		Registry:           registry,
		MaxAttachmentBytes: params.MaxAttachmentBytes,
	})
	if err != nil {
		for _, closer := range closers {
			closer()
		}
		return nil, fmt.Errorf("failed to initialized record manager [%w]", err)
	}

	return &Vault{
		Persistence: persistence,
		Consent:     consentMgr,
		Records:     recordMgr,
		Registry:    registry,
		closers:     closers,
	}, nil
}
