package pinning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

/*
Fetcher content addressed retrieval client.

Gateways are tried in configuration order, each at most once per call; the
resilience strategy is fallback breadth across gateways, not retries against
any single one. Gateways run sequentially to avoid amplifying load on public
infrastructure.
*/
type Fetcher interface {
	/*
		Fetch retrieve content by CID

			@param ctx context.Context - execution context
			@param cid string - content identifier
			@returns the content bytes
	*/
	Fetch(ctx context.Context, cid string) ([]byte, error)

	/*
		VerifiedFetch retrieve content by CID and verify its digest

			@param ctx context.Context - execution context
			@param cid string - content identifier
			@param sha256Hex string - expected hex digest of the content
			@returns the verified content bytes
	*/
	VerifiedFetch(ctx context.Context, cid string, sha256Hex string) ([]byte, error)
}

// fetcherImpl implements Fetcher
type fetcherImpl struct {
	goutils.Component

	gateways []string
	timeout  time.Duration
	cache    ContentCache
	client   *http.Client
}

// FetcherParams fetcher init parameters
type FetcherParams struct {
	// GatewayURLs ordered gateway base URLs, primary first
	GatewayURLs []string `validate:"required,min=1,dive,url"`
	// FetchTimeout optional per-gateway timeout override
	FetchTimeout *time.Duration `validate:"-"`
	// Cache optional content cache consulted before the gateway loop
	Cache ContentCache `validate:"-"`
	// HTTPClient optional HTTP client override
	HTTPClient *http.Client `validate:"-"`
}

/*
NewFetcher define a new content retrieval client

	@param params FetcherParams - client parameters
	@returns client instance
*/
func NewFetcher(params FetcherParams) (Fetcher, error) {
	logTags := log.Fields{"module": "pinning", "component": "fetcher"}

	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid fetcher init parameters [%w]", err)
	}

	timeout := DefaultFetchTimeout
	if params.FetchTimeout != nil {
		timeout = *params.FetchTimeout
	}

	client := params.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &fetcherImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		gateways: params.GatewayURLs,
		timeout:  timeout,
		cache:    params.Cache,
		client:   client,
	}, nil
}

// fetchFromGateway attempt one gateway with a bounded timeout
func (f *fetcherImpl) fetchFromGateway(
	ctx context.Context, gateway string, cid string,
) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s", strings.TrimRight(gateway, "/"), cid)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request [%w]", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed [%w]", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway responded with status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response [%w]", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("gateway responded with an empty body")
	}

	return content, nil
}

/*
Fetch retrieve content by CID

	@param ctx context.Context - execution context
	@param cid string - content identifier
	@returns the content bytes
*/
func (f *fetcherImpl) Fetch(ctx context.Context, cid string) ([]byte, error) {
	// Consult the cache first
	if f.cache != nil {
		cached, err := f.cache.Get(ctx, cid)
		if err != nil {
			log.WithError(err).WithFields(f.LogTags).WithField("cid", cid).
				Warn("Content cache lookup failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	attempts := []GatewayAttempt{}
	for _, gateway := range f.gateways {
		content, err := f.fetchFromGateway(ctx, gateway, cid)
		if err == nil {
			if f.cache != nil {
				if err := f.cache.Set(ctx, cid, content); err != nil {
					log.WithError(err).WithFields(f.LogTags).WithField("cid", cid).
						Warn("Content cache store failed")
				}
			}
			return content, nil
		}

		log.WithError(err).
			WithFields(f.LogTags).
			WithField("cid", cid).
			WithField("gateway", gateway).
			Warn("Gateway attempt failed")
		attempts = append(attempts, GatewayAttempt{Gateway: gateway, Err: err})
	}

	return nil, &StorageUnavailableError{CID: cid, Attempts: attempts}
}

/*
VerifiedFetch retrieve content by CID and verify its digest

	@param ctx context.Context - execution context
	@param cid string - content identifier
	@param sha256Hex string - expected hex digest of the content
	@returns the verified content bytes
*/
func (f *fetcherImpl) VerifiedFetch(
	ctx context.Context, cid string, sha256Hex string,
) ([]byte, error) {
	content, err := f.Fetch(ctx, cid)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(content)
	if hex.EncodeToString(digest[:]) != strings.ToLower(sha256Hex) {
		return nil, fmt.Errorf(
			"content %s digest divergence [%w]", cid, ErrIntegrityMismatch,
		)
	}

	return content, nil
}
