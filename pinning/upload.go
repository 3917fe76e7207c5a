package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// UploadResult outcome of a successful pinning upload
type UploadResult struct {
	// CID content identifier assigned by the pinning service
	CID string `json:"cid" validate:"required"`
	// Size pinned content size in bytes
	Size int64 `json:"size"`
}

/*
Uploader pinning service upload client.

Callers hand over ciphertext only; the uploader never encrypts and the
pinning service never sees key material.
*/
type Uploader interface {
	/*
		Upload pin a ciphertext blob on the storage network

			@param ctx context.Context - execution context
			@param content []byte - the ciphertext to pin
			@param fileName string - original file name, metadata only
			@param mimeType string - attachment MIME type, metadata only
			@param sha256Hint string - hex digest of the ciphertext
			@returns the assigned CID and pinned size
	*/
	Upload(
		ctx context.Context, content []byte, fileName string, mimeType string, sha256Hint string,
	) (UploadResult, error)
}

// uploaderImpl implements Uploader
type uploaderImpl struct {
	goutils.Component

	endpoint  string
	authToken string
	maxBytes  int64
	client    *http.Client
}

// UploaderParams uploader init parameters
type UploaderParams struct {
	// EndpointURL pinning service upload endpoint
	EndpointURL string `validate:"required,url"`
	// AuthToken pinning service credential. Absence is a configuration
	// error, not a retryable runtime condition.
	AuthToken string `validate:"required"`
	// MaxUploadBytes optional upload size ceiling override
	MaxUploadBytes *int64 `validate:"omitempty,gt=0"`
	// HTTPClient optional HTTP client override
	HTTPClient *http.Client `validate:"-"`
}

/*
NewUploader define a new pinning upload client

	@param params UploaderParams - client parameters
	@returns client instance
*/
func NewUploader(params UploaderParams) (Uploader, error) {
	logTags := log.Fields{"module": "pinning", "component": "uploader"}

	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid uploader init parameters [%w]", err)
	}

	maxBytes := DefaultMaxUploadBytes
	if params.MaxUploadBytes != nil {
		maxBytes = *params.MaxUploadBytes
	}

	client := params.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &uploaderImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		endpoint:  params.EndpointURL,
		authToken: params.AuthToken,
		maxBytes:  maxBytes,
		client:    client,
	}, nil
}

/*
Upload pin a ciphertext blob on the storage network

	@param ctx context.Context - execution context
	@param content []byte - the ciphertext to pin
	@param fileName string - original file name, metadata only
	@param mimeType string - attachment MIME type, metadata only
	@param sha256Hint string - hex digest of the ciphertext
	@returns the assigned CID and pinned size
*/
func (u *uploaderImpl) Upload(
	ctx context.Context, content []byte, fileName string, mimeType string, sha256Hint string,
) (UploadResult, error) {
	if int64(len(content)) > u.maxBytes {
		return UploadResult{}, fmt.Errorf(
			"upload of %d bytes exceeds the %d byte ceiling", len(content), u.maxBytes,
		)
	}

	// Build the multipart request body
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	filePart, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to create multipart file part [%w]", err)
	}
	if _, err := filePart.Write(content); err != nil {
		return UploadResult{}, fmt.Errorf("failed to write multipart file part [%w]", err)
	}
	for field, value := range map[string]string{
		"fileName": fileName, "mimeType": mimeType, "sha256": sha256Hint,
	} {
		if err := form.WriteField(field, value); err != nil {
			return UploadResult{}, fmt.Errorf("failed to write multipart field '%s' [%w]", field, err)
		}
	}
	if err := form.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("failed to finalize multipart body [%w]", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to build upload request [%w]", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", u.authToken))

	resp, err := u.client.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload request failed [%w]", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to read upload response [%w]", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResult{}, fmt.Errorf(
			"upload rejected with status %d: %s", resp.StatusCode, string(respBody),
		)
	}

	var result UploadResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return UploadResult{}, fmt.Errorf("failed to parse upload response [%w]", err)
	}
	if result.CID == "" {
		return UploadResult{}, fmt.Errorf("upload response carried no CID: %s", string(respBody))
	}

	log.WithFields(u.LogTags).
		WithField("cid", result.CID).
		WithField("size", result.Size).
		Debug("Pinned content")

	return result, nil
}
