package blob

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"agentportal/internal/common"
)

// Document categories map to storage path prefixes.
const (
	CategoryIDDocument    = "id-documents"
	CategoryPassportPhoto = "passport-photos"
	CategoryAddressProof  = "address-proofs"
)

const (
	// Tokens issued at upload time live long enough to outlast the review
	// cycle; reviewers get a fresh short-lived URL per view instead.
	uploadTokenTTL  = 3650 * 24 * time.Hour
	reissueTokenTTL = 24 * time.Hour
)

type Store interface {
	Upload(ctx context.Context, data []byte, filename, category, applicationRef string) (url, objectPath string, err error)
	ReissueAccessURL(pathOrURL string) (string, error)
}

// GCSStore writes documents to a single bucket and issues time-limited
// read-only signed URLs.
type GCSStore struct {
	bucket     *storage.BucketHandle
	bucketName string
	now        func() time.Time
}

func NewGCSStore(client *storage.Client, bucketName string) *GCSStore {
	return &GCSStore{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		now:        time.Now,
	}
}

func (s *GCSStore) Upload(ctx context.Context, data []byte, filename, category, applicationRef string) (string, string, error) {
	objectName := BuildObjectName(category, applicationRef, filename, s.now().UTC())

	w := s.bucket.Object(objectName).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", "", common.NewError(common.CodeInternal, "failed to write document to storage", err)
	}
	if err := w.Close(); err != nil {
		return "", "", common.NewError(common.CodeInternal, "failed to finalize document upload", err)
	}

	signed, err := s.bucket.SignedURL(objectName, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: s.now().UTC().Add(uploadTokenTTL),
	})
	if err != nil {
		return "", "", common.NewError(common.CodeInternal, "failed to sign document url", err)
	}
	return signed, objectName, nil
}

// ReissueAccessURL accepts either a bare object path or a previously issued
// URL (any stale token is stripped) and returns a 24-hour read-only URL.
func (s *GCSStore) ReissueAccessURL(pathOrURL string) (string, error) {
	objectName := ObjectPath(pathOrURL, s.bucketName)
	if objectName == "" {
		return "", common.NewValidationError("invalid document reference", map[string]string{"path": "empty document reference"})
	}
	signed, err := s.bucket.SignedURL(objectName, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: s.now().UTC().Add(reissueTokenTTL),
	})
	if err != nil {
		return "", common.NewError(common.CodeInternal, "failed to sign document url", err)
	}
	return signed, nil
}

// BuildObjectName produces {category}/{applicationRef}_{category}_{timestamp}.{ext}.
// Uploads for the same document category in the same second overwrite each
// other, which matches the overwrite-on-reupload contract.
func BuildObjectName(category, applicationRef, filename string, now time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	timestamp := now.Format("20060102150405")
	return category + "/" + applicationRef + "_" + category + "_" + timestamp + "." + ext
}

// ObjectPath reduces a stored reference to the bare object name. Full URLs
// have their scheme, host, bucket segment and query token removed; bare paths
// pass through.
func ObjectPath(input, bucketName string) string {
	if input == "" {
		return ""
	}
	if !strings.HasPrefix(input, "http") {
		return strings.SplitN(input, "?", 2)[0]
	}
	parsed, err := url.Parse(input)
	if err != nil {
		// Fall back to string surgery on the bucket segment.
		if parts := strings.SplitN(input, bucketName+"/", 2); len(parts) == 2 {
			return strings.SplitN(parts[1], "?", 2)[0]
		}
		return ""
	}
	objectName := strings.TrimPrefix(parsed.Path, "/")
	objectName = strings.TrimPrefix(objectName, bucketName+"/")
	return objectName
}
