package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const defaultUploadTimeout = 2 * time.Minute

var (
	errBucketRequired  = errors.New("storage: bucket name is required")
	errClientRequired  = errors.New("storage: client is required")
	errContentRequired = errors.New("storage: upload content is required")
)

// UploadResult describes a stored object and its public address.
type UploadResult struct {
	Bucket     string
	Object     string
	PublicURL  string
	Size       int64
	UploadedAt time.Time
}

// Uploader writes blobs into a Cloud Storage bucket and returns public URLs.
type Uploader struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
	timeout       time.Duration
	clock         func() time.Time
	random        func() string
}

// UploaderOption customises Uploader behaviour.
type UploaderOption func(*Uploader)

// WithPublicBaseURL overrides the public URL prefix (defaults to storage.googleapis.com).
func WithPublicBaseURL(base string) UploaderOption {
	return func(u *Uploader) {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base != "" {
			u.publicBaseURL = base
		}
	}
}

// WithUploadTimeout bounds individual upload operations.
func WithUploadTimeout(d time.Duration) UploaderOption {
	return func(u *Uploader) {
		if d > 0 {
			u.timeout = d
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) UploaderOption {
	return func(u *Uploader) {
		if clock != nil {
			u.clock = clock
		}
	}
}

// WithRandomSuffix injects a custom random suffix generator (useful for tests).
func WithRandomSuffix(random func() string) UploaderOption {
	return func(u *Uploader) {
		if random != nil {
			u.random = random
		}
	}
}

// NewUploader constructs an Uploader bound to the given bucket.
func NewUploader(client *storage.Client, bucket string, opts ...UploaderOption) (*Uploader, error) {
	if client == nil {
		return nil, errClientRequired
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errBucketRequired
	}

	uploader := &Uploader{
		client:  client,
		bucket:  bucket,
		timeout: defaultUploadTimeout,
		clock:   time.Now,
		random:  randomSuffix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	return uploader, nil
}

// Upload stores the content under a freshly generated object key and returns
// the public URL. The write carries a does-not-exist precondition so a key
// collision fails instead of overwriting.
func (u *Uploader) Upload(ctx context.Context, kind UploadKind, fileName, contentType string, content io.Reader) (UploadResult, error) {
	if u == nil || u.client == nil {
		return UploadResult{}, errClientRequired
	}
	if content == nil {
		return UploadResult{}, errContentRequired
	}

	uploadedAt := u.clock().UTC()
	object, err := BuildUploadPath(kind, fileName, uploadedAt, u.random())
	if err != nil {
		return UploadResult{}, err
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	writer := u.client.Bucket(u.bucket).Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if contentType = strings.TrimSpace(contentType); contentType != "" {
		writer.ContentType = contentType
	}

	size, err := io.Copy(writer, content)
	if err != nil {
		_ = writer.Close()
		return UploadResult{}, fmt.Errorf("storage: write object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("storage: finalise object %s: %w", object, err)
	}

	return UploadResult{
		Bucket:     u.bucket,
		Object:     object,
		PublicURL:  u.PublicURL(object),
		Size:       size,
		UploadedAt: uploadedAt,
	}, nil
}

// Delete removes an object from the bucket. Missing objects are not an error.
func (u *Uploader) Delete(ctx context.Context, object string) error {
	if u == nil || u.client == nil {
		return errClientRequired
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return errors.New("storage: object name is required")
	}

	err := u.client.Bucket(u.bucket).Object(object).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: delete object %s: %w", object, err)
	}
	return nil
}

// PublicURL composes the public address for an object in the uploads bucket.
func (u *Uploader) PublicURL(object string) string {
	escaped := escapeObjectPath(object)
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + escaped
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, escaped)
}

func escapeObjectPath(object string) string {
	segments := strings.Split(object, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func randomSuffix() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
