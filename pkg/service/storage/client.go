package storage

import (
	"context"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// Service stores record attachments
type Service interface {
	// Upload writes r to objectName and returns the URL of the stored object
	Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
}

type client struct {
	gcs    *storage.Client
	bucket string
	prefix string
}

// Option configures the storage client
type Option func(*client)

// WithPrefix puts every object under prefix
func WithPrefix(prefix string) Option {
	return func(c *client) {
		c.prefix = strings.Trim(prefix, "/")
	}
}

// New creates a Cloud Storage backed attachment store
func New(ctx context.Context, bucket string, opts []Option, clientOpts ...option.ClientOption) (Service, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	gcs, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
	}

	c := &client{gcs: gcs, bucket: bucket}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) objectPath(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "/" + name
}

func (c *client) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	path := c.objectPath(objectName)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := c.gcs.Bucket(c.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		// cancelling before Close discards the partial object
		cancel()
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write object",
			goerr.V("bucket", c.bucket),
			goerr.V("object", path))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize object",
			goerr.V("bucket", c.bucket),
			goerr.V("object", path))
	}

	return objectURL(c.bucket, path), nil
}

// objectURL builds the public URL of an object. Each path segment is
// escaped so names with spaces or non-ASCII characters stay valid links.
func objectURL(bucket, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "https://storage.googleapis.com/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}
