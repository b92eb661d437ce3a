package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// objectAPI is the part of the S3 client Bucket calls.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Bucket stores reports in a Cloudflare R2 bucket over the S3 API.
type Bucket struct {
	api       objectAPI
	presign   *s3.PresignClient
	name      string
	publicURL string
	logger    *slog.Logger
}

// NewBucket builds an S3 client for https://{account}.r2.cloudflarestorage.com.
func NewBucket(cfg R2Config, logger *slog.Logger) (*Bucket, error) {
	if cfg.AccountID == "" || cfg.BucketName == "" {
		return nil, errors.New("r2 storage requires an account ID and bucket name")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	endpoint := "https://" + cfg.AccountID + ".r2.cloudflarestorage.com"

	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	logger.Info("R2 storage ready", "bucket", cfg.BucketName, "endpoint", endpoint)

	return &Bucket{
		api:       client,
		presign:   s3.NewPresignClient(client),
		name:      cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:    logger,
	}, nil
}

// Put uploads the body in one request. The body is buffered first so the
// request carries an exact Content-Length and oversized reports are
// rejected before any bytes leave the process.
func (b *Bucket) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (Object, error) {
	if err := validateKey(key); err != nil {
		return Object{}, &StorageError{Op: "Put", Key: key, Err: err}
	}
	data, err := readLimited(body, opts.MaxSize)
	if err != nil {
		return Object{}, &StorageError{Op: "Put", Key: key, Err: err}
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}

	out, err := b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.name),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return Object{}, &StorageError{Op: "Put", Key: key, Err: classify(err)}
	}

	b.logger.Debug("report uploaded", "key", key, "bytes", len(data))
	return Object{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		ModTime:     time.Now(),
		ETag:        aws.ToString(out.ETag),
	}, nil
}

func (b *Bucket) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	if err := validateKey(key); err != nil {
		return nil, Object{}, &StorageError{Op: "Open", Key: key, Err: err}
	}
	out, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, Object{}, &StorageError{Op: "Open", Key: key, Err: classify(err)}
	}
	return out.Body, Object{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ModTime:     aws.ToTime(out.LastModified),
		ETag:        aws.ToString(out.ETag),
	}, nil
}

// Link prefers the bucket's public domain. Without one it presigns a GET
// request valid for ttl, or DefaultLinkTTL when ttl is zero.
func (b *Bucket) Link(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := validateKey(key); err != nil {
		return "", &StorageError{Op: "Link", Key: key, Err: err}
	}
	if b.publicURL != "" {
		return b.publicURL + "/" + key, nil
	}
	if b.presign == nil {
		return "", &StorageError{Op: "Link", Key: key, Err: errors.New("no public URL or presigner configured")}
	}
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}

	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", &StorageError{Op: "Link", Key: key, Err: fmt.Errorf("presign: %w", err)}
	}
	return req.URL, nil
}

// classify maps S3 failures onto the package sentinels.
func classify(err error) error {
	var (
		noSuchKey *types.NoSuchKey
		notFound  *types.NotFound
		apiErr    smithy.APIError
		respErr   interface{ HTTPStatusCode() int }
	)
	switch {
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return ErrNotFound
	case errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound"):
		return ErrNotFound
	case errors.As(err, &apiErr) && (apiErr.ErrorCode() == "AccessDenied" || apiErr.ErrorCode() == "Forbidden"):
		return ErrAccessDenied
	case errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound:
		return ErrNotFound
	case errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusForbidden:
		return ErrAccessDenied
	}
	return fmt.Errorf("r2: %w", err)
}

var _ Store = (*Bucket)(nil)
