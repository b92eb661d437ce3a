// Package storage keeps the archive of rendered reports.
//
// Two backends implement Store: Disk writes under a local directory and
// suits development, Bucket writes to Cloudflare R2 through the S3 API.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"

	// MaxReportSize bounds an archived report.
	MaxReportSize = 10 << 20

	// DefaultLinkTTL is how long a presigned report link stays valid.
	DefaultLinkTTL = 15 * time.Minute
)

// Store is an object store for report files. Put always replaces the
// object at key; a report rendered twice keeps only the newest copy.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (Object, error)

	// Open returns the object body, which the caller must close.
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)

	// Link returns a URL an operator can download the object from. Links
	// to private objects expire after ttl.
	Link(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PutOptions tunes a single Put.
type PutOptions struct {
	ContentType string // derived from the key when empty
	MaxSize     int64  // 0 disables the check
}

// Object describes a stored file.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	ModTime     time.Time
	ETag        string // Bucket only
}

// Config selects a backend and carries the settings of both.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// LocalConfig configures Disk.
type LocalConfig struct {
	BasePath string // e.g. "./storage"
	BaseURL  string // prefix of download links, e.g. "http://localhost:8080/files"
}

// R2Config configures Bucket.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string // custom domain; presigned links are used when empty
	Region          string // "auto" when empty
}

// New opens the backend named by cfg.Provider. An empty provider means local.
func New(cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewDisk(cfg.Local, logger)
	case ProviderR2:
		return NewBucket(cfg.R2, logger)
	}
	return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
}

// ReportKey places a lead's report under the month the lead was created:
// reports/2026/10/{leadID}.pdf
func ReportKey(leadID uuid.UUID, createdAt time.Time, ext string) string {
	return path.Join("reports", createdAt.UTC().Format("2006/01"), leadID.String()+"."+strings.TrimPrefix(ext, "."))
}

// ContentTypeFor guesses the MIME type of key from its extension.
func ContentTypeFor(key string) string {
	ext := strings.ToLower(path.Ext(key))
	switch ext {
	case ".pdf":
		return "application/pdf"
	case "":
		return "application/octet-stream"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// validateKey accepts relative slash-separated keys without ".." segments.
func validateKey(key string) error {
	if key == "" || key[0] == '/' {
		return ErrInvalidKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// readLimited reads body whole, failing with ErrTooLarge past max bytes.
func readLimited(body io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(body)
	}
	data, err := io.ReadAll(io.LimitReader(body, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	return data, nil
}
