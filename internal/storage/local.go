package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Disk stores reports as files below a base directory. A file is written
// next to its destination and renamed into place, so a reader never sees
// half a report.
type Disk struct {
	root    string
	baseURL string
	logger  *slog.Logger
}

// NewDisk creates the base directory if needed.
func NewDisk(cfg LocalConfig, logger *slog.Logger) (*Disk, error) {
	root, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	d := &Disk{
		root:    root,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
	logger.Info("Local storage ready", "root", d.root, "base_url", d.baseURL)
	return d, nil
}

// Root is the directory holding the archive.
func (d *Disk) Root() string { return d.root }

func (d *Disk) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (Object, error) {
	fail := func(err error) (Object, error) {
		return Object{}, &StorageError{Op: "Put", Key: key, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	dst, err := d.file(key)
	if err != nil {
		return fail(err)
	}

	data, err := readLimited(body, opts.MaxSize)
	if err != nil {
		return fail(err)
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fail(err)
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, bytes.NewReader(data))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}
	if err != nil {
		return fail(err)
	}

	d.logger.Debug("report file written", "key", key, "bytes", len(data))

	contentType := opts.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	return Object{Key: key, Size: int64(len(data)), ContentType: contentType, ModTime: time.Now()}, nil
}

func (d *Disk) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	fail := func(err error) (io.ReadCloser, Object, error) {
		return nil, Object{}, &StorageError{Op: "Open", Key: key, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	src, err := d.file(key)
	if err != nil {
		return fail(err)
	}

	f, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return fail(ErrNotFound)
	}
	if err != nil {
		return fail(err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return fail(err)
	}
	return f, Object{Key: key, Size: st.Size(), ContentType: ContentTypeFor(key), ModTime: st.ModTime()}, nil
}

// Link joins the base URL and the key. The files are served by the
// application itself, so ttl does not apply.
func (d *Disk) Link(ctx context.Context, key string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &StorageError{Op: "Link", Key: key, Err: err}
	}
	if _, err := d.file(key); err != nil {
		return "", &StorageError{Op: "Link", Key: key, Err: err}
	}
	return d.baseURL + "/" + key, nil
}

// file maps key to a path that is guaranteed to stay inside root.
func (d *Disk) file(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	p := filepath.Join(d.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, d.root+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return p, nil
}

var _ Store = (*Disk)(nil)
