package service

import (
	"context"
	"io"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/storage"
	"github.com/google/uuid"
)

// Archiver keeps rendered reports in object storage.
type Archiver interface {
	// Store writes body and returns its storage key.
	Store(ctx context.Context, leadID uuid.UUID, createdAt time.Time, format domain.ReportFormat, body io.Reader) (string, error)

	// Link returns a download URL for a stored key.
	Link(ctx context.Context, key string) (string, error)
}

// storageArchiver files reports by the month the lead was created, see
// storage.ReportKey.
type storageArchiver struct {
	store storage.Store
}

// NewStorageArchiver creates an Archiver backed by store.
func NewStorageArchiver(store storage.Store) Archiver {
	return &storageArchiver{store: store}
}

// Store replaces any earlier rendering of the same report.
func (a *storageArchiver) Store(ctx context.Context, leadID uuid.UUID, createdAt time.Time, format domain.ReportFormat, body io.Reader) (string, error) {
	key := storage.ReportKey(leadID, createdAt, format.String())
	_, err := a.store.Put(ctx, key, body, storage.PutOptions{
		ContentType: format.ContentType(),
		MaxSize:     storage.MaxReportSize,
	})
	if err != nil {
		return "", storage.ToDomain(err, "report.store")
	}
	return key, nil
}

func (a *storageArchiver) Link(ctx context.Context, key string) (string, error) {
	link, err := a.store.Link(ctx, key, storage.DefaultLinkTTL)
	if err != nil {
		return "", storage.ToDomain(err, "report.link")
	}
	return link, nil
}
