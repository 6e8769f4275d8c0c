package firestore

import (
	"context"

	"cloud.google.com/go/firestore"

	domain "github.com/flowerdream/api/internal/domain"
	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
	"github.com/flowerdream/api/internal/repositories"
)

// BackupRepository persists catalog snapshots in Firestore.
type BackupRepository struct {
	deps Deps
	base *pfirestore.BaseRepository[domain.Backup]
}

// NewBackupRepository constructs a Firestore-backed backup repository.
func NewBackupRepository(deps Deps) (*BackupRepository, error) {
	if err := deps.normalise(); err != nil {
		return nil, err
	}
	base := pfirestore.NewBaseRepository[domain.Backup](deps.Provider, CollectionBackups, nil, nil)
	return &BackupRepository{deps: deps, base: base}, nil
}

// List returns all backups, optionally sorted.
func (r *BackupRepository) List(ctx context.Context, sort string) ([]domain.Backup, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return pfirestore.ApplyOrder(query, sort)
	})
	if err != nil {
		return nil, err
	}

	backups := make([]domain.Backup, 0, len(docs))
	for _, doc := range docs {
		backup := doc.Data
		backup.ID = doc.ID
		backups = append(backups, backup)
	}
	return backups, nil
}

// FindByID fetches a single backup including its snapshot payload.
func (r *BackupRepository) FindByID(ctx context.Context, id string) (domain.Backup, error) {
	id, err := requireID("backup", id)
	if err != nil {
		return domain.Backup{}, err
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Backup{}, err
	}
	backup := doc.Data
	backup.ID = doc.ID
	return backup, nil
}

// Insert stores a new backup, assigning id and timestamps.
func (r *BackupRepository) Insert(ctx context.Context, backup domain.Backup) (domain.Backup, error) {
	if backup.ID == "" {
		backup.ID = r.deps.IDGenerator()
	}
	now := r.deps.Clock().UTC()
	backup.CreatedDate = now
	backup.UpdatedDate = now

	if _, err := r.base.Create(ctx, backup.ID, backup); err != nil {
		return domain.Backup{}, err
	}
	return backup, nil
}

// Delete removes a backup.
func (r *BackupRepository) Delete(ctx context.Context, id string) error {
	id, err := requireID("backup", id)
	if err != nil {
		return err
	}
	return r.base.Delete(ctx, id)
}

// Ensure interface compliance.
var _ repositories.BackupRepository = (*BackupRepository)(nil)
