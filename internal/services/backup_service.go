package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/repositories"
)

var (
	// ErrBackupInvalidInput signals the caller provided invalid data.
	ErrBackupInvalidInput = errors.New("backup: invalid input")
	// ErrBackupNotFound indicates the backup could not be located.
	ErrBackupNotFound = errors.New("backup: not found")
	// ErrBackupEmpty indicates there is nothing to snapshot.
	ErrBackupEmpty = errors.New("backup: collection is empty")
)

// Fields the store assigns on insert; stripped from snapshots so restore can
// bulk-insert without collision.
var storeAssignedFields = []string{"id", "created_date", "updated_date", "created_by"}

// BackupServiceDeps bundles collaborators required to construct the backup service.
type BackupServiceDeps struct {
	Backups     repositories.BackupRepository
	Collections repositories.CollectionStore
	Clock       func() time.Time
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type backupService struct {
	backups     repositories.BackupRepository
	collections repositories.CollectionStore
	clock       func() time.Time
	logger      func(context.Context, string, map[string]any)
}

// NewBackupService wires dependencies into a concrete BackupService implementation.
func NewBackupService(deps BackupServiceDeps) (BackupService, error) {
	if deps.Backups == nil {
		return nil, errors.New("backup service: backup repository is required")
	}
	if deps.Collections == nil {
		return nil, errors.New("backup service: collection store is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &backupService{
		backups:     deps.Backups,
		collections: deps.Collections,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *backupService) List(ctx context.Context) ([]Backup, error) {
	backups, err := s.backups.List(ctx, "-created_date")
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return backups, nil
}

func (s *backupService) Create(ctx context.Context, backupType BackupType, createdBy string) (Backup, error) {
	collection, label, err := backupCollection(backupType)
	if err != nil {
		return Backup{}, err
	}

	rows, err := s.collections.List(ctx, collection, "")
	if err != nil {
		return Backup{}, s.mapRepositoryError(err)
	}
	if len(rows) == 0 {
		return Backup{}, fmt.Errorf("%w: %s", ErrBackupEmpty, collection)
	}

	snapshot := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		snapshot = append(snapshot, snapshotRow(row))
	}

	backup := domain.Backup{
		Name:       fmt.Sprintf("%s - %s", label, s.clock().Format("02.01.2006 15:04")),
		Type:       backupType,
		Data:       snapshot,
		ItemsCount: len(snapshot),
		CreatedBy:  strings.TrimSpace(createdBy),
	}

	created, err := s.backups.Insert(ctx, backup)
	if err != nil {
		return Backup{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "backup.created", map[string]any{
		"backup": created.ID,
		"type":   string(backupType),
		"items":  created.ItemsCount,
	})

	return created, nil
}

// Restore replaces every live row of the backed-up collection with the
// snapshot. The collection is transiently empty between delete and insert.
func (s *backupService) Restore(ctx context.Context, backupID string) (RestoreReport, error) {
	backupID = strings.TrimSpace(backupID)
	if backupID == "" {
		return RestoreReport{}, fmt.Errorf("%w: backup id is required", ErrBackupInvalidInput)
	}

	backup, err := s.backups.FindByID(ctx, backupID)
	if err != nil {
		return RestoreReport{}, s.mapRepositoryError(err)
	}
	collection, _, err := backupCollection(backup.Type)
	if err != nil {
		return RestoreReport{}, err
	}

	live, err := s.collections.List(ctx, collection, "")
	if err != nil {
		return RestoreReport{}, s.mapRepositoryError(err)
	}

	if err := s.collections.DeleteAll(ctx, collection); err != nil {
		return RestoreReport{}, s.mapRepositoryError(err)
	}

	restored, err := s.collections.BulkInsert(ctx, collection, backup.Data)
	if err != nil {
		return RestoreReport{}, s.mapRepositoryError(err)
	}

	report := RestoreReport{
		BackupID: backup.ID,
		Type:     backup.Type,
		Deleted:  len(live),
		Restored: len(restored),
	}

	s.logger(ctx, "backup.restored", map[string]any{
		"backup":   backup.ID,
		"type":     string(backup.Type),
		"deleted":  report.Deleted,
		"restored": report.Restored,
	})

	return report, nil
}

func (s *backupService) Delete(ctx context.Context, backupID string) error {
	backupID = strings.TrimSpace(backupID)
	if backupID == "" {
		return fmt.Errorf("%w: backup id is required", ErrBackupInvalidInput)
	}
	if err := s.backups.Delete(ctx, backupID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func backupCollection(backupType BackupType) (collection string, label string, err error) {
	switch backupType {
	case domain.BackupFlowers:
		return "flowers", "Цветы", nil
	case domain.BackupBouquets:
		return "bouquets", "Букеты", nil
	default:
		return "", "", fmt.Errorf("%w: unknown backup type %q", ErrBackupInvalidInput, backupType)
	}
}

func snapshotRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, field := range storeAssignedFields {
		delete(out, field)
	}
	// Older rows may predate stock tracking.
	if _, ok := out["stock_quantity"]; !ok {
		out["stock_quantity"] = 0
	}
	return out
}

func (s *backupService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrBackupNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("backup: repository unavailable: %w", err)
		}
	}
	return err
}
