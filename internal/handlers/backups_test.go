package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/services"
)

// The backup route group combines the raw collection proxy with the
// snapshot/restore operations, the way cmd/api wires it.
func newBackupsRouter(store *memoryStore, svc *fakeBackupService) http.Handler {
	authn := testAuthenticator()
	proxy := NewCollectionHandlers(store, "backups", authn)
	ops := NewBackupHandlers(authn, svc)
	return NewRouter(WithBackupRoutes(func(r chi.Router) {
		proxy.Routes(r)
		ops.Routes(r)
	}))
}

func TestSnapshotCreatesBackup(t *testing.T) {
	var gotType domain.BackupType
	var gotCreatedBy string
	svc := &fakeBackupService{
		createFn: func(_ context.Context, backupType domain.BackupType, createdBy string) (domain.Backup, error) {
			gotType = backupType
			gotCreatedBy = createdBy
			return domain.Backup{ID: "backup-001", Name: "Цветы - 08.03.2024 14:30", Type: backupType, ItemsCount: 12}, nil
		},
	}
	router := newBackupsRouter(newMemoryStore(), svc)

	rec := doJSON(t, router, http.MethodPost, "/api/backups/snapshot", adminToken, `{"type":"flowers"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotType != domain.BackupFlowers || gotCreatedBy != "root@flowerdream.ru" {
		t.Fatalf("unexpected create call: type=%q by=%q", gotType, gotCreatedBy)
	}

	var backup map[string]any
	decodeBody(t, rec, &backup)
	if backup["name"] != "Цветы - 08.03.2024 14:30" {
		t.Fatalf("unexpected backup payload: %v", backup)
	}
}

func TestSnapshotRequiresType(t *testing.T) {
	router := newBackupsRouter(newMemoryStore(), &fakeBackupService{})

	rec := doJSON(t, router, http.MethodPost, "/api/backups/snapshot", adminToken, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without type, got %d", rec.Code)
	}
}

func TestRestoreReportsCounts(t *testing.T) {
	svc := &fakeBackupService{
		restoreFn: func(_ context.Context, backupID string) (services.RestoreReport, error) {
			return services.RestoreReport{BackupID: backupID, Type: domain.BackupFlowers, Deleted: 3, Restored: 12}, nil
		},
	}
	router := newBackupsRouter(newMemoryStore(), svc)

	rec := doJSON(t, router, http.MethodPost, "/api/backups/backup-001/restore", adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report map[string]any
	decodeBody(t, rec, &report)
	if report["deleted"] != float64(3) || report["restored"] != float64(12) {
		t.Fatalf("unexpected report: %v", report)
	}
}

func TestBackupOperationsAreAdminOnly(t *testing.T) {
	router := newBackupsRouter(newMemoryStore(), &fakeBackupService{})

	rec := doJSON(t, router, http.MethodPost, "/api/backups/snapshot", customerToken, `{"type":"flowers"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestBackupProxyAndOperationsCoexist(t *testing.T) {
	store := newMemoryStore()
	store.seed("backups", map[string]any{"name": "Букеты - 01.03.2024 10:00", "type": "bouquets"})
	router := newBackupsRouter(store, &fakeBackupService{})

	rec := doJSON(t, router, http.MethodGet, "/api/backups", adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected proxy list to work, got %d: %s", rec.Code, rec.Body.String())
	}

	var rows []map[string]any
	decodeBody(t, rec, &rows)
	if len(rows) != 1 || rows[0]["type"] != "bouquets" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}
