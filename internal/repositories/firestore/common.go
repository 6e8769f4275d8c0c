package firestore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"

	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
)

// Collection names backing the storefront.
const (
	CollectionFlowers       = "flowers"
	CollectionBouquets      = "bouquets"
	CollectionOrders        = "orders"
	CollectionNotifications = "notifications"
	CollectionBackups       = "backups"
)

// Fields assigned by the store rather than by callers.
const (
	fieldID          = "id"
	fieldCreatedDate = "created_date"
	fieldUpdatedDate = "updated_date"
)

// Deps carries shared construction dependencies for Firestore repositories.
type Deps struct {
	Provider    *pfirestore.Provider
	IDGenerator func() string
	Clock       func() time.Time
}

func (d *Deps) normalise() error {
	if d.Provider == nil {
		return errors.New("firestore repositories require a provider")
	}
	if d.IDGenerator == nil {
		d.IDGenerator = func() string { return ulid.Make().String() }
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return nil
}

// applyFilters adds equality clauses for each filter key in a stable order.
func applyFilters(query firestore.Query, filters map[string]any) firestore.Query {
	if len(filters) == 0 {
		return query
	}
	keys := make([]string, 0, len(filters))
	for key := range filters {
		if strings.TrimSpace(key) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		query = query.Where(key, "==", filters[key])
	}
	return query
}

// buildUpdates converts a partial update map into Firestore update operations,
// refusing writes to store-assigned fields and stamping updated_date.
func buildUpdates(updates map[string]any, now time.Time) ([]firestore.Update, error) {
	if len(updates) == 0 {
		return nil, errors.New("firestore repositories: no fields to update")
	}

	keys := make([]string, 0, len(updates))
	for key := range updates {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		switch trimmed {
		case fieldID, fieldCreatedDate, fieldUpdatedDate:
			continue
		}
		keys = append(keys, trimmed)
	}
	if len(keys) == 0 {
		return nil, errors.New("firestore repositories: no updatable fields")
	}
	sort.Strings(keys)

	ops := make([]firestore.Update, 0, len(keys)+1)
	for _, key := range keys {
		ops = append(ops, firestore.Update{Path: key, Value: updates[key]})
	}
	ops = append(ops, firestore.Update{Path: fieldUpdatedDate, Value: now.UTC()})
	return ops, nil
}

func requireID(repo, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s repository: id is required", repo)
	}
	return id, nil
}
