package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flowerdream/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals the caller provided invalid catalog data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the catalog entry could not be located.
	ErrCatalogNotFound = errors.New("catalog: not found")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Flowers  repositories.FlowerRepository
	Bouquets repositories.BouquetRepository
}

type catalogService struct {
	flowers  repositories.FlowerRepository
	bouquets repositories.BouquetRepository
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Flowers == nil {
		return nil, errors.New("catalog service: flower repository is required")
	}
	if deps.Bouquets == nil {
		return nil, errors.New("catalog service: bouquet repository is required")
	}
	return &catalogService{flowers: deps.Flowers, bouquets: deps.Bouquets}, nil
}

func (s *catalogService) ListFlowers(ctx context.Context, sort string) ([]Flower, error) {
	flowers, err := s.flowers.List(ctx, sort)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return flowers, nil
}

func (s *catalogService) GetFlower(ctx context.Context, id string) (Flower, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Flower{}, fmt.Errorf("%w: flower id is required", ErrCatalogInvalidInput)
	}
	flower, err := s.flowers.FindByID(ctx, id)
	if err != nil {
		return Flower{}, s.mapRepositoryError(err)
	}
	return flower, nil
}

func (s *catalogService) CreateFlower(ctx context.Context, flower Flower) (Flower, error) {
	if err := validateFlower(flower); err != nil {
		return Flower{}, err
	}
	flower.Name = strings.TrimSpace(flower.Name)
	flower.InStock = flower.StockQuantity > 0

	created, err := s.flowers.Insert(ctx, flower)
	if err != nil {
		return Flower{}, s.mapRepositoryError(err)
	}
	return created, nil
}

func (s *catalogService) UpdateFlower(ctx context.Context, id string, updates map[string]any) (Flower, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Flower{}, fmt.Errorf("%w: flower id is required", ErrCatalogInvalidInput)
	}
	updates, err := normaliseCatalogUpdates(updates)
	if err != nil {
		return Flower{}, err
	}

	updated, err := s.flowers.Update(ctx, id, updates)
	if err != nil {
		return Flower{}, s.mapRepositoryError(err)
	}
	return updated, nil
}

func (s *catalogService) DeleteFlower(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: flower id is required", ErrCatalogInvalidInput)
	}
	if err := s.flowers.Delete(ctx, id); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *catalogService) BulkCreateFlowers(ctx context.Context, flowers []Flower) ([]Flower, error) {
	if len(flowers) == 0 {
		return nil, fmt.Errorf("%w: no flowers to create", ErrCatalogInvalidInput)
	}
	for i := range flowers {
		if err := validateFlower(flowers[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		flowers[i].Name = strings.TrimSpace(flowers[i].Name)
		flowers[i].InStock = flowers[i].StockQuantity > 0
	}

	created, err := s.flowers.BulkInsert(ctx, flowers)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return created, nil
}

func (s *catalogService) ListBouquets(ctx context.Context, sort string) ([]Bouquet, error) {
	bouquets, err := s.bouquets.List(ctx, sort)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return bouquets, nil
}

func (s *catalogService) GetBouquet(ctx context.Context, id string) (Bouquet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Bouquet{}, fmt.Errorf("%w: bouquet id is required", ErrCatalogInvalidInput)
	}
	bouquet, err := s.bouquets.FindByID(ctx, id)
	if err != nil {
		return Bouquet{}, s.mapRepositoryError(err)
	}
	return bouquet, nil
}

func (s *catalogService) CreateBouquet(ctx context.Context, bouquet Bouquet) (Bouquet, error) {
	if err := validateBouquet(bouquet); err != nil {
		return Bouquet{}, err
	}
	bouquet.Name = strings.TrimSpace(bouquet.Name)

	created, err := s.bouquets.Insert(ctx, bouquet)
	if err != nil {
		return Bouquet{}, s.mapRepositoryError(err)
	}
	return created, nil
}

func (s *catalogService) UpdateBouquet(ctx context.Context, id string, updates map[string]any) (Bouquet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Bouquet{}, fmt.Errorf("%w: bouquet id is required", ErrCatalogInvalidInput)
	}
	updates, err := normaliseCatalogUpdates(updates)
	if err != nil {
		return Bouquet{}, err
	}

	updated, err := s.bouquets.Update(ctx, id, updates)
	if err != nil {
		return Bouquet{}, s.mapRepositoryError(err)
	}
	return updated, nil
}

func (s *catalogService) DeleteBouquet(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: bouquet id is required", ErrCatalogInvalidInput)
	}
	if err := s.bouquets.Delete(ctx, id); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *catalogService) BulkCreateBouquets(ctx context.Context, bouquets []Bouquet) ([]Bouquet, error) {
	if len(bouquets) == 0 {
		return nil, fmt.Errorf("%w: no bouquets to create", ErrCatalogInvalidInput)
	}
	for i := range bouquets {
		if err := validateBouquet(bouquets[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		bouquets[i].Name = strings.TrimSpace(bouquets[i].Name)
	}

	created, err := s.bouquets.BulkInsert(ctx, bouquets)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return created, nil
}

func validateFlower(flower Flower) error {
	if strings.TrimSpace(flower.Name) == "" {
		return fmt.Errorf("%w: flower name is required", ErrCatalogInvalidInput)
	}
	if flower.Price < 0 {
		return fmt.Errorf("%w: flower %q has negative price", ErrCatalogInvalidInput, flower.Name)
	}
	if flower.StockQuantity < 0 {
		return fmt.Errorf("%w: flower %q has negative stock", ErrCatalogInvalidInput, flower.Name)
	}
	return nil
}

func validateBouquet(bouquet Bouquet) error {
	if strings.TrimSpace(bouquet.Name) == "" {
		return fmt.Errorf("%w: bouquet name is required", ErrCatalogInvalidInput)
	}
	if bouquet.Price < 0 {
		return fmt.Errorf("%w: bouquet %q has negative price", ErrCatalogInvalidInput, bouquet.Name)
	}
	if bouquet.StockQuantity < 0 {
		return fmt.Errorf("%w: bouquet %q has negative stock", ErrCatalogInvalidInput, bouquet.Name)
	}
	for _, line := range bouquet.Composition {
		if strings.TrimSpace(line.FlowerName) == "" {
			return fmt.Errorf("%w: composition line has no flower name", ErrCatalogInvalidInput)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: composition line %q has non-positive quantity", ErrCatalogInvalidInput, line.FlowerName)
		}
	}
	return nil
}

// normaliseCatalogUpdates rejects unknown or store-assigned fields and keeps
// derived in_stock consistent when stock_quantity changes.
func normaliseCatalogUpdates(updates map[string]any) (map[string]any, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrCatalogInvalidInput)
	}

	out := make(map[string]any, len(updates)+1)
	for field, value := range updates {
		switch field {
		case "id", "created_date", "updated_date", "created_by":
			continue
		case "price":
			price, ok := toFloat(value)
			if !ok || price < 0 {
				return nil, fmt.Errorf("%w: invalid price", ErrCatalogInvalidInput)
			}
			out[field] = price
		case "stock_quantity":
			qty, ok := toInt(value)
			if !ok || qty < 0 {
				return nil, fmt.Errorf("%w: invalid stock quantity", ErrCatalogInvalidInput)
			}
			out[field] = qty
			out["in_stock"] = qty > 0
		default:
			out[field] = value
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields", ErrCatalogInvalidInput)
	}
	return out, nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("catalog: repository unavailable: %w", err)
		}
	}
	return err
}
