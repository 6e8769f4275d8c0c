package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/flowerdream/api/internal/domain"
)

func newCatalogServiceForTest(t *testing.T, flowers *fakeFlowerRepo, bouquets *fakeBouquetRepo) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(CatalogServiceDeps{Flowers: flowers, Bouquets: bouquets})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc
}

func TestCreateFlowerDerivesInStock(t *testing.T) {
	flowers := newFakeFlowerRepo()
	svc := newCatalogServiceForTest(t, flowers, newFakeBouquetRepo())

	created, err := svc.CreateFlower(context.Background(), domain.Flower{
		Name:          "  Роза красная  ",
		Price:         150,
		StockQuantity: 12,
	})
	if err != nil {
		t.Fatalf("CreateFlower: %v", err)
	}
	if created.Name != "Роза красная" {
		t.Fatalf("name = %q", created.Name)
	}
	if !created.InStock {
		t.Fatal("in_stock should be derived from quantity")
	}

	empty, err := svc.CreateFlower(context.Background(), domain.Flower{Name: "Пион", Price: 300})
	if err != nil {
		t.Fatalf("CreateFlower: %v", err)
	}
	if empty.InStock {
		t.Fatal("zero quantity should not be in stock")
	}
}

func TestCreateFlowerValidation(t *testing.T) {
	svc := newCatalogServiceForTest(t, newFakeFlowerRepo(), newFakeBouquetRepo())

	cases := []domain.Flower{
		{Name: "", Price: 100},
		{Name: "Роза", Price: -1},
		{Name: "Роза", Price: 100, StockQuantity: -5},
	}
	for _, flower := range cases {
		if _, err := svc.CreateFlower(context.Background(), flower); !errors.Is(err, ErrCatalogInvalidInput) {
			t.Fatalf("flower %+v: err = %v, want ErrCatalogInvalidInput", flower, err)
		}
	}
}

func TestUpdateFlowerSyncsInStock(t *testing.T) {
	flowers := newFakeFlowerRepo(testFlower("flw-1", "Роза", 5))
	svc := newCatalogServiceForTest(t, flowers, newFakeBouquetRepo())

	updated, err := svc.UpdateFlower(context.Background(), "flw-1", map[string]any{"stock_quantity": 0})
	if err != nil {
		t.Fatalf("UpdateFlower: %v", err)
	}
	if updated.StockQuantity != 0 || updated.InStock {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestUpdateFlowerRejectsStoreAssignedFieldsOnly(t *testing.T) {
	svc := newCatalogServiceForTest(t, newFakeFlowerRepo(testFlower("flw-1", "Роза", 5)), newFakeBouquetRepo())

	if _, err := svc.UpdateFlower(context.Background(), "flw-1", map[string]any{
		"id":           "flw-2",
		"created_date": "2024-01-01",
	}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("err = %v, want ErrCatalogInvalidInput", err)
	}

	if _, err := svc.UpdateFlower(context.Background(), "flw-1", map[string]any{
		"price": -10.0,
	}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("err = %v, want ErrCatalogInvalidInput", err)
	}
}

func TestGetFlowerNotFound(t *testing.T) {
	svc := newCatalogServiceForTest(t, newFakeFlowerRepo(), newFakeBouquetRepo())
	if _, err := svc.GetFlower(context.Background(), "missing"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("err = %v, want ErrCatalogNotFound", err)
	}
}

func TestBulkCreateFlowersValidatesEveryRow(t *testing.T) {
	flowers := newFakeFlowerRepo()
	svc := newCatalogServiceForTest(t, flowers, newFakeBouquetRepo())

	if _, err := svc.BulkCreateFlowers(context.Background(), []domain.Flower{
		{Name: "Роза", Price: 100},
		{Name: "", Price: 50},
	}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("err = %v, want ErrCatalogInvalidInput", err)
	}
	if len(flowers.flowers) != 0 {
		t.Fatalf("nothing should be inserted on validation failure, got %d", len(flowers.flowers))
	}

	created, err := svc.BulkCreateFlowers(context.Background(), []domain.Flower{
		{Name: "Роза", Price: 100, StockQuantity: 3},
		{Name: "Пион", Price: 250},
	})
	if err != nil {
		t.Fatalf("BulkCreateFlowers: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d, want 2", len(created))
	}
}

func TestCreateBouquetValidatesComposition(t *testing.T) {
	svc := newCatalogServiceForTest(t, newFakeFlowerRepo(), newFakeBouquetRepo())

	if _, err := svc.CreateBouquet(context.Background(), domain.Bouquet{
		Name:  "Нежность",
		Price: 2500,
		Composition: []domain.CompositionLine{
			{FlowerName: "Роза", Quantity: 0},
		},
	}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("err = %v, want ErrCatalogInvalidInput", err)
	}

	created, err := svc.CreateBouquet(context.Background(), domain.Bouquet{
		Name:  "Нежность",
		Price: 2500,
		Composition: []domain.CompositionLine{
			{FlowerName: "Роза", Quantity: 7},
			{FlowerName: "Эвкалипт", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateBouquet: %v", err)
	}
	if len(created.Composition) != 2 {
		t.Fatalf("composition = %+v", created.Composition)
	}
}

func TestDeleteBouquetNotFound(t *testing.T) {
	svc := newCatalogServiceForTest(t, newFakeFlowerRepo(), newFakeBouquetRepo())
	if err := svc.DeleteBouquet(context.Background(), "missing"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("err = %v, want ErrCatalogNotFound", err)
	}
}
