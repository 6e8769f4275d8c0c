package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	domain "github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/platform/ingest"
	"github.com/flowerdream/api/internal/platform/storage"
)

var (
	// ErrImportInvalidInput signals the caller provided an unusable import request.
	ErrImportInvalidInput = errors.New("import: invalid input")
	// ErrImportFailed indicates the uploaded file could not be turned into catalog rows.
	ErrImportFailed = errors.New("import: extraction failed")
)

// utf8BOM makes Excel open the exported template as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var flowerCSVHeaders = []string{"name", "price", "description", "image_url", "color", "category", "in_stock", "stock_quantity"}

var bouquetCSVHeaders = []string{"name", "price", "description", "image_url", "occasion", "is_popular", "stock_quantity", "size", "composition"}

var flowerImportSchema = ingest.Schema{
	Properties: map[string]ingest.Field{
		"name":           {Type: ingest.FieldString},
		"price":          {Type: ingest.FieldNumber},
		"description":    {Type: ingest.FieldString},
		"image_url":      {Type: ingest.FieldString},
		"color":          {Type: ingest.FieldString},
		"category":       {Type: ingest.FieldString},
		"in_stock":       {Type: ingest.FieldBoolean},
		"stock_quantity": {Type: ingest.FieldInteger},
	},
}

var bouquetImportSchema = ingest.Schema{
	Properties: map[string]ingest.Field{
		"name":           {Type: ingest.FieldString},
		"price":          {Type: ingest.FieldNumber},
		"description":    {Type: ingest.FieldString},
		"image_url":      {Type: ingest.FieldString},
		"occasion":       {Type: ingest.FieldString},
		"is_popular":     {Type: ingest.FieldBoolean},
		"stock_quantity": {Type: ingest.FieldInteger},
		"size":           {Type: ingest.FieldString},
		// Composition stays a JSON string in the CSV cell.
		"composition": {Type: ingest.FieldString},
	},
}

// FileUploader stores a blob and returns its public location.
type FileUploader interface {
	Upload(ctx context.Context, kind storage.UploadKind, fileName, contentType string, content io.Reader) (storage.UploadResult, error)
}

// TableExtractor fetches a stored file and parses it into schema-cast rows.
type TableExtractor interface {
	ExtractFromURL(ctx context.Context, fileURL string, schema ingest.Schema) ingest.Result
}

// ImportServiceDeps bundles collaborators required to construct the import service.
type ImportServiceDeps struct {
	Catalog   CatalogService
	Uploader  FileUploader
	Extractor TableExtractor
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type importService struct {
	catalog   CatalogService
	uploader  FileUploader
	extractor TableExtractor
	logger    func(context.Context, string, map[string]any)
}

// NewImportService wires dependencies into a concrete ImportService implementation.
func NewImportService(deps ImportServiceDeps) (ImportService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("import service: catalog service is required")
	}
	if deps.Uploader == nil {
		return nil, errors.New("import service: uploader is required")
	}
	if deps.Extractor == nil {
		return nil, errors.New("import service: extractor is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &importService{
		catalog:   deps.Catalog,
		uploader:  deps.Uploader,
		extractor: deps.Extractor,
		logger:    logger,
	}, nil
}

// TemplateCSV renders the downloadable import template with sample rows.
func (s *importService) TemplateCSV(kind ImportKind) ([]byte, string, error) {
	var (
		records  [][]string
		fileName string
	)
	switch kind {
	case ImportFlowers:
		records = append([][]string{flowerCSVHeaders},
			[]string{"Красная роза", "150", "Классическая красная роза", "https://example.com/rose.jpg", "красный", "розы", "true", "50"},
			[]string{"Белая лилия", "200", "Элегантная белая лилия", "https://example.com/lily.jpg", "белый", "лилии", "true", "30"},
			[]string{"Желтый тюльпан", "120", "Яркий желтый тюльпан", "https://example.com/tulip.jpg", "желтый", "тюльпаны", "true", "100"},
		)
		fileName = "шаблон_цветы.csv"
	case ImportBouquets:
		composition, err := json.Marshal([]domain.CompositionLine{
			{FlowerName: "Роза красная", Quantity: 15},
			{FlowerName: "Зелень", Quantity: 5},
		})
		if err != nil {
			return nil, "", fmt.Errorf("import: render composition sample: %w", err)
		}
		records = append([][]string{bouquetCSVHeaders},
			[]string{"Романтический букет", "3500", "Букет из красных роз для любимых", "https://example.com/romantic.jpg", "романтика", "true", "15", "35x45", string(composition)},
		)
		fileName = "шаблон_букеты.csv"
	default:
		return nil, "", fmt.Errorf("%w: unknown import kind %q", ErrImportInvalidInput, kind)
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, "", fmt.Errorf("import: render template: %w", err)
	}
	return buf.Bytes(), fileName, nil
}

// Import stores the uploaded CSV, fetches it back through the extractor, and
// bulk-creates the parsed catalog rows.
func (s *importService) Import(ctx context.Context, kind ImportKind, fileName string, content io.Reader, createdBy string) (ImportReport, error) {
	if kind != ImportFlowers && kind != ImportBouquets {
		return ImportReport{}, fmt.Errorf("%w: unknown import kind %q", ErrImportInvalidInput, kind)
	}
	if content == nil {
		return ImportReport{}, fmt.Errorf("%w: file content is required", ErrImportInvalidInput)
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = string(kind) + ".csv"
	}

	upload, err := s.uploader.Upload(ctx, storage.KindImport, fileName, "text/csv", content)
	if err != nil {
		return ImportReport{}, fmt.Errorf("import: store file: %w", err)
	}

	schema := flowerImportSchema
	if kind == ImportBouquets {
		schema = bouquetImportSchema
	}

	// A success envelope always carries at least one row; the extractor
	// reports a headers-only file as an error.
	result := s.extractor.ExtractFromURL(ctx, upload.PublicURL, schema)
	if result.Status != ingest.StatusSuccess {
		return ImportReport{}, fmt.Errorf("%w: %s", ErrImportFailed, result.Details)
	}

	report := ImportReport{
		Kind:      kind,
		FileURL:   upload.PublicURL,
		RowCount:  len(result.Output),
		CreatedBy: strings.TrimSpace(createdBy),
	}

	switch kind {
	case ImportFlowers:
		flowers := make([]domain.Flower, 0, len(result.Output))
		for i, row := range result.Output {
			flower, err := flowerFromRow(row)
			if err != nil {
				return ImportReport{}, fmt.Errorf("%w: row %d: %v", ErrImportFailed, i+1, err)
			}
			flower.CreatedBy = report.CreatedBy
			flowers = append(flowers, flower)
		}
		created, err := s.catalog.BulkCreateFlowers(ctx, flowers)
		if err != nil {
			return ImportReport{}, err
		}
		report.Inserted = len(created)
	case ImportBouquets:
		bouquets := make([]domain.Bouquet, 0, len(result.Output))
		for i, row := range result.Output {
			bouquet, err := bouquetFromRow(row)
			if err != nil {
				return ImportReport{}, fmt.Errorf("%w: row %d: %v", ErrImportFailed, i+1, err)
			}
			bouquet.CreatedBy = report.CreatedBy
			bouquets = append(bouquets, bouquet)
		}
		created, err := s.catalog.BulkCreateBouquets(ctx, bouquets)
		if err != nil {
			return ImportReport{}, err
		}
		report.Inserted = len(created)
	}

	s.logger(ctx, "import.completed", map[string]any{
		"kind":     string(kind),
		"rows":     report.RowCount,
		"inserted": report.Inserted,
	})

	return report, nil
}

func flowerFromRow(row map[string]any) (domain.Flower, error) {
	price, err := rowFloat(row, "price")
	if err != nil {
		return domain.Flower{}, err
	}
	quantity, err := rowInt(row, "stock_quantity")
	if err != nil {
		return domain.Flower{}, err
	}

	flower := domain.Flower{
		Name:          rowString(row, "name"),
		Description:   rowString(row, "description"),
		Price:         price,
		ImageURL:      rowString(row, "image_url"),
		Color:         domain.FlowerColor(rowString(row, "color")),
		Category:      domain.FlowerCategory(rowString(row, "category")),
		StockQuantity: quantity,
	}
	flower.InStock = rowBool(row, "in_stock") && quantity > 0
	return flower, nil
}

func bouquetFromRow(row map[string]any) (domain.Bouquet, error) {
	price, err := rowFloat(row, "price")
	if err != nil {
		return domain.Bouquet{}, err
	}
	quantity, err := rowInt(row, "stock_quantity")
	if err != nil {
		return domain.Bouquet{}, err
	}

	var composition []domain.CompositionLine
	if raw := rowString(row, "composition"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &composition); err != nil {
			return domain.Bouquet{}, fmt.Errorf("invalid composition json: %v", err)
		}
	}

	return domain.Bouquet{
		Name:          rowString(row, "name"),
		Description:   rowString(row, "description"),
		Price:         price,
		ImageURL:      rowString(row, "image_url"),
		Occasion:      domain.Occasion(rowString(row, "occasion")),
		IsPopular:     rowBool(row, "is_popular"),
		StockQuantity: quantity,
		Size:          rowString(row, "size"),
		Composition:   composition,
	}, nil
}

func rowString(row map[string]any, field string) string {
	if v, ok := row[field].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func rowFloat(row map[string]any, field string) (float64, error) {
	switch v := row[field].(type) {
	case nil:
		return 0, fmt.Errorf("missing %s", field)
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", field, v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("invalid %s", field)
	}
}

func rowInt(row map[string]any, field string) (int, error) {
	switch v := row[field].(type) {
	case nil:
		return 0, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", field, v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("invalid %s", field)
	}
}

func rowBool(row map[string]any, field string) bool {
	switch v := row[field].(type) {
	case bool:
		return v
	case string:
		lowered := strings.ToLower(strings.TrimSpace(v))
		return lowered == "true" || lowered == "1"
	default:
		return false
	}
}
