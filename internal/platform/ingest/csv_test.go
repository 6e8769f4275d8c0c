package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func flowerSchema() Schema {
	return Schema{Properties: map[string]Field{
		"name":           {Type: FieldString},
		"price":          {Type: FieldNumber},
		"stock_quantity": {Type: FieldInteger},
		"in_stock":       {Type: FieldBoolean},
	}}
}

func TestParseCastsTypes(t *testing.T) {
	input := "name,price,stock_quantity,in_stock\nРоза красная,150.50,25,true\nТюльпан,90,0,false\n"

	rows, err := NewExtractor().Parse(strings.NewReader(input), flowerSchema())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first["name"] != "Роза красная" {
		t.Fatalf("unexpected name %v", first["name"])
	}
	if first["price"] != 150.50 {
		t.Fatalf("unexpected price %v", first["price"])
	}
	if first["stock_quantity"] != int64(25) {
		t.Fatalf("unexpected stock_quantity %v", first["stock_quantity"])
	}
	if first["in_stock"] != true {
		t.Fatalf("unexpected in_stock %v", first["in_stock"])
	}
	if rows[1]["in_stock"] != false {
		t.Fatalf("unexpected in_stock %v", rows[1]["in_stock"])
	}
}

func TestParseHandlesQuotedFields(t *testing.T) {
	input := "name,description,price\n\"Букет \"\"Нежность\"\"\",\"Розы, пионы\nи эвкалипт\",2500\n"

	schema := Schema{Properties: map[string]Field{"price": {Type: FieldNumber}}}
	rows, err := NewExtractor().Parse(strings.NewReader(input), schema)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["name"] != `Букет "Нежность"` {
		t.Fatalf("unexpected name %v", rows[0]["name"])
	}
	if rows[0]["description"] != "Розы, пионы\nи эвкалипт" {
		t.Fatalf("unexpected description %v", rows[0]["description"])
	}
}

func TestParseStripsByteOrderMark(t *testing.T) {
	input := "\uFEFFname,price\nРоза,100\n"

	rows, err := NewExtractor().Parse(strings.NewReader(input), flowerSchema())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, ok := rows[0]["name"]; !ok {
		t.Fatalf("expected name column after BOM strip, got %v", rows[0])
	}
}

func TestParseEmptyNumericCellsBecomeNil(t *testing.T) {
	input := "name,price,stock_quantity\nРоза,,\n"

	rows, err := NewExtractor().Parse(strings.NewReader(input), flowerSchema())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rows[0]["price"] != nil {
		t.Fatalf("expected nil price, got %v", rows[0]["price"])
	}
	if rows[0]["stock_quantity"] != nil {
		t.Fatalf("expected nil stock_quantity, got %v", rows[0]["stock_quantity"])
	}
}

func TestParseRejectsEmptyFile(t *testing.T) {
	if _, err := NewExtractor().Parse(strings.NewReader(""), flowerSchema()); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestExtractFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("name,price\nРоза,100\n"))
	}))
	defer server.Close()

	result := NewExtractor().ExtractFromURL(context.Background(), server.URL, flowerSchema())
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %q (%s)", result.Status, result.Details)
	}
	if len(result.Output) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Output))
	}
}

func TestExtractFromURLHeadersOnlyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("name,price\n"))
	}))
	defer server.Close()

	result := NewExtractor().ExtractFromURL(context.Background(), server.URL, flowerSchema())
	if result.Status != StatusError {
		t.Fatalf("expected error status for headers-only file, got %q", result.Status)
	}
	if !strings.Contains(result.Details, "no data rows") {
		t.Fatalf("unexpected details %q", result.Details)
	}
}

func TestExtractFromURLReportsFailuresInEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result := NewExtractor().ExtractFromURL(context.Background(), server.URL, flowerSchema())
	if result.Status != StatusError {
		t.Fatalf("expected error status, got %q", result.Status)
	}
	if result.Details == "" {
		t.Fatal("expected error details")
	}
	if len(result.Output) != 0 {
		t.Fatalf("expected no output, got %v", result.Output)
	}
}
