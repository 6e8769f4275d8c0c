package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBodySize  = 20 << 20
)

// Extraction statuses returned to callers.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// FieldType enumerates the supported schema field types.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
)

// Field describes one column of the expected tabular layout.
type Field struct {
	Type FieldType `json:"type"`
}

// Schema maps column names to their expected types. Columns absent from the
// schema are carried through as strings.
type Schema struct {
	Properties map[string]Field `json:"properties"`
}

// Result is the envelope returned by extraction: either parsed rows or an
// error description, never both.
type Result struct {
	Status  string           `json:"status"`
	Details string           `json:"details,omitempty"`
	Output  []map[string]any `json:"output,omitempty"`
}

// Extractor downloads CSV files and converts rows into typed records.
type Extractor struct {
	httpClient *http.Client
	maxBody    int64
}

// ExtractorOption customises Extractor behaviour.
type ExtractorOption func(*Extractor)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) ExtractorOption {
	return func(e *Extractor) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithMaxBodySize caps the downloaded file size in bytes.
func WithMaxBodySize(limit int64) ExtractorOption {
	return func(e *Extractor) {
		if limit > 0 {
			e.maxBody = limit
		}
	}
}

// NewExtractor constructs an Extractor with sane download limits.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	extractor := &Extractor{
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		maxBody:    defaultMaxBodySize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(extractor)
		}
	}
	return extractor
}

// ExtractFromURL downloads the file and parses it according to the schema.
// Failures are reported inside the Result envelope rather than as errors so
// callers can surface them to clients verbatim.
func (e *Extractor) ExtractFromURL(ctx context.Context, fileURL string, schema Schema) Result {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return errorResult("file url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid file url: %v", err))
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return errorResult(fmt.Sprintf("download failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorResult(fmt.Sprintf("download failed with status %d", resp.StatusCode))
	}

	rows, err := e.Parse(io.LimitReader(resp.Body, e.maxBody), schema)
	if err != nil {
		return errorResult(err.Error())
	}
	if len(rows) == 0 {
		return errorResult("file contains no data rows")
	}
	return Result{Status: StatusSuccess, Output: rows}
}

// Parse reads CSV content and returns typed records keyed by header name.
// A leading byte-order mark is stripped before parsing.
func (e *Extractor) Parse(r io.Reader, schema Schema) ([]map[string]any, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	var rows []map[string]any
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			if column == "" || i >= len(record) {
				continue
			}
			row[column] = castValue(record[i], schema.Properties[column].Type)
		}
		rows = append(rows, row)
	}

	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// castValue converts a raw cell according to the declared type. Numeric cells
// that are blank or unparsable become nil so callers can distinguish them
// from zero.
func castValue(raw string, fieldType FieldType) any {
	value := strings.TrimSpace(raw)

	switch fieldType {
	case FieldNumber:
		if value == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil
		}
		return parsed
	case FieldInteger:
		if value == "" {
			return nil
		}
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			if f, ferr := strconv.ParseFloat(value, 64); ferr == nil {
				return int64(f)
			}
			return nil
		}
		return parsed
	case FieldBoolean:
		lowered := strings.ToLower(value)
		return lowered == "true" || lowered == "1"
	default:
		return value
	}
}

func errorResult(details string) Result {
	return Result{Status: StatusError, Details: details}
}
