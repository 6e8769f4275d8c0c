package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/flowerdream/api/internal/platform/storage"
)

// ErrUploadInvalidInput signals an unusable upload request.
var ErrUploadInvalidInput = errors.New("upload: invalid input")

// UploadServiceDeps bundles collaborators required to construct the upload service.
type UploadServiceDeps struct {
	Uploader FileUploader
}

type uploadService struct {
	uploader FileUploader
}

// NewUploadService wires dependencies into a concrete UploadService implementation.
func NewUploadService(deps UploadServiceDeps) (UploadService, error) {
	if deps.Uploader == nil {
		return nil, errors.New("upload service: uploader is required")
	}
	return &uploadService{uploader: deps.Uploader}, nil
}

func (s *uploadService) UploadImage(ctx context.Context, fileName, contentType string, content io.Reader) (UploadedFile, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return UploadedFile{}, fmt.Errorf("%w: file name is required", ErrUploadInvalidInput)
	}
	if content == nil {
		return UploadedFile{}, fmt.Errorf("%w: file content is required", ErrUploadInvalidInput)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := s.uploader.Upload(ctx, storage.KindImage, fileName, contentType, content)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("upload: store file: %w", err)
	}

	return UploadedFile{
		URL:        result.PublicURL,
		Object:     result.Object,
		Size:       result.Size,
		UploadedAt: result.UploadedAt,
	}, nil
}
