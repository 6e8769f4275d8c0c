package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// UploadKind routes uploaded objects into per-purpose prefixes.
type UploadKind string

const (
	KindImage  UploadKind = "images"
	KindImport UploadKind = "imports"
	KindBackup UploadKind = "backups"
)

var uploadKinds = map[UploadKind]struct{}{
	KindImage:  {},
	KindImport: {},
	KindBackup: {},
}

// BuildUploadPath composes a unique object key for an uploaded file. The key
// embeds the upload timestamp and a random suffix so repeated uploads of the
// same file name never collide.
func BuildUploadPath(kind UploadKind, fileName string, uploadedAt time.Time, random string) (string, error) {
	if _, ok := uploadKinds[kind]; !ok {
		return "", fmt.Errorf("storage: unsupported upload kind %q", kind)
	}
	cleaned, err := validateFileName(fileName)
	if err != nil {
		return "", err
	}
	random = strings.TrimSpace(random)
	if random == "" {
		return "", fmt.Errorf("storage: random suffix is required")
	}
	if uploadedAt.IsZero() {
		return "", fmt.Errorf("storage: upload timestamp is required")
	}

	ext := strings.ToLower(path.Ext(cleaned))
	return fmt.Sprintf("uploads/%s/%d-%s%s", kind, uploadedAt.UnixMilli(), random, ext), nil
}

func validateFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: fileName is required")
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: fileName contains invalid path characters")
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: fileName contains invalid traversal sequence")
	}
	return value, nil
}
