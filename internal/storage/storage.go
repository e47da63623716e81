package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"time"
)

// Artifacts stores rendered document outputs (PDF snapshots, spreadsheet
// exports). Keys are relative paths chosen by BuildKey and persisted on the
// document row.
type Artifacts interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// BuildKey creates a unique object key organized by kind and year/month,
// e.g. "contracts/2026/08/3f2a...c1.pdf".
func BuildKey(kind, ext string) string {
	return path.Join(kind, time.Now().Format("2006/01"), fmt.Sprintf("%s%s", generateID(), ext))
}

// generateID creates a unique identifier for object keys
func generateID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// ContentTypePDF and ContentTypeXLSX are the artifact MIME types we produce.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
