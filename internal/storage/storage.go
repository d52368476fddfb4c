package storage

import (
	"context"

	apperrors "github.com/aihub/rag-go/internal/errors"
)

// ErrNotFound 请求的对象不存在
var ErrNotFound = apperrors.New(apperrors.ErrCodeNotFound, "object not found")

// BlobStore 对象存储抽象
// List 只返回对象键（不含目录占位符），按存储返回顺序
type BlobStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Copy(ctx context.Context, sourceKey, targetKey string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

func storageError(op, key string, cause error) error {
	return apperrors.Wrap(apperrors.ErrCodeStorageError, "storage "+op+" failed for "+key, cause)
}
