package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"

	"github.com/aihub/rag-go/internal/logger"
	"github.com/aihub/rag-go/internal/storage"
)

// DocumentLoader 把对象键解析为逻辑文档
type DocumentLoader interface {
	// Load 解析对象为逻辑文档序列，PDF按页拆分
	Load(ctx context.Context, key string) ([]Document, error)
	// LoadRaw 把整个对象当作一段文本，不分页
	LoadRaw(ctx context.Context, key string) (Document, error)
}

// ArchivingLoader 支持发现与归档的加载器
// 不支持归档的实现返回文档化的no-op，而不是静默继承
type ArchivingLoader interface {
	DocumentLoader
	// ListPending 列出待摄取前缀下的全部对象键
	ListPending(ctx context.Context) ([]string, error)
	// ArchiveEmbedded 把成功嵌入的对象从pending前缀移动到archive前缀
	// 返回实际完成移动的键
	ArchiveEmbedded(ctx context.Context, keys []string) []string
}

// BlobDocumentLoader 基于对象存储的文档加载器
type BlobDocumentLoader struct {
	store         storage.BlobStore
	pendingPrefix string
	archivePrefix string
}

// NewBlobDocumentLoader 创建对象存储文档加载器
func NewBlobDocumentLoader(store storage.BlobStore, pendingPrefix, archivePrefix string) *BlobDocumentLoader {
	if pendingPrefix == "" {
		pendingPrefix = "rag/uploaded/"
	}
	if archivePrefix == "" {
		archivePrefix = "rag/embedded/"
	}
	return &BlobDocumentLoader{
		store:         store,
		pendingPrefix: pendingPrefix,
		archivePrefix: archivePrefix,
	}
}

func (l *BlobDocumentLoader) Load(ctx context.Context, key string) ([]Document, error) {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		return parsePDFPages(key, data)
	case ".docx":
		text, err := parseDocx(data)
		if err != nil {
			return nil, err
		}
		return []Document{{SourceKey: key, PageIndex: 0, Text: stripNulls(text)}}, nil
	default:
		return []Document{{SourceKey: key, PageIndex: 0, Text: stripNulls(string(data))}}, nil
	}
}

func (l *BlobDocumentLoader) LoadRaw(ctx context.Context, key string) (Document, error) {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		return Document{}, err
	}
	return Document{SourceKey: key, PageIndex: 0, Text: stripNulls(string(data))}, nil
}

func (l *BlobDocumentLoader) ListPending(ctx context.Context) ([]string, error) {
	keys, err := l.store.List(ctx, l.pendingPrefix)
	if err != nil {
		return nil, err
	}
	logger.Info("Listed pending documents",
		zap.String("prefix", l.pendingPrefix),
		zap.Int("count", len(keys)))
	return keys, nil
}

// ArchiveEmbedded 逐键移动：目标已存在则跳过并告警（绝不覆盖）；
// 复制后校验目标存在，校验通过才删除源。复制校验失败时源保持原位。
func (l *BlobDocumentLoader) ArchiveEmbedded(ctx context.Context, keys []string) []string {
	if len(keys) == 0 {
		logger.Warn("No documents provided to archive")
		return nil
	}

	var moved []string
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			logger.Warn("Skipping empty object key")
			continue
		}

		targetKey := strings.Replace(key, l.pendingPrefix, l.archivePrefix, 1)

		exists, err := l.store.Exists(ctx, targetKey)
		if err != nil {
			logger.Error("Failed to check archive target",
				zap.String("target", targetKey), zap.Error(err))
			continue
		}
		if exists {
			logger.Warn("Archive target already exists, skipping",
				zap.String("source", key), zap.String("target", targetKey))
			continue
		}

		if err := l.store.Copy(ctx, key, targetKey); err != nil {
			logger.Error("Failed to copy document to archive",
				zap.String("source", key), zap.Error(err))
			continue
		}

		copied, err := l.store.Exists(ctx, targetKey)
		if err != nil || !copied {
			// 源保持原位，下个tick依赖确定性记录ID幂等重嵌
			logger.Error("Archive copy verification failed, source left in place",
				zap.String("source", key), zap.String("target", targetKey), zap.Error(err))
			continue
		}

		if err := l.store.Delete(ctx, key); err != nil {
			logger.Warn("Copy succeeded but failed to delete source",
				zap.String("source", key), zap.Error(err))
			continue
		}

		logger.Info("Archived embedded document",
			zap.String("source", key), zap.String("target", targetKey))
		moved = append(moved, key)
	}

	return moved
}

func parsePDFPages(key string, data []byte) ([]Document, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf %s: %w", key, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf page count for %s: %w", key, err)
	}

	var documents []Document
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			logger.Warn("Failed to read pdf page",
				zap.String("key", key), zap.Int("page", i), zap.Error(err))
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			continue
		}

		text, err := ex.ExtractText()
		if err != nil {
			continue
		}

		documents = append(documents, Document{
			SourceKey: key,
			PageIndex: i - 1,
			Text:      stripNulls(text),
		})
	}

	return documents, nil
}

func parseDocx(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	var builder strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			builder.WriteString(run.Text())
		}
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// stripNulls 去除提取文本中的内嵌空字符
func stripNulls(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
