package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aihub/rag-go/internal/knowledge"
	"github.com/aihub/rag-go/internal/logger"
)

// Report 一次tick的处理结果
type Report struct {
	Discovered []string
	Embedded   []string
	Failed     []string
	Archived   []string
}

// Pipeline 摄取流水线：发现 → 加载 → 分块 → 嵌入 → 归档
type Pipeline struct {
	loader      knowledge.ArchivingLoader
	chunker     *knowledge.Chunker
	vectorStore knowledge.VectorStore
	maxParallel int
	metrics     *Metrics
}

// NewPipeline 创建摄取流水线
func NewPipeline(loader knowledge.ArchivingLoader, chunker *knowledge.Chunker, vectorStore knowledge.VectorStore, maxParallel int) *Pipeline {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Pipeline{
		loader:      loader,
		chunker:     chunker,
		vectorStore: vectorStore,
		maxParallel: maxParallel,
		metrics:     GetMetrics(),
	}
}

// RunOnce 执行一次完整tick
//
// 发现阶段拿到的键集合就是本tick的全部工作量，tick中途新上传的
// 对象留给下一个tick。每个键独立处理：单个坏文档只记日志，不中断
// 整个tick。归档只在所有键的嵌入阶段结束后、且只对端到端成功的键
// 执行。列表失败时整个tick中止，不产生任何副作用。
func (p *Pipeline) RunOnce(ctx context.Context) (Report, error) {
	started := time.Now()
	defer func() {
		p.metrics.TickDuration.Observe(time.Since(started).Seconds())
	}()

	keys, err := p.loader.ListPending(ctx)
	if err != nil {
		logger.Error("Failed to list pending documents, aborting tick", zap.Error(err))
		p.metrics.TicksTotal.WithLabelValues("aborted").Inc()
		return Report{}, err
	}

	report := Report{Discovered: keys}
	if len(keys) == 0 {
		p.metrics.TicksTotal.WithLabelValues("completed").Inc()
		return report, nil
	}

	logger.Info("Starting ingestion tick", zap.Int("pending", len(keys)))

	type keyResult struct {
		key      string
		embedded bool
	}

	results := make([]keyResult, len(keys))
	sem := make(chan struct{}, p.maxParallel)
	var wg sync.WaitGroup

	for i, key := range keys {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, key string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = keyResult{key: key, embedded: p.processKey(ctx, key)}
		}(i, key)
	}
	wg.Wait()

	// 归档阶段：仅对本tick端到端成功的键执行
	for _, r := range results {
		if r.embedded {
			report.Embedded = append(report.Embedded, r.key)
		} else {
			report.Failed = append(report.Failed, r.key)
		}
	}

	report.Archived = p.loader.ArchiveEmbedded(ctx, report.Embedded)
	if len(report.Archived) < len(report.Embedded) {
		p.metrics.ArchiveFailures.Add(float64(len(report.Embedded) - len(report.Archived)))
	}

	logger.Info("Ingestion tick finished",
		zap.Int("discovered", len(report.Discovered)),
		zap.Int("embedded", len(report.Embedded)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("archived", len(report.Archived)))
	p.metrics.TicksTotal.WithLabelValues("completed").Inc()

	return report, nil
}

// processKey 单个文档的加载、分块与嵌入，失败被限制在文档边界内
func (p *Pipeline) processKey(ctx context.Context, key string) bool {
	documents, err := p.loader.Load(ctx, key)
	if err != nil {
		logger.Error("Failed to load document",
			zap.String("key", key), zap.Error(err))
		p.metrics.DocumentsTotal.WithLabelValues("failed").Inc()
		return false
	}

	if len(documents) == 0 {
		// 没有可嵌入内容的对象保留在pending区，与原始行为一致
		logger.Info("No documents to embed", zap.String("key", key))
		p.metrics.DocumentsTotal.WithLabelValues("empty").Inc()
		return false
	}

	chunks := p.chunker.Split(documents)
	if len(chunks) == 0 {
		logger.Info("Document produced no chunks", zap.String("key", key))
		p.metrics.DocumentsTotal.WithLabelValues("empty").Inc()
		return false
	}

	if err := p.vectorStore.UpsertChunks(ctx, chunks); err != nil {
		logger.Error("Failed to index document chunks",
			zap.String("key", key), zap.Int("chunks", len(chunks)), zap.Error(err))
		p.metrics.DocumentsTotal.WithLabelValues("failed").Inc()
		return false
	}

	logger.Info("Embedded document",
		zap.String("key", key),
		zap.Int("pages", len(documents)),
		zap.Int("chunks", len(chunks)))
	p.metrics.DocumentsTotal.WithLabelValues("embedded").Inc()
	p.metrics.ChunksIndexed.Add(float64(len(chunks)))
	return true
}
