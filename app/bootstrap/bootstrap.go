package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aihub/rag-go/internal/config"
	"github.com/aihub/rag-go/internal/ingest"
	"github.com/aihub/rag-go/internal/knowledge"
	"github.com/aihub/rag-go/internal/llm"
	"github.com/aihub/rag-go/internal/logger"
	"github.com/aihub/rag-go/internal/services"
	"github.com/aihub/rag-go/internal/storage"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	VectorStore knowledge.VectorStore
	ChatService *services.ChatService
	Scheduler   *ingest.Scheduler

	cleanupTasks []func() error
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// Init bootstraps configuration, logger, storage, the ingestion pipeline and
// the chat service required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	app := &App{}

	// Blob storage: minio in deployments, an in-memory store for local runs.
	var blobStore storage.BlobStore
	switch cfg.Storage.Provider {
	case "local":
		blobStore = storage.NewMemoryStore()
		logger.Warn("Using in-memory blob store, uploaded documents will not persist")
	default:
		minioStore, err := storage.NewMinIOStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
		blobStore = minioStore
	}

	loader := knowledge.NewBlobDocumentLoader(blobStore, cfg.Storage.PendingPrefix, cfg.Storage.ArchivePrefix)
	chunker := knowledge.NewChunker(knowledge.NewDefaultCodec(), cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	embedder := knowledge.NewOpenAIEmbedder(cfg.Embedding)
	if !embedder.Ready() {
		logger.Warn("Embedding provider not configured, ingestion and retrieval will fail")
	}

	var vectorStore knowledge.VectorStore
	switch cfg.Vector.Provider {
	case "milvus":
		store, err := knowledge.NewMilvusVectorStore(knowledge.MilvusOptions{
			Address:    cfg.Vector.Milvus.Address,
			Username:   cfg.Vector.Milvus.Username,
			Password:   cfg.Vector.Milvus.Password,
			Collection: cfg.Vector.Milvus.Collection,
			Database:   cfg.Vector.Milvus.Database,
			VectorSize: cfg.Vector.Milvus.VectorSize,
			Distance:   cfg.Vector.Milvus.Distance,
			UseTLS:     cfg.Vector.Milvus.UseTLS,
			Timeout:    30 * time.Second,
		}, embedder)
		if err != nil {
			return nil, err
		}
		vectorStore = store
	default:
		vectorStore = knowledge.NewMemoryVectorStore(embedder)
		logger.Warn("Using in-memory vector store, index will not persist")
	}
	app.VectorStore = vectorStore

	pipeline := ingest.NewPipeline(loader, chunker, vectorStore, cfg.Ingest.MaxParallel)
	if cfg.Ingest.Enabled {
		app.Scheduler = ingest.NewScheduler(pipeline, time.Duration(cfg.Ingest.IntervalSeconds)*time.Second)
		app.Scheduler.Start(context.Background())
		app.cleanupTasks = append(app.cleanupTasks, func() error {
			app.Scheduler.Stop()
			return nil
		})
	} else {
		logger.Info("Ingestion scheduler disabled by configuration")
	}

	augmenter := services.NewRetrievalAugmenter(
		vectorStore,
		cfg.Retrieval.SimilarityThreshold,
		cfg.Retrieval.TopK,
		cfg.Retrieval.AllowEmptyContext,
	)
	chatModel := llm.NewOpenAIChatModel(cfg.Chat.APIKey, cfg.Chat.Model, cfg.Chat.MaxTokens, cfg.Chat.Temperature)
	app.ChatService = services.NewChatService(augmenter, chatModel)

	globalApp = app
	logger.Info("Application bootstrap finished",
		zap.String("storage", cfg.Storage.Provider),
		zap.String("vector_store", cfg.Vector.Provider),
		zap.Bool("ingest_enabled", cfg.Ingest.Enabled))

	return app, nil
}

// Shutdown runs cleanup tasks in reverse registration order.
func (a *App) Shutdown() {
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}
	logger.Sync()
}
