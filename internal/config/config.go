package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   ObjectStorageConfig
	Vector    VectorStoreConfig
	Embedding EmbeddingConfig
	Chat      ChatConfig
	Retrieval RetrievalConfig
	Knowledge KnowledgeConfig
	Ingest    IngestConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type ObjectStorageConfig struct {
	Provider      string // minio | local
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PendingPrefix string
	ArchivePrefix string
}

type VectorStoreConfig struct {
	Provider string // milvus | memory
	Milvus   MilvusConfig
}

type MilvusConfig struct {
	Address    string
	Username   string
	Password   string
	Collection string
	Database   string
	VectorSize int
	Distance   string
	UseTLS     bool
}

type EmbeddingConfig struct {
	APIKey string
	Model  string
}

type ChatConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type RetrievalConfig struct {
	SimilarityThreshold float64
	TopK                int
	AllowEmptyContext   bool
}

type KnowledgeConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type IngestConfig struct {
	Enabled         bool
	IntervalSeconds int
	MaxParallel     int
}

var AppConfig *Config

// LoadConfig 加载配置：默认值 + 环境变量覆盖
func LoadConfig() error {
	// 设置默认值
	viper.SetDefault("server.port", "8001")
	viper.SetDefault("server.env", "development")

	// 对象存储配置默认值
	viper.SetDefault("storage.provider", "minio")
	viper.SetDefault("storage.endpoint", "localhost:9000")
	viper.SetDefault("storage.access_key", "")
	viper.SetDefault("storage.secret_key", "")
	viper.SetDefault("storage.bucket", "rag-documents")
	viper.SetDefault("storage.use_ssl", false)
	viper.SetDefault("storage.pending_prefix", "rag/uploaded/")
	viper.SetDefault("storage.archive_prefix", "rag/embedded/")

	// 向量存储配置默认值
	viper.SetDefault("vector_store.provider", "memory")
	viper.SetDefault("vector_store.milvus.address", "localhost:19530")
	viper.SetDefault("vector_store.milvus.collection", "rag_chunks")
	viper.SetDefault("vector_store.milvus.database", "default")
	viper.SetDefault("vector_store.milvus.vector_size", 1536)
	viper.SetDefault("vector_store.milvus.distance", "cosine")
	viper.SetDefault("vector_store.milvus.tls", false)

	// 嵌入与聊天模型配置默认值
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("chat.model", "gpt-4o-mini")
	viper.SetDefault("chat.max_tokens", 2000)
	viper.SetDefault("chat.temperature", 0.7)

	// 检索配置默认值
	viper.SetDefault("retrieval.similarity_threshold", 0.50)
	viper.SetDefault("retrieval.top_k", 10)
	viper.SetDefault("retrieval.allow_empty_context", false)

	// 分块配置默认值
	viper.SetDefault("knowledge.chunk_size", 800)
	viper.SetDefault("knowledge.chunk_overlap", 120)

	// 摄取调度配置默认值
	viper.SetDefault("ingest.enabled", true)
	viper.SetDefault("ingest.interval_seconds", 60)
	viper.SetDefault("ingest.max_parallel", 4)

	// 读取环境变量
	viper.SetEnvPrefix("RAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 常用环境变量的显式映射
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		viper.Set("storage.endpoint", endpoint)
		viper.Set("storage.provider", "minio")
	}
	if accessKey := os.Getenv("MINIO_ACCESS_KEY"); accessKey != "" {
		viper.Set("storage.access_key", accessKey)
	}
	if secretKey := os.Getenv("MINIO_SECRET_KEY"); secretKey != "" {
		viper.Set("storage.secret_key", secretKey)
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		viper.Set("storage.bucket", bucket)
	}
	if addr := os.Getenv("MILVUS_ADDRESS"); addr != "" {
		viper.Set("vector_store.milvus.address", addr)
		viper.Set("vector_store.provider", "milvus")
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		viper.Set("embedding.api_key", key)
		viper.Set("chat.api_key", key)
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Storage: ObjectStorageConfig{
			Provider:      viper.GetString("storage.provider"),
			Endpoint:      viper.GetString("storage.endpoint"),
			AccessKey:     viper.GetString("storage.access_key"),
			SecretKey:     viper.GetString("storage.secret_key"),
			Bucket:        viper.GetString("storage.bucket"),
			UseSSL:        viper.GetBool("storage.use_ssl"),
			PendingPrefix: viper.GetString("storage.pending_prefix"),
			ArchivePrefix: viper.GetString("storage.archive_prefix"),
		},
		Vector: VectorStoreConfig{
			Provider: viper.GetString("vector_store.provider"),
			Milvus: MilvusConfig{
				Address:    viper.GetString("vector_store.milvus.address"),
				Username:   viper.GetString("vector_store.milvus.username"),
				Password:   viper.GetString("vector_store.milvus.password"),
				Collection: viper.GetString("vector_store.milvus.collection"),
				Database:   viper.GetString("vector_store.milvus.database"),
				VectorSize: viper.GetInt("vector_store.milvus.vector_size"),
				Distance:   viper.GetString("vector_store.milvus.distance"),
				UseTLS:     viper.GetBool("vector_store.milvus.tls"),
			},
		},
		Embedding: EmbeddingConfig{
			APIKey: viper.GetString("embedding.api_key"),
			Model:  viper.GetString("embedding.model"),
		},
		Chat: ChatConfig{
			APIKey:      viper.GetString("chat.api_key"),
			Model:       viper.GetString("chat.model"),
			MaxTokens:   viper.GetInt("chat.max_tokens"),
			Temperature: viper.GetFloat64("chat.temperature"),
		},
		Retrieval: RetrievalConfig{
			SimilarityThreshold: viper.GetFloat64("retrieval.similarity_threshold"),
			TopK:                viper.GetInt("retrieval.top_k"),
			AllowEmptyContext:   viper.GetBool("retrieval.allow_empty_context"),
		},
		Knowledge: KnowledgeConfig{
			ChunkSize:    viper.GetInt("knowledge.chunk_size"),
			ChunkOverlap: viper.GetInt("knowledge.chunk_overlap"),
		},
		Ingest: IngestConfig{
			Enabled:         viper.GetBool("ingest.enabled"),
			IntervalSeconds: viper.GetInt("ingest.interval_seconds"),
			MaxParallel:     viper.GetInt("ingest.max_parallel"),
		},
	}

	return nil
}

// GetAppConfig 获取全局配置
func GetAppConfig() *Config {
	if AppConfig == nil {
		_ = LoadConfig()
	}
	return AppConfig
}
