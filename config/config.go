package config

import (
	"os"
	"strconv"
)

// Config carries every tunable of the service. Values come from the
// environment (loaded from .env by the entrypoint) with working defaults for
// local development.
type Config struct {
	ServerAddr string
	UploadDir  string

	MongoURI    string
	MongoDBName string

	PGHost   string
	PGPort   int
	PGUser   string
	PGPass   string
	PGDBName string

	OCRURL string

	LLMURL         string
	LLMModel       string
	LLMFormatModel string

	EmbedURL   string
	EmbedModel string
	EmbedDim   int

	ChildIndexName string

	ParentChunkSize    int
	ParentChunkOverlap int
	ChildChunkSize     int
	ChildChunkOverlap  int

	TopK    int
	Workers int
}

func Load() Config {
	return Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		UploadDir:  getEnv("UPLOAD_DIR", "uploads"),

		MongoURI:    getEnv("MONGO_DB_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "doc_analyzer"),

		PGHost:   getEnv("PG_HOST", "localhost"),
		PGPort:   getEnvInt("PG_PORT", 5432),
		PGUser:   getEnv("PG_USER", "postgres"),
		PGPass:   getEnv("PG_PASS", "postgres"),
		PGDBName: getEnv("PG_DB_NAME", "doc_analyzer"),

		OCRURL: getEnv("OCR_URL", "http://localhost:5001/v1/extract"),

		LLMURL:         getEnv("LLM_URL", "http://localhost:11434/api/generate"),
		LLMModel:       getEnv("LLM_MODEL", "llama3.1"),
		LLMFormatModel: getEnv("LLM_FORMAT_MODEL", getEnv("LLM_MODEL", "llama3.1")),

		EmbedURL:   getEnv("OLLAMA_EMBEDDING_URL", "http://localhost:11434/api/embeddings"),
		EmbedModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		EmbedDim:   getEnvInt("EMBEDDING_DIM", 768),

		ChildIndexName: getEnv("CHILD_INDEX_NAME", "doc_analyzer_child_text"),

		ParentChunkSize:    getEnvInt("PARENT_CHUNK_SIZE", 1500),
		ParentChunkOverlap: getEnvInt("PARENT_CHUNK_OVERLAP", 200),
		ChildChunkSize:     getEnvInt("CHILD_CHUNK_SIZE", 500),
		ChildChunkOverlap:  getEnvInt("CHILD_CHUNK_OVERLAP", 100),

		TopK:    getEnvInt("SEARCH_TOP_K", 3),
		Workers: getEnvInt("PROCESS_WORKERS", 4),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
