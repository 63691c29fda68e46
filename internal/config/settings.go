package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Settings is the runtime configuration. Precedence, lowest first:
// defaults, config file, .env, process environment.
type Settings struct {
	AppEnv     string `toml:"app_env" yaml:"app_env"`
	LogLevel   string `toml:"log_level" yaml:"log_level"`
	ListenAddr string `toml:"listen_addr" yaml:"listen_addr"`
	AuthToken  string `toml:"auth_token" yaml:"auth_token"`

	OpenAIKey     string `toml:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url" yaml:"openai_base_url"`
	GoogleAPIKey  string `toml:"google_api_key" yaml:"google_api_key"`

	LLMProvider string `toml:"llm_provider" yaml:"llm_provider"`
	LLMModel    string `toml:"llm_model" yaml:"llm_model"`

	EmbeddingProvider  string `toml:"embedding_provider" yaml:"embedding_provider"`
	EmbeddingModel     string `toml:"embedding_model" yaml:"embedding_model"`
	EmbeddingDimension int    `toml:"embedding_dimension" yaml:"embedding_dimension"`

	VectorBackend    string `toml:"vector_backend" yaml:"vector_backend"`
	QdrantHost       string `toml:"qdrant_host" yaml:"qdrant_host"`
	QdrantPort       int    `toml:"qdrant_port" yaml:"qdrant_port"`
	QdrantAPIKey     string `toml:"qdrant_api_key" yaml:"qdrant_api_key"`
	VectorCollection string `toml:"vector_collection" yaml:"vector_collection"`

	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`

	DatabasePath string `toml:"database_path" yaml:"database_path"`
	UploadDir    string `toml:"upload_dir" yaml:"upload_dir"`

	MaxFileSizeMB     int      `toml:"max_file_size_mb" yaml:"max_file_size_mb"`
	AllowedExtensions []string `toml:"allowed_extensions" yaml:"allowed_extensions"`

	ChunkSize     int    `toml:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap  int    `toml:"chunk_overlap" yaml:"chunk_overlap"`
	ChunkStrategy string `toml:"chunk_strategy" yaml:"chunk_strategy"`
	TopK          int    `toml:"top_k" yaml:"top_k"`
}

const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"

	VectorBackendQdrant = "qdrant"
	VectorBackendMemory = "memory"

	ChunkStrategyRecursive = "recursive"
	ChunkStrategyWindow    = "window"
)

func Defaults() Settings {
	return Settings{
		AppEnv:             "development",
		LogLevel:           "debug",
		ListenAddr:         ServerListenAddr,
		LLMProvider:        ProviderOpenAI,
		LLMModel:           DefaultLLMModel,
		EmbeddingProvider:  ProviderOpenAI,
		EmbeddingModel:     DefaultEmbeddingModel,
		EmbeddingDimension: DefaultEmbeddingDimension,
		VectorBackend:      VectorBackendQdrant,
		QdrantHost:         "localhost",
		QdrantPort:         QdrantGrpcPort,
		VectorCollection:   DefaultVectorCollection,
		RedisAddr:          RedisAddr,
		DatabasePath:       "./data/docqa.db",
		UploadDir:          "./uploaded_files",
		MaxFileSizeMB:      10,
		AllowedExtensions:  []string{"pdf", "docx", "doc", "xlsx", "xls", "txt"},
		ChunkSize:          DefaultChunkSize,
		ChunkOverlap:       DefaultChunkOverlap,
		ChunkStrategy:      ChunkStrategyRecursive,
		TopK:               DefaultTopK,
	}
}

// Load builds Settings from an optional config file, a .env file in the
// working directory and the environment.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path != "" {
		if err := s.mergeFile(path); err != nil {
			return s, err
		}
	}

	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	s.applyEnv(os.LookupEnv)
	return s, s.Validate()
}

func (s *Settings) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, s)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (s *Settings) applyEnv(lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str("APP_ENV", &s.AppEnv)
	str("LOG_LEVEL", &s.LogLevel)
	str("LISTEN_ADDR", &s.ListenAddr)
	str("AUTH_TOKEN", &s.AuthToken)
	str("OPENAI_API_KEY", &s.OpenAIKey)
	str("OPENAI_BASE_URL", &s.OpenAIBaseURL)
	str("GOOGLE_API_KEY", &s.GoogleAPIKey)
	str("LLM_PROVIDER", &s.LLMProvider)
	str("OPENAI_MODEL", &s.LLMModel)
	str("EMBEDDING_PROVIDER", &s.EmbeddingProvider)
	str("EMBEDDING_MODEL", &s.EmbeddingModel)
	num("EMBEDDING_DIMENSION", &s.EmbeddingDimension)
	str("VECTOR_BACKEND", &s.VectorBackend)
	str("QDRANT_HOST", &s.QdrantHost)
	num("QDRANT_PORT", &s.QdrantPort)
	str("QDRANT_API_KEY", &s.QdrantAPIKey)
	str("QDRANT_COLLECTION", &s.VectorCollection)
	str("REDIS_ADDR", &s.RedisAddr)
	str("REDIS_PASSWORD", &s.RedisPassword)
	str("DATABASE_PATH", &s.DatabasePath)
	str("UPLOAD_DIR", &s.UploadDir)
	num("MAX_FILE_SIZE_MB", &s.MaxFileSizeMB)
	num("CHUNK_SIZE", &s.ChunkSize)
	num("CHUNK_OVERLAP", &s.ChunkOverlap)
	str("CHUNK_STRATEGY", &s.ChunkStrategy)
	num("TOP_K", &s.TopK)

	if v, ok := lookup("ALLOWED_EXTENSIONS"); ok && strings.TrimSpace(v) != "" {
		s.AllowedExtensions = splitExtensions(v)
	}
}

func splitExtensions(raw string) []string {
	var out []string
	for _, ext := range strings.Split(raw, ",") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// Validate reports every configuration problem at once.
func (s Settings) Validate() error {
	var errs []error
	if s.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be positive, got %d", s.ChunkSize))
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", s.ChunkOverlap))
	}
	if s.ChunkStrategy != ChunkStrategyRecursive && s.ChunkStrategy != ChunkStrategyWindow {
		errs = append(errs, fmt.Errorf("unknown chunk strategy %q", s.ChunkStrategy))
	}
	if s.EmbeddingDimension <= 0 {
		errs = append(errs, fmt.Errorf("embedding dimension must be positive, got %d", s.EmbeddingDimension))
	}
	if s.LLMProvider != ProviderOpenAI && s.LLMProvider != ProviderGoogle {
		errs = append(errs, fmt.Errorf("unknown llm provider %q", s.LLMProvider))
	}
	if s.EmbeddingProvider != ProviderOpenAI && s.EmbeddingProvider != ProviderGoogle {
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", s.EmbeddingProvider))
	}
	if s.VectorBackend != VectorBackendQdrant && s.VectorBackend != VectorBackendMemory {
		errs = append(errs, fmt.Errorf("unknown vector backend %q", s.VectorBackend))
	}
	if s.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("max file size must be positive, got %d", s.MaxFileSizeMB))
	}
	if s.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top k must be positive, got %d", s.TopK))
	}
	if s.DatabasePath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	return errors.Join(errs...)
}

func (s Settings) IsProd() bool {
	return strings.EqualFold(s.AppEnv, "production")
}

func (s Settings) SlogLevel() slog.Level {
	if s.IsProd() && s.LogLevel == "" {
		return LOG_LEVEL_PROD
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (s Settings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB) << 20
}

func (s Settings) AllowsExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range s.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

// Redacted is safe to log.
func (s Settings) Redacted() Settings {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "***"
	}
	s.AuthToken = mask(s.AuthToken)
	s.OpenAIKey = mask(s.OpenAIKey)
	s.GoogleAPIKey = mask(s.GoogleAPIKey)
	s.QdrantAPIKey = mask(s.QdrantAPIKey)
	s.RedisPassword = mask(s.RedisPassword)
	return s
}
