package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every runtime setting. Keys are the lower-cased environment
// variable names, so DATABASE_URL and database_url in the YAML file both set
// DatabaseURL.
type Config struct {
	Port           string   `koanf:"port"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	JWTSecret      string   `koanf:"jwt_secret"`
	LogLevel       string   `koanf:"log_level"`

	DBDriver    string `koanf:"db_driver"` // pgx | sqlite
	DatabaseURL string `koanf:"database_url"`
	SslCertPath string `koanf:"ssl_cert_path"`

	StorageBackend string `koanf:"storage_backend"` // s3 | local
	UploadsDir     string `koanf:"uploads_dir"`
	AwsAccessKey   string `koanf:"aws_access_key"`
	AwsSecretKey   string `koanf:"aws_secret_key"`
	AwsRegion      string `koanf:"aws_region"`
	BucketName     string `koanf:"bucket_name"`

	EmbedProvider string `koanf:"embed_provider"` // gemini | openai
	AIAPIKey      string `koanf:"gemini_api_key"`
	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIBaseURL string `koanf:"openai_base_url"`
	EmbedModel    string `koanf:"embed_model"`
	EmbedDim      int    `koanf:"embed_dim"`
	GenModel      string `koanf:"gen_model"`

	VectorBackend string `koanf:"vector_backend"` // pgvector | chromem
	VectorDir     string `koanf:"vector_dir"`

	ChunkSize      int           `koanf:"chunk_size"`
	ChunkOverlap   int           `koanf:"chunk_overlap"`
	IndexBatchSize int           `koanf:"index_batch_size"`
	EmbedBatchSize int           `koanf:"embed_batch_size"`
	EmbedWorkers   int           `koanf:"embed_workers"`
	ExtractWorkers int           `koanf:"extract_workers"`
	ExtractTimeout time.Duration `koanf:"extract_timeout"`
	AnalysisTTL    time.Duration `koanf:"analysis_ttl"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:5173"},
		LogLevel:       "info",
		DBDriver:       "pgx",
		StorageBackend: "s3",
		UploadsDir:     "uploads",
		AwsRegion:      "us-east-2",
		BucketName:     "nexuslearn-docs",
		EmbedProvider:  "gemini",
		EmbedModel:     "text-embedding-004",
		EmbedDim:       768,
		GenModel:       "gemini-1.5-flash",
		VectorBackend:  "pgvector",
		VectorDir:      "data/vectors",
		ChunkSize:      1000,
		ChunkOverlap:   200,
		IndexBatchSize: 100,
		EmbedBatchSize: 32,
		EmbedWorkers:   4,
		ExtractWorkers: 4,
		ExtractTimeout: 2 * time.Minute,
		AnalysisTTL:    30 * 24 * time.Hour,
	}
}

// LoadConfig reads .env, then an optional YAML file named by NEXUS_CONFIG,
// then the process environment, each layer overriding the previous one.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return Load(os.Getenv("NEXUS_CONFIG"))
}

// Load builds a Config from defaults, the YAML file at path (if any) and the
// environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	known := knownKeys()
	if err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if !known[key] {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	// ALLOWED_ORIGINS arrives from the environment as one comma separated string
	if len(cfg.AllowedOrigins) == 1 && strings.Contains(cfg.AllowedOrigins[0], ",") {
		cfg.AllowedOrigins = splitList(cfg.AllowedOrigins[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names and the settings each backend requires.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be non-negative and smaller than chunk_size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.IndexBatchSize <= 0 || c.EmbedBatchSize <= 0 {
		return fmt.Errorf("index_batch_size and embed_batch_size must be positive")
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("embed_dim must be positive")
	}

	switch c.DBDriver {
	case "pgx":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL not set")
		}
	case "sqlite":
	default:
		return fmt.Errorf("invalid db_driver %q: must be pgx or sqlite", c.DBDriver)
	}

	switch c.StorageBackend {
	case "s3":
		if c.BucketName == "" {
			return fmt.Errorf("bucket_name is required for s3 storage")
		}
	case "local":
		if c.UploadsDir == "" {
			return fmt.Errorf("uploads_dir is required for local storage")
		}
	default:
		return fmt.Errorf("invalid storage_backend %q: must be s3 or local", c.StorageBackend)
	}

	switch c.EmbedProvider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("invalid embed_provider %q: must be gemini or openai", c.EmbedProvider)
	}

	switch c.VectorBackend {
	case "pgvector":
		if c.DBDriver != "pgx" {
			return fmt.Errorf("vector_backend pgvector requires db_driver pgx")
		}
	case "chromem":
	default:
		return fmt.Errorf("invalid vector_backend %q: must be pgvector or chromem", c.VectorBackend)
	}
	return nil
}

func knownKeys() map[string]bool {
	return map[string]bool{
		"port": true, "allowed_origins": true, "jwt_secret": true, "log_level": true,
		"db_driver": true, "database_url": true, "ssl_cert_path": true,
		"storage_backend": true, "uploads_dir": true, "aws_access_key": true,
		"aws_secret_key": true, "aws_region": true, "bucket_name": true,
		"embed_provider": true, "gemini_api_key": true, "openai_api_key": true,
		"openai_base_url": true, "embed_model": true, "embed_dim": true, "gen_model": true,
		"vector_backend": true, "vector_dir": true,
		"chunk_size": true, "chunk_overlap": true, "index_batch_size": true,
		"embed_batch_size": true, "embed_workers": true, "extract_workers": true,
		"extract_timeout": true, "analysis_ttl": true,
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
