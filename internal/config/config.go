package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Storage    Storage    `yaml:"storage"`
	Postgres   Postgres   `yaml:"postgres"`
	JWT        JWT        `yaml:"jwt"`
	ES         ES         `yaml:"elasticsearch"`
	Minio      Minio      `yaml:"minio"`
	Redis      Redis      `yaml:"redis"`
	AI         AI         `yaml:"ai"`
	CORS       CORS       `yaml:"cors"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type Minio struct {
	Endpoint    string        `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey   string        `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey   string        `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	UseSSL      bool          `yaml:"use_ssl" env:"MINIO_USE_SSL"`
	MediaBucket string        `yaml:"media_bucket" env-default:"block-media"`
	PresignTTL  time.Duration `yaml:"presign_ttl" env-default:"15m"`
	MaxFileSize int64         `yaml:"max_file_size" env-default:"52428800"`
}

type ES struct {
	Hosts    []string `yaml:"hosts" env:"ES_HOSTS" env-separator:","`
	Index    string   `yaml:"index" env-default:"assignments"`
	Password string   `yaml:"password" env:"ES_PASSWORD"`
}

type JWT struct {
	SecretKey  string        `yaml:"secret_key" env:"JWT_SECRET_KEY"`
	Issuer     string        `yaml:"issuer" env-default:"eduforge"`
	AccessTTL  time.Duration `yaml:"access_token_ttl" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_token_ttl" env-default:"720h"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB"`
	Migrate  bool   `yaml:"migrate" env-default:"true"`
}

// Redis caches generated study content. Empty URL disables the cache.
type Redis struct {
	URL string        `yaml:"url" env:"REDIS_URL"`
	TTL time.Duration `yaml:"ttl" env-default:"24h"`
}

// AI configures the text generation backend. Provider "mock" or an empty
// base URL runs the deterministic offline generator only.
type AI struct {
	Provider string        `yaml:"provider" env:"AI_PROVIDER" env-default:"mock"`
	BaseURL  string        `yaml:"base_url" env:"AI_BASE_URL"`
	APIKey   string        `yaml:"api_key" env:"AI_API_KEY"`
	Model    string        `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	Timeout  time.Duration `yaml:"timeout" env-default:"60s"`
}

type CORS struct {
	Origins []string `yaml:"origins" env:"CORS_ORIGINS" env-separator:","`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Can not read config file %s", err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
