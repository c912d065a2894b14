package config

import (
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Catalog  CatalogConfig
	Client   ClientConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// StorageConfig selects the document store behind the API.
type StorageConfig struct {
	Driver string // "mongo", "postgres" or "memory"
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// DSN returns a pgx connection string. Credentials are escaped.
func (c DatabaseConfig) DSN() string {
	query := url.Values{}
	query.Set("sslmode", "disable")
	query.Set("search_path", c.Schema)
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: query.Encode(),
	}
	return dsn.String()
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CatalogConfig struct {
	ProtectMutations bool
}

// ClientConfig configures the storefront client binary.
type ClientConfig struct {
	APIBaseURL string
	DataDir    string
	KVQuota    int64 // bytes
	Timeouts   TimeoutConfig
	Blob       BlobConfig
}

type TimeoutConfig struct {
	Catalog time.Duration
	Mutate  time.Duration
	Delete  time.Duration
	Auth    time.Duration
}

type BlobConfig struct {
	Driver         string // "file" or "minio"
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", "mongo")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "XcarDB")
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_SECRET", "xcar-dev-secret")
	viper.SetDefault("JWT_ACCESS_EXPIRY", 60)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	viper.SetDefault("CATALOG_PROTECT_MUTATIONS", false)
	viper.SetDefault("API_BASE_URL", "http://localhost:5000")
	viper.SetDefault("DATA_DIR", ".xcar")
	viper.SetDefault("KV_QUOTA_BYTES", 5*1024*1024)
	viper.SetDefault("TIMEOUT_CATALOG_MS", 3000)
	viper.SetDefault("TIMEOUT_MUTATE_MS", 3000)
	viper.SetDefault("TIMEOUT_DELETE_MS", 2000)
	viper.SetDefault("TIMEOUT_AUTH_MS", 3000)
	viper.SetDefault("BLOB_DRIVER", "file")
	viper.SetDefault("MINIO_BUCKET", "xcar-videos")
	viper.SetDefault("MINIO_USE_SSL", false)

	return &Config{
		Server: ServerConfig{
			Port:     viper.GetString("SERVER_PORT"),
			Env:      viper.GetString("SERVER_ENV"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(viper.GetString("STORAGE_DRIVER")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			Enabled:  viper.GetBool("REDIS_ENABLED"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: viper.GetInt("JWT_ACCESS_EXPIRY"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Catalog: CatalogConfig{
			ProtectMutations: viper.GetBool("CATALOG_PROTECT_MUTATIONS"),
		},
		Client: ClientConfig{
			APIBaseURL: strings.TrimRight(viper.GetString("API_BASE_URL"), "/"),
			DataDir:    viper.GetString("DATA_DIR"),
			KVQuota:    viper.GetInt64("KV_QUOTA_BYTES"),
			Timeouts: TimeoutConfig{
				Catalog: millis("TIMEOUT_CATALOG_MS"),
				Mutate:  millis("TIMEOUT_MUTATE_MS"),
				Delete:  millis("TIMEOUT_DELETE_MS"),
				Auth:    millis("TIMEOUT_AUTH_MS"),
			},
			Blob: BlobConfig{
				Driver:         strings.ToLower(viper.GetString("BLOB_DRIVER")),
				MinioEndpoint:  viper.GetString("MINIO_ENDPOINT"),
				MinioAccessKey: viper.GetString("MINIO_ACCESS_KEY"),
				MinioSecretKey: viper.GetString("MINIO_SECRET_KEY"),
				MinioBucket:    viper.GetString("MINIO_BUCKET"),
				MinioUseSSL:    viper.GetBool("MINIO_USE_SSL"),
			},
		},
	}
}

func millis(key string) time.Duration {
	return time.Duration(viper.GetInt64(key)) * time.Millisecond
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
