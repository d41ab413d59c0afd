package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Editor    EditorConfig    `yaml:"editor"`
	Upload    UploadConfig    `yaml:"upload"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            string        `yaml:"port" default:"12600"`
	PublicURL       string        `yaml:"public_url" default:"http://localhost:12600"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite3, pgx or postgres.
	Driver         string `yaml:"driver" default:"sqlite3"`
	DSN            string `yaml:"dsn" default:"./spawnwrite.db"`
	MaxOpenConns   int    `yaml:"max_open_conns" default:"10"`
	MigrateOnStart bool   `yaml:"migrate_on_start" default:"true"`
}

type StorageConfig struct {
	// Compression is applied to post content at rest: zstd, gzip or none.
	Compression  string        `yaml:"compression" default:"zstd"`
	ListCacheTTL time.Duration `yaml:"list_cache_ttl" default:"5m"`
}

type EditorConfig struct {
	AutosaveInterval time.Duration `yaml:"autosave_interval" default:"1500ms"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	// DraftStore is one of memory, file or redis.
	DraftStore string `yaml:"draft_store" default:"file"`
	DraftDir   string `yaml:"draft_dir" default:"./drafts"`
}

type UploadConfig struct {
	// Provider is one of s3, minio or mux.
	Provider     string      `yaml:"provider" default:"s3"`
	MaxSizeBytes int64       `yaml:"max_size_bytes" default:"1048576"`
	AllowedTypes []string    `yaml:"allowed_types" default:"image/*,video/mp4,audio/mpeg"`
	KeyPrefix    string      `yaml:"key_prefix" default:"public"`
	S3           S3Config    `yaml:"s3"`
	Minio        MinioConfig `yaml:"minio"`
	Mux          MuxConfig   `yaml:"mux"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint" default:"https://s3.us-east-005.backblazeb2.com"`
	Region          string `yaml:"region" default:"us-east-005"`
	Bucket          string `yaml:"bucket" default:"spawnwrite-media"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
	PublicURL       string `yaml:"public_url" default:"https://f005.backblazeb2.com/file/spawnwrite-media"`
	UsePathStyle    bool   `yaml:"use_path_style" default:"false"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" default:"localhost:9000"`
	AccessKey string `yaml:"access_key" default:""`
	SecretKey string `yaml:"secret_key" default:""`
	Bucket    string `yaml:"bucket" default:"images"`
	Region    string `yaml:"region" default:"us-east-1"`
	UseSSL    bool   `yaml:"use_ssl" default:"false"`
	PublicURL string `yaml:"public_url" default:""`
}

type MuxConfig struct {
	BaseURL      string        `yaml:"base_url" default:"https://api.mux.com"`
	TokenID      string        `yaml:"token_id" default:""`
	TokenSecret  string        `yaml:"token_secret" default:""`
	CORSOrigin   string        `yaml:"cors_origin" default:"*"`
	StreamURL    string        `yaml:"stream_url" default:"https://stream.mux.com"`
	PollInterval time.Duration `yaml:"poll_interval" default:"1s"`
	PollAttempts int           `yaml:"poll_attempts" default:"30"`
}

type AuthConfig struct {
	// Provider is one of local or clerk.
	Provider        string        `yaml:"provider" default:"local"`
	SigningMethod   string        `yaml:"signing_method" default:"HS256"`
	Secret          string        `yaml:"secret" default:""`
	PrivateKeyPEM   string        `yaml:"private_key_pem" default:""`
	PublicKeyPEM    string        `yaml:"public_key_pem" default:""`
	SessionTTL      time.Duration `yaml:"session_ttl" default:"24h"`
	MagicLinkTTL    time.Duration `yaml:"magic_link_ttl" default:"15m"`
	BcryptCost      int           `yaml:"bcrypt_cost" default:"10"`
	ClerkSecretKey  string        `yaml:"clerk_secret_key" default:""`
	CommonPasswords []string      `yaml:"common_passwords" default:"password123,admin123,welcome1"`
}

type RedisConfig struct {
	URL          string        `yaml:"url" default:""`
	PoolSize     int           `yaml:"pool_size" default:"10"`
	MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"3s"`
	MaxRetries   int           `yaml:"max_retries" default:"3"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" default:"true"`
	Requests int           `yaml:"requests" default:"30"`
	Window   time.Duration `yaml:"window" default:"1m"`
	Cleanup  time.Duration `yaml:"cleanup" default:"2m"`
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" default:"http://localhost:3000"`
	AllowedMethods   []string `yaml:"allowed_methods" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   []string `yaml:"allowed_headers" default:"Content-Type,Authorization"`
	AllowCredentials bool     `yaml:"allow_credentials" default:"true"`
}

// LoadConfig reads the YAML file at path on top of the defaults.
// ${VAR} references in the file are expanded from the environment.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		return config, nil
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if val, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(val))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int, reflect.Int64:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
