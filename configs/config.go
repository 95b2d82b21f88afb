package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	Env     string

	LogLevel  string
	LogFormat string

	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPass        string
	DBName        string
	DBDSN         string
	DBReplicaDSNs []string
	AutoMigrate   bool

	JWTSecret       string
	JWTSecretPolicy string
	JWTExpiration   time.Duration
	BcryptCost      int
	LegacyPlaintext bool

	KafkaBrokers       string
	KafkaTopicPosts    string
	KafkaTopicComments string
	KafkaRequiredAcks  string
	KafkaAsync         bool

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	IdempotencyTTL time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
	MediaMaxBytes  int64

	CORSAllowedOrigins []string
}

// LoadConfig reads the environment after applying .env.local and .env when present.
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	c := &Config{
		AppPort: getEnv("APP_PORT", ":8080"),
		Env:     getEnv("ENV", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPass:        getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "social"),
		DBDSN:         getEnv("DB_DSN", ""),
		DBReplicaDSNs: splitList(getEnv("DB_REPLICA_DSNS", "")),
		AutoMigrate:   getEnvBool("AUTO_MIGRATE", false),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTSecretPolicy: strings.ToLower(getEnv("JWT_SECRET_POLICY", "ephemeral")),
		JWTExpiration:   getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
		BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		LegacyPlaintext: getEnvBool("AUTH_LEGACY_PLAINTEXT", false),

		KafkaBrokers:       getEnv("KAFKA_BOOTSTRAP_SERVERS", ""),
		KafkaTopicPosts:    getEnv("KAFKA_TOPIC_POSTS", "posts.created"),
		KafkaTopicComments: getEnv("KAFKA_TOPIC_COMMENTS", "comments.created"),
		KafkaRequiredAcks:  getEnv("KAFKA_REQUIRED_ACKS", "one"),
		KafkaAsync:         getEnvBool("KAFKA_ASYNC", false),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "social-media"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		MediaMaxBytes:  getEnvInt64("MEDIA_MAX_BYTES", 5<<20),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.DBDriver == "sqlite" && c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required for the sqlite driver")
	}
	switch c.JWTSecretPolicy {
	case "static", "ephemeral":
	default:
		return fmt.Errorf("JWT_SECRET_POLICY must be static or ephemeral, got %q", c.JWTSecretPolicy)
	}
	if c.JWTSecretPolicy == "static" && c.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET is required with the static policy in production")
	}
	if c.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive")
	}
	if c.MinioEndpoint != "" && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName,
	)
}

func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
			continue
		}
		if cwd, err := os.Getwd(); err == nil {
			if parent := filepath.Dir(cwd); parent != cwd {
				_ = godotenv.Load(filepath.Join(parent, name))
			}
		}
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

// getEnvDuration accepts Go durations ("24h") or plain milliseconds ("86400000").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
