package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "DRYD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv            = "DRYD_APP_ENV"
	EnvPort              = "DRYD_APP_PORT"
	EnvDBDSN             = "DRYD_DB_DSN"
	EnvDBHost            = "DRYD_DB_HOST"
	EnvDBUser            = "DRYD_DB_USER"
	EnvDBName            = "DRYD_DB_NAME"
	EnvRedisURL          = "DRYD_REDIS_URL"
	EnvJWTSecret         = "DRYD_JWT_SECRET"
	EnvJWTIssuer         = "DRYD_JWT_ISSUER"
	EnvGCPProjectID      = "DRYD_GCP_PROJECT_ID"
	EnvGCSBucket         = "DRYD_GCS_BUCKET_NAME"
	EnvPubSubBookings    = "DRYD_PUBSUB_BOOKINGS_TOPIC"
	EnvPubSubBookingsSub = "DRYD_PUBSUB_BOOKINGS_SUBSCRIPTION"
	EnvUseSQLite         = "DRYD_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Booking      BookingConfig
	Content      ContentConfig
	Cron         CronConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DRYD_APP_ENV" required:"true"`
	Port         string `envconfig:"DRYD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DRYD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DRYD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"DRYD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DRYD_DB_DSN"`
	Driver string `envconfig:"DRYD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DRYD_DB_HOST"`
	LegacyPort     int    `envconfig:"DRYD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DRYD_DB_USER"`
	LegacyPassword string `envconfig:"DRYD_DB_PASSWORD"`
	LegacyName     string `envconfig:"DRYD_DB_NAME"`
	LegacySSLMode  string `envconfig:"DRYD_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"DRYD_SQLITE_PATH" default:"file:dryd.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"DRYD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DRYD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DRYD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DRYD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DRYD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DRYD_REDIS_ADDR"`
	Password     string        `envconfig:"DRYD_REDIS_PASSWORD"`
	DB           int           `envconfig:"DRYD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DRYD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DRYD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DRYD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DRYD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DRYD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies tokens minted by the account service.
type JWTConfig struct {
	Secret            string `envconfig:"DRYD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DRYD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DRYD_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DRYD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DRYD_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DRYD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"DRYD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DRYD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"DRYD_GCS_BUCKET_NAME" required:"true"`
	// BaseURL overrides the storage endpoint (emulators, tests).
	BaseURL string `envconfig:"DRYD_GCS_BASE_URL" default:"https://storage.googleapis.com"`
	// UploadURL overrides the media upload endpoint.
	UploadURL string `envconfig:"DRYD_GCS_UPLOAD_URL" default:"https://storage.googleapis.com/upload/storage/v1"`
}

type PubSubConfig struct {
	BookingsTopic        string `envconfig:"DRYD_PUBSUB_BOOKINGS_TOPIC" required:"true"`
	BookingsSubscription string `envconfig:"DRYD_PUBSUB_BOOKINGS_SUBSCRIPTION"`
	NotificationTopic    string `envconfig:"DRYD_PUBSUB_NOTIFICATION_TOPIC" default:"dryd-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DRYD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DRYD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DRYD_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"DRYD_OUTBOX_RETENTION_DAYS" default:"30"`
}

// BookingConfig tunes the submission pipeline.
type BookingConfig struct {
	InFlightTTL         time.Duration `envconfig:"DRYD_BOOKING_INFLIGHT_TTL" default:"2m"`
	BookedDatesCacheTTL time.Duration `envconfig:"DRYD_BOOKING_BOOKED_DATES_TTL" default:"30s"`
	MaxProofUploadMB    int           `envconfig:"DRYD_BOOKING_MAX_PROOF_MB" default:"10"`
	SubmitRatePerMinute int           `envconfig:"DRYD_BOOKING_SUBMIT_RATE_PER_MINUTE" default:"10"`
	ProofPrefix         string        `envconfig:"DRYD_BOOKING_PROOF_PREFIX" default:"payment-proofs"`
}

// MaxProofBytes returns the multipart memory/size cap for payment proofs.
func (b BookingConfig) MaxProofBytes() int64 {
	if b.MaxProofUploadMB <= 0 {
		return 10 << 20
	}
	return int64(b.MaxProofUploadMB) << 20
}

type ContentConfig struct {
	CacheTTL time.Duration `envconfig:"DRYD_CONTENT_CACHE_TTL" default:"10m"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"DRYD_CRON_INTERVAL" default:"1h"`
	PendingExpiryDays int           `envconfig:"DRYD_CRON_PENDING_EXPIRY_DAYS" default:"1"`
}

type HTTPConfig struct {
	AllowedOrigins []string      `envconfig:"DRYD_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout    time.Duration `envconfig:"DRYD_HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `envconfig:"DRYD_HTTP_WRITE_TIMEOUT" default:"60s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
