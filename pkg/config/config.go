package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Dispatch     DispatchConfig
	Pricing      PricingConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GoogleMaps   GoogleMapsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FEASTLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"FEASTLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FEASTLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FEASTLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FEASTLINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FEASTLINE_DB_DSN"`
	Driver string `envconfig:"FEASTLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FEASTLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"FEASTLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FEASTLINE_DB_USER"`
	LegacyPassword string `envconfig:"FEASTLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FEASTLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FEASTLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FEASTLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FEASTLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FEASTLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FEASTLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FEASTLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FEASTLINE_REDIS_ADDR"`
	Password     string        `envconfig:"FEASTLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FEASTLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FEASTLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FEASTLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FEASTLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FEASTLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FEASTLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FEASTLINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FEASTLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FEASTLINE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// DispatchConfig tunes driver matching and assignment sweeps.
type DispatchConfig struct {
	SearchRadiiKm     []float64     `envconfig:"FEASTLINE_DISPATCH_SEARCH_RADII_KM" default:"3,5,10"`
	MaxCandidates     int           `envconfig:"FEASTLINE_DISPATCH_MAX_CANDIDATES" default:"10"`
	PickupProximityM  float64       `envconfig:"FEASTLINE_DISPATCH_PICKUP_PROXIMITY_M" default:"300"`
	StaleAvailableAge time.Duration `envconfig:"FEASTLINE_DISPATCH_STALE_AVAILABLE_AGE" default:"30s"`
	HeartbeatTTL      time.Duration `envconfig:"FEASTLINE_DISPATCH_HEARTBEAT_TTL" default:"90s"`
}

type PricingConfig struct {
	BaseFee          int64         `envconfig:"FEASTLINE_PRICING_BASE_FEE" default:"500"`
	PerKmRate        int64         `envconfig:"FEASTLINE_PRICING_PER_KM_RATE" default:"100"`
	MinBillableKm    float64       `envconfig:"FEASTLINE_PRICING_MIN_BILLABLE_KM" default:"0.5"`
	HighMultiplier   float64       `envconfig:"FEASTLINE_PRICING_HIGH_MULTIPLIER" default:"1.2"`
	UrgentMultiplier float64       `envconfig:"FEASTLINE_PRICING_URGENT_MULTIPLIER" default:"1.5"`
	PrepBuffer       time.Duration `envconfig:"FEASTLINE_PRICING_PREP_BUFFER" default:"10m"`
	AvgSpeedKmh      float64       `envconfig:"FEASTLINE_PRICING_AVG_SPEED_KMH" default:"25"`
}

type CronConfig struct {
	TickInterval time.Duration `envconfig:"FEASTLINE_CRON_TICK_INTERVAL" default:"30s"`
	LockTTL      time.Duration `envconfig:"FEASTLINE_CRON_LOCK_TTL" default:"5m"`
}

type RateLimitConfig struct {
	HeartbeatWindow time.Duration `envconfig:"FEASTLINE_RATE_LIMIT_HEARTBEAT_WINDOW" default:"1m"`
	HeartbeatLimit  int           `envconfig:"FEASTLINE_RATE_LIMIT_HEARTBEAT_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FEASTLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FEASTLINE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"FEASTLINE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"FEASTLINE_GOOGLE_MAPS_API_KEY"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FEASTLINE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FEASTLINE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FEASTLINE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AssignmentTopic        string `envconfig:"FEASTLINE_PUBSUB_ASSIGNMENT_TOPIC" required:"true"`
	AssignmentSubscription string `envconfig:"FEASTLINE_PUBSUB_ASSIGNMENT_SUBSCRIPTION" required:"true"`
	DriverTopic            string `envconfig:"FEASTLINE_PUBSUB_DRIVER_TOPIC" default:"fl-driver-events"`
	DriverSubscription     string `envconfig:"FEASTLINE_PUBSUB_DRIVER_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset               string `envconfig:"FEASTLINE_BIGQUERY_DATASET" default:"feastline"`
	AssignmentEventsTable string `envconfig:"FEASTLINE_BIGQUERY_ASSIGNMENT_TABLE" default:"assignment_events"`
	DriverEventsTable     string `envconfig:"FEASTLINE_BIGQUERY_DRIVER_TABLE" default:"driver_status_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FEASTLINE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FEASTLINE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FEASTLINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
