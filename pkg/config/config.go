package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Platform PlatformConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Catalog  CatalogConfig
	Loyalty  LoyaltyConfig
	Sensors  SensorConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Stripe   StripeConfig
	OpenAI   OpenAIConfig
	Features FeatureFlagsConfig
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
	Env          string `envconfig:"TIREDIST_APP_ENV" required:"true"`
	Port         string `envconfig:"TIREDIST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TIREDIST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIREDIST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// PlatformConfig describes the multi-tenant host layout. Requests whose host is
// the root domain (or www) are routed to the distributor application; any other
// leading label is treated as a reseller subdomain.
type PlatformConfig struct {
	RootDomain      string `envconfig:"TIREDIST_ROOT_DOMAIN" default:"tiredist.com"`
	DefaultCurrency string `envconfig:"TIREDIST_DEFAULT_CURRENCY" default:"EUR"`
	DefaultLanguage string `envconfig:"TIREDIST_DEFAULT_LANGUAGE" default:"pt"`
	CheckoutBaseURL string `envconfig:"TIREDIST_CHECKOUT_BASE_URL"`
}

type DBConfig struct {
	DSN    string `envconfig:"TIREDIST_DB_DSN"`
	Driver string `envconfig:"TIREDIST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TIREDIST_DB_HOST"`
	LegacyPort     int    `envconfig:"TIREDIST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TIREDIST_DB_USER"`
	LegacyPassword string `envconfig:"TIREDIST_DB_PASSWORD"`
	LegacyName     string `envconfig:"TIREDIST_DB_NAME"`
	LegacySSLMode  string `envconfig:"TIREDIST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIREDIST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIREDIST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIREDIST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIREDIST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIREDIST_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TIREDIST_REDIS_ADDR"`
	Password     string        `envconfig:"TIREDIST_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIREDIST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIREDIST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIREDIST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIREDIST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIREDIST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIREDIST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TIREDIST_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TIREDIST_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TIREDIST_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TIREDIST_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TIREDIST_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TIREDIST_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TIREDIST_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TIREDIST_ARGON_KEY_LEN" default:"32"`
}

type CatalogConfig struct {
	DefaultMargin  float64 `envconfig:"TIREDIST_CATALOG_DEFAULT_MARGIN" default:"0.20"`
	FallbackMargin float64 `envconfig:"TIREDIST_PRICING_FALLBACK_MARGIN" default:"0.18"`
}

type LoyaltyConfig struct {
	PointsPerEuro   int     `envconfig:"TIREDIST_LOYALTY_POINTS_PER_EURO" default:"1"`
	EuroPerPoint    float64 `envconfig:"TIREDIST_LOYALTY_EURO_PER_POINT" default:"0.01"`
	SilverThreshold int     `envconfig:"TIREDIST_LOYALTY_SILVER_THRESHOLD" default:"1000"`
	GoldThreshold   int     `envconfig:"TIREDIST_LOYALTY_GOLD_THRESHOLD" default:"5000"`
	BirthdayBonus   int     `envconfig:"TIREDIST_LOYALTY_BIRTHDAY_BONUS" default:"100"`
	ReferralBonus   int     `envconfig:"TIREDIST_LOYALTY_REFERRAL_BONUS" default:"500"`
}

type SensorConfig struct {
	OfflineAfter     time.Duration `envconfig:"TIREDIST_SENSOR_OFFLINE_AFTER" default:"1h"`
	DeactivateSilent time.Duration `envconfig:"TIREDIST_SENSOR_DEACTIVATE_SILENT_AFTER" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TIREDIST_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TIREDIST_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TIREDIST_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	StockTopic         string `envconfig:"TIREDIST_PUBSUB_STOCK_TOPIC" default:"td-stock-events"`
	StockSubscription  string `envconfig:"TIREDIST_PUBSUB_STOCK_SUBSCRIPTION"`
	OrdersTopic        string `envconfig:"TIREDIST_PUBSUB_ORDERS_TOPIC" default:"td-order-events"`
	OrdersSubscription string `envconfig:"TIREDIST_PUBSUB_ORDERS_SUBSCRIPTION"`
	SensorTopic        string `envconfig:"TIREDIST_PUBSUB_SENSOR_TOPIC" default:"td-sensor-events"`
	SensorSubscription string `envconfig:"TIREDIST_PUBSUB_SENSOR_SUBSCRIPTION"`
	DomainTopic        string `envconfig:"TIREDIST_PUBSUB_DOMAIN_TOPIC" default:"td-domain-events"`
	DomainSubscription string `envconfig:"TIREDIST_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize        int           `envconfig:"TIREDIST_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS   int           `envconfig:"TIREDIST_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts      int           `envconfig:"TIREDIST_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionPeriod  time.Duration `envconfig:"TIREDIST_OUTBOX_RETENTION" default:"720h"`
	PublishTimeoutMS int           `envconfig:"TIREDIST_OUTBOX_PUBLISH_TIMEOUT_MS" default:"15000"`
}

type StripeConfig struct {
	APIKey string `envconfig:"TIREDIST_STRIPE_API_KEY"`
	Secret string `envconfig:"TIREDIST_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"TIREDIST_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type OpenAIConfig struct {
	APIKey string `envconfig:"TIREDIST_OPENAI_API_KEY"`
	Model  string `envconfig:"TIREDIST_OPENAI_MODEL" default:"gpt-4-turbo-preview"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TIREDIST_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TIREDIST_AUTO_MIGRATE" default:"false"`
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
