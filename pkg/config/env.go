package config

// EnvPrefix is applied by envconfig when processing the configuration struct.
const EnvPrefix = "tiredist"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TIREDIST_DB_DSN"
	EnvDBHost = "TIREDIST_DB_HOST"
	EnvDBUser = "TIREDIST_DB_USER"
	EnvDBName = "TIREDIST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
