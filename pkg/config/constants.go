package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "BOOKTRADE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BOOKTRADE_DB_DSN"
	EnvDBHost = "BOOKTRADE_DB_HOST"
	EnvDBUser = "BOOKTRADE_DB_USER"
	EnvDBName = "BOOKTRADE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
