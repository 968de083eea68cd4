package config

// EnvPrefix is the envconfig prefix applied to every variable.
const EnvPrefix = "TICKETSYNC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv = "TICKETSYNC_APP_ENV"
	EnvPort   = "TICKETSYNC_APP_PORT"
	EnvDBDSN  = "TICKETSYNC_DB_DSN"
	EnvDBHost = "TICKETSYNC_DB_HOST"
	EnvDBUser = "TICKETSYNC_DB_USER"
	EnvDBName = "TICKETSYNC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
