package config

const EnvPrefix = "feastline"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FEASTLINE_APP_ENV"
	EnvPort     = "FEASTLINE_APP_PORT"
	EnvLogLevel = "FEASTLINE_LOG_LEVEL"

	EnvDBDSN      = "FEASTLINE_DB_DSN"
	EnvDBHost     = "FEASTLINE_DB_HOST"
	EnvDBPort     = "FEASTLINE_DB_PORT"
	EnvDBUser     = "FEASTLINE_DB_USER"
	EnvDBPassword = "FEASTLINE_DB_PASSWORD"
	EnvDBName     = "FEASTLINE_DB_NAME"

	EnvRedisURL = "FEASTLINE_REDIS_URL"

	EnvJWTSecret = "FEASTLINE_JWT_SECRET"
	EnvJWTIssuer = "FEASTLINE_JWT_ISSUER"

	EnvGCPProjectID = "FEASTLINE_GCP_PROJECT_ID"

	EnvPubSubAssignmentTopic = "FEASTLINE_PUBSUB_ASSIGNMENT_TOPIC"
	EnvPubSubAssignmentSub   = "FEASTLINE_PUBSUB_ASSIGNMENT_SUBSCRIPTION"
	EnvPubSubDriverTopic     = "FEASTLINE_PUBSUB_DRIVER_TOPIC"
	EnvPubSubDriverSub       = "FEASTLINE_PUBSUB_DRIVER_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
