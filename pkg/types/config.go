package types

type Config struct {
	Environment        string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort         uint   `envconfig:"SERVER_PORT" default:"8080"`
	BaseURL            string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	DatabaseURL        string `envconfig:"DATABASE_URL"`
	ServiceDatabaseURL string `envconfig:"SERVICE_DATABASE_URL"`
	DatabaseSchema     string `envconfig:"DATABASE_SCHEMA" default:"public"`
	ReadTimeoutSec     uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec    uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Cognito Auth
	CognitoRegion     string `envconfig:"COGNITO_REGION"`
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`
	// Hosted UI domain, e.g. https://donkeys.auth.eu-west-1.amazoncognito.com
	CognitoDomain string `envconfig:"COGNITO_DOMAIN"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	OTPCooldownSec int `envconfig:"OTP_COOLDOWN_SEC" default:"60"`

	// Points awarded per submitted response
	PointsBase        int `envconfig:"POINTS_BASE" default:"50"`
	PointsPerQuestion int `envconfig:"POINTS_PER_QUESTION" default:"5"`
	PointsMax         int `envconfig:"POINTS_MAX" default:"100"`

	ExportBucket string `envconfig:"EXPORT_BUCKET"`
	ExportPrefix string `envconfig:"EXPORT_PREFIX" default:"exports"`

	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile           string `envconfig:"LOG_FILE"`
	LogFileMaxSizeMB  int    `envconfig:"LOG_FILE_MAX_SIZE_MB" default:"100"`
	LogFileMaxAgeDays int    `envconfig:"LOG_FILE_MAX_AGE_DAYS" default:"28"`
	LogFileMaxBackups int    `envconfig:"LOG_FILE_MAX_BACKUPS" default:"3"`
}

// AuthConfigured reports whether the public identity provider settings are present.
func (c *Config) AuthConfigured() bool {
	return c.CognitoClientID != "" && c.CognitoIssuerURL != ""
}

// ServiceConfigured reports whether the privileged database credential is present.
func (c *Config) ServiceConfigured() bool {
	return c.ServiceDatabaseURL != ""
}
