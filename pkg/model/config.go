package model

// Log holds the log configuration.
type Log struct {
	FolderPath string `envconfig:"LOG_FOLDER_PATH"`
	Production bool   `envconfig:"PRODUCTION" default:"false"`
}

// KeyValue holds the optional dedup-cache connection configuration. When
// Addr is empty the dedup cache is disabled and every enriched report is
// forwarded on every run.
type KeyValue struct {
	Addr     string `envconfig:"DEDUP_CACHE_ADDR"`
	Password string `envconfig:"DEDUP_CACHE_PASSWORD"`
	DB       int    `envconfig:"DEDUP_CACHE_DB" default:"0"`
}

// DeviceService holds the configuration for the external device-metadata
// service.
type DeviceService struct {
	BaseURL         string `envconfig:"BASE_URL" validate:"required"`
	HaystackPath    string `envconfig:"HAYSTACKS_ENDPOINT" default:"/haystacks"`
	APIKey          string `envconfig:"API_KEY" validate:"required"`
	DefaultPageSize int    `envconfig:"DEVICE_BATCH_SIZE" default:"10"`
}

// CredentialStore holds the configuration for the shared credential store.
type CredentialStore struct {
	BaseURL      string `envconfig:"CREDENTIALS_BASE_URL" default:"https://ghfbaqjy00.execute-api.eu-central-1.amazonaws.com/prod/credentials"`
	APIKey       string `envconfig:"CREDENTIALS_API_KEY" validate:"required"`
	ClientID     string `envconfig:"DEFAULT_CLIENT_MANAGING_CREDENTIALS" default:"space-invader-mac"`
	UserAgentTag string `envconfig:"USER_AGENT_COMMENT" default:""`
}

// Cfg is the root configuration structure, populated from environment
// variables (see spec §6).
type Cfg struct {
	Log             Log             `validate:"omitempty"`
	DeviceService   DeviceService   `validate:"required"`
	CredentialStore CredentialStore `validate:"required"`
	DedupCache      KeyValue        `validate:"omitempty"`
}
