package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable read by LoadEnv.
const EnvPrefix = "SIGNDESK"

// Env holds the environment overrides and the credentials that must never be
// written to configuration files.
type Env struct {
	StorageDriver    string        `envconfig:"STORAGE_DRIVER"`
	StorageDSN       string        `envconfig:"STORAGE_DSN"`
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB          int           `envconfig:"REDIS_DB"`
	Namespace        string        `envconfig:"NAMESPACE"`
	CorruptionPolicy string        `envconfig:"CORRUPTION_POLICY"`
	SigningDelay     time.Duration `envconfig:"SIGNING_DELAY"`
	Locale           string        `envconfig:"LOCALE"`

	DocumentCloudURL       string `envconfig:"DOCUMENT_CLOUD_URL"`
	DocumentCloudAccountID string `envconfig:"DOCUMENT_CLOUD_ACCOUNT_ID"`
	DocumentCloudAPIKey    string `envconfig:"DOCUMENT_CLOUD_API_KEY"`

	FileStorageClientID    string `envconfig:"FILE_STORAGE_CLIENT_ID"`
	FileStorageRedirectURI string `envconfig:"FILE_STORAGE_REDIRECT_URI"`

	AssistantAPIKey string `envconfig:"ASSISTANT_API_KEY"`

	IdentityDomain      string `envconfig:"AUTH0_DOMAIN"`
	IdentityClientID    string `envconfig:"AUTH0_CLIENT_ID"`
	IdentityAudience    string `envconfig:"AUTH0_AUDIENCE"`
	IdentityRedirectURI string `envconfig:"AUTH0_REDIRECT_URI"`

	// SecretsKey is a hex encoded 32 byte key for the encrypted credential store.
	SecretsKey string `envconfig:"SECRETS_KEY"`
}

// LoadEnv reads SIGNDESK_* variables.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, err
	}
	return env, nil
}

// Apply overlays every non-empty environment value onto cfg.
func (e Env) Apply(cfg Config) Config {
	cfg.Storage.Driver = firstNonEmpty(e.StorageDriver, cfg.Storage.Driver)
	cfg.Storage.DSN = firstNonEmpty(e.StorageDSN, cfg.Storage.DSN)
	cfg.Storage.RedisAddr = firstNonEmpty(e.RedisAddr, cfg.Storage.RedisAddr)
	if e.RedisDB != 0 {
		cfg.Storage.RedisDB = e.RedisDB
	}
	cfg.Storage.Namespace = firstNonEmpty(e.Namespace, cfg.Storage.Namespace)
	cfg.Storage.CorruptionPolicy = firstNonEmpty(e.CorruptionPolicy, cfg.Storage.CorruptionPolicy)
	if e.SigningDelay > 0 {
		cfg.Signing.Delay = e.SigningDelay
	}
	cfg.Localization.DefaultLocale = firstNonEmpty(e.Locale, cfg.Localization.DefaultLocale)

	cfg.DocumentCloud.BaseURL = firstNonEmpty(e.DocumentCloudURL, cfg.DocumentCloud.BaseURL)
	cfg.DocumentCloud.AccountID = firstNonEmpty(e.DocumentCloudAccountID, cfg.DocumentCloud.AccountID)
	cfg.FileStorage.ClientID = firstNonEmpty(e.FileStorageClientID, cfg.FileStorage.ClientID)
	cfg.FileStorage.RedirectURI = firstNonEmpty(e.FileStorageRedirectURI, cfg.FileStorage.RedirectURI)

	cfg.Identity.Domain = firstNonEmpty(e.IdentityDomain, cfg.Identity.Domain)
	cfg.Identity.ClientID = firstNonEmpty(e.IdentityClientID, cfg.Identity.ClientID)
	cfg.Identity.Audience = firstNonEmpty(e.IdentityAudience, cfg.Identity.Audience)
	cfg.Identity.RedirectURI = firstNonEmpty(e.IdentityRedirectURI, cfg.Identity.RedirectURI)
	return cfg
}
