package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs. Credentials are never part
// of it; they are resolved through the secrets providers at call time.
type Config struct {
	Storage       StorageConfig       `mapstructure:"storage" json:"storage"`
	Audit         AuditConfig         `mapstructure:"audit" json:"audit"`
	Signing       SigningConfig       `mapstructure:"signing" json:"signing"`
	DocumentCloud DocumentCloudConfig `mapstructure:"document_cloud" json:"document_cloud"`
	FileStorage   FileStorageConfig   `mapstructure:"file_storage" json:"file_storage"`
	Assistant     AssistantConfig     `mapstructure:"assistant" json:"assistant"`
	Identity      IdentityConfig      `mapstructure:"identity" json:"identity"`
	Localization  LocalizationConfig  `mapstructure:"localization" json:"localization"`
}

// StorageConfig selects the key/value substrate.
type StorageConfig struct {
	Driver           string `mapstructure:"driver" json:"driver"`
	DSN              string `mapstructure:"dsn" json:"dsn"`
	RedisAddr        string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisDB          int    `mapstructure:"redis_db" json:"redis_db"`
	Namespace        string `mapstructure:"namespace" json:"namespace"`
	CorruptionPolicy string `mapstructure:"corruption_policy" json:"corruption_policy"`
	QuotaBytes       int    `mapstructure:"quota_bytes" json:"quota_bytes"`
}

// AuditConfig bounds the audit trail.
type AuditConfig struct {
	Capacity int `mapstructure:"capacity" json:"capacity"`
}

// SigningConfig drives the simulated signing and validation backends.
type SigningConfig struct {
	Delay           time.Duration `mapstructure:"delay" json:"delay"`
	ValidationDelay time.Duration `mapstructure:"validation_delay" json:"validation_delay"`
	ValidRate       float64       `mapstructure:"valid_rate" json:"valid_rate"`
	MaxFileSize     int64         `mapstructure:"max_file_size" json:"max_file_size"`
}

// DocumentCloudConfig points at the remote signing workflow API.
type DocumentCloudConfig struct {
	BaseURL        string        `mapstructure:"base_url" json:"base_url"`
	AccountID      string        `mapstructure:"account_id" json:"account_id"`
	DefaultMessage string        `mapstructure:"default_message" json:"default_message"`
	Timeout        time.Duration `mapstructure:"timeout" json:"timeout"`
}

// FileStorageConfig holds the OAuth client and endpoints used for backups.
type FileStorageConfig struct {
	ClientID    string        `mapstructure:"client_id" json:"client_id"`
	RedirectURI string        `mapstructure:"redirect_uri" json:"redirect_uri"`
	AuthURL     string        `mapstructure:"auth_url" json:"auth_url"`
	UploadURL   string        `mapstructure:"upload_url" json:"upload_url"`
	UserInfoURL string        `mapstructure:"user_info_url" json:"user_info_url"`
	Scope       string        `mapstructure:"scope" json:"scope"`
	Description string        `mapstructure:"description" json:"description"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

// AssistantConfig selects the generative models.
type AssistantConfig struct {
	BaseURL        string        `mapstructure:"base_url" json:"base_url"`
	ExplainModel   string        `mapstructure:"explain_model" json:"explain_model"`
	AssistantModel string        `mapstructure:"assistant_model" json:"assistant_model"`
	ThinkingBudget int           `mapstructure:"thinking_budget" json:"thinking_budget"`
	Timeout        time.Duration `mapstructure:"timeout" json:"timeout"`
}

// IdentityConfig describes the external identity provider tenant.
type IdentityConfig struct {
	Domain      string `mapstructure:"domain" json:"domain"`
	ClientID    string `mapstructure:"client_id" json:"client_id"`
	Audience    string `mapstructure:"audience" json:"audience"`
	RedirectURI string `mapstructure:"redirect_uri" json:"redirect_uri"`
}

// LocalizationConfig controls the locale used for audit details and fallbacks.
type LocalizationConfig struct {
	DefaultLocale string `mapstructure:"default_locale" json:"default_locale"`
}

var storageDrivers = map[string]bool{
	"memory":   true,
	"sqlite":   true,
	"redis":    true,
	"postgres": true,
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			Driver:           "memory",
			CorruptionPolicy: "reset",
		},
		Audit: AuditConfig{Capacity: 500},
		Signing: SigningConfig{
			Delay:           2 * time.Second,
			ValidationDelay: 2500 * time.Millisecond,
			ValidRate:       0.85,
			MaxFileSize:     20 * 1024 * 1024,
		},
		DocumentCloud: DocumentCloudConfig{
			BaseURL:        "https://api.assinafy.com.br/v1",
			DefaultMessage: "Assinatura solicitada via SignPlus Cloud.",
			Timeout:        30 * time.Second,
		},
		FileStorage: FileStorageConfig{
			AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
			UploadURL:   "https://www.googleapis.com/upload/drive/v3/files",
			UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
			Scope:       "https://www.googleapis.com/auth/drive.file",
			Description: "Documento assinado via SignPlus",
			Timeout:     60 * time.Second,
		},
		Assistant: AssistantConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			ExplainModel:   "gemini-3-pro-preview",
			AssistantModel: "gemini-3-flash-preview",
			ThinkingBudget: 2000,
			Timeout:        60 * time.Second,
		},
		Localization: LocalizationConfig{DefaultLocale: "pt-BR"},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if !storageDrivers[c.Storage.Driver] {
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if (c.Storage.Driver == "sqlite" || c.Storage.Driver == "postgres") && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
	}
	if c.Storage.Driver == "redis" && strings.TrimSpace(c.Storage.RedisAddr) == "" {
		return errors.New("storage.redis_addr is required for driver redis")
	}
	switch c.Storage.CorruptionPolicy {
	case "reset", "fail":
	default:
		return fmt.Errorf("storage.corruption_policy %q must be reset or fail", c.Storage.CorruptionPolicy)
	}
	if c.Audit.Capacity <= 0 {
		return fmt.Errorf("audit.capacity must be > 0")
	}
	if c.Signing.Delay < 0 || c.Signing.ValidationDelay < 0 {
		return fmt.Errorf("signing delays must be >= 0")
	}
	if c.Signing.ValidRate < 0 || c.Signing.ValidRate > 1 {
		return fmt.Errorf("signing.valid_rate must be within [0,1]")
	}
	if c.Signing.MaxFileSize <= 0 {
		return fmt.Errorf("signing.max_file_size must be > 0")
	}
	if strings.TrimSpace(c.DocumentCloud.BaseURL) == "" {
		return errors.New("document_cloud.base_url is required")
	}
	if strings.TrimSpace(c.Assistant.BaseURL) == "" {
		return errors.New("assistant.base_url is required")
	}
	if c.Localization.DefaultLocale == "" {
		return errors.New("localization.default_locale is required")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// When cfgx.Build yields a zero value the lightweight decoder below is used.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()
	if settings.env != nil {
		cfg = settings.env.Apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
	env       *Env
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

// WithEnv overlays environment values on top of the decoded input.
func WithEnv(env Env) LoadOption {
	return func(lo *loadOptions) {
		lo.env = &env
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Storage.Driver == "" {
		c.Storage.Driver = defaults.Storage.Driver
	}
	if c.Storage.CorruptionPolicy == "" {
		c.Storage.CorruptionPolicy = defaults.Storage.CorruptionPolicy
	}
	if c.Audit.Capacity == 0 {
		c.Audit.Capacity = defaults.Audit.Capacity
	}
	if c.Signing.Delay == 0 {
		c.Signing.Delay = defaults.Signing.Delay
	}
	if c.Signing.ValidationDelay == 0 {
		c.Signing.ValidationDelay = defaults.Signing.ValidationDelay
	}
	if c.Signing.ValidRate == 0 {
		c.Signing.ValidRate = defaults.Signing.ValidRate
	}
	if c.Signing.MaxFileSize == 0 {
		c.Signing.MaxFileSize = defaults.Signing.MaxFileSize
	}
	c.DocumentCloud = mergeDocumentCloud(c.DocumentCloud, defaults.DocumentCloud)
	c.FileStorage = mergeFileStorage(c.FileStorage, defaults.FileStorage)
	c.Assistant = mergeAssistant(c.Assistant, defaults.Assistant)
	if c.Localization.DefaultLocale == "" {
		c.Localization.DefaultLocale = defaults.Localization.DefaultLocale
	}
	return c
}

func mergeDocumentCloud(c, d DocumentCloudConfig) DocumentCloudConfig {
	c.BaseURL = firstNonEmpty(c.BaseURL, d.BaseURL)
	c.DefaultMessage = firstNonEmpty(c.DefaultMessage, d.DefaultMessage)
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	return c
}

func mergeFileStorage(c, d FileStorageConfig) FileStorageConfig {
	c.AuthURL = firstNonEmpty(c.AuthURL, d.AuthURL)
	c.UploadURL = firstNonEmpty(c.UploadURL, d.UploadURL)
	c.UserInfoURL = firstNonEmpty(c.UserInfoURL, d.UserInfoURL)
	c.Scope = firstNonEmpty(c.Scope, d.Scope)
	c.Description = firstNonEmpty(c.Description, d.Description)
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	return c
}

func mergeAssistant(c, d AssistantConfig) AssistantConfig {
	c.BaseURL = firstNonEmpty(c.BaseURL, d.BaseURL)
	c.ExplainModel = firstNonEmpty(c.ExplainModel, d.ExplainModel)
	c.AssistantModel = firstNonEmpty(c.AssistantModel, d.AssistantModel)
	if c.ThinkingBudget == 0 {
		c.ThinkingBudget = d.ThinkingBudget
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
