package di

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/activity/usersink"
	"github.com/goliatone/go-signdesk/pkg/audit"
	"github.com/goliatone/go-signdesk/pkg/clients/assistant"
	"github.com/goliatone/go-signdesk/pkg/clients/documentcloud"
	"github.com/goliatone/go-signdesk/pkg/clients/filestorage"
	"github.com/goliatone/go-signdesk/pkg/commands"
	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/identity"
	"github.com/goliatone/go-signdesk/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/interfaces/store"
	"github.com/goliatone/go-signdesk/pkg/locales"
	"github.com/goliatone/go-signdesk/pkg/metrics"
	"github.com/goliatone/go-signdesk/pkg/records"
	"github.com/goliatone/go-signdesk/pkg/secrets"
	"github.com/goliatone/go-signdesk/pkg/settings"
	"github.com/goliatone/go-signdesk/pkg/signing"
	"github.com/goliatone/go-signdesk/pkg/storage"
	"github.com/goliatone/go-users/pkg/types"
)

// SecretsCacheTTL bounds how long resolved credentials are reused.
const SecretsCacheTTL = 5 * time.Minute

// Options configure the DI container.
type Options struct {
	Config       config.Config
	Env          config.Env
	Storage      storage.Providers
	Logger       logger.Logger
	Translator   i18n.Translator
	Broadcaster  broadcaster.Broadcaster
	ActivitySink types.ActivitySink
	Hooks        activity.Hooks
	Metrics      *metrics.Collector
	Secrets      secrets.Resolver
	HTTPClient   *http.Client
	// UserID selects per-user credentials and settings; empty means the local user.
	UserID string
}

// Container wires the substrate, stores, clients and services.
type Container struct {
	Config   config.Config
	Storage  storage.Providers
	Metrics  *metrics.Collector
	Trail    *audit.Trail
	Records  *records.Store
	Settings *settings.Store
	Identity identity.Config
	Session  *identity.Session
	Secrets  secrets.Resolver
	// Vault is nil when a custom resolver was supplied.
	Vault         *secrets.Vault
	DocumentCloud *documentcloud.Client
	FileStorage   *filestorage.Client
	Assistant     *assistant.Client
	Signing       *signing.Service
	Commands      *commands.Registry
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container. When no storage is supplied the configured
// driver is opened and owned by the container; release it with Close.
func New(ctx context.Context, opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}
	cfg = opts.Env.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	userID := opts.UserID
	if strings.TrimSpace(userID) == "" {
		userID = settings.LocalUser
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	b := broadcaster.Multi(opts.Broadcaster, broadcaster.Logging(lgr))

	collector := opts.Metrics
	if collector == nil {
		collector = metrics.New()
	}

	providers := opts.Storage
	if providers.KV == nil {
		var storageOpts []storage.Option
		storageOpts = append(storageOpts, storage.WithMetricsCollector(collector))
		if opts.Env.RedisPassword != "" {
			storageOpts = append(storageOpts, storage.WithRedisPassword(opts.Env.RedisPassword))
		}
		opened, err := storage.Open(ctx, cfg.Storage, storageOpts...)
		if err != nil {
			return nil, err
		}
		providers = opened
	}

	policy, err := store.ParseCorruptionPolicy(cfg.Storage.CorruptionPolicy)
	if err != nil {
		return nil, err
	}

	prefs, err := settings.New(settings.Dependencies{
		Storage: providers.KV,
		Config:  cfg,
		Logger:  lgr,
	})
	if err != nil {
		return nil, err
	}

	locale, err := prefs.Locale(ctx, userID)
	if err != nil || locale == "" {
		if err != nil {
			lgr.Warn("user locale not resolved", logger.F("user_id", userID), logger.F("error", err))
		}
		locale = cfg.Localization.DefaultLocale
	}

	translator := opts.Translator
	if translator == nil {
		translator, err = locales.NewTranslator(cfg.Localization.DefaultLocale)
		if err != nil {
			return nil, err
		}
	}

	session, err := identity.NewSession(providers.KV)
	if err != nil {
		return nil, err
	}

	var vault *secrets.Vault
	resolver := opts.Secrets
	if resolver == nil {
		vault, err = newVault(opts.Env, providers)
		if err != nil {
			return nil, err
		}
		resolver = vault
	}

	trail, err := audit.New(audit.Dependencies{
		Storage:    providers.KV,
		Capacity:   cfg.Audit.Capacity,
		Policy:     policy,
		Translator: translator,
		Locale:     locale,
		Logger:     lgr,
	})
	if err != nil {
		return nil, err
	}

	hooks := append(activity.Hooks{}, opts.Hooks...)
	if opts.ActivitySink != nil {
		hooks = append(hooks, usersink.Hook{Sink: opts.ActivitySink})
	}

	recs, err := records.New(records.Dependencies{
		Storage:     providers.KV,
		Policy:      policy,
		Trail:       trail,
		Activity:    hooks,
		Broadcaster: b,
		Logger:      lgr,
		ActorID:     userID,
	})
	if err != nil {
		return nil, err
	}

	docCloud := documentcloud.New(lgr,
		documentcloud.WithBaseURL(cfg.DocumentCloud.BaseURL),
		documentcloud.WithTimeout(cfg.DocumentCloud.Timeout),
		documentcloud.WithHTTPClient(opts.HTTPClient),
		documentcloud.WithDefaultMessage(cfg.DocumentCloud.DefaultMessage),
		documentcloud.WithCredentials(documentcloud.SecretCredentials{
			Resolver: resolver,
			UserID:   userID,
			Tokens:   session,
		}),
	)

	fileStorage := filestorage.New(providers.KV, lgr,
		filestorage.WithConfig(cfg.FileStorage),
		filestorage.WithHTTPClient(opts.HTTPClient),
	)

	ai, err := assistant.New(lgr,
		assistant.WithConfig(cfg.Assistant),
		assistant.WithResolver(resolver, userID),
		assistant.WithTranslator(translator, locale),
		assistant.WithHTTPClient(opts.HTTPClient),
	)
	if err != nil {
		return nil, err
	}

	signer := &signing.SimulatedBackend{Delay: cfg.Signing.Delay, ValidRate: cfg.Signing.ValidRate}
	validator := &signing.SimulatedBackend{Delay: cfg.Signing.ValidationDelay, ValidRate: cfg.Signing.ValidRate}
	signingSvc, err := signing.New(signing.Dependencies{
		Records:     recs,
		Signer:      signer,
		Validator:   validator,
		Uploader:    fileStorage,
		Explainer:   ai,
		MaxFileSize: cfg.Signing.MaxFileSize,
		Logger:      lgr,
	})
	if err != nil {
		return nil, err
	}

	cmdRegistry, err := commands.New(commands.Dependencies{
		Records:  recs,
		Signing:  signingSvc,
		Settings: prefs,
		Logger:   lgr,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:        cfg,
		Storage:       providers,
		Metrics:       collector,
		Trail:         trail,
		Records:       recs,
		Settings:      prefs,
		Identity:      identity.FromConfig(cfg.Identity),
		Session:       session,
		Secrets:       resolver,
		Vault:         vault,
		DocumentCloud: docCloud,
		FileStorage:   fileStorage,
		Assistant:     ai,
		Signing:       signingSvc,
		Commands:      cmdRegistry,
	}, nil
}

// Close releases the storage connections.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return c.Storage.Close()
}

// newVault seeds system credentials from the environment. User credentials
// are encrypted in the secret store and need a configured key.
func newVault(env config.Env, providers storage.Providers) (*secrets.Vault, error) {
	seed := map[secrets.Reference]secrets.SecretValue{}
	if env.DocumentCloudAPIKey != "" {
		seed[secrets.SystemRef(secrets.ServiceDocumentCloud, secrets.KeyAPIKey)] = secrets.SecretValue{Data: []byte(env.DocumentCloudAPIKey)}
	}
	if env.AssistantAPIKey != "" {
		seed[secrets.SystemRef(secrets.ServiceAssistant, secrets.KeyAPIKey)] = secrets.SecretValue{Data: []byte(env.AssistantAPIKey)}
	}
	var user secrets.Provider = secrets.NopProvider{}
	if env.SecretsKey != "" && providers.Secrets != nil {
		key, err := hex.DecodeString(env.SecretsKey)
		if err != nil {
			return nil, fmt.Errorf("di: secrets key must be hex encoded: %w", err)
		}
		encrypted, err := secrets.NewEncryptedStoreProvider(providers.Secrets, key)
		if err != nil {
			return nil, err
		}
		user = encrypted
	}
	return secrets.NewVault(secrets.NewStaticProvider(seed), user, SecretsCacheTTL), nil
}
