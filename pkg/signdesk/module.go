package signdesk

import (
	"context"
	"net/http"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-signdesk/internal/di"
	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-signdesk/pkg/audit"
	"github.com/goliatone/go-signdesk/pkg/clients/assistant"
	"github.com/goliatone/go-signdesk/pkg/clients/documentcloud"
	"github.com/goliatone/go-signdesk/pkg/clients/filestorage"
	"github.com/goliatone/go-signdesk/pkg/commands"
	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/identity"
	"github.com/goliatone/go-signdesk/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-signdesk/pkg/interfaces/logger"
	"github.com/goliatone/go-signdesk/pkg/metrics"
	"github.com/goliatone/go-signdesk/pkg/records"
	"github.com/goliatone/go-signdesk/pkg/secrets"
	"github.com/goliatone/go-signdesk/pkg/settings"
	"github.com/goliatone/go-signdesk/pkg/signing"
	"github.com/goliatone/go-signdesk/pkg/storage"
	"github.com/goliatone/go-users/pkg/types"
)

// ModuleOptions configure the signdesk module facade.
type ModuleOptions struct {
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
	UserID       string
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
}

// NewModule assembles the substrate, stores, clients, signing and commands.
func NewModule(ctx context.Context, opts ModuleOptions) (*Module, error) {
	container, err := di.New(ctx, di.Options{
		Config:       opts.Config,
		Env:          opts.Env,
		Storage:      opts.Storage,
		Logger:       opts.Logger,
		Translator:   opts.Translator,
		Broadcaster:  opts.Broadcaster,
		ActivitySink: opts.ActivitySink,
		Hooks:        opts.Hooks,
		Metrics:      opts.Metrics,
		Secrets:      opts.Secrets,
		HTTPClient:   opts.HTTPClient,
		UserID:       opts.UserID,
	})
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Records returns the partitioned persistence store.
func (m *Module) Records() *records.Store {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Records
}

// Audit returns the bounded audit trail.
func (m *Module) Audit() *audit.Trail {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Trail
}

func (m *Module) Signing() *signing.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Signing
}

// Settings returns the layered user settings store.
func (m *Module) Settings() *settings.Store {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Settings
}

func (m *Module) DocumentCloud() *documentcloud.Client {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.DocumentCloud
}

func (m *Module) FileStorage() *filestorage.Client {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.FileStorage
}

func (m *Module) Assistant() *assistant.Client {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Assistant
}

// Credentials returns the credential vault, or nil when a custom resolver
// was supplied.
func (m *Module) Credentials() *secrets.Vault {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Vault
}

// Identity returns the identity provider configuration.
func (m *Module) Identity() identity.Config {
	if m == nil || m.container == nil {
		return identity.Config{}
	}
	return m.container.Identity
}

// Session returns the local identity session.
func (m *Module) Session() *identity.Session {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Session
}

// Metrics returns the substrate call collector.
func (m *Module) Metrics() *metrics.Collector {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Metrics
}

// Commands returns the go-command registry.
func (m *Module) Commands() *commands.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}

// Container returns the internal DI container.
// This is exposed for advanced use cases like direct storage access.
func (m *Module) Container() *di.Container {
	if m == nil {
		return nil
	}
	return m.container
}

// Close releases storage connections opened by the module.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	return m.container.Close()
}
