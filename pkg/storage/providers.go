package storage

import (
	"context"

	persistence "github.com/goliatone/go-persistence-bun"
	bunrepo "github.com/goliatone/go-signdesk/internal/storage/bun"
	gormkv "github.com/goliatone/go-signdesk/internal/storage/gorm"
	"github.com/goliatone/go-signdesk/internal/storage/memory"
	rediskv "github.com/goliatone/go-signdesk/internal/storage/redis"
	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	iface "github.com/goliatone/go-signdesk/pkg/interfaces/secrets"
	"github.com/goliatone/go-signdesk/pkg/secrets"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// MetricsCollector enables downstream observers to record substrate calls.
type MetricsCollector interface {
	Record(operation string, labels map[string]string)
}

// Providers exposes the substrates services are built on.
type Providers struct {
	KV      kv.Storage
	Secrets iface.Store
	Metrics MetricsCollector

	namespace     string
	redisPassword string
	closers       []func() error
}

type Option func(*Providers)

// WithMetricsCollector records every substrate call on collector.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(p *Providers) {
		p.Metrics = collector
	}
}

// WithNamespace prefixes every key so several workspaces can share a substrate.
func WithNamespace(ns string) Option {
	return func(p *Providers) {
		p.namespace = ns
	}
}

// Close releases connections owned by the providers.
func (p Providers) Close() error {
	var first error
	for _, closer := range p.closers {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewMemoryProviders returns substrates backed by in-process maps.
func NewMemoryProviders(opts ...Option) Providers {
	return finalize(Providers{
		KV:      memory.New(),
		Secrets: secrets.NewMemoryStore(),
	}, opts)
}

// NewBunProviders wires bun-backed substrates. The caller owns the *bun.DB
// and is responsible for creating the schema (see bunrepo.CreateSchema).
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(bunrepo.Models()...)

	return finalize(Providers{
		KV:      bunrepo.NewStorage(db),
		Secrets: bunrepo.NewSecretStore(db),
	}, opts)
}

// NewRedisProviders shares partitions through redis. Credentials stay in process.
func NewRedisProviders(client redis.UniversalClient, opts ...Option) (Providers, error) {
	store, err := rediskv.New(client)
	if err != nil {
		return Providers{}, err
	}
	providers := finalize(Providers{
		KV:      store,
		Secrets: secrets.NewMemoryStore(),
	}, opts)
	providers.closers = append(providers.closers, store.Close)
	return providers, nil
}

// NewPostgresProviders persists partitions in PostgreSQL through gorm.
func NewPostgresProviders(dsn string, opts ...Option) (Providers, error) {
	store, err := gormkv.Open(dsn)
	if err != nil {
		return Providers{}, err
	}
	providers := finalize(Providers{
		KV:      store,
		Secrets: secrets.NewMemoryStore(),
	}, opts)
	providers.closers = append(providers.closers, store.Close)
	return providers, nil
}

func finalize(p Providers, opts []Option) Providers {
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	p.KV = kv.Namespaced(p.KV, p.namespace)
	if p.Metrics != nil {
		p.KV = Instrument(p.KV, p.Metrics)
	}
	return p
}

// Instrument records every call made to s on collector.
func Instrument(s kv.Storage, collector MetricsCollector) kv.Storage {
	if collector == nil {
		return s
	}
	return instrumented{inner: s, metrics: collector}
}

type instrumented struct {
	inner   kv.Storage
	metrics MetricsCollector
}

func (i instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := i.inner.Get(ctx, key)
	result := resultLabel(err)
	if err == nil && !ok {
		result = "miss"
	}
	i.record("kv.get", key, result)
	return value, ok, err
}

func (i instrumented) Set(ctx context.Context, key, value string) error {
	err := i.inner.Set(ctx, key, value)
	i.record("kv.set", key, resultLabel(err))
	return err
}

func (i instrumented) Remove(ctx context.Context, key string) error {
	err := i.inner.Remove(ctx, key)
	i.record("kv.remove", key, resultLabel(err))
	return err
}

func (i instrumented) record(operation, key, result string) {
	i.metrics.Record(operation, map[string]string{
		"key":    key,
		"result": result,
	})
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
