// Package provider is the single place the product backend is chosen and
// built. Call sites obtain their service.ProductService from Resolve.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/catalog-admin/internal/event"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/internal/service/api"
	"github.com/utafrali/catalog-admin/internal/service/dummy"
	"github.com/utafrali/catalog-admin/internal/service/local"
	"github.com/utafrali/catalog-admin/internal/storage"
	"github.com/utafrali/catalog-admin/pkg/clock"
	"github.com/utafrali/catalog-admin/pkg/health"
	"github.com/utafrali/catalog-admin/pkg/httpclient"
	pkgkafka "github.com/utafrali/catalog-admin/pkg/kafka"
)

// DefaultImplementation selects the backend when none is configured. Override
// it at build time with
//
//	-ldflags "-X github.com/utafrali/catalog-admin/internal/service/provider.DefaultImplementation=dummy"
var DefaultImplementation = "api"

// Kind identifies a backend implementation.
type Kind string

const (
	KindAPI   Kind = "api"
	KindLocal Kind = "local"
	KindDummy Kind = "dummy"
)

// ParseKind maps a configured backend name to a Kind. "localStorage" is
// accepted as an alias of "local".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "api":
		return KindAPI, nil
	case "local", "localstorage":
		return KindLocal, nil
	case "dummy":
		return KindDummy, nil
	default:
		return "", fmt.Errorf("unknown product backend %q", s)
	}
}

// Config holds the settings the backends are built from.
type Config struct {
	// Backend names the implementation; empty means DefaultImplementation.
	Backend string

	APIBaseURL    string
	APITimeout    time.Duration
	APIMaxRetries int
	UserAgent     string

	// LatencyScale multiplies the simulated latency of the local and dummy
	// backends. Zero disables it.
	LatencyScale float64
}

// Option configures a Provider.
type Option func(*Provider)

// WithStore sets the durable store used by the local backend. Without one the
// local backend runs in its store-unavailable mode.
func WithStore(s storage.Store) Option {
	return func(p *Provider) { p.store = s }
}

// WithPublisher enables change events through publisher.
func WithPublisher(pub pkgkafka.Publisher) Option {
	return func(p *Provider) { p.publisher = pub }
}

// WithHealth registers readiness checks for the resolved backend on h.
func WithHealth(h *health.Handler) Option {
	return func(p *Provider) { p.health = h }
}

// WithClock sets the clock backends stamp timestamps from.
func WithClock(c clock.Clock) Option {
	return func(p *Provider) { p.clock = c }
}

// WithHTTPDoer replaces the circuit-breaking HTTP client of the api backend.
func WithHTTPDoer(d api.HTTPDoer) Option {
	return func(p *Provider) { p.doer = d }
}

// Provider lazily builds one backend and hands out the shared instance.
type Provider struct {
	cfg       Config
	store     storage.Store
	publisher pkgkafka.Publisher
	health    *health.Handler
	clock     clock.Clock
	doer      api.HTTPDoer
	logger    *slog.Logger

	once sync.Once
	kind Kind
	svc  service.ProductService
}

// New creates a provider. Nothing is built until Resolve is called.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Provider {
	p := &Provider{
		cfg:    cfg,
		clock:  clock.RealClock{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns the process-wide ProductService.
func (p *Provider) Resolve() service.ProductService {
	p.once.Do(func() {
		p.kind = p.selectKind()
		p.svc = p.build(p.kind)
		if p.publisher != nil {
			p.svc = event.NewPublishingService(p.svc, event.NewProducer(p.publisher, p.logger), p.clock, p.logger)
		}
		p.logger.Info("product backend resolved",
			slog.String("backend", string(p.kind)),
			slog.Bool("events", p.publisher != nil),
		)
	})
	return p.svc
}

// Kind returns the backend chosen by Resolve.
func (p *Provider) Kind() Kind {
	p.Resolve()
	return p.kind
}

// SelectKind returns the backend Resolve chooses for the configured name.
// An empty name selects DefaultImplementation. An unknown name selects the
// api backend and is reported in err.
func SelectKind(backend string) (Kind, error) {
	if backend == "" {
		backend = DefaultImplementation
	}
	kind, err := ParseKind(backend)
	if err != nil {
		return KindAPI, err
	}
	return kind, nil
}

func (p *Provider) selectKind() Kind {
	kind, err := SelectKind(p.cfg.Backend)
	if err != nil {
		p.logger.Warn("falling back to api backend", slog.String("error", err.Error()))
	}
	return kind
}

func (p *Provider) build(kind Kind) service.ProductService {
	switch kind {
	case KindLocal:
		svc := local.New(p.store, p.logger,
			local.WithClock(p.clock),
			local.WithLatency(local.DefaultLatency.Scale(p.cfg.LatencyScale)),
		)
		if p.health != nil && p.store != nil {
			p.health.Register("store", svc.Ping)
		}
		return svc

	case KindDummy:
		return dummy.New(p.logger,
			dummy.WithClock(p.clock),
			dummy.WithLatency(dummy.DefaultLatency.Scale(p.cfg.LatencyScale)),
		)

	default:
		doer := p.doer
		if doer == nil {
			doer = p.newHTTPClient()
		}
		if hc, ok := doer.(interface{ HealthCheck(context.Context) error }); ok && p.health != nil {
			p.health.RegisterOptional("catalog-api", hc.HealthCheck)
		}
		return api.New(doer, p.cfg.APIBaseURL, p.logger)
	}
}

func (p *Provider) newHTTPClient() *httpclient.CircuitBreakerClient {
	cfg := httpclient.DefaultConfig()
	if p.cfg.APITimeout > 0 {
		cfg.Timeout = p.cfg.APITimeout
	}
	if p.cfg.APIMaxRetries >= 0 {
		cfg.MaxRetries = p.cfg.APIMaxRetries
	}
	cfg.RetryWaitMin = 200 * time.Millisecond
	cfg.RetryWaitMax = 2 * time.Second

	client := httpclient.New(cfg).Use(httpclient.CorrelationHook, httpclient.TraceHook)
	if p.cfg.UserAgent != "" {
		client.Use(httpclient.UserAgentHook(p.cfg.UserAgent))
	}

	cbCfg := httpclient.DefaultCircuitBreakerConfig("catalog-api")
	p.logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Duration("timeout", cbCfg.Timeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)
	return httpclient.NewCircuitBreakerClient(client, cbCfg, p.logger)
}
