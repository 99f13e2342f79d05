package maxitaxi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JakubNatonek/MaxiTaxi-sub000/envelope"
	"github.com/JakubNatonek/MaxiTaxi-sub000/store"
)

// Builder defines a public type used by MaxiTaxi client APIs.
//
// Builder instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Builder struct {
	config     Config
	httpClient *http.Client
	store      store.Store
	redis      *redis.Client
	logger     *zerolog.Logger
	listener   AuthListener

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a builder seeded with the default configuration.
// New does not mutate shared global state and can be used concurrently.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient overrides the default client; the configured HTTP timeout
// is not applied to a caller-supplied client.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore injects the session store shared by the clock, the dispatcher,
// and the lifecycle controller. When omitted, the builder selects a file
// store if Storage.FilePath is set and an in-memory store otherwise.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis is a convenience for WithStore(store.NewRedis(client, prefix))
// using the configured Storage.RedisPrefix.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.logger = &log
	return b
}

// WithAuthListener describes the withauthlistener operation and its observable behavior.
//
// WithAuthListener registers the callback that moves the application between
// the authenticated and unauthenticated areas.
func (b *Builder) WithAuthListener(l AuthListener) *Builder {
	b.listener = l
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when configuration validation or key import
// fails. The returned Engine is safe for concurrent use after Start.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := zerolog.Nop()
	if b.logger != nil {
		log = *b.logger
	}

	codec, err := envelope.NewCodec(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}

	// -------- SESSION STORE --------
	st := b.store
	if st == nil && b.redis != nil {
		st = store.NewRedis(b.redis, cfg.Storage.RedisPrefix)
	}
	if st == nil && cfg.Storage.FilePath != "" {
		st, err = store.NewFile(cfg.Storage.FilePath)
		if err != nil {
			return nil, err
		}
	}
	if st == nil {
		st = store.NewMemory()
	}

	client := b.httpClient
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	metrics := NewMetrics(cfg.Metrics)

	// -------- DISPATCHER + CLOCK + ENGINE WIRING --------
	disp := newDispatcher(cfg, client, codec, st, metrics, log)
	clk := newSessionClock(cfg.Clock, st, metrics, log)

	engine := &Engine{
		config:   cfg,
		store:    st,
		dispatch: disp,
		clock:    clk,
		metrics:  metrics,
		log:      log,
		listener: b.listener,
	}

	clk.refresh = engine.runRefresh
	clk.forceLogout = engine.forceLogout
	disp.unauthorized = func(ctx context.Context) {
		clk.setState(StateExpired)
		engine.forceLogout(ctx)
	}

	b.built = true

	return engine, nil
}
