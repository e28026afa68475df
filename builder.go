package localauth

import (
	"context"
	"errors"
	"io"

	"github.com/MrEthical07/localauth/clock"
	"github.com/MrEthical07/localauth/internal/rate"
	"github.com/MrEthical07/localauth/internal/stores"
	"github.com/MrEthical07/localauth/kv"
	"github.com/MrEthical07/localauth/password"
	"github.com/MrEthical07/localauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config    Config
	store     kv.Store
	redis     redis.UniversalClient
	navigator Navigator
	clock     clock.Clock
	scheduler clock.Scheduler
	random    io.Reader
	hasher    password.Hasher
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore supplies the persisted store. It takes precedence over
// Config.Store and is not closed by [Engine.Close].
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithRedis backs the engine with an existing Redis client, using
// Config.Store.RedisPrefix for keys.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithClock sets the time source. When c also implements [clock.Scheduler] and
// no scheduler was set, it schedules inactivity callbacks too.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

func (b *Builder) WithScheduler(s clock.Scheduler) *Builder {
	b.scheduler = s
	return b
}

// WithRandom replaces crypto/rand for salts and session tokens.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

// WithHasher overrides the hasher selected by Config.Password.
func (b *Builder) WithHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, opens the store when none was supplied
// and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clk := b.clock
	if clk == nil {
		clk = clock.System{}
	}
	sched := b.scheduler
	if sched == nil {
		if s, ok := clk.(clock.Scheduler); ok {
			sched = s
		} else {
			sched = clock.System{}
		}
	}

	hasher := b.hasher
	if hasher == nil {
		h, err := newHasher(cfg.Password, b.random)
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		hasher:    hasher,
		navigator: b.navigator,
		clock:     clk,
		validate:  newValidator(),
		metrics:   NewMetrics(cfg.Metrics),
	}
	if engine.navigator == nil {
		engine.navigator = noopNavigator{}
	}

	// -------- STORE --------
	switch {
	case b.store != nil:
		engine.store = b.store
	case b.redis != nil:
		engine.store = kv.NewRedisStore(b.redis, cfg.Store.RedisPrefix)
	default:
		store, closer, err := openStore(context.Background(), cfg.Store)
		if err != nil {
			return nil, err
		}
		engine.store = store
		if closer != nil {
			engine.closers = append(engine.closers, closer)
		}
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	engine.credentials = stores.NewCredentialStore(engine.store, stores.CredentialConfig{
		OptimisticWrites: cfg.Credentials.OptimisticWrites,
		MaxWriteRetries:  cfg.Credentials.MaxWriteRetries,
	}, func(key string, _ error) {
		engine.stateMalformed(key)
	})

	engine.limiter = rate.New(engine.store, clk, rate.Config{
		MaxFailedAttempts: cfg.RateLimit.MaxFailedAttempts,
		Cooldown:          cfg.RateLimit.Cooldown,
	}, engine.stateMalformed)

	engine.sessions = session.NewManager(engine.store, session.Config{
		TTL:               cfg.Session.TTL,
		InactivityTimeout: cfg.Session.InactivityTimeout,
		TokenBytes:        cfg.Session.TokenBytes,
	},
		session.WithClock(clk),
		session.WithScheduler(sched),
		session.WithRandom(b.random),
		session.WithLogoutHook(engine.onLogout),
		session.WithMalformedHook(engine.stateMalformed),
	)

	b.built = true

	return engine, nil
}

func newHasher(cfg PasswordConfig, random io.Reader) (password.Hasher, error) {
	switch cfg.Algorithm {
	case AlgorithmArgon2id:
		return password.NewArgon2(password.Config{
			Memory:      cfg.Memory,
			Time:        cfg.Time,
			Parallelism: cfg.Parallelism,
			SaltLength:  cfg.SaltLength,
			Random:      random,
		})
	default:
		return password.NewSHA256(password.SHA256Config{
			SaltLength: cfg.SaltLength,
			Random:     random,
		}), nil
	}
}

// openStore opens the backend named by cfg. The returned closer may be nil.
func openStore(ctx context.Context, cfg StoreConfig) (kv.Store, func() error, error) {
	switch cfg.Backend {
	case StoreSQLite:
		s, err := kv.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, mapStoreError(err)
		}
		return s, s.Close, nil
	case StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return kv.NewRedisStore(client, cfg.RedisPrefix), client.Close, nil
	default:
		return kv.NewMemoryStore(), nil, nil
	}
}
