package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/localauth"
	"github.com/MrEthical07/localauth/internal/stores"
	"github.com/MrEthical07/localauth/kv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "L0adTest!pw"

func main() {
	var (
		users       = flag.Int("users", 500, "number of concurrent registrations")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers")
		ops         = flag.Int("ops", 5000, "operations per phase (login + verify)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "key prefix")
		optimistic  = flag.Bool("optimistic", true, "use compare-and-swap writes for the users list")
		retries     = flag.Int("retries", 64, "compare-and-swap retries per registration")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := localauth.DefaultConfig()
	cfg.Store.RedisPrefix = *prefix
	cfg.Credentials.OptimisticWrites = *optimistic
	cfg.Credentials.MaxWriteRetries = *retries
	// Logins succeed or fail on lost accounts; a cooldown would stall the phase.
	cfg.RateLimit.MaxFailedAttempts = *ops + 1

	engine, err := localauth.New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	registerStats := runRegisterPhase(ctx, engine, *users, *concurrency)

	persisted, err := stores.NewCredentialStore(kv.NewRedisStore(client, *prefix), stores.CredentialConfig{}, nil).List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list users failed: %v\n", err)
		os.Exit(1)
	}
	if len(persisted) == 0 {
		fmt.Fprintln(os.Stderr, "no users persisted")
		os.Exit(1)
	}

	loginStats := runLoginPhase(ctx, engine, persisted, *ops, *concurrency)
	verifyStats := runVerifyPhase(ctx, engine, persisted, *ops, *concurrency)

	fmt.Println("---- results ----")
	fmt.Printf("users: registered_ok=%d persisted=%d lost=%d optimistic=%t\n",
		registerStats.ops-int(registerStats.failures),
		len(persisted),
		registerStats.ops-int(registerStats.failures)-len(persisted),
		*optimistic,
	)
	printStats("register", registerStats)
	printStats("login", loginStats)
	printStats("verify", verifyStats)
}

func runRegisterPhase(ctx context.Context, engine *localauth.Engine, users, concurrency int) phaseStats {
	return runPhase(users, concurrency, 104729, func(i int, _ *rand.Rand) error {
		return engine.Register(ctx, localauth.RegisterInput{
			Username: fmt.Sprintf("user-%d", i),
			Email:    fmt.Sprintf("user-%d@example.com", i),
			Password: loadPassword,
			Hint:     hintFor(i),
		})
	})
}

func runLoginPhase(ctx context.Context, engine *localauth.Engine, users []stores.UserRecord, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 7919, func(_ int, r *rand.Rand) error {
		u := users[r.Intn(len(users))]
		_, err := engine.Login(ctx, u.Username, loadPassword)
		return err
	})
}

func runVerifyPhase(ctx context.Context, engine *localauth.Engine, users []stores.UserRecord, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 6151, func(_ int, r *rand.Rand) error {
		u := users[r.Intn(len(users))]
		_, err := engine.VerifyReset(ctx, u.Email, u.Hint)
		return err
	})
}

// runPhase executes op ops times across concurrency workers and records
// per-call latency.
func runPhase(ops, concurrency int, seed int64, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func hintFor(i int) string {
	hints := [...]string{"blue", "green", "amber", "violet"}
	return hints[i%len(hints)]
}
