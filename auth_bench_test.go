package localauth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newBenchmarkEngine(b *testing.B, redisBacked bool) (*Engine, func()) {
	b.Helper()

	builder := New()
	cleanup := func() {}
	if redisBacked {
		mr, err := miniredis.Run()
		if err != nil {
			b.Fatalf("miniredis run failed: %v", err)
		}
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		builder = builder.WithRedis(rdb)
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
	}

	engine, err := builder.Build()
	if err != nil {
		b.Fatalf("build failed: %v", err)
	}

	err = engine.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Passw0rd!",
		Hint:     "blue",
	})
	if err != nil {
		b.Fatalf("register failed: %v", err)
	}

	return engine, func() {
		_ = engine.Close()
		cleanup()
	}
}

func BenchmarkLoginMemory(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b, false)
	defer cleanup()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), "alice", "Passw0rd!"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func BenchmarkLoginRedis(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b, true)
	defer cleanup()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), "alice", "Passw0rd!"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func BenchmarkCheckAccess(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b, false)
	defer cleanup()

	if _, err := engine.Login(context.Background(), "alice", "Passw0rd!"); err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.CheckAccess(context.Background(), PageDashboard, nil); err != nil {
			b.Fatalf("check access failed: %v", err)
		}
	}
}
