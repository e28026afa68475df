// Command localauth drives the local account module from a terminal.
//
// Usage:
//
//	localauth [flags] <command> [args]
//	localauth [flags] shell
//
// Configuration is layered: built-in defaults, the TOML file named by
// -config, LOCALAUTH_* variables (optionally loaded from -env), then flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/MrEthical07/localauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "localauth.toml", "TOML config file; ignored when missing")
		envPath    = flag.String("env", ".env", "dotenv file; ignored when missing")
		backend    = flag.String("store", "", "store backend: memory, sqlite or redis")
		sqlitePath = flag.String("sqlite", "", "sqlite database path")
		redisAddr  = flag.String("redis-addr", "", "redis address")
		demo       = flag.Bool("demo", false, "use an in-process miniredis store")
		audit      = flag.Bool("audit", false, "log audit events to stderr")
		verbose    = flag.Bool("v", false, "print page navigations")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <command> [args]\n", os.Args[0])
		flag.PrintDefaults()
		printUsage(flag.CommandLine.Output())
	}
	flag.Parse()

	log.SetFlags(0)

	if err := loadEnvFile(*envPath); err != nil {
		log.Print(err)
		return 1
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Print(err)
		return 1
	}

	setString(&cfg.Engine.Store.Backend, *backend)
	setString(&cfg.Engine.Store.SQLitePath, *sqlitePath)
	setString(&cfg.Engine.Store.RedisAddr, *redisAddr)
	if *audit {
		cfg.Engine.Audit.Enabled = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := localauth.New().
		WithConfig(cfg.Engine).
		WithAuditSink(localauth.NewSlogSink(newAuditLogger(os.Stderr, cfg.AuditFormat)))
	if *verbose {
		b = b.WithNavigator(localauth.NavigatorFunc(func(_ context.Context, page localauth.Page) {
			fmt.Fprintf(os.Stderr, "-> %s\n", page)
		}))
	}

	if *demo {
		mr, err := miniredis.Run()
		if err != nil {
			log.Printf("failed to start miniredis: %v", err)
			return 1
		}
		defer mr.Close()

		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		b = b.WithRedis(client)
		fmt.Fprintf(os.Stderr, "using miniredis at %s\n", mr.Addr())
	}

	engine, err := b.Build()
	if err != nil {
		log.Printf("engine build: %v", err)
		return 1
	}
	defer engine.Close()

	a := &app{
		engine: engine,
		in:     newPrompter(os.Stdin, os.Stdout),
		out:    os.Stdout,
	}

	args := flag.Args()
	if len(args) == 0 || args[0] == "shell" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			lp := newLinePrompter()
			defer lp.Close()
			a.in = lp
		}
		err = a.shell(ctx)
	} else {
		err = a.dispatch(ctx, args)
	}
	if err != nil {
		a.printError(err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func newAuditLogger(w io.Writer, format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}
