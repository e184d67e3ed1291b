package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	expo "dezeto/expo-push-dispatch"
	"dezeto/expo-push-dispatch/internal/config"
	"dezeto/expo-push-dispatch/internal/logger"
	"dezeto/expo-push-dispatch/internal/pending"
)

const usage = `usage: expopush [-config FILE] [-env FILE] <command> [args]

commands:
  send -file FILE       send the notifications in FILE (YAML or JSON, "-" for stdin)
  receipts [-ids a,b]   look up receipts for ids, or for every pending id
  validate TOKEN...     check push tokens
`

// Run executes the tool and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("expopush", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	cfgPath := fs.String("config", "expopush.yaml", "path to the YAML config")
	envFile := fs.String("env", ".env", "path to a .env file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	if cmd == "validate" {
		if Validate(stdout, rest) > 0 {
			return 1
		}
		return 0
	}

	bootLogger := logger.New(stderr, logger.FromConfig(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")))
	cfg, err := config.Load(*cfgPath, *envFile, bootLogger)
	if err != nil {
		bootLogger.Error("Config failed", "err", err)
		return 1
	}
	log := logger.New(stderr, logger.FromConfig(cfg.LogLevel, cfg.LogFormat)).With("service", "expopush")

	store, closeStore, err := newStore(cfg, log)
	if err != nil {
		log.Error("Pending store failed", "err", err)
		return 1
	}
	defer closeStore()

	app := &App{
		Client: expo.NewClient(cfg.ClientOptions(log)...),
		Store:  store,
		Out:    stdout,
		Logger: log,
	}

	switch cmd {
	case "send":
		return runSend(ctx, app, rest, stderr)
	case "receipts":
		return runReceipts(ctx, app, rest, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
}

func runSend(ctx context.Context, app *App, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "-", "notifications file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var r io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			app.Logger.Error("Open notifications file failed", "err", err)
			return 1
		}
		defer f.Close()
		r = f
	}
	notifications, err := ReadNotifications(r)
	if err != nil {
		app.Logger.Error("Invalid notifications", "err", err)
		return 1
	}

	failures, err := app.Send(ctx, notifications)
	if err != nil {
		app.Logger.Error("Send failed", "err", err)
		return 1
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func runReceipts(ctx context.Context, app *App, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("receipts", flag.ContinueOnError)
	fs.SetOutput(stderr)
	idList := fs.String("ids", "", "comma separated receipt ids")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var ids []string
	for _, id := range strings.Split(*idList, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	failures, err := app.Receipts(ctx, ids)
	if err != nil {
		app.Logger.Error("Receipt lookup failed", "err", err)
		return 1
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func newStore(cfg *config.Config, log *slog.Logger) (pending.Store, func(), error) {
	if !cfg.Redis.Enabled {
		log.Debug("Pending store initialized", "type", "memory")
		return pending.NewMemoryStore(), func() {}, nil
	}
	rdb, err := pending.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("Pending store initialized", "type", "redis", "addr", cfg.Redis.Addr)
	return pending.NewRedisStore(rdb, cfg.Redis.Key, cfg.Redis.TTL), func() { _ = rdb.Close() }, nil
}
