package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alekLukanen/errs"

	"github.com/alekLukanen/columnmap/config"
	"github.com/alekLukanen/columnmap/host"
	"github.com/alekLukanen/columnmap/storage"
)

/*
* colmap-host answers callback requests that an engine sends over redis.
* It serves the builtin string functions, one goroutine per handle.
 */
func main() {
	configPath := flag.String("config", "colmap.yaml", "path to the YAML config file")
	handles := flag.String("handles", "", "comma separated handles to serve, all builtin handles when empty")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to load config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, *handles); err != nil {
		logger.Error("colmap-host failed", slog.String("error", errs.ErrorWithStack(err)))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config, handles string) error {
	keyStorage, err := storage.NewKeyStorage(ctx, logger, storage.KeyStorageOptions{
		Address:     cfg.Redis.Address,
		Password:    cfg.Redis.Password,
		KeyPrefix:   cfg.Redis.KeyPrefix,
		ResponseTTL: cfg.Redis.ResponseTTL,
	})
	if err != nil {
		return errs.Wrap(err)
	}
	defer keyStorage.Close()

	server, err := host.NewServer(logger, keyStorage, host.ServerOptions{PollTimeout: cfg.Redis.PollTimeout})
	if err != nil {
		return errs.Wrap(err)
	}

	builtin := host.BuiltinCallbacks()
	selected := make([]string, 0)
	if handles != "" {
		selected = strings.Split(handles, ",")
	} else {
		for name := range builtin {
			selected = append(selected, name)
		}
	}
	for _, name := range selected {
		name = strings.TrimSpace(name)
		callback, ok := builtin[name]
		if !ok {
			return errs.NewStackError(fmt.Errorf("%w| handle %s", host.ErrCallbackNotFoundInRegistry, name))
		}
		server.RegisterCallback(name, callback)
	}

	logger.Info("host started", slog.Any("handles", server.Handles()))
	return server.ServeAll(ctx)
}
