package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/runtime"
	srv "github.com/mohammad-safakhou/researcher/internal/server"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()
			logger := a.sink.Logger("[HTTP] ")

			var flash srv.FlashStore = &srv.CookieFlashStore{Secret: []byte(cfg.Server.SessionSecret), TTL: cfg.Server.FlashTTL}
			if cfg.Storage.Redis.Enabled() {
				rdb, err := runtime.ConnRedis(ctx, cfg.Storage.Redis)
				if err != nil {
					return err
				}
				defer func() { _ = rdb.Close() }()
				flash = &srv.RedisFlashStore{Client: rdb, TTL: cfg.Server.FlashTTL}
				logger.Printf("flash messages stored in redis at %s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port)
			}
			if cfg.Server.SessionSecret == "dev_secret" {
				logger.Printf("warning: using the default session secret; set SESSION_SECRET in production")
			}

			e, err := srv.New(srv.Options{
				Reports:   &srv.ReportsHandler{Engine: a.engine, Flash: flash, Logger: logger},
				Telemetry: a.telemetry,
				Health:    a.store.Ping,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			logger.Printf("listening on %s", cfg.Server.Address)
			return srv.Run(ctx, e, cfg.Server.Address)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	return serve
}
