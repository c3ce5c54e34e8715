package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"eventboard/internal/config"
	"eventboard/internal/ics"
	appLog "eventboard/internal/log"
	"eventboard/internal/storage"
	"eventboard/internal/store"
	"eventboard/internal/watch"
	"eventboard/internal/web"
)

const version = "0.1.0"

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "eventboard",
		Usage:   "Event catalog service: calendar grids, archive search and submissions.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "./eventboard.yaml", Usage: "Path to config file"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging and HTTP request logs"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			resetCommand(),
			exportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("application failed", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the store change watcher.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)"},
		},
		Action: func(c *cli.Context) error {
			debug := c.Bool("debug")
			if debug {
				appLog.SetLevel(appLog.LevelDebug)
			}
			appLog.Info("eventboard starting", "version", version)

			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if listen := c.String("listen"); listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"database", cfg.Database,
				"timezone", cfg.Timezone,
				"poll_seconds", cfg.PollSeconds,
				"calendar_name", cfg.CalendarName,
				"basic_auth", cfg.BasicAuth != nil,
			)

			kv, err := storage.OpenSQLite(cfg.Database)
			if err != nil {
				return err
			}
			defer kv.Close()

			st := store.New(kv)
			srv := web.New(cfg, st, debug)

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				appLog.Info("signal received, shutting down", "signal", sig.String())
				cancel()
			}()

			watcher := watch.New(st, cfg.PollSeconds, srv.OnStoreChanged)
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			httpSrv := &http.Server{
				Addr:    cfg.Listen,
				Handler: srv.Handler(),
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := httpSrv.Shutdown(shutdownCtx); err != nil {
					appLog.Error("http shutdown failed", err)
				}
			}()

			appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			appLog.Info("eventboard exiting")
			return nil
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Restore the default event set and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			kv, err := storage.OpenSQLite(cfg.Database)
			if err != nil {
				return err
			}
			defer kv.Close()

			if err := store.New(kv).Reset(context.Background()); err != nil {
				return err
			}
			appLog.Info("events reset to defaults", "database", cfg.Database)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the catalog as an iCalendar feed.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Output file (defaults to stdout)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			kv, err := storage.OpenSQLite(cfg.Database)
			if err != nil {
				return err
			}
			defer kv.Close()

			events, err := store.New(kv).Load(context.Background())
			if err != nil {
				appLog.Warn("events blob unreadable, exporting defaults", "err", err)
			}

			data, err := ics.Export(events, cfg.CalendarName)
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			appLog.Info("ICS feed written", "path", out, "bytes", len(data))
			return nil
		},
	}
}
