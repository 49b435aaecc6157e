package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"qwiktest/internal/config"
	"qwiktest/internal/pkg/banner"
	"qwiktest/internal/pkg/cache"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/mail"
	"qwiktest/internal/pkg/storage"
	"qwiktest/internal/pkg/validation"
	"qwiktest/internal/router"
	"qwiktest/internal/service"
)

// Set at build time through ldflags.
var (
	Version    = "v0.1.0"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cmd := &cli.Command{
		Name:    "qwiktest",
		Usage:   "QwikTest online exam and quiz platform",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the config file",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, useConfigFile(cmd.String("config"))
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "create or update the database schema",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := bootstrap(); err != nil {
						return err
					}
					logger.Info("database schema is up to date")
					return nil
				},
			},
			{
				Name:  "admin",
				Usage: "manage admin accounts",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "create an admin account",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "username", Required: true},
							&cli.StringFlag{Name: "email", Required: true},
							&cli.StringFlag{Name: "password", Required: true},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if err := bootstrap(); err != nil {
								return err
							}
							admin, err := service.Auth.CreateAdmin(ctx, cmd.String("username"), cmd.String("email"), cmd.String("password"))
							if err != nil {
								return err
							}
							logger.Infof("admin %s created", admin.UserName)
							return nil
						},
					},
					{
						Name:  "reset-password",
						Usage: "set a new password for a user",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "login", Usage: "user name or email", Required: true},
							&cli.StringFlag{Name: "password", Required: true},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if err := bootstrap(); err != nil {
								return err
							}
							if err := service.Auth.ResetPassword(ctx, cmd.String("login"), cmd.String("password")); err != nil {
								return err
							}
							logger.Infof("password of %s updated", cmd.String("login"))
							return nil
						},
					},
				},
			},
			{
				Name:  "settings",
				Usage: "manage stored site settings",
				Commands: []*cli.Command{
					{
						Name:  "seed",
						Usage: "store the default value of every settings group",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "overwrite", Usage: "replace groups that are already stored"},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if err := bootstrap(); err != nil {
								return err
							}
							seeded, err := service.Settings.Seed(ctx, cmd.Bool("overwrite"))
							if err != nil {
								return err
							}
							logger.Infof("seeded settings groups: %v", seeded)
							return nil
						},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("qwiktest: %v", err)
	}
}

// useConfigFile exports the config path for config.Load. Without a flag the
// default locations are tried.
func useConfigFile(configPath string) error {
	if configPath == "" {
		for _, path := range []string{"config.yaml", filepath.Join("config", "config.yaml")} {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
	}
	if configPath == "" {
		return errors.New("no config file given and neither config.yaml nor config/config.yaml exists")
	}
	return os.Setenv("CONFIG_PATH", configPath)
}

// bootstrap loads config and opens the database. Every command needs this.
func bootstrap() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	if err := database.Setup(); err != nil {
		return fmt.Errorf("setup database: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	banner.Print(os.Stdout, Version, CommitHash, BuildTime)

	if err := bootstrap(); err != nil {
		return err
	}
	cfg := config.GlobalConfig
	logger.Info("config loaded and database ready")

	if err := cache.Setup(cfg.Redis.URL, cfg.Redis.Prefix); err != nil {
		return fmt.Errorf("setup cache: %w", err)
	}
	if err := storage.Setup(); err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}
	if err := mail.Setup(); err != nil {
		return fmt.Errorf("setup mail: %w", err)
	}
	validation.Setup()

	if err := service.Auth.EnsureDefaultAdmin(ctx); err != nil {
		return fmt.Errorf("ensure default admin: %w", err)
	}

	service.Cron.Start(cfg.Cron.Interval)
	defer service.Cron.Stop()
	logger.Infof("cron started, interval %s", cfg.Cron.Interval)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	router.SetupRoutes(r, GetUserFS(), GetAdminFS())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
