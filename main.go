package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/routes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Library circulation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), bootstrapCmd())
	return root
}

// withLogger loads config and a zap logger for a subcommand.
func withLogger(run func(cfg config.Config, log *zap.Logger) error) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error {
		cfg := config.Load()
		log, err := app.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		return run(cfg, log)
	}
}

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: withLogger(func(cfg config.Config, log *zap.Logger) error {
			if port != "" {
				cfg.Port = port
			}
			application := app.MustNew(cfg, log)
			defer application.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := app.BootstrapFirstAdmin(ctx, cfg, application.Repo, log); err != nil {
				log.Warn("bootstrap admin", zap.Error(err))
			}
			cancel()

			routes.RegisterRoutes(application.Router, application)

			log.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
			return application.Router.Run(":" + cfg.Port)
		}),
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port, overrides PORT")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: withLogger(func(cfg config.Config, log *zap.Logger) error {
			// ConnectDB already migrates
			conn := db.ConnectDB(cfg.DatabaseURL, log)
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			log.Info("schema up to date")
			return sqlDB.Close()
		}),
	}
}

func bootstrapCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Issue the first ADMIN invite if no admin exists",
		RunE: withLogger(func(cfg config.Config, log *zap.Logger) error {
			if email != "" {
				cfg.BootstrapEmail = email
			}
			if cfg.BootstrapEmail == "" {
				return fmt.Errorf("no email: pass --email or set BOOTSTRAP_EMAIL")
			}
			repo := db.NewRepo(db.ConnectDB(cfg.DatabaseURL, log))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			link, err := app.BootstrapFirstAdmin(ctx, cfg, repo, log)
			if err != nil {
				return err
			}
			if link == "" {
				fmt.Println("an admin already exists, nothing to do")
				return nil
			}
			fmt.Println(link)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email, overrides BOOTSTRAP_EMAIL")
	return cmd
}
