package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realestate-crm/internal/adapters/http/middleware"
	"realestate-crm/internal/adapters/http/routes"
	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/config"
	"realestate-crm/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	serve := serveCmd()

	root := &cobra.Command{
		Use:           "server",
		Short:         "Real Estate CRM API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running the binary without a subcommand starts the API
		RunE: serve.RunE,
	}

	root.AddCommand(
		serve,
		migrateCmd(),
		seedCmd(),
		closeMonthCmd(),
	)
	return root
}

// bootstrap loads configuration, connects and migrates the database
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		_ = config.CloseDatabase()
		return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	config.GetLogger().Info("✅ Database migration completed")

	return cfg, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			logger := config.GetLogger()

			if err := config.NewSeeder(db, cfg.Seed).Run(); err != nil {
				logger.Warnf("⚠️ Warning: Failed to seed database: %v", err)
			}

			locker := config.ConnectRedis(cfg)
			defer config.CloseRedis()

			location, err := cfg.Location()
			if err != nil {
				return fmt.Errorf("invalid CRON_TIMEZONE %q: %w", cfg.Jobs.Timezone, err)
			}

			if cfg.Jobs.Enabled {
				repos := repositories.NewSet(db)
				cronService := services.NewCronService(
					services.NewClosingService(repos, location, logger),
					services.NewAuthService(repos.Users, repos.RefreshTokens, cfg, logger),
					locker,
					location,
					logger,
				)
				if err := cronService.Start(); err != nil {
					return fmt.Errorf("failed to start cron service: %w", err)
				}
				defer cronService.Stop()
			}

			// Create Fiber app
			app := fiber.New(fiber.Config{
				AppName:      "Real Estate CRM API v1.0",
				ErrorHandler: middleware.CustomErrorHandler,
			})

			// Setup middlewares
			middleware.Setup(app, cfg)

			// Setup routes (pass db and cfg for dependency injection)
			routes.Setup(app, db, cfg)

			// Graceful shutdown
			go gracefulShutdown(app)

			logger.Infof("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
			if err := app.Listen(":" + cfg.Port); err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := bootstrap()
			if err != nil {
				return err
			}
			return config.CloseDatabase()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin account (requires SEED_ADMIN_PASSWORD)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			return config.NewSeeder(db, cfg.Seed).Run()
		},
	}
}

func closeMonthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close-month",
		Short: "Roll a month's completed transactions into its accounting record",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, _ := cmd.Flags().GetInt("month")
			year, _ := cmd.Flags().GetInt("year")

			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			location, err := cfg.Location()
			if err != nil {
				return fmt.Errorf("invalid CRON_TIMEZONE %q: %w", cfg.Jobs.Timezone, err)
			}
			closing := services.NewClosingService(repositories.NewSet(db), location, config.GetLogger())
			ctx := context.Background()

			var record *models.AccountingRecord
			if month == 0 && year == 0 {
				record, err = closing.ClosePreviousMonth(ctx, time.Now())
			} else {
				record, err = closing.CloseMonth(ctx, month, year)
			}
			if err != nil {
				return err
			}
			if _, err := closing.RefreshConsultantRevenue(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "closed %02d/%d: revenue %s, office share %s, net profit %s\n",
				record.Month, record.Year,
				record.TotalRevenue.StringFixed(2),
				record.OfficeShare.StringFixed(2),
				record.NetProfit.StringFixed(2))
			return nil
		},
	}

	// Without flags the previous month in CRON_TIMEZONE is closed
	cmd.Flags().Int("month", 0, "month to close (1-12)")
	cmd.Flags().Int("year", 0, "year of the month to close")
	return cmd
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger := config.GetLogger()
	logger.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logger.Errorf("❌ Error during shutdown: %v", err)
	}
	logger.Info("✅ Server stopped gracefully")
}
