package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ticketdesk/internal/auth"
	"ticketdesk/internal/config"
	"ticketdesk/internal/db"
	"ticketdesk/internal/logger"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/seed"
	"ticketdesk/internal/service"
)

var (
	source string
	reset  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Ticketdesk data tools",
		Long:  `Create the database schema and load demo users and tickets.`,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newLoadCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop all tables before migrating")
	return cmd
}

func newLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load users and tickets from a JSON fixture",
		Long:  `Load users and tickets from a local JSON file or an http(s) URL. Existing users and tickets are skipped.`,
		RunE:  runLoad,
	}
	cmd.Flags().StringVarP(&source, "source", "s", "configs/seed.json", "Fixture path or URL")
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop all tables before loading")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.Open(cfg.DBDriver, cfg.MySQLDSN, cfg.SQLitePath, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(gormDB, reset, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.Open(cfg.DBDriver, cfg.MySQLDSN, cfg.SQLitePath, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(gormDB, reset, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("loading fixture", "source", source)
	fixture, err := seed.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load fixture: %w", err)
	}

	userRepo := repository.NewUserRepository(gormDB)
	ticketRepo := repository.NewTicketRepository(gormDB)
	audit := service.NewAuditService(repository.NewLogRepository(gormDB), log)

	// Refresh tokens are never issued here, so the token store runs without Redis.
	seeder := &seed.Seeder{
		Auth: service.NewAuthService(userRepo, auth.NewBcryptHasher(cfg.BcryptCost),
			auth.NewJWTService(cfg.JWTSecret), auth.NewTokenStore(nil), audit, log),
		Tickets:     service.NewTicketService(repository.NewTxManager(gormDB), ticketRepo, userRepo, audit, nil, log),
		Users:       userRepo,
		Attachments: repository.NewAttachmentRepository(gormDB),
		Log:         log,
	}

	stats, err := seeder.Run(ctx, fixture)
	if err != nil {
		return err
	}

	log.Info("seed completed",
		"users_created", stats.UsersCreated,
		"users_skipped", stats.UsersSkipped,
		"tickets_created", stats.TicketsCreated,
		"tickets_skipped", stats.TicketsSkipped,
		"attachments_created", stats.AttachmentsCreated,
	)
	return nil
}
