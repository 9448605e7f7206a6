package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vianovi/Mart-Bank-Project/internal/audit"
	"github.com/vianovi/Mart-Bank-Project/internal/auth"
	"github.com/vianovi/Mart-Bank-Project/internal/catalog"
	"github.com/vianovi/Mart-Bank-Project/internal/config"
	"github.com/vianovi/Mart-Bank-Project/internal/console"
	"github.com/vianovi/Mart-Bank-Project/internal/store/gormstore"
	"github.com/vianovi/Mart-Bank-Project/pkg/ledger"
)

const (
	flagDatabaseURL      = "database-url"
	flagLogFile          = "log-file"
	configKeyDatabaseURL = "database_url"
	configKeyLogFile     = "log_file"
	defaultDatabaseURL   = "sqlite://martbank.db"
	defaultLogFile       = "martbank.log"
)

type runtimeConfig struct {
	DatabaseURL string
	LogFile     string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "martbank: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "martbank",
		Short:         "Retail store and bank console simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runShell(ctx, cfg)
		},
	}

	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "sqlite path or postgres connection string")
	cmd.Flags().String(flagLogFile, defaultLogFile, "structured log destination")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv(configKeyDatabaseURL, "DATABASE_URL"); err != nil {
		return err
	}
	if err := viper.BindEnv(configKeyLogFile, "LOG_FILE"); err != nil {
		return err
	}

	if err := viper.BindPFlag(configKeyDatabaseURL, cmd.Flags().Lookup(flagDatabaseURL)); err != nil {
		return err
	}
	if err := viper.BindPFlag(configKeyLogFile, cmd.Flags().Lookup(flagLogFile)); err != nil {
		return err
	}

	cfg.DatabaseURL = viper.GetString(configKeyDatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.LogFile = viper.GetString(configKeyLogFile)
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	return nil
}

func runShell(ctx context.Context, cfg *runtimeConfig) (err error) {
	logger, err := newFileLogger(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("panic recovered", zap.Any("panic", recovered))
			_ = logger.Sync()
			err = fmt.Errorf("unexpected failure: %v", recovered)
		}
	}()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	store := gormstore.New(gormDB)
	if err := prepareSchema(store, driver); err != nil {
		return err
	}

	clock := func() time.Time { return time.Now().UTC() }
	verifier := auth.NewBcryptVerifier()

	configService, err := config.NewService(gormstore.NewConfigRepository(gormDB), clock, logger)
	if err != nil {
		return fmt.Errorf("config service init: %w", err)
	}
	if err := config.Bootstrap(ctx, store, configService, verifier, clock, logger); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	authService, err := auth.NewService(store, verifier, clock, logger)
	if err != nil {
		return fmt.Errorf("auth service init: %w", err)
	}
	catalogService, err := catalog.NewService(store, configService, clock, logger)
	if err != nil {
		return fmt.Errorf("catalog service init: %w", err)
	}

	terminal := console.NewTerminal(os.Stdin, os.Stdout)
	pinGate, err := auth.NewPinGate(verifier, terminal.PinPrompt(), logger)
	if err != nil {
		return fmt.Errorf("pin gate init: %w", err)
	}
	ledgerService, err := ledger.NewService(store, clock, pinGate,
		ledger.WithOperationLogger(audit.NewRecorder(logger)))
	if err != nil {
		return fmt.Errorf("ledger service init: %w", err)
	}

	shell, err := console.New(terminal, authService, ledgerService, catalogService, configService, store, clock, logger)
	if err != nil {
		return fmt.Errorf("console init: %w", err)
	}

	logger.Info("shell starting", zap.String("driver", driver))
	if runErr := shell.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// newFileLogger writes structured logs to a file so the interactive shell
// keeps stdout to itself.
func newFileLogger(path string) (*zap.Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	logConfig := zap.NewProductionConfig()
	logConfig.OutputPaths = []string{path}
	logConfig.ErrorOutputPaths = []string{path}
	return logConfig.Build()
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	var db *gorm.DB
	cfg := &gorm.Config{}
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), cfg)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "martbank.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

func prepareSchema(store *gormstore.Store, driver string) error {
	if driver != "sqlite" {
		return nil
	}
	if err := store.AutoMigrate(); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
