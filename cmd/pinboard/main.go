package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/pinboard/internal/config"
	"github.com/xxxsen/pinboard/internal/db"
	"github.com/xxxsen/pinboard/internal/filestore"
	"github.com/xxxsen/pinboard/internal/handler"
	"github.com/xxxsen/pinboard/internal/job"
	"github.com/xxxsen/pinboard/internal/middleware"
	"github.com/xxxsen/pinboard/internal/repo"
	"github.com/xxxsen/pinboard/internal/schedule"
	"github.com/xxxsen/pinboard/internal/service"
)

const apiPrefix = "/api"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "pinboard",
		Short:         "pinboard bookmark server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run pinboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sqlDB, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := db.ApplyMigrations(sqlDB); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, sqlDB)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sqlDB, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := db.ApplyMigrations(sqlDB); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			logutil.GetLogger(cmd.Context()).Info("migrations applied")
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, migrateCmd, newUserCmd(&configPath), newTagCmd(&configPath), newImagesCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func newUserCmd(configPath *string) *cobra.Command {
	var email string
	userCmd := &cobra.Command{Use: "user", Short: "user administration"}
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "delete a user with all pins and tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			cfg, sqlDB, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			admin, err := newAdminService(cfg, sqlDB)
			if err != nil {
				return err
			}
			removed, err := admin.DeleteUser(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s deleted, %d images removed\n", email, removed)
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&email, "email", "", "email of the user to delete")
	userCmd.AddCommand(deleteCmd)
	return userCmd
}

func newTagCmd(configPath *string) *cobra.Command {
	var tagID int64
	tagCmd := &cobra.Command{Use: "tag", Short: "tag administration"}
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "delete a tag; pins carrying it are kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tagID <= 0 {
				return fmt.Errorf("--id is required")
			}
			cfg, sqlDB, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			admin, err := newAdminService(cfg, sqlDB)
			if err != nil {
				return err
			}
			if err := admin.DeleteTag(cmd.Context(), tagID); err != nil {
				return fmt.Errorf("delete tag: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tag %d deleted\n", tagID)
			return nil
		},
	}
	deleteCmd.Flags().Int64Var(&tagID, "id", 0, "id of the tag to delete")
	tagCmd.AddCommand(deleteCmd)
	return tagCmd
}

func newImagesCmd(configPath *string) *cobra.Command {
	imagesCmd := &cobra.Command{Use: "images", Short: "stored image maintenance"}
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "remove stored images no pin references",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sqlDB, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			store, err := filestore.New(cfg.FileStore)
			if err != nil {
				return fmt.Errorf("init file store: %w", err)
			}
			scheduler := schedule.NewCronScheduler()
			cleanup := job.NewImageCleanupJob(repo.NewPinRepo(sqlDB), store, time.Duration(cfg.ImageCleanup.GraceHours)*time.Hour)
			if err := scheduler.AddJob(cleanup, cfg.ImageCleanup.Spec); err != nil {
				return err
			}
			return scheduler.RunNow(cmd.Context(), cleanup.Name())
		},
	}
	imagesCmd.AddCommand(cleanupCmd)
	return imagesCmd
}

// bootstrap loads the config, initialises logging and opens the database.
func bootstrap(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	sqlDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	return cfg, sqlDB, nil
}

func newAdminService(cfg *config.Config, sqlDB *sql.DB) (*service.AdminService, error) {
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}
	return service.NewAdminService(repo.NewUserRepo(sqlDB), repo.NewTagRepo(sqlDB), store), nil
}

func runServer(cfg *config.Config, sqlDB *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(sqlDB)
	tagRepo := repo.NewTagRepo(sqlDB)
	pinRepo := repo.NewPinRepo(sqlDB)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	authService := service.NewAuthService(
		userRepo,
		[]byte(cfg.JWTSecret),
		time.Hour*time.Duration(cfg.JWTTTLHours),
		cfg.UserCache.Size,
		time.Second*time.Duration(cfg.UserCache.TTLSeconds),
	)
	deps := handler.RouterDeps{
		Auth:           authService,
		Tags:           service.NewTagService(tagRepo),
		Pins:           service.NewPinService(pinRepo, tagRepo, store),
		Store:          store,
		JWTSecret:      []byte(cfg.JWTSecret),
		MaxUploadBytes: cfg.MaxUploadMB * 1024 * 1024,
		LoginRateLimit: time.Duration(cfg.LoginRateLimitMS) * time.Millisecond,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		apiPrefix,
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ImageCleanup.Enabled {
		scheduler := schedule.NewCronScheduler()
		cleanup := job.NewImageCleanupJob(pinRepo, store, time.Duration(cfg.ImageCleanup.GraceHours)*time.Hour)
		if err := scheduler.AddJob(cleanup, cfg.ImageCleanup.Spec); err != nil {
			return fmt.Errorf("schedule image cleanup: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
	errCh := make(chan error, 1)
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logutil.GetLogger(context.Background()).Info("server stopping...")
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}
