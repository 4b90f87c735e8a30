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
	"go.uber.org/zap"

	"github.com/galgamex/fuxiaochen/internal/config"
	"github.com/galgamex/fuxiaochen/internal/db"
	"github.com/galgamex/fuxiaochen/internal/handler"
	"github.com/galgamex/fuxiaochen/internal/job"
	"github.com/galgamex/fuxiaochen/internal/middleware"
	"github.com/galgamex/fuxiaochen/internal/repo"
	"github.com/galgamex/fuxiaochen/internal/schedule"
	"github.com/galgamex/fuxiaochen/internal/service"
	"github.com/galgamex/fuxiaochen/internal/storage"
)

const (
	mailCooldown     = time.Minute
	tokenCleanupSpec = "*/10 * * * *"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fuxiaochen",
		Short: "fuxiaochen backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
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

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("bucket", cfg.Storage.Bucket),
	)

	store, err := storage.NewS3Storage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	userRepo := repo.NewUserRepo(conn)
	tokenRepo := repo.NewTokenRepo(conn)

	mailSender := service.NewEmailSender(cfg.Mail)
	tokenService := service.NewTokenService(tokenRepo)
	authService := service.NewAuthService(userRepo, tokenService, mailSender,
		[]byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	fileService := service.NewFileService(store)

	deps := handler.RouterDeps{
		Auth:         handler.NewAuthHandler(authService),
		Files:        handler.NewFileHandler(fileService),
		JWTSecret:    []byte(cfg.JWTSecret),
		MailCooldown: mailCooldown,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.CORS(nil),
		gzip.Gzip(gzip.DefaultCompression),
	)
	handler.RegisterRoutes(engine.Group("/api"), deps)

	scheduler := schedule.NewScheduler()
	if err := scheduler.AddJob(job.NewTokenCleanupJob(tokenRepo), tokenCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: engine}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
