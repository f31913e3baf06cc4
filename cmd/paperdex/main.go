package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/paperdex/paperdex/internal/awscred"
	"github.com/paperdex/paperdex/internal/config"
	"github.com/paperdex/paperdex/internal/db"
	"github.com/paperdex/paperdex/internal/handler"
	"github.com/paperdex/paperdex/internal/job"
	"github.com/paperdex/paperdex/internal/middleware"
	"github.com/paperdex/paperdex/internal/repo"
	"github.com/paperdex/paperdex/internal/schedule"
	"github.com/paperdex/paperdex/internal/service"
	"github.com/paperdex/paperdex/internal/source"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "paperdex",
		Short: "paperdex retrieval-augmented answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run paperdex server",
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
		zap.String("embed_provider", cfg.AI.EmbedProvider),
		zap.String("gen_provider", cfg.AI.GenProvider),
		zap.String("source", cfg.Source.Type),
	)

	var creds aws.CredentialsProvider
	if cfg.AWS.Region != "" {
		issuer, err := awscred.NewSTSIssuer(ctx, cfg.AWS.Region)
		if err != nil {
			return fmt.Errorf("init sts issuer: %w", err)
		}
		creds = awscred.NewCache(issuer, cfg.AWS.SessionDuration)
	}

	passageRepo := repo.NewPassageRepo(conn)
	factory := service.NewFactory(cfg.AI, cfg.Answer, passageRepo, creds)

	// fail fast on a misconfigured default provider pair
	if _, err := factory.Get("", ""); err != nil {
		return fmt.Errorf("init providers: %w", err)
	}

	loader, err := source.New(cfg.Source)
	if err != nil {
		return fmt.Errorf("init source loader: %w", err)
	}

	deps := handler.RouterDeps{
		Ingest: handler.NewIngestHandler(factory, loader, cfg.Ingest),
		Answer: handler.NewAnswerHandler(factory),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	if cfg.Ingest.RefreshCron != "" {
		scheduler := schedule.NewCronScheduler()
		refreshJob := job.NewIngestRefreshJob(factory, loader, cfg.Ingest)
		if err := scheduler.AddJob(refreshJob, cfg.Ingest.RefreshCron); err != nil {
			return fmt.Errorf("schedule ingest refresh: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
