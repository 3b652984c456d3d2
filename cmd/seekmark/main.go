package main

import (
	"context"
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

	"github.com/seekmark/seekmark/internal/ai"
	"github.com/seekmark/seekmark/internal/cache"
	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/handler"
	"github.com/seekmark/seekmark/internal/job"
	"github.com/seekmark/seekmark/internal/normalizer"
	"github.com/seekmark/seekmark/internal/repo"
	"github.com/seekmark/seekmark/internal/schedule"
	"github.com/seekmark/seekmark/internal/search"
	"github.com/seekmark/seekmark/internal/tokenizer"
)

const orphanSweepSpec = "30 3 * * *"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "seekmark",
		Short: "seekmark search server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run seekmark server",
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
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("sqlite_path", cfg.SQLitePath),
		zap.Int("vector_shards", cfg.Search.VectorShardCount))

	sqliteDB, err := repo.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	pgDB, err := repo.OpenPostgres(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}

	lexicalRepo := repo.NewLexicalRepo(sqliteDB, cfg.Search.ContentSnippetSize, cfg.Search.TitleSnippetSize)
	vectorRepo := repo.NewVectorRepo(pgDB, cfg.Search.VectorShardCount, cfg.Search.EmbeddingDim)
	shardRepo := repo.NewShardRepo(pgDB, cfg.Search.VectorShardCount)
	if err := lexicalRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("lexical schema: %w", err)
	}
	if err := vectorRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("vector schema: %w", err)
	}
	if err := shardRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("shard schema: %w", err)
	}

	tk := tokenizer.NewHTTPTokenizer(tokenizer.Config{
		BaseURL: cfg.Tokenizer.BaseURL,
		Timeout: time.Duration(cfg.Tokenizer.TimeoutSeconds) * time.Second,
	})
	norm := normalizer.New(tk, cfg.Search)

	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.EmbedData)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.WrapLRUCacheToEmbedder(
		ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel),
		cfg.AI.EmbedCacheSize,
		time.Duration(cfg.Search.CandidateTTLSeconds)*time.Second,
	)
	reranker := ai.NewReranker(ai.RerankConfig{
		Enabled: cfg.AI.RerankEnabled,
		Model:   cfg.AI.RerankModel,
		APIKey:  cfg.AI.RerankAPIKey,
		BaseURL: cfg.AI.RerankBaseURL,
	})

	candidateCache := cache.NewTTLCache(
		cfg.Search.CandidateCacheSize,
		time.Duration(cfg.Search.CandidateTTLSeconds)*time.Second,
	)
	engine := search.NewEngine(search.Deps{
		Normalizer: norm,
		Embedder:   embedder,
		Reranker:   reranker,
		Lexical:    lexicalRepo,
		Vector:     vectorRepo,
		Shards:     shardRepo,
		Resolver:   search.NewCandidateResolver(lexicalRepo, shardRepo, candidateCache),
		Config:     cfg.Search,
	})

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewOrphanSweepJob(vectorRepo), orphanSweepSpec); err != nil {
		return fmt.Errorf("schedule orphan sweep: %w", err)
	}

	deps := handler.RouterDeps{
		Search: handler.NewSearchHandler(engine),
	}
	webEngine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(runCtx)
	defer scheduler.Stop()

	go func() {
		if err := webEngine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	return nil
}
