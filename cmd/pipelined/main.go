// Command pipelined runs the article pipeline service: it loads
// configuration, opens the Postgres store, wires the credential vault,
// LLM client, document store client, publishing providers, and the
// worklist orchestrator, then serves the REST API until interrupted.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/fieldnotes/articlepipeline/internal/api"
	"github.com/fieldnotes/articlepipeline/internal/apimetrics"
	pipelineconfig "github.com/fieldnotes/articlepipeline/internal/config"
	"github.com/fieldnotes/articlepipeline/internal/docstore"
	"github.com/fieldnotes/articlepipeline/internal/llm"
	"github.com/fieldnotes/articlepipeline/internal/obslog"
	"github.com/fieldnotes/articlepipeline/internal/optimize"
	"github.com/fieldnotes/articlepipeline/internal/orchestrator"
	"github.com/fieldnotes/articlepipeline/internal/proofreading"
	"github.com/fieldnotes/articlepipeline/internal/publish"
	"github.com/fieldnotes/articlepipeline/internal/ratelimit"
	"github.com/fieldnotes/articlepipeline/internal/store"
	"github.com/fieldnotes/articlepipeline/internal/vault"
)

func main() {
	configPath := flag.String("config", "pipeline.toml", "path to TOML configuration file")
	flag.Parse()

	cfg, err := pipelineconfig.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := obslog.New(obslog.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := store.Open(ctx, cfg.Database.DSN, int32(cfg.Database.MaxConns), int32(cfg.Database.MinConns))
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	credVault := buildVault(ctx, cfg.Vault, logger)

	llmClient := llm.New(cfg.LLM.APIKey, cfg.LLM.Model)
	docsClient := docstore.New(cfg.DocumentStore.BaseURL, cfg.DocumentStore.Token)

	orch := orchestrator.New(db, docsClient, obslog.Component(logger, "orchestrator"), cfg.Orchestrator.WorkerPoolSize)
	go orch.Run(ctx)
	go orch.StartSyncLoop(ctx, time.Duration(cfg.Orchestrator.SyncIntervalSeconds)*time.Second)
	go orch.StartFeedbackLoop(ctx)

	pw, err := playwright.Run()
	if err != nil {
		logger.Fatal("start playwright", zap.Error(err))
	}
	defer pw.Stop()

	cmsClient := &noopCMSClient{}
	fastProvider := publish.NewPlaywrightProvider(pw, cmsClient, "", "")
	cuProvider := publish.NewComputerUseProvider(cfg.LLM.APIKey, pw, cmsClient)
	hybridProvider := publish.NewHybridProvider(fastProvider, cuProvider)

	providers := map[string]publish.Provider{
		string(fastProvider.Name()):  fastProvider,
		string(cuProvider.Name()):    cuProvider,
		string(hybridProvider.Name()): hybridProvider,
	}

	server := &api.Server{
		Store:        db,
		Orchestrator: orch,
		Vault:        credVault,
		Publishers:   providers,
		Analyzer:     proofreading.NewAnalyzer(llmClient),
		Optimizer:    optimize.New(llmClient, cfg.LLM.PerArticleCostCapUSD),
		LLMClient:    llmClient,
		BearerToken:  cfg.Server.BearerToken,
		Metrics:      apimetrics.New(),
		RateLimiter:  ratelimit.New(cfg.RateLimit.RequestsPerMinute, time.Minute),
		CarryForwardToleranceChars: cfg.Orchestrator.CarryForwardToleranceChars,
		DefaultProvider:            cfg.Publish.DefaultProvider,
	}

	orch.ParseJob = server.RunParse

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: server.NewRouter(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.Server.ListenAddr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server", zap.Error(err))
	}
}

func buildVault(ctx context.Context, cfg pipelineconfig.VaultConfig, logger *zap.Logger) *vault.Vault {
	var backend vault.Backend
	switch cfg.Backend {
	case "secretsmanager":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.SecretsRegion))
		if err != nil {
			logger.Fatal("load aws config", zap.Error(err))
		}
		backend = vault.NewSecretsManagerBackend(secretsmanager.NewFromConfig(awsCfg), cfg.SecretsPrefix)
	default:
		backend = vault.NewEnvFileBackend(cfg.EnvFilePath)
	}
	return vault.New(backend, time.Duration(cfg.CacheTTLSeconds)*time.Second)
}

// noopCMSClient is the stand-in CMSClient until a concrete CMS integration
// is configured; it always reports no existing draft, so providers proceed
// straight to a fresh publish.
type noopCMSClient struct{}

func (noopCMSClient) FindDraftByTitle(ctx context.Context, title string) (string, bool, error) {
	return "", false, nil
}
