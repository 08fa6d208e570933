package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sdamache/konveyor/internal/command"
	"github.com/sdamache/konveyor/internal/config"
	"github.com/sdamache/konveyor/internal/embedding"
	"github.com/sdamache/konveyor/internal/gateway"
	"github.com/sdamache/konveyor/internal/orchestrator"
	"github.com/sdamache/konveyor/internal/prompt"
	"github.com/sdamache/konveyor/internal/provider"
	"github.com/sdamache/konveyor/internal/rag"
	"github.com/sdamache/konveyor/internal/skill"
	"github.com/sdamache/konveyor/internal/store"
	"github.com/sdamache/konveyor/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Konveyor...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/konveyor.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// --- Completion providers ---
	providerRouter := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		extra := pc.Extra
		if extra == nil {
			extra = map[string]string{}
		}
		if pc.Deployment != "" {
			extra["deployment"] = pc.Deployment
		}
		if pc.APIVersion != "" {
			extra["api_version"] = pc.APIVersion
		}
		provCfg := provider.ProviderConfig{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey,
			Models: pc.Models, Extra: extra,
		}
		switch pc.Type {
		case "openai":
			providerRouter.Register(provider.NewOpenAIProvider(provCfg, logger))
		case "anthropic":
			providerRouter.Register(provider.NewAnthropicProvider(provCfg, logger))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}

	// --- Conversation store: tiered Postgres+Redis, or in-memory fallback ---
	conversationStore, err := store.New(context.Background(), store.Config{
		DurableConn: cfg.Database.Postgres.DSN,
		HotConn:     cfg.Database.Redis.URL,
	}, logger)
	if err != nil {
		logger.Fatal("conversation store init failed", zap.Error(err))
	}

	// --- Skills ---
	skillMgr := skill.NewManager()
	skill.RegisterBuiltins(skillMgr)
	if cfg.SkillsDir != "" {
		plugins, loadErr := skill.LoadFromDir(cfg.SkillsDir)
		if loadErr != nil {
			logger.Warn("failed to load plugin skills", zap.Error(loadErr))
		} else {
			for _, s := range plugins {
				skillMgr.Register(s)
			}
			logger.Info("loaded plugin skills", zap.Int("count", len(plugins)))
		}
	}

	// --- Embedding + Qdrant + retrieval ---
	var ragEngine *rag.Engine
	if cfg.Embedding.Endpoint != "" && cfg.Database.Qdrant.Host != "" {
		embCfg := embedding.Config{
			Provider: cfg.Embedding.Provider, Endpoint: cfg.Embedding.Endpoint,
			Model: cfg.Embedding.Model, APIKey: cfg.Embedding.APIKey,
			Dimension: cfg.Embedding.Dimension,
		}
		var embedder embedding.Provider
		switch cfg.Embedding.Provider {
		case "local":
			embedder = embedding.NewLocalProvider(embCfg)
		default:
			embedder = embedding.NewAPIProvider(embCfg)
		}

		qClient, qErr := vectorstore.NewClient(vectorstore.QdrantConfig{
			Host: cfg.Database.Qdrant.Host, Port: cfg.Database.Qdrant.Port,
		})
		if qErr != nil {
			logger.Warn("Qdrant unavailable, running without retrieval", zap.Error(qErr))
		} else {
			ragEngine = rag.NewEngine(embedder, qClient, cfg.Retrieval.MinScore, logger)
			if initErr := ragEngine.InitCollections(context.Background()); initErr != nil {
				logger.Warn("retrieval collection init failed", zap.Error(initErr))
			}
			logger.Info("retrieval engine initialized")
		}
	}

	promptMgr := prompt.NewManager()

	// --- Gateway ---
	gw := gateway.NewGateway(logger)

	// --- Commands ---
	cmdRegistry := command.NewRegistry()
	command.RegisterBuiltins(cmdRegistry,
		&orchestrator.StatusAdapter{Gateway: gw},
		&orchestrator.SkillListAdapter{Skills: skillMgr},
	)
	command.RegisterPreferenceCommands(cmdRegistry, &orchestrator.PreferenceAdapter{Store: conversationStore})
	command.RegisterProviderCommands(cmdRegistry, &orchestrator.ProviderSwitchAdapter{Router: providerRouter})
	if ragEngine != nil {
		command.RegisterSearchCommand(cmdRegistry, &orchestrator.RAGSearchAdapter{Engine: ragEngine})
	}

	// --- Orchestrator pipeline ---
	// A nil *rag.Engine must not reach the pipeline as a non-nil interface.
	var retriever orchestrator.Retriever
	if ragEngine != nil {
		retriever = ragEngine
	}
	pipeline := orchestrator.New(conversationStore, skillMgr, cmdRegistry, retriever, promptMgr, providerRouter, gw, logger)
	pipeline.Deadline = cfg.Server.Deadline()
	if cfg.Retrieval.TopK > 0 {
		pipeline.RetrievalTopK = cfg.Retrieval.TopK
	}

	// Wire message handler BEFORE registering adapters (Register captures it).
	gw.SetHandler(pipeline.Handle)

	restAdapter := gateway.NewRESTAdapter(logger)
	gw.Register(restAdapter)

	var slackAdapter *gateway.SlackAdapter
	if cfg.Gateway.Slack.Enabled && cfg.Gateway.Slack.BotToken != "" {
		slackAdapter = gateway.NewSlackAdapter(
			cfg.Gateway.Slack.BotToken, cfg.Gateway.Slack.AppToken, cfg.Gateway.Slack.SigningSecret,
			cfg.Gateway.Slack.AppID, cfg.Retrieval.DedupWindow(), logger,
		)
		gw.Register(slackAdapter)
	}

	if cfg.Gateway.Discord.Enabled && cfg.Gateway.Discord.BotToken != "" {
		discordAdapter := gateway.NewDiscordAdapter(cfg.Gateway.Discord.BotToken, cfg.Retrieval.DedupWindow(), logger)
		gw.Register(discordAdapter)
	}

	gwCtx := context.Background()
	if err := gw.ConnectAll(gwCtx); err != nil {
		logger.Warn("some gateway adapters failed to connect", zap.Error(err))
	}

	// --- HTTP server ---
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/gateway/rest", restAdapter.Routes())
	if slackAdapter != nil {
		r.Mount("/gateway/slack", slackAdapter.Routes())
	}

	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		logger.Info("Konveyor listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Konveyor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	conversationStore.Close()
	gw.Close()
}
