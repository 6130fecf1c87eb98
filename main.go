package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"go.uber.org/zap"

	"github.com/serisow/knowbase/config"
	"github.com/serisow/knowbase/knowledge"
	"github.com/serisow/knowbase/logging"
	"github.com/serisow/knowbase/server"
	"github.com/serisow/knowbase/services/chat_service"
	"github.com/serisow/knowbase/services/extract_service"
	"github.com/serisow/knowbase/services/llm_service"
	"github.com/serisow/knowbase/services/upload_service"
	"github.com/serisow/knowbase/store"
)

func main() {
	cfg := config.Load()

	logger, err := initLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if !settings.Configured() {
		logger.Warn("Service starts unconfigured; set credentials via the settings endpoint")
	}

	state := knowledge.NewAppState()
	state.Subscribe(func() {
		logger.Debug("Application state changed")
	})

	llmService, llmConfig := buildLLMService(cfg, settings)

	docStore := store.NewPgDocumentStore(settings.DatabaseURL, logger)
	extractor := extract_service.NewDocumentExtractor(logger)

	processor := upload_service.NewProcessor(state, settings, extractor, llmService, llmConfig, docStore, logger)
	chat := chat_service.New(state, settings, docStore, llmService, llmConfig, cfg.ContextLimit, logger)

	r := server.SetupRoutes(state, settings, processor, chat, logger)
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, cfg)
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 3 * time.Minute,
		}
		server.ServeDevelopment(srv)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}

func buildLLMService(cfg config.Config, settings *config.Settings) (llm_service.LLMService, func() map[string]interface{}) {
	zapLogger, _ := zap.NewProduction()

	var svc llm_service.LLMService
	apiURL := cfg.LLMAPIURL

	switch cfg.LLMProvider {
	case "anthropic":
		if apiURL == "" {
			apiURL = "https://api.anthropic.com/v1/messages"
		}
		svc = llm_service.NewAnthropicService(zapLogger)
	default:
		if apiURL == "" {
			apiURL = "https://api.openai.com/v1/chat/completions"
		}
		svc = llm_service.NewOpenAIService(zapLogger)
	}

	// The API key is read on every call so credentials entered at runtime
	// take effect without a restart.
	llmConfig := func() map[string]interface{} {
		return map[string]interface{}{
			"api_url":    apiURL,
			"api_key":    settings.APIKey(),
			"model_name": cfg.LLMModel,
		}
	}
	return svc, llmConfig
}

func initLogger(logDir string) (*slog.Logger, error) {
	fileHandler, err := logging.NewDailyFileHandler(logDir, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	return slog.New(fileHandler), nil
}
