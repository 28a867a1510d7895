package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/sqlassist/internal/api"
	"github.com/wuwenbin0122/sqlassist/internal/chat"
	"github.com/wuwenbin0122/sqlassist/internal/db"
	"github.com/wuwenbin0122/sqlassist/internal/llm"
	"github.com/wuwenbin0122/sqlassist/internal/session"
	"github.com/wuwenbin0122/sqlassist/internal/sqlgen"
	"github.com/wuwenbin0122/sqlassist/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: failed to build: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		sugar.Fatalf("database: failed to connect: %v", err)
	}
	defer database.Close()

	llmClient, err := llm.New(cfg.LLM, sugar.Named("llm"))
	if err != nil {
		sugar.Fatalf("llm: failed to initialise: %v", err)
	}

	signer, err := session.NewSigner(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		sugar.Fatalf("session: failed to initialise: %v", err)
	}

	generator := sqlgen.NewGenerator(database, llmClient, sugar.Named("sqlgen"))
	assistant := chat.NewAssistant(generator, database, chat.NewStore(cfg.Session.TTL), sugar.Named("chat"))
	router := setupRouter(logger, api.NewHandler(assistant, signer, database, cfg.AppTitle, sugar.Named("api")))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      corsHandler(cfg.AllowedOrigins, router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + cfg.Database.QueryTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("server listening", "addr", server.Addr, "driver", cfg.Database.Driver, "model", llmClient.ModelName())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("server crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Warnf("graceful shutdown failed: %v", err)
	}

	sugar.Info("server stopped cleanly")
}

func setupRouter(logger *zap.Logger, handler *api.Handler) *gin.Engine {
	router := gin.New()
	router.Use(utils.RequestLogger(logger.Named("http")), gin.Recovery())
	handler.RegisterRoutes(router)
	return router
}

func corsHandler(origins []string, next http.Handler) http.Handler {
	for _, origin := range origins {
		if origin == "*" {
			return cors.AllowAll().Handler(next)
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(next)
}
