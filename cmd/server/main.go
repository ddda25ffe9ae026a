package main

import (
	"context"
	"flag"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"debatehub/internal/api"
	"debatehub/internal/config"
	"debatehub/internal/index"
	"debatehub/internal/service"
	"debatehub/internal/store"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// store
	dbStore, err := store.NewPgStore(cfg.PgConn, cfg.RAG.EmbedDim)
	if err != nil {
		log.Fatal(err)
	}

	// model provider
	llm := service.NewLLMClient(cfg)

	// per-request index strategy
	var newIndex service.IndexFactory
	switch cfg.RAG.IndexBackend {
	case config.IndexPGVector:
		newIndex = func(context.Context) (index.Index, error) {
			return index.NewPGVector(dbStore.DB())
		}
	default:
		newIndex = func(context.Context) (index.Index, error) {
			return index.NewMemory(), nil
		}
	}

	rag := service.NewRAGService(dbStore, llm, llm, newIndex, cfg.RAG)

	// api
	app := fiber.New()
	api.RegisterRoutes(app, dbStore, rag)

	log.Printf("🚀 Server started at %s (index backend: %s)", cfg.ServerAddr, cfg.RAG.IndexBackend)
	log.Fatal(app.Listen(cfg.ServerAddr))
}
