package main

import (
	"context"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/config"
	"github.com/Nati-Tsehaye/Web-Service/game"
	"github.com/Nati-Tsehaye/Web-Service/routes"
	"github.com/Nati-Tsehaye/Web-Service/services"
	"github.com/Nati-Tsehaye/Web-Service/store"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// newStore picks the state backend: Postgres when DATABASE_URL is set,
// in-memory otherwise.
func newStore(cfg *config.Config) store.Store {
	if cfg.DatabaseURL == "" {
		logger.Infof("no DATABASE_URL set, using in-memory store")
		return store.NewMemoryStore()
	}
	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("database setup failed: %v", err)
	}
	logger.Infof("connected to Postgres store")
	return st
}

func setupRouter(cfg *config.Config, engine *game.Engine, hub *services.Hub) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, engine, hub)
	return r
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	st := newStore(cfg)
	hub := services.NewHub()
	engine := game.NewEngine(st, cfg, hub)

	if err := engine.EnsureDefaultRooms(ctx); err != nil {
		logger.Log.Fatalf("ensure default rooms: %v", err)
	}
	// Rooms the store reports mid-game lost their timers with the previous
	// process; reset them instead of letting them stall.
	if err := engine.Reconcile(ctx); err != nil {
		logger.Log.Fatalf("reconcile rooms: %v", err)
	}

	go engine.RunGhostCleanup(ctx)

	router := setupRouter(cfg, engine, hub)

	logger.Infof("bingo server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatalf("failed to start server: %v", err)
	}
}
