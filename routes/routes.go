package routes

import (
	"github.com/Nati-Tsehaye/Web-Service/controllers"
	"github.com/Nati-Tsehaye/Web-Service/game"
	"github.com/Nati-Tsehaye/Web-Service/services"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, engine *game.Engine, hub *services.Hub) {
	api := r.Group("/api")

	// ----------------------
	// Room routes
	// ----------------------
	api.GET("/rooms", controllers.ListRooms(engine))             // Lobby view, ?stake= filter
	api.GET("/rooms/:id/game", controllers.GetGameState(engine)) // Game snapshot

	// Health check endpoint
	r.GET("/health", controllers.Health)

	// WebSocket endpoint
	r.GET("/ws", services.HandleWebSocket(hub, engine))
}
