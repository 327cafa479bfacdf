package services

import (
	"context"
	"net/http"

	"github.com/Nati-Tsehaye/Web-Service/game"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and binds it to a player identity.
// Identity comes from query params: playerId (generated when absent), name,
// and an optional externalId linking a persistent account.
func HandleWebSocket(hub *Hub, engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.Query("playerId")
		if playerID == "" {
			playerID = uuid.NewString()
		}
		playerName := c.Query("name")
		if playerName == "" {
			suffix := playerID
			if len(suffix) > 8 {
				suffix = suffix[:8]
			}
			playerName = "Player-" + suffix
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("[WS] upgrade error: %v", err)
			return
		}

		client := &Client{
			playerID:   playerID,
			playerName: playerName,
			externalID: c.Query("externalId"),
			conn:       conn,
			hub:        hub,
			engine:     engine,
			send:       make(chan []byte, 32),
		}
		hub.register(client)

		go client.writePump()
		go client.readPump()

		// Initial lobby snapshot so a fresh client renders immediately.
		if rooms, err := engine.Rooms(context.Background()); err == nil {
			client.sendEvent(game.EventRoomsUpdate, rooms)
		}
		logger.Infof("[WS] new client playerID=%s name=%s", playerID, playerName)
	}
}
