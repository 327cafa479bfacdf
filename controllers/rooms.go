package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/game"
	"github.com/gin-gonic/gin"
)

// ListRooms returns the lobby view, optionally filtered by stake.
func ListRooms(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stakeParam := c.Query("stake"); stakeParam != "" {
			stake, err := strconv.Atoi(stakeParam)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stake"})
				return
			}
			rooms, err := engine.RoomsByStake(c.Request.Context(), stake)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
				return
			}
			c.JSON(http.StatusOK, rooms)
			return
		}

		rooms, err := engine.Rooms(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
			return
		}
		c.JSON(http.StatusOK, rooms)
	}
}

// GetGameState returns one room's game snapshot.
func GetGameState(engine *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := engine.GameState(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, game.ErrRoomNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load game state"})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// Health is the liveness endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
}
