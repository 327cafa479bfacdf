package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Nati-Tsehaye/Web-Service/game"
	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
	"github.com/gorilla/websocket"
)

// Client is one websocket connection bound to a player identity.
type Client struct {
	playerID   string
	playerName string
	externalID string

	conn   *websocket.Conn
	hub    *Hub
	engine *game.Engine
	send   chan []byte
	once   sync.Once

	mu     sync.Mutex
	roomID string // room the client currently subscribes to, "" when in lobby
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoomID(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

// enqueue hands a frame to the write pump. Slow clients drop frames instead
// of blocking the broadcaster; snapshots are full-state so a dropped frame is
// repaired by the next one.
func (c *Client) enqueue(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			// send channel closed under us during shutdown
			logger.Debugf("[Client %s] enqueue after close: %v", c.playerID, r)
		}
	}()
	select {
	case c.send <- payload:
	default:
		logger.Warnf("[Client %s] dropping frame, send buffer full", c.playerID)
	}
}

func (c *Client) sendEvent(event string, data interface{}) {
	if payload, ok := encodeEvent(event, data); ok {
		c.enqueue(payload)
	}
}

func (c *Client) readPump() {
	defer func() {
		if roomID := c.RoomID(); roomID != "" {
			// Connection dropped while seated: run the normal leave protocol
			// so the room resets and the session is cleared.
			if err := c.engine.Leave(context.Background(), roomID, c.playerID); err != nil &&
				!errors.Is(err, game.ErrPlayerNotFound) && !errors.Is(err, game.ErrRoomNotFound) {
				logger.Errorf("[Client %s] leave on disconnect: %v", c.playerID, err)
			}
		}
		c.hub.unregister(c)
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Infof("[Client %s] disconnected normally", c.playerID)
			} else {
				logger.Infof("[Client %s] read error: %v", c.playerID, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Infof("[Client %s] write error: %v", c.playerID, err)
			return
		}
	}
}

// handleMessage validates one inbound frame and dispatches it. Every
// rejected command yields exactly one *-failed event.
func (c *Client) handleMessage(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Client %s] recovered from panic: %v", c.playerID, r)
		}
	}()

	var cmd ClientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.sendEvent(game.EventGameActionFailed, Failure{Action: "unknown", Message: "invalid message"})
		return
	}

	ctx := context.Background()
	switch cmd.Action {
	case ActionJoinRoom:
		c.handleJoin(ctx, cmd)

	case ActionLeaveRoom:
		if err := c.engine.Leave(ctx, c.targetRoom(cmd), c.playerID); err != nil {
			c.sendEvent(game.EventLeaveFailed, failure(cmd.Action, err))
			return
		}
		c.setRoomID("")

	case ActionStartGame:
		if err := c.engine.StartGame(ctx, c.targetRoom(cmd)); err != nil {
			c.sendEvent(game.EventGameActionFailed, failure(cmd.Action, err))
		}

	case ActionClaimBingo:
		name := cmd.PlayerName
		if name == "" {
			name = c.playerName
		}
		if _, err := c.engine.ClaimBingo(ctx, c.targetRoom(cmd), c.playerID, name, cmd.Pattern); err != nil {
			c.sendEvent(game.EventGameActionFailed, failure(cmd.Action, err))
		}

	case ActionResetGame:
		if err := c.engine.ResetGame(ctx, c.targetRoom(cmd)); err != nil {
			c.sendEvent(game.EventGameActionFailed, failure(cmd.Action, err))
		}

	case ActionSelectBoard:
		name := cmd.PlayerName
		if name == "" {
			name = c.playerName
		}
		if _, err := c.engine.SelectBoard(ctx, c.targetRoom(cmd), c.playerID, name, cmd.BoardNumber); err != nil {
			c.sendEvent(game.EventBoardActionFailed, failure(cmd.Action, err))
		}

	case ActionDeselectBoard:
		if _, err := c.engine.DeselectBoard(ctx, c.targetRoom(cmd), c.playerID); err != nil {
			c.sendEvent(game.EventBoardActionFailed, failure(cmd.Action, err))
		}

	case ActionRefreshRooms:
		rooms, err := c.engine.Rooms(ctx)
		if err != nil {
			c.sendEvent(game.EventGameActionFailed, failure(cmd.Action, err))
			return
		}
		c.sendEvent(game.EventRoomsUpdate, rooms)

	default:
		c.sendEvent(game.EventGameActionFailed, Failure{Action: cmd.Action, Message: "unknown action"})
	}
}

func (c *Client) handleJoin(ctx context.Context, cmd ClientCommand) {
	player := models.Player{
		ID:         c.playerID,
		Name:       c.playerName,
		ExternalID: c.externalID,
	}
	if cmd.PlayerName != "" {
		player.Name = cmd.PlayerName
	}

	room, err := c.engine.Join(ctx, cmd.RoomID, player)
	if err != nil {
		c.sendEvent(game.EventJoinFailed, failure(cmd.Action, err))
		return
	}
	c.setRoomID(room.ID)
	c.sendEvent(game.EventRoomJoined, room)

	// Complete the joiner's view with the current game and selection
	// snapshots; room-scoped broadcasts only started after admission.
	if state, err := c.engine.GameState(ctx, room.ID); err == nil {
		c.sendEvent(game.EventGameStateUpdate, state)
	}
	if selections, err := c.engine.BoardSelections(ctx, room.ID); err == nil {
		c.sendEvent(game.EventBoardSelectionsUpdate, selections)
	}
}

// targetRoom resolves the room a command addresses, falling back to the
// client's current subscription.
func (c *Client) targetRoom(cmd ClientCommand) string {
	if cmd.RoomID != "" {
		return cmd.RoomID
	}
	return c.RoomID()
}

// failure maps an error to the structured rejection payload. Expected
// outcomes carry their message; anything else is surfaced generically and
// logged by the engine.
func failure(action string, err error) Failure {
	for _, known := range []error{
		game.ErrRoomNotFound,
		game.ErrRoomFull,
		game.ErrRoomNotJoinable,
		game.ErrPlayerNotFound,
		game.ErrBoardTaken,
		game.ErrGameNotActive,
		game.ErrNotEnoughPlayers,
	} {
		if errors.Is(err, known) {
			return Failure{Action: action, Message: known.Error()}
		}
	}
	logger.Errorf("[%s] unexpected failure: %v", action, err)
	return Failure{Action: action, Message: "internal error"}
}
