package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"pokerroomd/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client. A connection may be bound to
// a user and room by join_room; the binding survives until the socket
// drops or the client leaves.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	userID    string
	roomID    string
	logger    *log.Logger
	server    *Server
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewConnection creates a connection wrapper around an upgraded socket.
func NewConnection(conn *websocket.Conn, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		server: server,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send queues a message for delivery. A client that cannot drain its
// buffer is closed rather than allowed to stall the room.
func (c *Connection) Send(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("Send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "user", c.UserID())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetIdentity binds this connection to a user and room.
func (c *Connection) SetIdentity(userID, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.roomID = roomID
}

// UserID returns the bound user, or "" before join_room.
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// RoomID returns the bound room, or "" before join_room.
func (c *Connection) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches one client message.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "user", c.UserID())

	switch msg.Type {
	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		c.handleLeaveRoom()

	case MessageTypePlayerAction:
		var data PlayerActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse player action data")
			return
		}
		c.handlePlayerAction(data)

	case MessageTypeListRooms:
		c.handleListRooms()

	case MessageTypeGetState:
		c.handleGetState()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends a protocol-level error message to the client.
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.Send(errorMsg)
}

// sendGameError sends a game_error event for mistakes caught before
// the engine sees the action, in the same shape the engine emits.
func (c *Connection) sendGameError(err error) {
	payload := game.GameErrorPayload{Message: err.Error(), Kind: game.KindOf(err)}
	msg, merr := NewMessage(MessageType(game.EventGameError), payload)
	if merr != nil {
		c.logger.Error("Failed to create game error message", "error", merr)
		return
	}
	_ = c.Send(msg)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	c.logger.Info("Join room request", "room", data.RoomID, "user", data.UserID)

	if data.RoomID == "" || data.UserID == "" {
		c.sendError("invalid_message", "room_id and user_id are required")
		return
	}
	username := data.Username
	if username == "" {
		username = data.UserID
	}

	room := c.server.Rooms().Get(data.RoomID)
	if room == nil {
		c.sendError("room_not_found", "No such room: "+data.RoomID)
		return
	}

	err := room.Engine.Seat(c.ctx, data.UserID, username)
	if err != nil && !errors.Is(err, game.ErrAlreadySeated) {
		c.sendError("join_failed", err.Error())
		return
	}

	c.SetIdentity(data.UserID, data.RoomID)

	snap, err := room.Engine.Snapshot(c.ctx, data.UserID)
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}
	c.server.observeSeated(data.RoomID, len(snap.Players))

	response, _ := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		RoomID: data.RoomID,
		State:  snap,
	})
	_ = c.Send(response)
}

func (c *Connection) handleLeaveRoom() {
	roomID := c.RoomID()
	userID := c.UserID()
	c.logger.Info("Leave room request", "room", roomID, "user", userID)

	if roomID == "" {
		c.sendError("not_in_room", "Join a room first")
		return
	}

	room := c.server.Rooms().Get(roomID)
	if room == nil {
		c.sendError("room_not_found", "No such room: "+roomID)
		return
	}

	if err := room.Engine.Leave(c.ctx, userID); err != nil {
		c.sendError("leave_failed", err.Error())
		return
	}

	c.SetIdentity("", "")

	if snap, err := room.Engine.Snapshot(c.ctx, ""); err == nil {
		c.server.observeSeated(roomID, len(snap.Players))
	}

	response, _ := NewMessage(MessageTypeRoomLeft, RoomLeftData{RoomID: roomID})
	_ = c.Send(response)
}

func (c *Connection) handlePlayerAction(data PlayerActionData) {
	roomID := c.RoomID()
	userID := c.UserID()
	c.logger.Debug("Player action", "room", roomID, "user", userID, "action", data.Action, "amount", data.Amount)

	if roomID == "" {
		c.sendError("not_in_room", "Join a room first")
		return
	}

	room := c.server.Rooms().Get(roomID)
	if room == nil {
		c.sendError("room_not_found", "No such room: "+roomID)
		return
	}

	actionType, err := game.ParseActionType(data.Action)
	if err != nil {
		c.sendGameError(err)
		return
	}

	// Rejections reach the client as a private game_error emitted by
	// the engine itself.
	if err := room.Engine.SubmitAction(c.ctx, userID, game.Action{Type: actionType, Amount: data.Amount}); err != nil {
		c.logger.Debug("Action rejected", "user", userID, "error", err)
	}
}

func (c *Connection) handleListRooms() {
	c.logger.Debug("List rooms request", "user", c.UserID())

	rooms := c.server.Rooms().List(c.ctx)
	response, _ := NewMessage(MessageTypeRoomList, RoomListData{Rooms: rooms})
	_ = c.Send(response)
}

func (c *Connection) handleGetState() {
	roomID := c.RoomID()
	if roomID == "" {
		c.sendError("not_in_room", "Join a room first")
		return
	}

	room := c.server.Rooms().Get(roomID)
	if room == nil {
		c.sendError("room_not_found", "No such room: "+roomID)
		return
	}

	snap, err := room.Engine.Snapshot(c.ctx, c.UserID())
	if err != nil {
		c.sendError("state_failed", err.Error())
		return
	}

	response, _ := NewMessage(MessageTypeGameState, snap)
	_ = c.Send(response)
}
