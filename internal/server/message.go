package server

import (
	"encoding/json"
	"time"

	"pokerroomd/internal/game"
)

// MessageType identifies a WebSocket message. Game events broadcast by
// the engine travel in the same envelope with the event name as type.
type MessageType string

const (
	// Client to server messages
	MessageTypeJoinRoom     MessageType = "join_room"
	MessageTypeLeaveRoom    MessageType = "leave_room"
	MessageTypePlayerAction MessageType = "player_action"
	MessageTypeListRooms    MessageType = "list_rooms"
	MessageTypeGetState     MessageType = "get_state"

	// Server to client messages
	MessageTypeRoomJoined MessageType = "room_joined"
	MessageTypeRoomLeft   MessageType = "room_left"
	MessageTypeRoomList   MessageType = "room_list"
	MessageTypeGameState  MessageType = "game_state"
	MessageTypeError      MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

// Message is the wire envelope for both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinRoomData struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type PlayerActionData struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomJoinedData struct {
	RoomID string        `json:"room_id"`
	State  game.Snapshot `json:"state"`
}

type RoomLeftData struct {
	RoomID string `json:"room_id"`
}

type RoomInfo struct {
	ID         string `json:"id"`
	Players    int    `json:"players"`
	MaxSeats   int    `json:"max_seats"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	State      string `json:"state"`
	HandNumber int64  `json:"hand_number"`
}

type RoomListData struct {
	Rooms []RoomInfo `json:"rooms"`
}
