package comm

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// MessageType identifies every envelope that crosses a match socket.
type MessageType string

const (
	// connection management
	TypeConnectionEstablished  MessageType = "connection_established"
	TypeReconnectionSuccessful MessageType = "reconnection_successful"

	// player management
	TypePlayerJoined       MessageType = "player_joined"
	TypePlayerLeft         MessageType = "player_left"
	TypePlayerDisconnected MessageType = "player_disconnected"
	TypePlayerReconnected  MessageType = "player_reconnected"
	TypePlayerExited       MessageType = "player_exited"

	// match lifecycle
	TypeMatchCreated   MessageType = "match_created"
	TypeMatchStarted   MessageType = "match_started"
	TypeMatchPaused    MessageType = "match_paused"
	TypeMatchResumed   MessageType = "match_resumed"
	TypeMatchEnded     MessageType = "match_ended"
	TypeMatchCancelled MessageType = "match_cancelled"

	// game state
	TypeGameStateUpdate MessageType = "game_state_update"
	TypeTurnChanged     MessageType = "turn_changed"

	// gameplay
	TypeCardPlayed     MessageType = "card_played"
	TypeRoundCompleted MessageType = "round_completed"

	// client requests
	TypePlayCardRequest MessageType = "play_card_request"
	TypeGetStateRequest MessageType = "get_state_request"
	TypeExitGameRequest MessageType = "exit_game_request"

	// system
	TypeError     MessageType = "error"
	TypeSuccess   MessageType = "success"
	TypeHeartbeat MessageType = "heartbeat"
)

// Priority levels carried in envelope metadata.
const (
	PriorityLow      = "low"
	PriorityNormal   = "normal"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Request is the inbound shape read off a match socket.
type Request struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type PlayCardRequest struct {
	CardID string `json:"cardId"`
}

type GetStateRequest struct {
	IncludeHistory bool   `json:"includeHistory,omitempty"`
	Since          string `json:"since,omitempty"`
}

type ExitGameRequest struct {
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// Metadata rides alongside payloads that need delivery semantics.
type Metadata struct {
	MessageID   string `json:"messageId"`
	Priority    string `json:"priority"`
	RequiresAck bool   `json:"requiresAck"`
}

// Envelope is the single outbound shape for every event.
type Envelope struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	Payload   interface{} `json:"payload"`
	Metadata  *Metadata   `json:"metadata,omitempty"`
}

func NewEnvelope(t MessageType, payload interface{}, meta *Metadata) Envelope {
	return Envelope{
		Type:      t,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
		Metadata:  meta,
	}
}

func NewMetadata(priority string, requiresAck bool) *Metadata {
	return &Metadata{
		MessageID:   fmt.Sprintf("msg_%d_%06d", time.Now().UnixMilli(), rand.Intn(1000000)),
		Priority:    priority,
		RequiresAck: requiresAck,
	}
}

// Client-facing error codes.
const (
	CodeInvalidMessage     = "INVALID_MESSAGE"
	CodeInvalidInvite      = "INVALID_INVITE"
	CodeInvalidState       = "INVALID_STATE"
	CodeMatchNotFound      = "MATCH_NOT_FOUND"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeMatchNotActive     = "MATCH_NOT_ACTIVE"
	CodeMatchNotJoinable   = "MATCH_NOT_JOINABLE"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodeInvalidCard        = "INVALID_CARD"
	CodeTeamFull           = "TEAM_FULL"
	CodeUnknownMessageType = "UNKNOWN_MESSAGE_TYPE"
)

// Recovery tells a client what to do after a given error code.
type Recovery struct {
	Action      string `json:"action"`
	Description string `json:"description"`
}

type ErrorPayload struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Recovery *Recovery   `json:"recovery,omitempty"`
}

var recoveryHints = map[string]Recovery{
	CodeInvalidCard: {
		Action:      "resync_state",
		Description: "Your game state is out of sync. Request a full state update.",
	},
	CodeNotYourTurn: {
		Action:      "wait_for_turn",
		Description: "It is not your turn to play. Wait for the turn_changed event.",
	},
	CodeMatchNotFound: {
		Action:      "reconnect",
		Description: "The match was not found on the server. Reconnect with your invite code.",
	},
	CodePlayerNotFound: {
		Action:      "reconnect",
		Description: "Your player id was not found in the match. Reconnect with your invite code.",
	},
	CodeMatchNotActive: {
		Action:      "wait_for_state_change",
		Description: "The match is not currently active. Wait for match_started or match_resumed.",
	},
	CodeInvalidState: {
		Action:      "reconnect",
		Description: "Your connection is in an invalid state. Reconnect with your invite code.",
	},
	CodeInvalidInvite: {
		Action:      "reconnect",
		Description: "The invite code is invalid or expired. Request a fresh one from the match creator.",
	},
}

// NewError builds the typed error envelope, attaching a recovery hint when
// one is known for the code.
func NewError(code, message string, details interface{}) Envelope {
	p := ErrorPayload{Code: code, Message: message, Details: details}
	if hint, ok := recoveryHints[code]; ok {
		h := hint
		p.Recovery = &h
	}
	return NewEnvelope(TypeError, p, NewMetadata(PriorityHigh, false))
}
