package comm

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(TypeCardPlayed, map[string]string{"cardId": "S7"}, nil)

	if env.Type != TypeCardPlayed {
		t.Errorf("type = %s, want %s", env.Type, TypeCardPlayed)
	}
	if _, err := time.Parse(time.RFC3339Nano, env.Timestamp); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", env.Timestamp, err)
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	// No metadata means no metadata key on the wire.
	if strings.Contains(string(data), "metadata") {
		t.Errorf("nil metadata serialized: %s", data)
	}
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata(PriorityCritical, true)
	if !strings.HasPrefix(m.MessageID, "msg_") {
		t.Errorf("message id %q missing prefix", m.MessageID)
	}
	if m.Priority != PriorityCritical || !m.RequiresAck {
		t.Errorf("metadata = %+v", m)
	}
}

func TestNewErrorRecoveryHints(t *testing.T) {
	env := NewError(CodeNotYourTurn, "It is not your turn to play", nil)
	p, ok := env.Payload.(ErrorPayload)
	if !ok {
		t.Fatalf("payload is %T, want ErrorPayload", env.Payload)
	}
	if p.Recovery == nil || p.Recovery.Action != "wait_for_turn" {
		t.Errorf("recovery = %+v, want wait_for_turn", p.Recovery)
	}

	env = NewError(CodeUnknownMessageType, "Unknown message type", nil)
	p = env.Payload.(ErrorPayload)
	if p.Recovery != nil {
		t.Errorf("unexpected recovery hint for code without one: %+v", p.Recovery)
	}
}
