package broker

import (
	"encoding/json"

	"github.com/mesker/trick-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const subjectPrefix = "trick.match."

// Broker mirrors match-lifecycle envelopes onto NATS subjects for external
// consumers. It is strictly an event tap: every publish is fire-and-forget
// and a nil broker is a no-op, so game correctness never depends on it.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

type matchEvent struct {
	MatchID  string        `json:"matchId"`
	Envelope comm.Envelope `json:"envelope"`
}

// PublishMatchEvent mirrors one envelope under trick.match.<type>.
func (b *Broker) PublishMatchEvent(matchID string, env comm.Envelope) {
	if b == nil || b.Conn == nil {
		return
	}

	bytes, err := json.Marshal(matchEvent{MatchID: matchID, Envelope: env})
	if err != nil {
		log.Errorf("failed to marshal match event for NATS: %v", err)
		return
	}

	subject := subjectPrefix + string(env.Type)
	if err := b.Conn.Publish(subject, bytes); err != nil {
		log.Warnf("failed to publish match event to %s: %v", subject, err)
	}
}
