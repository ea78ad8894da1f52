package notify

import (
	"github.com/mesker/trick-services/internal/comm"
	"github.com/mesker/trick-services/internal/matchsvc/game"
	log "github.com/sirupsen/logrus"
)

// Sender is the delivery capability the broadcaster needs per recipient.
type Sender interface {
	Send(env comm.Envelope) error
}

// SessionResolver looks up the live session for a seat, if any.
type SessionResolver interface {
	SessionFor(playerID string) (Sender, bool)
}

// Broadcaster fans events out to the seats of a match, rendering the payload
// per recipient. Delivery is fire-and-forget: a failed or disconnected
// recipient is skipped, never blocking the rest.
type Broadcaster struct {
	resolver SessionResolver
}

func NewBroadcaster(resolver SessionResolver) *Broadcaster {
	return &Broadcaster{resolver: resolver}
}

// ToMatch delivers the event to every connected seat except the excluded ids.
func (b *Broadcaster) ToMatch(m *game.Match, ev Event, exclude ...string) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	for _, p := range m.PlayersInOrder() {
		if !p.Connected || skip[p.ID] {
			continue
		}
		b.ToPlayer(m, p.ID, ev)
	}
}

// ToPlayer delivers the event to one seat; failures are logged and dropped.
func (b *Broadcaster) ToPlayer(m *game.Match, playerID string, ev Event) {
	sender, ok := b.resolver.SessionFor(playerID)
	if !ok {
		return
	}
	if err := sender.Send(Render(ev, playerID)); err != nil {
		log.Warnf("failed to deliver %s to player %s in match %s: %v", ev.Type(), playerID, m.ID, err)
	}
}
