package session

import (
	"errors"

	"github.com/mesker/trick-services/internal/comm"
)

// Transport is the capability a session needs from its socket: send and
// close. *websocket.Conn satisfies it.
type Transport interface {
	WriteJSON(v interface{}) error
	Close() error
}

var ErrClosed = errors.New("session transport closed")

// Session is the thin handle binding one live socket to a seat. The match's
// Player record never holds the socket itself; the coordinator keeps a side
// map from player id to the current session.
type Session struct {
	ID         string // socket id
	PlayerID   string
	MatchID    string
	InviteCode string

	// Generation is stamped from the seat's reconnection counter when the
	// session is attached. A close event from a session whose generation is
	// behind the seat's current one is stale and must be ignored.
	Generation uint64

	conn Transport
}

func New(id string, conn Transport) *Session {
	return &Session{ID: id, conn: conn}
}

// Send writes one envelope. Callers treat failures as skip-and-continue;
// a dead recipient never blocks delivery to the rest.
func (s *Session) Send(env comm.Envelope) error {
	if s.conn == nil {
		return ErrClosed
	}
	return s.conn.WriteJSON(env)
}

func (s *Session) Close() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}
