package coordinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mesker/trick-services/internal/comm"
	"github.com/mesker/trick-services/internal/matchsvc/game"
	"github.com/mesker/trick-services/internal/matchsvc/notify"
	"github.com/mesker/trick-services/internal/matchsvc/session"
)

var (
	ErrTeamSize = errors.New("team size must be between 1 and 3")
	ErrStopped  = errors.New("coordinator is stopped")
)

var nameAdjectives = []string{"Happy", "Clever", "Brave", "Swift", "Wise", "Calm", "Eager", "Gentle", "Kind", "Lively"}
var nameNouns = []string{"Tiger", "Eagle", "Dolphin", "Wolf", "Lion", "Hawk", "Fox", "Bear", "Shark", "Falcon"}

func (c *Coordinator) generateAnonymousID() string {
	return "anon_" + uuid.New().String()[:8]
}

func (c *Coordinator) generateRandomName() string {
	adj := nameAdjectives[c.rng.Intn(len(nameAdjectives))]
	noun := nameNouns[c.rng.Intn(len(nameNouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, c.rng.Intn(1000))
}

func (c *Coordinator) sendError(sess *session.Session, code, message string, details interface{}) {
	if err := sess.Send(comm.NewError(code, message, details)); err != nil {
		log.Warnf("failed to deliver %s error on socket %s: %v", code, sess.ID, err)
	}
}

// Connect resolves an inbound socket to a seat: a fresh join or a reconnect.
func (c *Coordinator) Connect(sess *session.Session, inviteCode, providedID, providedName string) {
	c.dispatch(func() {
		entry, ok := c.inviteCodes[inviteCode]
		if !ok {
			c.sendError(sess, comm.CodeInvalidInvite, "Invalid or expired invite code", nil)
			sess.Close()
			return
		}

		m, ok := c.matches[entry.MatchID]
		if !ok {
			// Stale entry, most likely loaded from disk after a restart.
			delete(c.inviteCodes, inviteCode)
			c.sendError(sess, comm.CodeInvalidInvite, "Match no longer exists", nil)
			sess.Close()
			return
		}

		sess.MatchID = m.ID
		sess.InviteCode = inviteCode

		if providedID != "" {
			if existing, ok := m.Players[providedID]; ok {
				c.reconnectSeat(sess, m, existing)
				return
			}
		}

		c.joinSeat(sess, m, entry.TeamID, providedID, providedName)
	})
}

func (c *Coordinator) joinSeat(sess *session.Session, m *game.Match, teamID game.TeamID, providedID, providedName string) {
	if m.Status != game.StatusWaiting {
		c.sendError(sess, comm.CodeMatchNotJoinable, "Match is not accepting new players", nil)
		sess.Close()
		return
	}
	if len(m.TeamPlayers(teamID)) >= m.TeamSize {
		c.sendError(sess, comm.CodeTeamFull, "This team is full", nil)
		sess.Close()
		return
	}

	playerID := providedID
	if playerID == "" {
		playerID = c.generateAnonymousID()
	}
	playerName := providedName
	if playerName == "" {
		playerName = c.generateRandomName()
	}

	// Last join wins: a provided identity already seated elsewhere is
	// forcibly removed from its old match before the new join proceeds.
	if providedID != "" {
		if otherMatchID, active := c.activePlayers[providedID]; active && otherMatchID != m.ID {
			log.Infof("player %s active in match %s, evicting to join match %s", providedID, otherMatchID, m.ID)
			c.evictSeat(providedID, otherMatchID, "joined_another_match")
		}
	}

	p := &game.Player{
		ID:        playerID,
		Name:      playerName,
		TeamID:    teamID,
		Connected: true,
		Anonymous: providedID == "",
	}
	m.AddPlayer(p)
	c.attachSession(sess, m, p)

	log.Infof("player %s (%s) joined match %s on %s", playerName, playerID, m.ID, teamID)

	c.broadcaster.ToPlayer(m, p.ID, notify.ConnectionEstablished{
		Match:         m,
		Player:        p,
		GeneratedID:   providedID == "",
		GeneratedName: providedName == "",
	})
	c.broadcaster.ToMatch(m, notify.PlayerJoined{Match: m, Player: p})

	if m.Full() {
		c.startMatch(m)
	}
}

// attachSession binds a socket to a seat, stamping a fresh generation so the
// close event of any earlier socket for this seat is recognizably stale.
func (c *Coordinator) attachSession(sess *session.Session, m *game.Match, p *game.Player) {
	c.reconnects[p.ID]++
	gen := c.reconnects[p.ID]

	sess.PlayerID = p.ID
	sess.Generation = gen
	p.Generation = gen
	p.Connected = true

	c.sessions[p.ID] = sess
	c.activePlayers[p.ID] = m.ID
}

func (c *Coordinator) reconnectSeat(sess *session.Session, m *game.Match, p *game.Player) {
	c.cancelTimer(timerKey{matchID: m.ID, playerID: p.ID, purpose: purposeDisconnectGrace})

	// Invalidate any previous socket: its close handler compares
	// generations and becomes a no-op.
	if old := c.sessions[p.ID]; old != nil && old != sess {
		old.Close()
	}

	c.attachSession(sess, m, p)

	log.Infof("player %s (%s) reconnected to match %s (generation %d)", p.Name, p.ID, m.ID, p.Generation)

	c.broadcaster.ToPlayer(m, p.ID, notify.ReconnectionSuccessful{Match: m, Player: p})
	c.broadcaster.ToMatch(m, notify.PlayerReconnected{Match: m, Player: p}, p.ID)

	if m.Status == game.StatusPaused && m.AllConnected() {
		m.Status = game.StatusActive
		c.broadcaster.ToMatch(m, notify.MatchResumed{Match: m, ResumedBy: p})
		// A trick that filled before the pause lost its reveal timer when
		// the fire bailed on the paused status; re-arm it or the trick
		// never resolves.
		if m.TrickComplete() {
			matchID := m.ID
			c.schedule(timerKey{matchID: matchID, purpose: purposeRoundReveal}, c.cfg.RevealDelay, func() {
				c.completeRound(matchID)
			})
		} else {
			c.notifyTurnChange(m)
		}
	}
}

// evictSeat force-removes an identity from a match, cascading cleanup or a
// left-notification to the remaining seats.
func (c *Coordinator) evictSeat(playerID, matchID, reason string) {
	m, ok := c.matches[matchID]
	if !ok {
		return
	}
	p, ok := m.Players[playerID]
	if !ok {
		return
	}

	if sess := c.sessions[playerID]; sess != nil {
		sess.Close()
		delete(c.sessions, playerID)
	}
	c.cancelPlayerTimers(matchID, playerID)
	delete(c.reconnects, playerID)
	delete(c.activePlayers, playerID)
	m.RemovePlayer(playerID)

	if len(m.Players) == 0 {
		c.removeMatch(m)
		return
	}
	c.broadcaster.ToMatch(m, notify.PlayerLeft{Match: m, Player: p, Reason: reason})
}

// HandleClose is dispatched when a socket's read loop ends.
func (c *Coordinator) HandleClose(sess *session.Session) {
	c.dispatch(func() {
		if sess.PlayerID == "" {
			return
		}
		m, ok := c.matches[sess.MatchID]
		if !ok {
			return
		}
		p, ok := m.Players[sess.PlayerID]
		if !ok {
			return
		}

		// Stale close from a socket that was already replaced.
		if sess.Generation != p.Generation {
			log.Debugf("ignoring stale close for player %s (generation %d, current %d)",
				p.ID, sess.Generation, p.Generation)
			return
		}

		// Seat state flips immediately so turn and connectivity checks are
		// accurate; peers only learn about it after the grace window.
		p.Connected = false
		delete(c.sessions, p.ID)
		delete(c.activePlayers, p.ID)

		if m.Status.Terminal() {
			return
		}

		inviteCode := sess.InviteCode
		log.Infof("player %s (%s) disconnected from match %s, holding publication for %s",
			p.Name, p.ID, m.ID, c.cfg.GraceWindow)

		c.schedule(timerKey{matchID: m.ID, playerID: p.ID, purpose: purposeDisconnectGrace},
			c.cfg.GraceWindow, func() {
				c.publishDisconnect(m.ID, p.ID, inviteCode)
			})
	})
}

// publishDisconnect runs after the grace window. State may have moved on, so
// everything is re-validated.
func (c *Coordinator) publishDisconnect(matchID, playerID, inviteCode string) {
	m, ok := c.matches[matchID]
	if !ok {
		return
	}
	p, ok := m.Players[playerID]
	if !ok {
		return
	}
	if p.Connected {
		// Reconnected inside the window; the cancelled timer usually
		// prevents this path, this is the re-validation backstop.
		return
	}

	if m.Status == game.StatusActive {
		m.Status = game.StatusPaused
		c.broadcaster.ToMatch(m, notify.MatchPaused{Match: m, PausedBy: p})
	}

	c.broadcaster.ToMatch(m, notify.PlayerDisconnected{
		Match:  m,
		Player: p,
		Reconnect: notify.ReconnectInfo{
			InviteCode: inviteCode,
			PlayerID:   p.ID,
			ExpiresAt:  time.Now().Add(c.cfg.ReconnectWindow).UTC().Format(time.RFC3339Nano),
		},
	}, p.ID)

	log.Infof("published disconnection of player %s (%s) after grace window", p.Name, p.ID)
}
