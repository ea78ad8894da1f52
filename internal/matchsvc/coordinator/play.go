package coordinator

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mesker/trick-services/internal/comm"
	"github.com/mesker/trick-services/internal/matchsvc/game"
	"github.com/mesker/trick-services/internal/matchsvc/notify"
	"github.com/mesker/trick-services/internal/matchsvc/session"
)

// HandleMessage routes one inbound socket frame onto the loop.
func (c *Coordinator) HandleMessage(sess *session.Session, raw []byte) {
	c.dispatch(func() {
		var req comm.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			c.sendError(sess, comm.CodeInvalidMessage, "Invalid message format", nil)
			return
		}

		switch req.Type {
		case comm.TypePlayCardRequest:
			var payload comm.PlayCardRequest
			if err := json.Unmarshal(req.Payload, &payload); err != nil {
				c.sendError(sess, comm.CodeInvalidMessage, "Malformed play_card_request payload", nil)
				return
			}
			c.playCard(sess, payload)
		case comm.TypeGetStateRequest:
			var payload comm.GetStateRequest
			if len(req.Payload) > 0 {
				if err := json.Unmarshal(req.Payload, &payload); err != nil {
					c.sendError(sess, comm.CodeInvalidMessage, "Malformed get_state_request payload", nil)
					return
				}
			}
			c.getState(sess, payload)
		case comm.TypeExitGameRequest:
			var payload comm.ExitGameRequest
			if len(req.Payload) > 0 {
				if err := json.Unmarshal(req.Payload, &payload); err != nil {
					c.sendError(sess, comm.CodeInvalidMessage, "Malformed exit_game_request payload", nil)
					return
				}
			}
			c.exitGame(sess, payload)
		case comm.TypeHeartbeat:
			// Application-level keepalive, echoed straight back.
			if err := sess.Send(comm.NewEnvelope(comm.TypeHeartbeat, map[string]string{"status": "alive"}, nil)); err != nil {
				log.Debugf("heartbeat echo failed on socket %s: %v", sess.ID, err)
			}
		default:
			c.sendError(sess, comm.CodeUnknownMessageType, "Unknown message type", nil)
		}
	})
}

// resolveSeat walks the validation ladder every request shares.
func (c *Coordinator) resolveSeat(sess *session.Session) (*game.Match, *game.Player, bool) {
	if sess.PlayerID == "" || sess.MatchID == "" {
		c.sendError(sess, comm.CodeInvalidState, "Invalid connection state", nil)
		return nil, nil, false
	}
	m, ok := c.matches[sess.MatchID]
	if !ok {
		c.sendError(sess, comm.CodeMatchNotFound, "Match not found", nil)
		return nil, nil, false
	}
	p, ok := m.Players[sess.PlayerID]
	if !ok {
		c.sendError(sess, comm.CodePlayerNotFound, "Player not in match", nil)
		return nil, nil, false
	}
	return m, p, true
}

func (c *Coordinator) startMatch(m *game.Match) {
	m.PlayOrder = game.BuildPlayOrder(m, c.rng)
	m.TurnIndex = 0
	m.CurrentPlayerID = m.PlayOrder[0]
	m.Status = game.StatusActive
	m.TrumpSuit = game.RandomTrumpSuit(c.rng)

	deck := game.NewShuffledDeck(c.rng)
	players := m.PlayersInOrder()
	cardsPerPlayer := len(deck) / len(players)
	m.TotalRounds = cardsPerPlayer
	for i, p := range players {
		p.Hand = append([]game.Card(nil), deck[i*cardsPerPlayer:(i+1)*cardsPerPlayer]...)
	}

	c.evaluators[m.ID] = game.NewRoundEvaluator(m.TrumpSuit, m.TotalRounds, len(players), c.cfg.Policy)

	starter := m.Players[m.CurrentPlayerID]
	ev := notify.MatchStarted{Match: m, StartingPlayer: starter}
	c.broadcaster.ToMatch(m, ev)
	c.publishTap(m, notify.Render(ev, ""))
	c.notifyTurnChange(m)

	log.Infof("match %s started with %d players, trump %s", m.ID, len(players), m.TrumpSuit)
}

func (c *Coordinator) notifyTurnChange(m *game.Match) {
	current, ok := m.Players[m.CurrentPlayerID]
	if !ok {
		log.Errorf("match %s current player %s has no seat", m.ID, m.CurrentPlayerID)
		return
	}
	c.broadcaster.ToMatch(m, notify.TurnChanged{
		Match:         m,
		CurrentPlayer: current,
		TurnStartedAt: time.Now(),
	})
}

func (c *Coordinator) playCard(sess *session.Session, req comm.PlayCardRequest) {
	m, p, ok := c.resolveSeat(sess)
	if !ok {
		return
	}
	if m.Status != game.StatusActive {
		c.sendError(sess, comm.CodeMatchNotActive, "Match is not active", nil)
		return
	}
	// A full trick is waiting on the reveal timer; nothing may be played
	// into it until it resolves.
	if m.TrickComplete() {
		c.sendError(sess, comm.CodeNotYourTurn, "The current trick is being resolved", nil)
		return
	}
	if m.CurrentPlayerID != p.ID {
		c.sendError(sess, comm.CodeNotYourTurn, "It is not your turn to play", nil)
		return
	}

	card, held := p.RemoveCard(req.CardID)
	if !held {
		handIDs := make([]string, 0, len(p.Hand))
		for _, remaining := range p.Hand {
			handIDs = append(handIDs, remaining.ID)
		}
		c.sendError(sess, comm.CodeInvalidCard,
			"Card not in your hand. Your hand on the server may be out of sync.",
			map[string]interface{}{"requestedCardId": req.CardID, "serverHand": handIDs})
		return
	}

	playedAt := time.Now()
	m.Playground = append(m.Playground, game.PlayedCard{PlayerID: p.ID, Card: card, PlayedAt: playedAt})

	c.broadcaster.ToMatch(m, notify.CardPlayed{Match: m, Player: p, Card: card, PlayedAt: playedAt})

	if m.TrickComplete() {
		// Short reveal pause before evaluation, cancellable and re-validated
		// on fire; pacing only, the trick is already decided by its cards.
		matchID := m.ID
		c.schedule(timerKey{matchID: matchID, purpose: purposeRoundReveal}, c.cfg.RevealDelay, func() {
			c.completeRound(matchID)
		})
		return
	}

	m.AdvanceTurn()
	c.notifyTurnChange(m)
}

func (c *Coordinator) completeRound(matchID string) {
	m, ok := c.matches[matchID]
	if !ok || m.Status != game.StatusActive || !m.TrickComplete() {
		return
	}

	evaluator, ok := c.evaluators[matchID]
	if !ok {
		log.Errorf("no round evaluator for match %s with a full trick", matchID)
		return
	}

	moves := make([]game.PlayerMove, 0, len(m.Playground))
	for _, pc := range m.Playground {
		p := m.Players[pc.PlayerID]
		if p == nil {
			log.Errorf("match %s playground references missing seat %s", matchID, pc.PlayerID)
			return
		}
		moves = append(moves, game.PlayerMove{
			PlayerID:  pc.PlayerID,
			TeamID:    p.TeamID,
			Card:      pc.Card,
			HandAfter: append([]game.Card(nil), p.Hand...),
		})
	}

	result, err := evaluator.EvaluateRound(moves)
	if err != nil {
		log.Errorf("round evaluation failed for match %s: %v", matchID, err)
		return
	}

	playedCards := make([]notify.PlayedCardView, 0, len(m.Playground))
	for _, pc := range m.Playground {
		playedCards = append(playedCards, notify.PlayedCardView{
			PlayerID:   pc.PlayerID,
			PlayerName: m.Players[pc.PlayerID].Name,
			Card:       pc.Card,
			PlayedAt:   pc.PlayedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	m.RoundWins.Add(result.WinningTeam, 1)
	m.Scores.Add(result.WinningTeam, result.PointsEarned)
	m.RotateToWinner(result.WinningPlayerID)
	m.Playground = nil

	winner := m.Players[result.WinningPlayerID]
	ev := notify.RoundCompleted{Match: m, Winner: winner, Result: result, PlayedCards: playedCards}
	c.broadcaster.ToMatch(m, ev)
	c.publishTap(m, notify.Render(ev, ""))

	if !m.AnyCardsLeft() {
		c.completeMatch(m)
		return
	}
	c.notifyTurnChange(m)
}

func (c *Coordinator) completeMatch(m *game.Match) {
	m.Status = game.StatusCompleted

	// Ties go to team2.
	winner := game.Team2
	if m.Scores.Team1 > m.Scores.Team2 {
		winner = game.Team1
	}

	ev := notify.MatchEnded{Match: m, WinnerTeam: winner, Duration: time.Since(m.CreatedAt)}
	c.broadcaster.ToMatch(m, ev)
	c.publishTap(m, notify.Render(ev, ""))
	c.archiveMatch(m, winner)

	// Terminal: identities are freed and codes retired, the match record
	// itself lingers until the expiry sweep.
	for playerID := range m.Players {
		delete(c.activePlayers, playerID)
		delete(c.reconnects, playerID)
		c.cancelPlayerTimers(m.ID, playerID)
	}
	delete(c.evaluators, m.ID)
	delete(c.inviteCodes, m.InviteCodes.Team1)
	delete(c.inviteCodes, m.InviteCodes.Team2)
	c.saveInviteCodes()

	log.Infof("match %s completed, %s won with %d points", m.ID, winner, m.Scores.Get(winner))
}

func (c *Coordinator) getState(sess *session.Session, req comm.GetStateRequest) {
	m, p, ok := c.resolveSeat(sess)
	if !ok {
		return
	}

	ev := notify.GameStateUpdate{Match: m}
	if req.IncludeHistory {
		if evaluator, ok := c.evaluators[m.ID]; ok {
			history := make(map[string]*game.PlayerStats)
			for id := range m.Players {
				if stats, ok := evaluator.PlayerStats(id); ok {
					history[id] = stats
				}
			}
			ev.History = history
		}
	}
	c.broadcaster.ToPlayer(m, p.ID, ev)
}

func (c *Coordinator) exitGame(sess *session.Session, req comm.ExitGameRequest) {
	m, p, ok := c.resolveSeat(sess)
	if !ok {
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "intentional_exit"
	}

	if err := sess.Send(comm.NewEnvelope(comm.TypeSuccess, map[string]interface{}{
		"action":  "exit_game",
		"message": "You have successfully exited the game",
		"data":    map[string]string{"matchId": m.ID, "playerId": p.ID},
	}, nil)); err != nil {
		log.Warnf("failed to confirm exit to player %s: %v", p.ID, err)
	}

	sess.Close()
	delete(c.sessions, p.ID)
	delete(c.activePlayers, p.ID)
	delete(c.reconnects, p.ID)
	c.cancelPlayerTimers(m.ID, p.ID)
	m.RemovePlayer(p.ID)

	log.Infof("player %s (%s) exited match %s: %s", p.Name, p.ID, m.ID, reason)

	switch m.Status {
	case game.StatusWaiting:
		if len(m.Players) == 0 {
			c.removeMatch(m)
			return
		}
		c.broadcaster.ToMatch(m, notify.PlayerExited{Match: m, Player: p, Reason: reason, Message: req.Message})
	case game.StatusActive, game.StatusPaused:
		c.broadcaster.ToMatch(m, notify.PlayerExited{Match: m, Player: p, Reason: reason, Message: req.Message})
		c.cancelMatch(m, p, reason, req.Message)
	}
}

// cancelMatch tears an in-progress match down after a seat exits: no
// partial continuation.
func (c *Coordinator) cancelMatch(m *game.Match, by *game.Player, reason, message string) {
	m.Status = game.StatusCancelled

	ev := notify.MatchCancelled{Match: m, CancelledBy: by, Reason: reason, Message: message}
	c.broadcaster.ToMatch(m, ev)
	c.publishTap(m, notify.Render(ev, ""))
	c.archiveMatch(m, "")

	c.removeMatch(m)

	log.Infof("match %s cancelled by %s: %s", m.ID, by.ID, reason)
}
