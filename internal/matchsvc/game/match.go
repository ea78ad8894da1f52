package game

import (
	"time"
)

type TeamID string

const (
	Team1 TeamID = "team1"
	Team2 TeamID = "team2"
)

// Opponent returns the other team.
func (t TeamID) Opponent() TeamID {
	if t == Team1 {
		return Team2
	}
	return Team1
}

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further mutation of the match is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Player is a seat within a match. It is owned exclusively by its match and
// only ever mutated on the coordinator loop.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TeamID    TeamID `json:"teamId"`
	Connected bool   `json:"connected"`
	Anonymous bool   `json:"-"`
	Hand      []Card `json:"-"`

	// Generation increments on every accepted connection for this seat so a
	// stale socket's close event can be told apart from the live one.
	Generation uint64 `json:"-"`
}

// RemoveCard takes the card with the given id out of the hand. The second
// return is false when the card is not held.
func (p *Player) RemoveCard(cardID string) (Card, bool) {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c, true
		}
	}
	return Card{}, false
}

// PlayedCard lives only inside the current trick.
type PlayedCard struct {
	PlayerID string    `json:"playerId"`
	Card     Card      `json:"card"`
	PlayedAt time.Time `json:"playedAt"`
}

type TeamScores struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

func (s *TeamScores) Get(t TeamID) int {
	if t == Team1 {
		return s.Team1
	}
	return s.Team2
}

func (s *TeamScores) Add(t TeamID, n int) {
	if t == Team1 {
		s.Team1 += n
	} else {
		s.Team2 += n
	}
}

type InviteCodes struct {
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
}

// Match holds all mutable state of one table. Everything here is owned by
// the coordinator loop; nothing outside it mutates a match.
type Match struct {
	ID              string
	TeamSize        int
	Status          Status
	Players         map[string]*Player
	JoinOrder       []string // seat ids in join order, drives deterministic iteration
	Playground      []PlayedCard
	RoundWins       TeamScores
	Scores          TeamScores
	TrumpSuit       Suit
	PlayOrder       []string
	TurnIndex       int
	CurrentPlayerID string
	InviteCodes     InviteCodes
	TotalRounds     int
	CreatedAt       time.Time
}

func NewMatch(id string, teamSize int, codes InviteCodes) *Match {
	return &Match{
		ID:          id,
		TeamSize:    teamSize,
		Status:      StatusWaiting,
		Players:     make(map[string]*Player),
		InviteCodes: codes,
		CreatedAt:   time.Now(),
	}
}

// AddPlayer seats a player and records the join order.
func (m *Match) AddPlayer(p *Player) {
	m.Players[p.ID] = p
	m.JoinOrder = append(m.JoinOrder, p.ID)
}

// RemovePlayer unseats the player, keeping JoinOrder consistent.
func (m *Match) RemovePlayer(playerID string) {
	delete(m.Players, playerID)
	for i, id := range m.JoinOrder {
		if id == playerID {
			m.JoinOrder = append(m.JoinOrder[:i], m.JoinOrder[i+1:]...)
			break
		}
	}
}

// PlayersInOrder returns seats in join order.
func (m *Match) PlayersInOrder() []*Player {
	out := make([]*Player, 0, len(m.Players))
	for _, id := range m.JoinOrder {
		if p, ok := m.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// TeamPlayers returns the seats of one team in join order.
func (m *Match) TeamPlayers(t TeamID) []*Player {
	var out []*Player
	for _, p := range m.PlayersInOrder() {
		if p.TeamID == t {
			out = append(out, p)
		}
	}
	return out
}

func (m *Match) AllConnected() bool {
	for _, p := range m.Players {
		if !p.Connected {
			return false
		}
	}
	return true
}

// Full reports whether every seat on both teams is taken.
func (m *Match) Full() bool {
	return len(m.Players) == m.TeamSize*2
}

// TrickComplete reports whether every seated player has played into the
// current trick.
func (m *Match) TrickComplete() bool {
	return len(m.Players) > 0 && len(m.Playground) == len(m.Players)
}

// AnyCardsLeft reports whether any seat still holds cards.
func (m *Match) AnyCardsLeft() bool {
	for _, p := range m.Players {
		if len(p.Hand) > 0 {
			return true
		}
	}
	return false
}

// CurrentRound is 1-based: finished tricks plus the one in progress.
func (m *Match) CurrentRound() int {
	return m.RoundWins.Team1 + m.RoundWins.Team2 + 1
}
