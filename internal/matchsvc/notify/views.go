package notify

import (
	"time"

	"github.com/mesker/trick-services/internal/matchsvc/game"
)

// PlayerInfo is the per-seat view shared with every recipient. Hands are
// never exposed here, only counts.
type PlayerInfo struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	TeamID         game.TeamID `json:"teamId"`
	Connected      bool        `json:"connected"`
	IsAnonymous    bool        `json:"isAnonymous"`
	CardsRemaining int         `json:"cardsRemaining"`
	IsYou          bool        `json:"isYou"`
}

type TeamInfo struct {
	ID             game.TeamID  `json:"id"`
	Players        []PlayerInfo `json:"players"`
	ConnectedCount int          `json:"connectedCount"`
	TotalSlots     int          `json:"totalSlots"`
	MissingCount   int          `json:"missingCount"`
	Score          int          `json:"score"`
	RoundWins      int          `json:"roundWins"`
}

type MatchSummary struct {
	ID           string      `json:"id"`
	Status       game.Status `json:"status"`
	TeamSize     int         `json:"teamSize"`
	PlayersCount int         `json:"playersCount"`
	MaxPlayers   int         `json:"maxPlayers"`
}

type PlayedCardView struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Card       game.Card `json:"card"`
	PlayedAt   string    `json:"playedAt"`
}

type MatchDetail struct {
	ID           string      `json:"id"`
	Status       game.Status `json:"status"`
	CurrentRound int         `json:"currentRound"`
	TotalRounds  int         `json:"totalRounds"`
	TrumpSuit    game.Suit   `json:"trumpSuit"`
	CreatedAt    string      `json:"createdAt"`
	TurnIndex    int         `json:"turnIndex"`
	PlayOrder    []string    `json:"playOrder"`
}

// GameState is the personalized snapshot sent with most events: the
// recipient's own hand in full, everyone else only as counts.
type GameState struct {
	Match   MatchDetail `json:"match"`
	Players struct {
		All     []PlayerInfo `json:"all"`
		Current string       `json:"current"`
		You     PlayerInfo   `json:"you"`
	} `json:"players"`
	Teams struct {
		Team1 TeamInfo `json:"team1"`
		Team2 TeamInfo `json:"team2"`
	} `json:"teams"`
	Scores struct {
		RoundWins   game.TeamScores `json:"roundWins"`
		TotalPoints game.TeamScores `json:"totalPoints"`
	} `json:"scores"`
	Gameplay struct {
		YourHand   []game.Card      `json:"yourHand"`
		IsYourTurn bool             `json:"isYourTurn"`
		Playground []PlayedCardView `json:"playground"`
	} `json:"gameplay"`
	Timing struct {
		LastActivity string `json:"lastActivity"`
	} `json:"timing"`
}

func NewPlayerInfo(p *game.Player, recipientID string) PlayerInfo {
	return PlayerInfo{
		ID:             p.ID,
		Name:           p.Name,
		TeamID:         p.TeamID,
		Connected:      p.Connected,
		IsAnonymous:    p.Anonymous,
		CardsRemaining: len(p.Hand),
		IsYou:          p.ID == recipientID,
	}
}

func NewTeamInfo(m *game.Match, t game.TeamID, recipientID string) TeamInfo {
	players := m.TeamPlayers(t)
	infos := make([]PlayerInfo, 0, len(players))
	connected := 0
	for _, p := range players {
		infos = append(infos, NewPlayerInfo(p, recipientID))
		if p.Connected {
			connected++
		}
	}
	return TeamInfo{
		ID:             t,
		Players:        infos,
		ConnectedCount: connected,
		TotalSlots:     m.TeamSize,
		MissingCount:   m.TeamSize - connected,
		Score:          m.Scores.Get(t),
		RoundWins:      m.RoundWins.Get(t),
	}
}

func NewMatchSummary(m *game.Match) MatchSummary {
	return MatchSummary{
		ID:           m.ID,
		Status:       m.Status,
		TeamSize:     m.TeamSize,
		PlayersCount: len(m.Players),
		MaxPlayers:   m.TeamSize * 2,
	}
}

func newPlaygroundView(m *game.Match) []PlayedCardView {
	out := make([]PlayedCardView, 0, len(m.Playground))
	for _, pc := range m.Playground {
		name := ""
		if p, ok := m.Players[pc.PlayerID]; ok {
			name = p.Name
		}
		out = append(out, PlayedCardView{
			PlayerID:   pc.PlayerID,
			PlayerName: name,
			Card:       pc.Card,
			PlayedAt:   pc.PlayedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

// NewGameState renders the match for one recipient.
func NewGameState(m *game.Match, recipientID string) GameState {
	var gs GameState
	gs.Match = MatchDetail{
		ID:           m.ID,
		Status:       m.Status,
		CurrentRound: m.CurrentRound(),
		TotalRounds:  m.TotalRounds,
		TrumpSuit:    m.TrumpSuit,
		CreatedAt:    m.CreatedAt.UTC().Format(time.RFC3339Nano),
		TurnIndex:    m.TurnIndex,
		PlayOrder:    append([]string(nil), m.PlayOrder...),
	}

	for _, p := range m.PlayersInOrder() {
		gs.Players.All = append(gs.Players.All, NewPlayerInfo(p, recipientID))
	}
	gs.Players.Current = m.CurrentPlayerID

	if you, ok := m.Players[recipientID]; ok {
		gs.Players.You = NewPlayerInfo(you, recipientID)
		gs.Gameplay.YourHand = append([]game.Card(nil), you.Hand...)
	}
	gs.Gameplay.IsYourTurn = m.Status == game.StatusActive && m.CurrentPlayerID == recipientID
	gs.Gameplay.Playground = newPlaygroundView(m)

	gs.Teams.Team1 = NewTeamInfo(m, game.Team1, recipientID)
	gs.Teams.Team2 = NewTeamInfo(m, game.Team2, recipientID)

	gs.Scores.RoundWins = m.RoundWins
	gs.Scores.TotalPoints = m.Scores

	gs.Timing.LastActivity = time.Now().UTC().Format(time.RFC3339Nano)
	return gs
}
