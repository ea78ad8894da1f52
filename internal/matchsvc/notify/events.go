package notify

import (
	"time"

	"github.com/mesker/trick-services/internal/comm"
	"github.com/mesker/trick-services/internal/matchsvc/game"
)

// Event is one outbound notification. Each concrete event carries its own
// per-recipient rendering, so redaction is a property of the type rather
// than a switch somewhere downstream.
type Event interface {
	Type() comm.MessageType
	Meta() *comm.Metadata
	RenderFor(recipientID string) interface{}
}

// Render assembles the full envelope for one recipient.
func Render(ev Event, recipientID string) comm.Envelope {
	return comm.NewEnvelope(ev.Type(), ev.RenderFor(recipientID), ev.Meta())
}

type ConnectionEstablished struct {
	Match         *game.Match
	Player        *game.Player
	GeneratedID   bool
	GeneratedName bool
}

func (e ConnectionEstablished) Type() comm.MessageType { return comm.TypeConnectionEstablished }
func (e ConnectionEstablished) Meta() *comm.Metadata {
	return comm.NewMetadata(comm.PriorityCritical, true)
}
func (e ConnectionEstablished) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"player": NewPlayerInfo(e.Player, recipientID),
		"match":  NewMatchSummary(e.Match),
		"wasGenerated": map[string]bool{
			"playerId":   e.GeneratedID,
			"playerName": e.GeneratedName,
		},
	}
}

type ReconnectionSuccessful struct {
	Match  *game.Match
	Player *game.Player
}

func (e ReconnectionSuccessful) Type() comm.MessageType { return comm.TypeReconnectionSuccessful }
func (e ReconnectionSuccessful) Meta() *comm.Metadata {
	return comm.NewMetadata(comm.PriorityCritical, true)
}
func (e ReconnectionSuccessful) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"player":    NewPlayerInfo(e.Player, recipientID),
		"match":     NewMatchSummary(e.Match),
		"gameState": NewGameState(e.Match, recipientID),
	}
}

type PlayerJoined struct {
	Match  *game.Match
	Player *game.Player
}

func (e PlayerJoined) Type() comm.MessageType { return comm.TypePlayerJoined }
func (e PlayerJoined) Meta() *comm.Metadata   { return nil }
func (e PlayerJoined) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"player": NewPlayerInfo(e.Player, recipientID),
		"match":  NewMatchSummary(e.Match),
		"teams": map[string]TeamInfo{
			"team1": NewTeamInfo(e.Match, game.Team1, recipientID),
			"team2": NewTeamInfo(e.Match, game.Team2, recipientID),
		},
	}
}

type PlayerLeft struct {
	Match  *game.Match
	Player *game.Player
	Reason string
}

func (e PlayerLeft) Type() comm.MessageType { return comm.TypePlayerLeft }
func (e PlayerLeft) Meta() *comm.Metadata   { return nil }
func (e PlayerLeft) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"player": NewPlayerInfo(e.Player, recipientID),
		"match":  NewMatchSummary(e.Match),
		"reason": e.Reason,
	}
}

// ReconnectInfo tells peers how the dropped seat can come back.
type ReconnectInfo struct {
	InviteCode string `json:"inviteCode"`
	PlayerID   string `json:"playerId"`
	ExpiresAt  string `json:"expiresAt"`
}

type PlayerDisconnected struct {
	Match     *game.Match
	Player    *game.Player
	Reconnect ReconnectInfo
}

func (e PlayerDisconnected) Type() comm.MessageType { return comm.TypePlayerDisconnected }
func (e PlayerDisconnected) Meta() *comm.Metadata {
	return comm.NewMetadata(comm.PriorityHigh, false)
}
func (e PlayerDisconnected) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"player":        NewPlayerInfo(e.Player, recipientID),
		"match":         NewMatchSummary(e.Match),
		"reconnectInfo": e.Reconnect,
	}
}

type PlayerReconnected struct {
	Match  *game.Match
	Player *game.Player
}

func (e PlayerReconnected) Type() comm.MessageType { return comm.TypePlayerReconnected }
func (e PlayerReconnected) Meta() *comm.Metadata   { return nil }
func (e PlayerReconnected) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"player": NewPlayerInfo(e.Player, recipientID),
		"match":  NewMatchSummary(e.Match),
	}
}

type PlayerExited struct {
	Match   *game.Match
	Player  *game.Player
	Reason  string
	Message string
}

func (e PlayerExited) Type() comm.MessageType { return comm.TypePlayerExited }
func (e PlayerExited) Meta() *comm.Metadata   { return nil }
func (e PlayerExited) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"player":  NewPlayerInfo(e.Player, recipientID),
		"match":   NewMatchSummary(e.Match),
		"reason":  e.Reason,
		"message": e.Message,
	}
}

type MatchStarted struct {
	Match          *game.Match
	StartingPlayer *game.Player
}

func (e MatchStarted) Type() comm.MessageType { return comm.TypeMatchStarted }
func (e MatchStarted) Meta() *comm.Metadata   { return comm.NewMetadata(comm.PriorityHigh, false) }
func (e MatchStarted) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"gameState":      NewGameState(e.Match, recipientID),
		"startingPlayer": NewPlayerInfo(e.StartingPlayer, recipientID),
		"trumpSuit":      e.Match.TrumpSuit,
	}
}

type MatchPaused struct {
	Match    *game.Match
	PausedBy *game.Player
}

func (e MatchPaused) Type() comm.MessageType { return comm.TypeMatchPaused }
func (e MatchPaused) Meta() *comm.Metadata   { return comm.NewMetadata(comm.PriorityHigh, false) }
func (e MatchPaused) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"reason":     "player_disconnected",
		"pausedBy":   NewPlayerInfo(e.PausedBy, recipientID),
		"resumeInfo": "Match will resume when all players have reconnected.",
		"gameState":  NewGameState(e.Match, recipientID),
	}
}

type MatchResumed struct {
	Match     *game.Match
	ResumedBy *game.Player
}

func (e MatchResumed) Type() comm.MessageType { return comm.TypeMatchResumed }
func (e MatchResumed) Meta() *comm.Metadata   { return comm.NewMetadata(comm.PriorityHigh, false) }
func (e MatchResumed) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"resumedBy": NewPlayerInfo(e.ResumedBy, recipientID),
		"gameState": NewGameState(e.Match, recipientID),
	}
}

type MatchEnded struct {
	Match      *game.Match
	WinnerTeam game.TeamID
	Duration   time.Duration
}

func (e MatchEnded) Type() comm.MessageType { return comm.TypeMatchEnded }
func (e MatchEnded) Meta() *comm.Metadata   { return comm.NewMetadata(comm.PriorityHigh, true) }
func (e MatchEnded) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"gameState":  NewGameState(e.Match, recipientID),
		"winnerTeam": e.WinnerTeam,
		"stats": map[string]interface{}{
			"totalRounds": e.Match.RoundWins.Team1 + e.Match.RoundWins.Team2,
			"team1Points": e.Match.Scores.Team1,
			"team2Points": e.Match.Scores.Team2,
			"durationMs":  e.Duration.Milliseconds(),
		},
	}
}

type MatchCancelled struct {
	Match       *game.Match
	CancelledBy *game.Player
	Reason      string
	Message     string
}

func (e MatchCancelled) Type() comm.MessageType { return comm.TypeMatchCancelled }
func (e MatchCancelled) Meta() *comm.Metadata   { return comm.NewMetadata(comm.PriorityHigh, false) }
func (e MatchCancelled) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"cancelledBy": NewPlayerInfo(e.CancelledBy, recipientID),
		"reason":      e.Reason,
		"message":     e.Message,
	}
}

type TurnChanged struct {
	Match         *game.Match
	CurrentPlayer *game.Player
	TurnStartedAt time.Time
}

func (e TurnChanged) Type() comm.MessageType { return comm.TypeTurnChanged }
func (e TurnChanged) Meta() *comm.Metadata   { return nil }
func (e TurnChanged) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"gameState":     NewGameState(e.Match, recipientID),
		"currentPlayer": NewPlayerInfo(e.CurrentPlayer, recipientID),
		"isYourTurn":    e.CurrentPlayer.ID == recipientID,
		"turnStartedAt": e.TurnStartedAt.UTC().Format(time.RFC3339Nano),
	}
}

type CardPlayed struct {
	Match    *game.Match
	Player   *game.Player
	Card     game.Card
	PlayedAt time.Time
}

func (e CardPlayed) Type() comm.MessageType { return comm.TypeCardPlayed }
func (e CardPlayed) Meta() *comm.Metadata   { return nil }
func (e CardPlayed) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"gameState": NewGameState(e.Match, recipientID),
		"playedCard": map[string]interface{}{
			"player":   NewPlayerInfo(e.Player, recipientID),
			"card":     e.Card,
			"playedAt": e.PlayedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

type RoundCompleted struct {
	Match       *game.Match
	Winner      *game.Player
	Result      *game.RoundResult
	PlayedCards []PlayedCardView
}

func (e RoundCompleted) Type() comm.MessageType { return comm.TypeRoundCompleted }
func (e RoundCompleted) Meta() *comm.Metadata   { return comm.NewMetadata(comm.PriorityHigh, true) }
func (e RoundCompleted) RenderFor(recipientID string) interface{} {
	return map[string]interface{}{
		"gameState": NewGameState(e.Match, recipientID),
		"roundResult": map[string]interface{}{
			"winner":       NewPlayerInfo(e.Winner, recipientID),
			"winningTeam":  e.Result.WinningTeam,
			"pointsEarned": e.Result.PointsEarned,
			"playedCards":  e.PlayedCards,
			"analysis": map[string]interface{}{
				"moveRatings":   e.Result.MoveRatings,
				"roundQuality":  e.Result.RoundQuality,
				"roundAnalysis": e.Result.Analysis,
				"specialWin":    e.Result.SpecialWin,
			},
		},
	}
}

type GameStateUpdate struct {
	Match   *game.Match
	History map[string]*game.PlayerStats
}

func (e GameStateUpdate) Type() comm.MessageType { return comm.TypeGameStateUpdate }
func (e GameStateUpdate) Meta() *comm.Metadata   { return comm.NewMetadata(comm.PriorityHigh, false) }
func (e GameStateUpdate) RenderFor(recipientID string) interface{} {
	payload := map[string]interface{}{
		"gameState": NewGameState(e.Match, recipientID),
	}
	if e.History != nil {
		payload["history"] = e.History
	}
	return payload
}
