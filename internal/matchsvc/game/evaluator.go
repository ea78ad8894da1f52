package game

import (
	"fmt"
	"strings"
)

// EvaluatorPolicy holds every numeric knob of the round evaluator. The
// defaults are starting values, not rules: tune per deployment.
type EvaluatorPolicy struct {
	// TrumpBonus is added to the trick's points when the winning card
	// itself is trump.
	TrumpBonus int

	// Phase boundaries as fractions of total rounds played.
	EarlyPhaseEnd float64
	MidPhaseEnd   float64

	// Ratings at or above Good count as good moves, at or below Bad as bad.
	GoodThreshold float64
	BadThreshold  float64

	MinRating float64
	MaxRating float64

	// HighPointLead is the point value at or above which a lead card is
	// considered expensive.
	HighPointLead int

	// SpecialWinPoints flags an unusually decisive first trick.
	SpecialWinPoints int
}

func DefaultEvaluatorPolicy() EvaluatorPolicy {
	return EvaluatorPolicy{
		TrumpBonus:       5,
		EarlyPhaseEnd:    0.33,
		MidPhaseEnd:      0.66,
		GoodThreshold:    7,
		BadThreshold:     4,
		MinRating:        1,
		MaxRating:        10,
		HighPointLead:    10,
		SpecialWinPoints: 15,
	}
}

// PlayerMove is one card committed into a trick. HandAfter is the mover's
// remaining hand, so the rater can decide whether a winning alternative was
// available.
type PlayerMove struct {
	PlayerID  string
	TeamID    TeamID
	Card      Card
	HandAfter []Card
}

type MoveRating struct {
	PlayerID  string  `json:"playerId"`
	Rating    float64 `json:"moveQuality"`
	Reasoning string  `json:"reasoning"`
}

type RoundResult struct {
	WinningTeam     TeamID
	WinningPlayerID string
	PointsEarned    int
	MoveRatings     []MoveRating
	RoundQuality    float64
	Analysis        string
	SpecialWin      bool
}

// PlayerStats is the running aggregate exposed per seat.
type PlayerStats struct {
	TotalMoves         int     `json:"totalMoves"`
	GoodMovePercentage float64 `json:"goodMovePercentage"`
	BadMovePercentage  float64 `json:"badMovePercentage"`
	AverageRating      float64 `json:"averageRating"`
	TrumpUsageRate     float64 `json:"trumpUsageRate"`
}

type playerHistory struct {
	moves     int
	good      int
	bad       int
	trumpUsed int
	ratingSum float64
}

type gamePhase int

const (
	phaseEarly gamePhase = iota
	phaseMid
	phaseLate
)

// RoundEvaluator judges completed tricks for one match. It is owned by the
// coordinator loop and must not be shared across matches.
type RoundEvaluator struct {
	trumpSuit    Suit
	policy       EvaluatorPolicy
	totalRounds  int
	playerCount  int
	currentRound int
	history      map[string]*playerHistory
}

func NewRoundEvaluator(trump Suit, totalRounds, playerCount int, policy EvaluatorPolicy) *RoundEvaluator {
	if totalRounds < 1 {
		totalRounds = 1
	}
	return &RoundEvaluator{
		trumpSuit:    trump,
		policy:       policy,
		totalRounds:  totalRounds,
		playerCount:  playerCount,
		currentRound: 1,
		history:      make(map[string]*playerHistory),
	}
}

// EvaluateRound scores a completed trick. The move count not matching the
// seat count is a programming error and is reported, never absorbed.
func (e *RoundEvaluator) EvaluateRound(moves []PlayerMove) (*RoundResult, error) {
	if len(moves) != e.playerCount {
		return nil, fmt.Errorf("evaluator got %d moves for %d seats", len(moves), e.playerCount)
	}

	ledSuit := moves[0].Card.Suit
	winIdx := 0
	for i := 1; i < len(moves); i++ {
		if moves[i].Card.Beats(moves[winIdx].Card, e.trumpSuit, ledSuit) {
			winIdx = i
		}
	}
	winner := moves[winIdx]

	points := 0
	for _, m := range moves {
		points += m.Card.PointValue
	}
	wonWithTrump := winner.Card.Suit == e.trumpSuit
	if wonWithTrump {
		points += e.policy.TrumpBonus
	}

	phase := e.gamePhase()
	ratings := make([]MoveRating, 0, len(moves))
	for i, m := range moves {
		var r MoveRating
		if i == 0 {
			r = e.rateLeadMove(m, phase)
		} else {
			r = e.rateFollowMove(m, moves[:i], ledSuit)
		}
		r.Rating = e.clamp(r.Rating)
		ratings = append(ratings, r)
	}

	special := e.currentRound == 1 && wonWithTrump && points >= e.policy.SpecialWinPoints

	result := &RoundResult{
		WinningTeam:     winner.TeamID,
		WinningPlayerID: winner.PlayerID,
		PointsEarned:    points,
		MoveRatings:     ratings,
		RoundQuality:    e.overallQuality(ratings),
		SpecialWin:      special,
	}
	result.Analysis = e.roundAnalysis(result, winner)

	e.updateHistory(moves, ratings)
	e.currentRound++

	return result, nil
}

func (e *RoundEvaluator) gamePhase() gamePhase {
	progress := float64(e.currentRound) / float64(e.totalRounds)
	switch {
	case progress <= e.policy.EarlyPhaseEnd:
		return phaseEarly
	case progress <= e.policy.MidPhaseEnd:
		return phaseMid
	default:
		return phaseLate
	}
}

// rateLeadMove judges whether the lead's point cost fits the phase.
func (e *RoundEvaluator) rateLeadMove(m PlayerMove, phase gamePhase) MoveRating {
	card := m.Card
	isTrump := card.Suit == e.trumpSuit
	expensive := card.PointValue >= e.policy.HighPointLead

	var rating float64
	var reason string
	switch phase {
	case phaseEarly:
		switch {
		case isTrump:
			rating, reason = 3, "led trump in the opening rounds, burning control early"
		case expensive:
			rating, reason = 3.5, "led a high-value card early with no information about opponents"
		case card.PointValue == 0:
			rating, reason = 8.5, "probed with a worthless card, conserving strength for later"
		default:
			rating, reason = 6, "led a moderate card early"
		}
	case phaseMid:
		switch {
		case isTrump:
			rating, reason = 4.5, "committed trump from the lead mid-game"
		case expensive:
			rating, reason = 5, "led points mid-game, inviting a cheap capture"
		default:
			rating, reason = 6.5, "kept the lead inexpensive mid-game"
		}
	default: // late
		switch {
		case expensive || isTrump:
			rating, reason = 7.5, "forced the issue late, when holding back no longer pays"
		default:
			rating, reason = 5.5, "led passively with the endgame on the line"
		}
	}
	return MoveRating{PlayerID: m.PlayerID, Rating: rating, Reasoning: reason}
}

// rateFollowMove judges efficiency relative to the cards already on the
// table and the mover's remaining hand.
func (e *RoundEvaluator) rateFollowMove(m PlayerMove, prior []PlayerMove, ledSuit Suit) MoveRating {
	best := prior[0]
	for _, p := range prior[1:] {
		if p.Card.Beats(best.Card, e.trumpSuit, ledSuit) {
			best = p
		}
	}

	beats := m.Card.Beats(best.Card, e.trumpSuit, ledSuit)
	if beats {
		// Winning is good; winning with more card than necessary is not.
		if cheaper := e.cheaperWinningAlternative(m, best.Card, ledSuit); cheaper != nil {
			return MoveRating{
				PlayerID:  m.PlayerID,
				Rating:    4.5,
				Reasoning: fmt.Sprintf("took the trick but %s would have sufficed", cheaper.ID),
			}
		}
		return MoveRating{
			PlayerID:  m.PlayerID,
			Rating:    8.5,
			Reasoning: "took the trick with the cheapest sufficient card",
		}
	}

	// Did not contest. Was a winning card available?
	if w := e.winningAlternative(m, best.Card, ledSuit); w != nil {
		return MoveRating{
			PlayerID:  m.PlayerID,
			Rating:    3,
			Reasoning: fmt.Sprintf("declined a winnable trick while holding %s", w.ID),
		}
	}

	if best.TeamID == m.TeamID {
		if m.Card.PointValue > 0 {
			return MoveRating{
				PlayerID:  m.PlayerID,
				Rating:    7,
				Reasoning: "loaded points onto a trick the team is winning",
			}
		}
		return MoveRating{
			PlayerID:  m.PlayerID,
			Rating:    6,
			Reasoning: "ducked under a teammate's winning card",
		}
	}

	if m.Card.PointValue == 0 {
		return MoveRating{
			PlayerID:  m.PlayerID,
			Rating:    7,
			Reasoning: "discarded a worthless card on a lost trick",
		}
	}
	return MoveRating{
		PlayerID:  m.PlayerID,
		Rating:    3.5,
		Reasoning: "fed points into an opponent's trick",
	}
}

// winningAlternative returns a card from the mover's remaining hand that
// would have beaten the current best, preferring the cheapest.
func (e *RoundEvaluator) winningAlternative(m PlayerMove, best Card, ledSuit Suit) *Card {
	var pick *Card
	for i := range m.HandAfter {
		c := m.HandAfter[i]
		if !c.Beats(best, e.trumpSuit, ledSuit) {
			continue
		}
		if pick == nil || lessCostly(c, *pick, e.trumpSuit) {
			pick = &m.HandAfter[i]
		}
	}
	return pick
}

// cheaperWinningAlternative reports a held card that also beats best but at
// lower cost than the card actually played.
func (e *RoundEvaluator) cheaperWinningAlternative(m PlayerMove, best Card, ledSuit Suit) *Card {
	w := e.winningAlternative(m, best, ledSuit)
	if w != nil && lessCostly(*w, m.Card, e.trumpSuit) {
		return w
	}
	return nil
}

// lessCostly orders cards by how much a player gives up by committing them:
// non-trump under trump, then point value, then rank.
func lessCostly(a, b Card, trump Suit) bool {
	aTrump, bTrump := a.Suit == trump, b.Suit == trump
	if aTrump != bTrump {
		return !aTrump
	}
	if a.PointValue != b.PointValue {
		return a.PointValue < b.PointValue
	}
	return a.RankOrder() < b.RankOrder()
}

func (e *RoundEvaluator) overallQuality(ratings []MoveRating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range ratings {
		sum += r.Rating
	}
	return sum / float64(len(ratings))
}

func (e *RoundEvaluator) roundAnalysis(res *RoundResult, winner PlayerMove) string {
	var b strings.Builder
	if res.SpecialWin {
		fmt.Fprintf(&b, "Decisive opening: %s claimed the first trick with trump for %d points. ",
			winner.PlayerID, res.PointsEarned)
	} else {
		fmt.Fprintf(&b, "%s took the trick with %s for %d points. ",
			winner.PlayerID, winner.Card.ID, res.PointsEarned)
	}
	switch {
	case res.RoundQuality >= e.policy.GoodThreshold:
		b.WriteString("A cleanly played round on both sides.")
	case res.RoundQuality <= e.policy.BadThreshold:
		b.WriteString("A sloppy round with cards wasted all around.")
	default:
		b.WriteString("An uneven round with room to play tighter.")
	}
	return b.String()
}

func (e *RoundEvaluator) updateHistory(moves []PlayerMove, ratings []MoveRating) {
	for i, m := range moves {
		h := e.history[m.PlayerID]
		if h == nil {
			h = &playerHistory{}
			e.history[m.PlayerID] = h
		}
		h.moves++
		h.ratingSum += ratings[i].Rating
		if ratings[i].Rating >= e.policy.GoodThreshold {
			h.good++
		}
		if ratings[i].Rating <= e.policy.BadThreshold {
			h.bad++
		}
		if m.Card.Suit == e.trumpSuit {
			h.trumpUsed++
		}
	}
}

// PlayerStats returns the running aggregate for one seat, or false when the
// seat has not played yet.
func (e *RoundEvaluator) PlayerStats(playerID string) (*PlayerStats, bool) {
	h, ok := e.history[playerID]
	if !ok || h.moves == 0 {
		return nil, false
	}
	n := float64(h.moves)
	return &PlayerStats{
		TotalMoves:         h.moves,
		GoodMovePercentage: 100 * float64(h.good) / n,
		BadMovePercentage:  100 * float64(h.bad) / n,
		AverageRating:      h.ratingSum / n,
		TrumpUsageRate:     100 * float64(h.trumpUsed) / n,
	}, true
}

func (e *RoundEvaluator) clamp(r float64) float64 {
	if r < e.policy.MinRating {
		return e.policy.MinRating
	}
	if r > e.policy.MaxRating {
		return e.policy.MaxRating
	}
	return r
}
