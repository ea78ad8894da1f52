package game

import (
	"testing"
)

func newTestEvaluator(playerCount int) *RoundEvaluator {
	return NewRoundEvaluator(Spades, 9, playerCount, DefaultEvaluatorPolicy())
}

func move(t *testing.T, playerID string, team TeamID, cardID string, handAfter ...string) PlayerMove {
	t.Helper()
	m := PlayerMove{PlayerID: playerID, TeamID: team, Card: mustCard(t, cardID)}
	for _, id := range handAfter {
		m.HandAfter = append(m.HandAfter, mustCard(t, id))
	}
	return m
}

func TestEvaluateRoundMoveCountMismatch(t *testing.T) {
	e := newTestEvaluator(4)
	_, err := e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "H4"),
		move(t, "p2", Team2, "H5"),
	})
	if err == nil {
		t.Fatal("expected error for 2 moves against 4 seats")
	}
}

func TestEvaluateRoundWinner(t *testing.T) {
	tests := []struct {
		name       string
		cards      [2]string // p1 team1 leads, p2 team2 follows
		wantWinner string
		wantTeam   TeamID
		wantPoints int
	}{
		{"higher led rank wins", [2]string{"H4", "HA"}, "p2", Team2, 11},
		{"trump beats led ace", [2]string{"HA", "S3"}, "p2", Team2, 16},
		{"off-suit cannot win", [2]string{"H4", "CA"}, "p1", Team1, 11},
		{"led suit holds", [2]string{"HA", "H7"}, "p1", Team1, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEvaluator(2)
			res, err := e.EvaluateRound([]PlayerMove{
				move(t, "p1", Team1, tt.cards[0]),
				move(t, "p2", Team2, tt.cards[1]),
			})
			if err != nil {
				t.Fatal(err)
			}
			if res.WinningPlayerID != tt.wantWinner || res.WinningTeam != tt.wantTeam {
				t.Errorf("winner = %s/%s, want %s/%s",
					res.WinningPlayerID, res.WinningTeam, tt.wantWinner, tt.wantTeam)
			}
			if res.PointsEarned != tt.wantPoints {
				t.Errorf("points = %d, want %d", res.PointsEarned, tt.wantPoints)
			}
		})
	}
}

func TestSpecialWinOnDecisiveFirstTrick(t *testing.T) {
	e := newTestEvaluator(2)
	res, err := e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "HA"),
		move(t, "p2", Team2, "S7"),
	})
	if err != nil {
		t.Fatal(err)
	}
	// 11 + 10 + trump bonus 5 = 26, won with trump in round one.
	if !res.SpecialWin {
		t.Error("expected special win flag")
	}
	if res.Analysis == "" {
		t.Error("expected a non-empty analysis")
	}

	// Same trick in round two must not be special.
	e2 := newTestEvaluator(2)
	if _, err := e2.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "H3"),
		move(t, "p2", Team2, "H4"),
	}); err != nil {
		t.Fatal(err)
	}
	res2, err := e2.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "HA"),
		move(t, "p2", Team2, "S7"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res2.SpecialWin {
		t.Error("special win flagged outside the first round")
	}
}

func TestFollowMoveRatings(t *testing.T) {
	// Took the trick with no cheaper winner available.
	e := newTestEvaluator(2)
	res, err := e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "H4"),
		move(t, "p2", Team2, "H5", "C3", "D3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.MoveRatings[1].Rating; got != 8.5 {
		t.Errorf("clean capture rating = %v, want 8.5", got)
	}

	// Took the trick while holding a cheaper winning card.
	e = newTestEvaluator(2)
	res, err = e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "H4"),
		move(t, "p2", Team2, "HA", "H5"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.MoveRatings[1].Rating; got != 4.5 {
		t.Errorf("overcommit rating = %v, want 4.5", got)
	}

	// Declined a trick that a held card could have won.
	e = newTestEvaluator(2)
	res, err = e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "H4"),
		move(t, "p2", Team2, "C3", "H5"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.MoveRatings[1].Rating; got != 3 {
		t.Errorf("declined winnable rating = %v, want 3", got)
	}

	// Fed points into an opponent's trick with no winning option.
	e = newTestEvaluator(2)
	res, err = e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "HA"),
		move(t, "p2", Team2, "C7", "C3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.MoveRatings[1].Rating; got != 3.5 {
		t.Errorf("fed points rating = %v, want 3.5", got)
	}

	// Discarded a worthless card on a lost trick.
	e = newTestEvaluator(2)
	res, err = e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "HA"),
		move(t, "p2", Team2, "C3", "C4"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.MoveRatings[1].Rating; got != 7 {
		t.Errorf("worthless discard rating = %v, want 7", got)
	}
}

func TestTeammateWinningRatings(t *testing.T) {
	// Three seats so a teammate's card can already hold the trick.
	e := newTestEvaluator(3)
	res, err := e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "HA"),
		move(t, "p2", Team2, "C3", "C4"),
		move(t, "p3", Team1, "HK", "D3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	// p3 has no winner over the teammate's ace and adds 4 points to it.
	if got := res.MoveRatings[2].Rating; got != 7 {
		t.Errorf("loading teammate's trick rating = %v, want 7", got)
	}

	e = newTestEvaluator(3)
	res, err = e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "HA"),
		move(t, "p2", Team2, "C3", "C4"),
		move(t, "p3", Team1, "H3", "D3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.MoveRatings[2].Rating; got != 6 {
		t.Errorf("ducking under teammate rating = %v, want 6", got)
	}
}

func TestLeadMoveRatingByPhase(t *testing.T) {
	// Round 1 of 9 is early phase: a zero-point probe rates well, a trump
	// lead poorly.
	e := newTestEvaluator(2)
	res, err := e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "H3"),
		move(t, "p2", Team2, "C3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.MoveRatings[0].Rating; got != 8.5 {
		t.Errorf("early probe rating = %v, want 8.5", got)
	}

	e = newTestEvaluator(2)
	res, err = e.EvaluateRound([]PlayerMove{
		move(t, "p1", Team1, "S3"),
		move(t, "p2", Team2, "C3"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.MoveRatings[0].Rating; got != 3 {
		t.Errorf("early trump lead rating = %v, want 3", got)
	}
}

func TestPlayerStatsAccumulate(t *testing.T) {
	e := newTestEvaluator(2)
	if _, ok := e.PlayerStats("p1"); ok {
		t.Fatal("stats reported for a seat with no moves")
	}

	for i := 0; i < 2; i++ {
		if _, err := e.EvaluateRound([]PlayerMove{
			move(t, "p1", Team1, "H3"),
			move(t, "p2", Team2, "S4"),
		}); err != nil {
			t.Fatal(err)
		}
	}

	stats, ok := e.PlayerStats("p2")
	if !ok {
		t.Fatal("no stats for p2 after two rounds")
	}
	if stats.TotalMoves != 2 {
		t.Errorf("total moves = %d, want 2", stats.TotalMoves)
	}
	if stats.TrumpUsageRate != 100 {
		t.Errorf("trump usage = %v, want 100", stats.TrumpUsageRate)
	}
	if stats.AverageRating < 1 || stats.AverageRating > 10 {
		t.Errorf("average rating %v outside the rating scale", stats.AverageRating)
	}
}
