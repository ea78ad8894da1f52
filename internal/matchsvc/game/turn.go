package game

import "math/rand"

// BuildPlayOrder interleaves the two teams, starting from a uniformly random
// team and preserving join order within each team. With equal team sizes no
// team ever plays two consecutive turns.
func BuildPlayOrder(m *Match, rng *rand.Rand) []string {
	team1 := m.TeamPlayers(Team1)
	team2 := m.TeamPlayers(Team2)

	current := Team1
	if rng.Intn(2) == 1 {
		current = Team2
	}

	order := make([]string, 0, len(m.Players))
	for len(team1) > 0 || len(team2) > 0 {
		if current == Team1 && len(team1) > 0 {
			order = append(order, team1[0].ID)
			team1 = team1[1:]
		} else if current == Team2 && len(team2) > 0 {
			order = append(order, team2[0].ID)
			team2 = team2[1:]
		}
		current = current.Opponent()
	}
	return order
}

// AdvanceTurn moves the turn to the next seat in the play order.
func (m *Match) AdvanceTurn() {
	if len(m.PlayOrder) == 0 {
		return
	}
	m.TurnIndex = (m.TurnIndex + 1) % len(m.PlayOrder)
	m.CurrentPlayerID = m.PlayOrder[m.TurnIndex]
}

// RotateToWinner re-slices the play order so the given seat leads the next
// trick, preserving the relative order of the rest.
func (m *Match) RotateToWinner(playerID string) {
	idx := -1
	for i, id := range m.PlayOrder {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	rotated := make([]string, 0, len(m.PlayOrder))
	rotated = append(rotated, m.PlayOrder[idx:]...)
	rotated = append(rotated, m.PlayOrder[:idx]...)
	m.PlayOrder = rotated
	m.TurnIndex = 0
	m.CurrentPlayerID = m.PlayOrder[0]
}
