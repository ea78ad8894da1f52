package game

import (
	"fmt"
	"math/rand"
)

type Suit string

const (
	Spades   Suit = "Spades"
	Hearts   Suit = "Hearts"
	Clubs    Suit = "Clubs"
	Diamonds Suit = "Diamonds"
)

var Suits = []Suit{Spades, Hearts, Clubs, Diamonds}

type Rank string

// Rank order within a suit, weakest first. Rank, not point value, decides
// trick superiority.
var Ranks = []Rank{"3", "4", "5", "6", "7", "J", "Q", "K", "A"}

var pointValues = map[Rank]int{
	"3": 0, "4": 0, "5": 0, "6": 0,
	"7": 10, "J": 3, "Q": 2, "K": 4, "A": 11,
}

var rankOrder = func() map[Rank]int {
	m := make(map[Rank]int, len(Ranks))
	for i, r := range Ranks {
		m[r] = i
	}
	return m
}()

type Card struct {
	Suit       Suit   `json:"suit"`
	Rank       Rank   `json:"value"`
	PointValue int    `json:"pointValue"`
	ID         string `json:"id"`
}

// RankOrder returns the card's position in the fixed rank sequence.
func (c Card) RankOrder() int {
	return rankOrder[c.Rank]
}

// Beats reports whether c wins over other given the trump suit and the suit
// that was led. Cards of neither the led suit nor trump cannot win.
func (c Card) Beats(other Card, trump, led Suit) bool {
	if c.Suit == trump && other.Suit != trump {
		return true
	}
	if c.Suit != trump && other.Suit == trump {
		return false
	}
	if c.Suit == other.Suit {
		return c.RankOrder() > other.RankOrder()
	}
	// Different non-trump suits: only the led suit can win.
	return c.Suit == led && other.Suit != led
}

// DeckSize is fixed: 4 suits x 9 ranks.
const DeckSize = 36

var staticDeck = func() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{
				Suit:       s,
				Rank:       r,
				PointValue: pointValues[r],
				ID:         fmt.Sprintf("%c%s", s[0], r),
			})
		}
	}
	return deck
}()

// CardByID resolves a card id such as "S7" against the static deck.
func CardByID(id string) (Card, bool) {
	for _, c := range staticDeck {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// NewShuffledDeck returns a fresh copy of the 36-card deck, shuffled with a
// Fisher-Yates pass over the given source.
func NewShuffledDeck(rng *rand.Rand) []Card {
	deck := make([]Card, DeckSize)
	copy(deck, staticDeck)
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// RandomTrumpSuit picks a trump suit uniformly.
func RandomTrumpSuit(rng *rand.Rand) Suit {
	return Suits[rng.Intn(len(Suits))]
}
