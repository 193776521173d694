package engine

import "math/rand"

// Kind is one of the five card faces in the deck.
type Kind string

const (
	KindDoner Kind = "Döner"
	KindInek  Kind = "İnek"
	KindEsek  Kind = "Eşek"
	KindPide  Kind = "Pide"
	KindKebap Kind = "Kebap"
)

// DeckSize is the total number of cards in a fresh deck.
const DeckSize = 64

// deckCounts is the fixed multiset every deck is built from.
var deckCounts = []struct {
	Kind  Kind
	Count int
}{
	{KindDoner, 13},
	{KindInek, 13},
	{KindEsek, 13},
	{KindPide, 13},
	{KindKebap, 12},
}

// BuildDeck returns a freshly built deck in uniformly random order.
// Pure function of rng; the deck is consumed by dealing only and never
// reshuffled mid-game.
func BuildDeck(rng *rand.Rand) []Kind {
	deck := make([]Kind, 0, DeckSize)
	for _, c := range deckCounts {
		for i := 0; i < c.Count; i++ {
			deck = append(deck, c.Kind)
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}
