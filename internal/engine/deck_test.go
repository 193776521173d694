package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDeck_Multiset(t *testing.T) {
	deck := BuildDeck(rand.New(rand.NewSource(1)))
	require.Len(t, deck, DeckSize)

	counts := map[Kind]int{}
	for _, k := range deck {
		counts[k]++
	}
	require.Equal(t, map[Kind]int{
		KindDoner: 13,
		KindInek:  13,
		KindEsek:  13,
		KindPide:  13,
		KindKebap: 12,
	}, counts)
}

func TestBuildDeck_ShuffleVariesByRng(t *testing.T) {
	a := BuildDeck(rand.New(rand.NewSource(1)))
	b := BuildDeck(rand.New(rand.NewSource(2)))
	require.NotEqual(t, a, b, "different rng sources should produce different orderings")
}
