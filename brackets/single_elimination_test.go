package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePlayers(n int) []Player {
	players := make([]Player, n)
	for i := range players {
		players[i] = Player{ProfileID: i + 1, Name: fmt.Sprintf("Player %d", i+1)}
	}
	return players
}

func TestGenerateRejectsTooFewPlayers(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	_, err := gen.Generate(nil)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = gen.Generate(makePlayers(1))
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestGenerateRoundSizes(t *testing.T) {
	testCases := []struct {
		players    int
		roundSizes []int
	}{
		{players: 2, roundSizes: []int{1}},
		{players: 3, roundSizes: []int{2, 1}},
		{players: 4, roundSizes: []int{2, 1}},
		{players: 5, roundSizes: []int{3, 2, 1}},
		{players: 7, roundSizes: []int{4, 2, 1}},
		{players: 8, roundSizes: []int{4, 2, 1}},
		{players: 9, roundSizes: []int{5, 3, 2, 1}},
		{players: 16, roundSizes: []int{8, 4, 2, 1}},
	}

	gen := NewSingleEliminationGenerator()

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d players", tc.players), func(t *testing.T) {
			bracket, err := gen.Generate(makePlayers(tc.players))
			require.NoError(t, err)

			require.Len(t, bracket.Rounds, len(tc.roundSizes))
			for i, size := range tc.roundSizes {
				assert.Equal(t, i+1, bracket.Rounds[i].Round)
				assert.Len(t, bracket.Rounds[i].Matches, size)
			}
		})
	}
}

func TestGenerateOddCountGetsBye(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	bracket, err := gen.Generate(makePlayers(3))
	require.NoError(t, err)

	first := bracket.Rounds[0].Matches
	require.Len(t, first, 2)

	assert.NotNil(t, first[0].Player1)
	assert.NotNil(t, first[0].Player2)
	assert.NotNil(t, first[1].Player1)
	assert.Nil(t, first[1].Player2, "last match of an odd field is a bye")

	// Финал пустой: продвижение победителей не реализовано.
	require.Len(t, bracket.Rounds[1].Matches, 1)
	assert.Nil(t, bracket.Rounds[1].Matches[0].Player1)
	assert.Nil(t, bracket.Rounds[1].Matches[0].Player2)
}

func TestGenerateFirstRoundContainsAllPlayers(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	players := makePlayers(9)

	bracket, err := gen.Generate(players)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, m := range bracket.Rounds[0].Matches {
		if m.Player1 != nil {
			assert.False(t, seen[m.Player1.ProfileID], "player placed twice")
			seen[m.Player1.ProfileID] = true
		}
		if m.Player2 != nil {
			assert.False(t, seen[m.Player2.ProfileID], "player placed twice")
			seen[m.Player2.ProfileID] = true
		}
		assert.Nil(t, m.Winner)
	}

	assert.Len(t, seen, len(players))
}

func TestGenerateLaterRoundsAreEmpty(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	bracket, err := gen.Generate(makePlayers(8))
	require.NoError(t, err)

	for _, round := range bracket.Rounds[1:] {
		for _, m := range round.Matches {
			assert.Nil(t, m.Player1)
			assert.Nil(t, m.Player2)
			assert.Nil(t, m.Winner)
		}
	}
}

func TestGenerateSeededIsDeterministic(t *testing.T) {
	players := makePlayers(8)

	a, err := NewSeededSingleEliminationGenerator(17).Generate(players)
	require.NoError(t, err)
	b, err := NewSeededSingleEliminationGenerator(17).Generate(players)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerateDoesNotMutateInput(t *testing.T) {
	players := makePlayers(5)
	original := make([]Player, len(players))
	copy(original, players)

	_, err := NewSingleEliminationGenerator().Generate(players)
	require.NoError(t, err)

	assert.Equal(t, original, players)
}
