package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/cards"
)

func TestNameKey(t *testing.T) {
	assert.Equal(t, NameKey("Alice"), NameKey("  aLiCe "))
	assert.Equal(t, NameKey("ÉLODIE"), NameKey("élodie"))
	assert.NotEqual(t, NameKey("alice"), NameKey("alicia"))
}

func TestSessionValidate(t *testing.T) {
	now := time.Now()
	ok := Session{ID: "s", ChatID: "c", Status: StatusActive}
	require.NoError(t, ok.Validate())

	tests := []struct {
		name string
		s    Session
	}{
		{name: "missing id", s: Session{ChatID: "c", Status: StatusActive}},
		{name: "unknown status", s: Session{ID: "s", ChatID: "c", Status: "paused"}},
		{name: "active with end", s: Session{ID: "s", ChatID: "c", Status: StatusActive, EndedAt: &now}},
		{name: "nameless ranking", s: Session{ID: "s", ChatID: "c", Status: StatusInactive, Ranking: []RankEntry{{}}}},
		{name: "bad hand", s: Session{ID: "s", ChatID: "c", Status: StatusActive, Hand: HandState{Hole: []cards.Card{{Rank: cards.Ace, Suit: cards.Spades}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.s.Validate(), ErrInvalidRecord)
		})
	}
}

func TestParticipantValidate(t *testing.T) {
	neg := int64(-1)
	require.NoError(t, Participant{Name: "a", ChipsBought: 100}.Validate())
	require.ErrorIs(t, Participant{Name: " "}.Validate(), ErrInvalidRecord)
	require.ErrorIs(t, Participant{Name: "a", ChipsBought: -5}.Validate(), ErrInvalidRecord)
	require.ErrorIs(t, Participant{Name: "a", ChipsEnd: &neg}.Validate(), ErrInvalidRecord)
}

func TestHandStateValidate(t *testing.T) {
	c := func(tok string) cards.Card {
		card, err := cards.Parse(tok)
		require.NoError(t, err)
		return card
	}
	turn, river := c("2d"), c("3d")

	full := HandState{
		Hole:  []cards.Card{c("As"), c("Kd")},
		Flop:  []cards.Card{c("Qh"), c("Jh"), c("Th")},
		Turn:  &turn,
		River: &river,
	}
	require.NoError(t, full.Validate())
	assert.Len(t, full.Board(), 5)
	assert.False(t, full.Empty())
	assert.True(t, HandState{}.Empty())

	noFlop := HandState{Hole: full.Hole, Turn: &turn}
	require.ErrorIs(t, noFlop.Validate(), ErrInvalidRecord)

	dup := HandState{Hole: full.Hole, Flop: []cards.Card{c("As"), c("2c"), c("3c")}}
	require.ErrorIs(t, dup.Validate(), ErrInvalidRecord)
}
