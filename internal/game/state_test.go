package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Action
		ok    bool
	}{
		{"bubble", ActionBubble, true},
		{"shield", ActionShield, true},
		{"attack", ActionAttack, true},
		{"none", ActionNone, false}, // not a submittable action
		{"", ActionNone, false},
		{"BUBBLE", ActionNone, false},
		{"fireball", ActionNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseAction(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlot(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidSlot(1))
	assert.True(t, ValidSlot(2))
	assert.False(t, ValidSlot(0))
	assert.False(t, ValidSlot(3))
	assert.False(t, ValidSlot(-1))

	assert.Equal(t, Slot2, Slot1.Other())
	assert.Equal(t, Slot1, Slot2.Other())
}

func TestValidateChoice(t *testing.T) {
	t.Parallel()

	t.Run("attack without energy rejected", func(t *testing.T) {
		t.Parallel()

		s := NewState()
		assert.ErrorIs(t, s.ValidateChoice(Slot1, ActionAttack), ErrNoEnergy)

		// Rejection leaves the state unchanged: a copy-based check
		assert.Equal(t, NewState(), s)
	})

	t.Run("attack with energy accepted", func(t *testing.T) {
		t.Parallel()

		s := NewState()
		s.Players[0].Energy = 1
		assert.NoError(t, s.ValidateChoice(Slot1, ActionAttack))
	})

	t.Run("shield during cooldown rejected", func(t *testing.T) {
		t.Parallel()

		s := NewState()
		s.Players[1].ShieldUsedLastRound = true
		assert.ErrorIs(t, s.ValidateChoice(Slot2, ActionShield), ErrShieldCooldown)
		assert.NoError(t, s.ValidateChoice(Slot1, ActionShield))
	})

	t.Run("any action rejected after game over", func(t *testing.T) {
		t.Parallel()

		s := NewState()
		s.GameOver = true
		s.Winner = Slot1
		for _, a := range []Action{ActionBubble, ActionShield, ActionAttack} {
			assert.ErrorIs(t, s.ValidateChoice(Slot2, a), ErrGameOver)
		}
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		t.Parallel()

		s := NewState()
		assert.ErrorIs(t, s.ValidateChoice(Slot1, Action("dance")), ErrUnknownAction)
		assert.ErrorIs(t, s.ValidateChoice(Slot1, ActionNone), ErrUnknownAction)
	})
}

func TestSetPendingOverwrites(t *testing.T) {
	t.Parallel()

	s := NewState()
	s.SetPending(Slot1, ActionBubble)
	assert.Equal(t, ActionBubble, s.Player(Slot1).PendingChoice)

	// Submitting again before resolution overwrites the previous choice
	s.SetPending(Slot1, ActionShield)
	assert.Equal(t, ActionShield, s.Player(Slot1).PendingChoice)
	assert.False(t, s.BothPending())

	s.SetPending(Slot2, ActionBubble)
	assert.True(t, s.BothPending())
}
