package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/bubble-duel/internal/config"
	"github.com/palemoky/bubble-duel/internal/game"
	"github.com/palemoky/bubble-duel/internal/protocol"
)

// newTestManager builds a RoomManager without redis or cleanup loop.
func newTestManager(joinPolicy string) *RoomManager {
	cfg := config.Default()
	cfg.Game.JoinPolicy = joinPolicy
	return NewRoomManager(cfg, nil)
}

// newActiveRoom creates a room with both seats bound.
func newActiveRoom(t *testing.T, rm *RoomManager) (*Room, *MockClient, *MockClient) {
	t.Helper()

	room := rm.CreateRoom()
	c1 := &MockClient{ID: "conn-1"}
	c2 := &MockClient{ID: "conn-2"}
	require.NoError(t, room.HandleJoin(c1, game.Slot1))
	require.NoError(t, room.HandleJoin(c2, game.Slot2))
	require.Equal(t, PhaseActive, room.Phase())
	return room, c1, c2
}

func TestRoomManager_CreateRoom(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := rm.CreateRoom()
		assert.Len(t, room.ID, 6)
		assert.False(t, seen[room.ID], "room ids must be distinct")
		seen[room.ID] = true

		assert.Equal(t, PhaseWaiting, room.Phase())
		assert.Same(t, room, rm.GetRoom(room.ID))
	}

	assert.Nil(t, rm.GetRoom("missing"))
	assert.Equal(t, 50, rm.RoomCount())
}

func TestRoom_JoinFlow(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room := rm.CreateRoom()

	c1 := &MockClient{ID: "conn-1"}
	require.NoError(t, room.HandleJoin(c1, game.Slot1))

	// The joiner gets a full snapshot and the occupancy broadcast
	assert.Equal(t, 1, c1.countMessages(protocol.MsgGameState))
	assert.Equal(t, 1, c1.countMessages(protocol.MsgPlayerJoined))
	assert.Zero(t, c1.countMessages(protocol.MsgGameStart))
	assert.Equal(t, PhaseWaiting, room.Phase())
	assert.Equal(t, room.ID, c1.RoomID)

	joined, err := protocol.ParsePayload[protocol.PlayerJoinedPayload](c1.lastMessage(protocol.MsgPlayerJoined))
	require.NoError(t, err)
	assert.Equal(t, 1, joined.PlayerID)
	assert.Equal(t, 1, joined.PlayerCount)

	c2 := &MockClient{ID: "conn-2"}
	require.NoError(t, room.HandleJoin(c2, game.Slot2))

	// Start signal broadcast to both once occupancy hits 2
	assert.Equal(t, 1, c1.countMessages(protocol.MsgGameStart))
	assert.Equal(t, 1, c2.countMessages(protocol.MsgGameStart))
	assert.Equal(t, PhaseActive, room.Phase())
}

func TestRoom_GameStartNotResentOnReplacement(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, c1, _ := newActiveRoom(t, rm)

	// A replacement join keeps occupancy at 2: no second start signal
	c3 := &MockClient{ID: "conn-3"}
	require.NoError(t, room.HandleJoin(c3, game.Slot2))

	assert.Equal(t, 1, c1.countMessages(protocol.MsgGameStart))
	assert.Zero(t, c3.countMessages(protocol.MsgGameStart))
	assert.Equal(t, PhaseActive, room.Phase())
}

func TestRoom_JoinRejectPolicy(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReject)
	room := rm.CreateRoom()

	c1 := &MockClient{ID: "conn-1"}
	require.NoError(t, room.HandleJoin(c1, game.Slot1))

	c2 := &MockClient{ID: "conn-2"}
	err := room.HandleJoin(c2, game.Slot1)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// The rejected connection got nothing and the binding is unchanged
	assert.Empty(t, c2.Messages)
	assert.Equal(t, 1, room.PlayerCount())

	// Rebinding the same connection is not a duplicate join
	assert.NoError(t, room.HandleJoin(c1, game.Slot1))
}

func TestRoom_ChooseFlow(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, c1, c2 := newActiveRoom(t, rm)

	room.HandleChoose(c1, game.Slot1, game.ActionBubble)

	// Submitter gets confirmation, opponent only learns "a choice happened"
	confirmed, err := protocol.ParsePayload[protocol.ChoiceConfirmedPayload](c1.lastMessage(protocol.MsgChoiceConfirmed))
	require.NoError(t, err)
	assert.Equal(t, "bubble", confirmed.Action)
	assert.Equal(t, 1, c2.countMessages(protocol.MsgOpponentChose))
	assert.Zero(t, c1.countMessages(protocol.MsgRoundResult), "no resolution with one choice")

	room.HandleChoose(c2, game.Slot2, game.ActionBubble)

	// Both choices present: resolved synchronously, result broadcast
	require.Equal(t, 1, c1.countMessages(protocol.MsgRoundResult))
	require.Equal(t, 1, c2.countMessages(protocol.MsgRoundResult))

	result, err := protocol.ParsePayload[protocol.RoundResultPayload](c1.lastMessage(protocol.MsgRoundResult))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Round)
	assert.Equal(t, "bubble", result.Player1Action)
	assert.Equal(t, "bubble", result.Player2Action)
	assert.Equal(t, 1, result.Player1Energy)
	assert.Equal(t, 1, result.Player2Energy)
	assert.False(t, result.GameOver)

	// Post-round snapshot broadcast as well
	snapshot, err := protocol.ParsePayload[protocol.GameStateInfo](c2.lastMessage(protocol.MsgGameState))
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Round)
	assert.False(t, snapshot.Players[0].HasPendingChoice)
	assert.False(t, snapshot.Players[1].HasPendingChoice)
}

func TestRoom_ResubmitOverwritesPending(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, c1, c2 := newActiveRoom(t, rm)

	room.HandleChoose(c1, game.Slot1, game.ActionBubble)
	room.HandleChoose(c1, game.Slot1, game.ActionShield)
	assert.Zero(t, c1.countMessages(protocol.MsgRoundResult))

	room.HandleChoose(c2, game.Slot2, game.ActionBubble)

	result, err := protocol.ParsePayload[protocol.RoundResultPayload](c1.lastMessage(protocol.MsgRoundResult))
	require.NoError(t, err)
	assert.Equal(t, "shield", result.Player1Action, "second submission wins")
	assert.Equal(t, 1, result.Player2Energy)
	assert.Equal(t, 0, result.Player1Energy)
}

func TestRoom_InvalidActionUnicast(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, c1, c2 := newActiveRoom(t, rm)

	// Attack with zero energy is rejected and changes nothing
	room.HandleChoose(c1, game.Slot1, game.ActionAttack)

	require.Equal(t, 1, c1.countMessages(protocol.MsgInvalidAction))
	assert.Zero(t, c2.countMessages(protocol.MsgInvalidAction), "rejection is not broadcast")
	assert.Zero(t, c2.countMessages(protocol.MsgOpponentChose))
	assert.Zero(t, c1.countMessages(protocol.MsgChoiceConfirmed))

	snapshot := room.Snapshot()
	assert.Equal(t, 0, snapshot.Round)
	assert.False(t, snapshot.Players[0].HasPendingChoice)
}

func TestRoom_WrongConnectionForSeat(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, _, _ := newActiveRoom(t, rm)

	intruder := &MockClient{ID: "conn-x"}
	room.HandleChoose(intruder, game.Slot1, game.ActionBubble)

	assert.Equal(t, 1, intruder.countMessages(protocol.MsgInvalidAction))
	assert.False(t, room.Snapshot().Players[0].HasPendingChoice)
}

func TestRoom_ShieldCooldownAcrossRounds(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, c1, c2 := newActiveRoom(t, rm)

	// Round 1: both shield
	room.HandleChoose(c1, game.Slot1, game.ActionShield)
	room.HandleChoose(c2, game.Slot2, game.ActionShield)
	require.Equal(t, 1, room.Snapshot().Round)

	// Round 2: shield again is rejected for both while the cooldown holds
	room.HandleChoose(c1, game.Slot1, game.ActionShield)
	assert.Equal(t, 1, c1.countMessages(protocol.MsgInvalidAction))
	room.HandleChoose(c2, game.Slot2, game.ActionShield)
	assert.Equal(t, 1, c2.countMessages(protocol.MsgInvalidAction))

	// A different action is fine and clears the cooldown next round
	room.HandleChoose(c1, game.Slot1, game.ActionBubble)
	room.HandleChoose(c2, game.Slot2, game.ActionBubble)
	require.Equal(t, 2, room.Snapshot().Round)

	room.HandleChoose(c1, game.Slot1, game.ActionShield)
	assert.Equal(t, 1, c1.countMessages(protocol.MsgInvalidAction), "cooldown cleared")
}

func TestRoom_WinAndFinishedRejection(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, c1, c2 := newActiveRoom(t, rm)

	// Round 1: both bubble to give player 2 energy
	room.HandleChoose(c1, game.Slot1, game.ActionBubble)
	room.HandleChoose(c2, game.Slot2, game.ActionBubble)

	// Round 2: player 1 bubbles into player 2's attack
	room.HandleChoose(c1, game.Slot1, game.ActionBubble)
	room.HandleChoose(c2, game.Slot2, game.ActionAttack)

	result, err := protocol.ParsePayload[protocol.RoundResultPayload](c1.lastMessage(protocol.MsgRoundResult))
	require.NoError(t, err)
	assert.True(t, result.GameOver)
	assert.Equal(t, 2, result.Winner)
	assert.Equal(t, 0, result.Player2Energy, "attack costs energy even when it wins")
	assert.Equal(t, PhaseFinished, room.Phase())

	// No further choice is accepted until restart
	room.HandleChoose(c1, game.Slot1, game.ActionBubble)
	assert.Equal(t, 1, c1.countMessages(protocol.MsgInvalidAction))
	assert.Equal(t, 2, room.Snapshot().Round, "round counter frozen after game over")
}

func TestRoom_Restart(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, c1, c2 := newActiveRoom(t, rm)

	// Play until game over
	room.HandleChoose(c1, game.Slot1, game.ActionBubble)
	room.HandleChoose(c2, game.Slot2, game.ActionBubble)
	room.HandleChoose(c1, game.Slot1, game.ActionAttack)
	room.HandleChoose(c2, game.Slot2, game.ActionBubble)
	require.Equal(t, PhaseFinished, room.Phase())

	room.HandleRestart()

	// Fresh state, bindings preserved, play resumes immediately
	assert.Equal(t, PhaseActive, room.Phase())
	assert.Equal(t, 2, room.PlayerCount())

	restarted, err := protocol.ParsePayload[protocol.GameRestartedPayload](c2.lastMessage(protocol.MsgGameRestarted))
	require.NoError(t, err)
	assert.Equal(t, 0, restarted.State.Round)
	assert.False(t, restarted.State.GameOver)
	assert.Zero(t, restarted.State.Winner)
	for _, p := range restarted.State.Players {
		assert.Equal(t, 0, p.Energy)
		assert.False(t, p.ShieldUsedLastRound)
		assert.False(t, p.HasPendingChoice)
	}

	room.HandleChoose(c1, game.Slot1, game.ActionBubble)
	assert.Equal(t, 1, c1.countMessages(protocol.MsgChoiceConfirmed))
}

func TestRoom_Disconnect(t *testing.T) {
	t.Parallel()

	rm := newTestManager(config.JoinPolicyReplace)
	room, c1, c2 := newActiveRoom(t, rm)

	// A pending choice from the remaining player stays pending
	room.HandleChoose(c2, game.Slot2, game.ActionBubble)

	rm.HandleDisconnect(c1)

	assert.Equal(t, 1, room.PlayerCount())
	assert.Equal(t, PhaseWaiting, room.Phase())

	notice, err := protocol.ParsePayload[protocol.PlayerDisconnectedPayload](c2.lastMessage(protocol.MsgPlayerDisconnected))
	require.NoError(t, err)
	assert.Equal(t, 1, notice.PlayerID)

	// Game state untouched by the disconnect
	assert.True(t, room.Snapshot().Players[1].HasPendingChoice)
	assert.Equal(t, 0, room.Snapshot().Round)

	// Unknown connections are a no-op
	rm.HandleDisconnect(&MockClient{ID: "conn-x"})
	assert.Equal(t, 1, room.PlayerCount())
}

// mockStats captures RecordResult calls for the game-over path.
type mockStats struct {
	calls chan string
}

func (m *mockStats) RecordResult(ctx context.Context, roomID string, winner game.Slot, rounds int) error {
	m.calls <- roomID
	return nil
}

func (m *mockStats) GetStats(ctx context.Context) (*protocol.StatsResultPayload, error) {
	return &protocol.StatsResultPayload{}, nil
}

func TestRoom_RecordsResultOnGameOver(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	stats := &mockStats{calls: make(chan string, 1)}
	rm := NewRoomManager(cfg, stats)
	room, c1, c2 := newActiveRoom(t, rm)

	room.HandleChoose(c1, game.Slot1, game.ActionBubble)
	room.HandleChoose(c2, game.Slot2, game.ActionBubble)
	room.HandleChoose(c1, game.Slot1, game.ActionAttack)
	room.HandleChoose(c2, game.Slot2, game.ActionBubble)
	require.Equal(t, PhaseFinished, room.Phase())

	select {
	case roomID := <-stats.calls:
		assert.Equal(t, room.ID, roomID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a stats record after game over")
	}
}

func TestRoomManager_Cleanup(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Game.RoomTimeout = 10
	rm := NewRoomManager(cfg, nil)

	stale := rm.CreateRoom()
	stale.CreatedAt = time.Now().Add(-1 * time.Hour)

	occupied := rm.CreateRoom()
	occupied.CreatedAt = time.Now().Add(-1 * time.Hour)
	require.NoError(t, occupied.HandleJoin(&MockClient{ID: "conn-1"}, game.Slot1))

	fresh := rm.CreateRoom()

	rm.cleanup()

	assert.Nil(t, rm.GetRoom(stale.ID), "empty stale room reaped")
	assert.NotNil(t, rm.GetRoom(occupied.ID), "occupied room kept")
	assert.NotNil(t, rm.GetRoom(fresh.ID), "fresh room kept")
}
