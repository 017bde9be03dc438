// Package ui implements the bubbletea terminal client for the duel.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/bubble-duel/internal/client"
	"github.com/palemoky/bubble-duel/internal/game"
	"github.com/palemoky/bubble-duel/internal/logger"
	"github.com/palemoky/bubble-duel/internal/protocol"
)

// Phase is the client-side view phase.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseWaiting          // in room, waiting for the opponent
	PhasePlaying
	PhaseFinished
	PhaseDisconnected
)

// serverMsg wraps a protocol message for the bubbletea loop.
type serverMsg struct {
	msg *protocol.Message
}

// connClosedMsg signals that the server connection is gone.
type connClosedMsg struct{}

// Model is the duel client model.
type Model struct {
	client *client.Client
	roomID string
	slot   game.Slot

	phase       Phase
	state       protocol.GameStateInfo
	playerCount int

	chosen        bool   // this round's action submitted and confirmed
	chosenAction  string // confirmed action
	opponentChose bool
	lastResult    *protocol.RoundResultPayload
	notice        string // last invalid-action or error text

	log []string // recent round messages

	spinner spinner.Model
	width   int
	height  int
}

// NewModel creates the duel client model.
func NewModel(c *client.Client, roomID string, slot game.Slot) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{
		client:  c,
		roomID:  roomID,
		slot:    slot,
		phase:   PhaseConnecting,
		spinner: sp,
	}
}

// Init joins the room and starts listening for server messages.
func (m *Model) Init() tea.Cmd {
	join := protocol.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomID:   m.roomID,
		PlayerID: int(m.slot),
	})
	if err := m.client.Send(join); err != nil {
		logger.LogError("join-room send failed: %v", err)
	}
	return tea.Batch(m.spinner.Tick, m.waitForMessage())
}

// waitForMessage reads the next server message as a tea.Cmd.
func (m *Model) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.client.Receive()
		if !ok {
			return connClosedMsg{}
		}
		return serverMsg{msg: msg}
	}
}

// Update handles bubbletea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case serverMsg:
		m.handleServerMessage(msg.msg)
		return m, m.waitForMessage()

	case connClosedMsg:
		m.phase = PhaseDisconnected
		return m, nil
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.client.Close()
		return m, tea.Quit

	case "b":
		m.submitAction(game.ActionBubble)
	case "s":
		m.submitAction(game.ActionShield)
	case "a":
		m.submitAction(game.ActionAttack)

	case "r":
		if m.phase == PhaseFinished || m.phase == PhasePlaying {
			restart := protocol.MustNewMessage(protocol.MsgRestartGame, protocol.RestartGamePayload{
				RoomID: m.roomID,
			})
			if err := m.client.Send(restart); err != nil {
				logger.LogError("restart-game send failed: %v", err)
			}
		}
	}
	return m, nil
}

// submitAction sends a choose-action request. The server is the sole
// judge of legality; rejections come back as invalid-action notices.
func (m *Model) submitAction(a game.Action) {
	if m.phase != PhasePlaying {
		return
	}
	choose := protocol.MustNewMessage(protocol.MsgChooseAction, protocol.ChooseActionPayload{
		RoomID:   m.roomID,
		PlayerID: int(m.slot),
		Action:   string(a),
	})
	if err := m.client.Send(choose); err != nil {
		logger.LogError("choose-action send failed: %v", err)
	}
}

// handleServerMessage applies a server event to the model.
func (m *Model) handleServerMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgGameState:
		state, err := protocol.ParsePayload[protocol.GameStateInfo](msg)
		if err != nil {
			logger.LogError("bad game-state payload: %v", err)
			return
		}
		m.state = *state
		if m.phase == PhaseConnecting {
			m.phase = PhaseWaiting
		}
		if state.GameOver {
			m.phase = PhaseFinished
		}

	case protocol.MsgPlayerJoined:
		p, err := protocol.ParsePayload[protocol.PlayerJoinedPayload](msg)
		if err != nil {
			return
		}
		m.playerCount = p.PlayerCount
		m.appendLog(fmt.Sprintf("玩家 %d 加入 (%d/2)", p.PlayerID, p.PlayerCount))

	case protocol.MsgGameStart:
		m.phase = PhasePlaying
		m.chosen = false
		m.opponentChose = false
		m.appendLog("对局开始！")

	case protocol.MsgChoiceConfirmed:
		p, err := protocol.ParsePayload[protocol.ChoiceConfirmedPayload](msg)
		if err != nil {
			return
		}
		m.chosen = true
		m.chosenAction = p.Action
		m.notice = ""

	case protocol.MsgOpponentChose:
		m.opponentChose = true

	case protocol.MsgRoundResult:
		p, err := protocol.ParsePayload[protocol.RoundResultPayload](msg)
		if err != nil {
			return
		}
		m.lastResult = p
		m.chosen = false
		m.opponentChose = false
		m.appendLog(fmt.Sprintf("第 %d 回合: %s", p.Round, p.Message))
		if p.GameOver {
			m.phase = PhaseFinished
		}

	case protocol.MsgInvalidAction:
		p, err := protocol.ParsePayload[protocol.InvalidActionPayload](msg)
		if err != nil {
			return
		}
		m.notice = p.Message

	case protocol.MsgGameRestarted:
		p, err := protocol.ParsePayload[protocol.GameRestartedPayload](msg)
		if err != nil {
			return
		}
		m.state = p.State
		m.lastResult = nil
		m.chosen = false
		m.opponentChose = false
		m.notice = ""
		if m.playerCount == 2 {
			m.phase = PhasePlaying
		} else {
			m.phase = PhaseWaiting
		}
		m.appendLog("对局已重置")

	case protocol.MsgPlayerDisconnected:
		p, err := protocol.ParsePayload[protocol.PlayerDisconnectedPayload](msg)
		if err != nil {
			return
		}
		if m.playerCount > 0 {
			m.playerCount--
		}
		m.appendLog(fmt.Sprintf("玩家 %d 断开了连接", p.PlayerID))

	case protocol.MsgError:
		p, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return
		}
		m.notice = p.Message

	case protocol.MsgServerShutdown:
		m.phase = PhaseDisconnected
		m.appendLog("服务器已关闭")

	case protocol.MsgPong:
		// heartbeat, nothing to show
	}
}

// appendLog keeps the last few event lines for the side log.
func (m *Model) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > 8 {
		m.log = m.log[len(m.log)-8:]
	}
}
