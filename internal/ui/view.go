package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/bubble-duel/internal/game"
)

// View renders the current phase.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🫧 泡泡对决"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  房间 %s · 你是玩家 %d", m.roomID, m.slot)))
	b.WriteString("\n\n")

	switch m.phase {
	case PhaseConnecting:
		b.WriteString(fmt.Sprintf("%s 正在加入房间...", m.spinner.View()))

	case PhaseWaiting:
		b.WriteString(fmt.Sprintf("%s 等待对手加入 (%d/2)", m.spinner.View(), m.playerCount))

	case PhasePlaying:
		b.WriteString(m.renderBoard())
		b.WriteString("\n")
		if m.chosen {
			b.WriteString(fmt.Sprintf("%s 已选择 %s，等待对手...", m.spinner.View(), actionLabel(m.chosenAction)))
		} else {
			b.WriteString("选择本回合行动：")
		}

	case PhaseFinished:
		b.WriteString(m.renderBoard())
		b.WriteString("\n")
		b.WriteString(m.renderOutcome())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("按 r 重新开始"))

	case PhaseDisconnected:
		b.WriteString(errorStyle.Render("与服务器的连接已断开"))
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("⚠ " + m.notice))
	}

	if len(m.log) > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(strings.Join(m.log, "\n")))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("b 吹泡泡 · s 举盾 · a 攻击 · r 重新开始 · q 退出"))

	return docStyle.Render(b.String())
}

// renderBoard shows both players' energy and round status.
func (m *Model) renderBoard() string {
	var rows []string
	rows = append(rows, dimStyle.Render(fmt.Sprintf("第 %d 回合", m.state.Round)))

	for _, p := range m.state.Players {
		label := fmt.Sprintf("玩家 %d", p.PlayerID)
		style := opponentStyle
		if p.PlayerID == int(m.slot) {
			label += " (你)"
			style = selfStyle
		}

		status := ""
		if p.HasPendingChoice {
			status = " · 已行动"
		}
		if p.ShieldUsedLastRound {
			status += " · " + shieldIcon + "冷却"
		}

		rows = append(rows, fmt.Sprintf("%s  %s%s",
			style.Render(label),
			energyStyle.Render(fmt.Sprintf("能量 %s", strings.Repeat(bubbleIcon, p.Energy)+fmt.Sprintf(" (%d)", p.Energy))),
			dimStyle.Render(status)))
	}

	if m.lastResult != nil {
		rows = append(rows, "")
		rows = append(rows, fmt.Sprintf("%s %s  vs  %s %s",
			selfOrOpponent(m.slot, game.Slot1), actionLabel(m.lastResult.Player1Action),
			selfOrOpponent(m.slot, game.Slot2), actionLabel(m.lastResult.Player2Action)))
		rows = append(rows, m.lastResult.Message)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderOutcome shows the win/lose banner.
func (m *Model) renderOutcome() string {
	if !m.state.GameOver {
		return ""
	}
	if m.state.Winner == int(m.slot) {
		return winStyle.Render("🎉 你赢了！")
	}
	return loseStyle.Render("💥 你输了")
}

// selfOrOpponent labels a slot from this client's perspective.
func selfOrOpponent(self, slot game.Slot) string {
	if self == slot {
		return selfStyle.Render(fmt.Sprintf("玩家%d", slot))
	}
	return opponentStyle.Render(fmt.Sprintf("玩家%d", slot))
}

// actionLabel converts a wire action into a display label.
func actionLabel(action string) string {
	switch game.Action(action) {
	case game.ActionBubble:
		return bubbleIcon + " 泡泡"
	case game.ActionShield:
		return shieldIcon + " 盾牌"
	case game.ActionAttack:
		return attackIcon + " 攻击"
	}
	return action
}
