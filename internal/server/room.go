package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/palemoky/bubble-duel/internal/config"
	"github.com/palemoky/bubble-duel/internal/game"
	"github.com/palemoky/bubble-duel/internal/protocol"
)

// RoomPhase 房间状态机
type RoomPhase int

const (
	PhaseWaiting   RoomPhase = iota // 等待玩家（0 或 1 人在座）
	PhaseActive                     // 双方在座，对局进行中
	PhaseResolving                  // 双方行动到齐，结算中（锁内瞬态）
	PhaseFinished                   // 对局结束，等待重新开始
)

// String 返回状态名（日志用）
func (p RoomPhase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseActive:
		return "active"
	case PhaseResolving:
		return "resolving"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// Room 一场两人对局
// state 由房间独占持有，所有读写都在 mu 保护下进行，
// 每个事件在锁内跑完，客户端看不到结算中间态
type Room struct {
	ID        string
	CreatedAt time.Time

	manager *RoomManager
	phase   RoomPhase
	clients map[game.Slot]ClientInterface // 座位号 → 连接
	state   game.State

	mu sync.Mutex
}

// HandleJoin 处理加入房间
// 座位已有活跃连接时按配置策略处理：replace 顶替（默认），reject 拒绝
func (r *Room) HandleJoin(c ClientInterface, slot game.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.clients[slot]; ok && existing != c {
		if r.manager.joinPolicy == config.JoinPolicyReject {
			return ErrSlotTaken
		}
		// 顶替策略：原连接不收到任何通知（与原始行为一致）
		log.Printf("⚠️ 房间 %s 座位 %d 的连接被顶替", r.ID, slot)
	}

	before := len(r.clients)
	r.clients[slot] = c
	c.SetRoom(r.ID)

	// 给加入者发送完整对局快照
	c.SendMessage(protocol.MustNewMessage(protocol.MsgGameState, r.snapshotLocked()))

	// 广播在座人数
	r.broadcastLocked(protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		PlayerID:    int(slot),
		PlayerCount: len(r.clients),
	}))

	// 人数从 1 → 2 时广播开始信号，顶替加入不重发
	if before < 2 && len(r.clients) == 2 {
		r.broadcastLocked(protocol.MustNewMessage(protocol.MsgGameStart, nil))
		if r.state.GameOver {
			r.phase = PhaseFinished
		} else {
			r.phase = PhaseActive
		}
	}

	log.Printf("👤 玩家 %d 加入房间 %s (%d/2)", slot, r.ID, len(r.clients))
	return nil
}

// HandleChoose 处理行动提交
// 被拒绝的行动只通知提交者，不改变任何状态；
// 双方行动到齐时在锁内同步结算，结算先于该房间的任何后续事件
func (r *Room) HandleChoose(c ClientInterface, slot game.Slot, action game.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[slot] != c {
		c.SendMessage(protocol.MustNewMessage(protocol.MsgInvalidAction, protocol.InvalidActionPayload{
			Message: "您不是该座位的玩家",
		}))
		return
	}

	if r.phase == PhaseFinished {
		c.SendMessage(protocol.MustNewMessage(protocol.MsgInvalidAction, protocol.InvalidActionPayload{
			Message: game.ErrGameOver.Error(),
		}))
		return
	}

	if err := r.state.ValidateChoice(slot, action); err != nil {
		c.SendMessage(protocol.MustNewMessage(protocol.MsgInvalidAction, protocol.InvalidActionPayload{
			Message: err.Error(),
		}))
		return
	}

	// 登记行动，重复提交覆盖之前的
	r.state.SetPending(slot, action)

	// 确认给提交者，并告知对手"已行动"但不透露内容
	c.SendMessage(protocol.MustNewMessage(protocol.MsgChoiceConfirmed, protocol.ChoiceConfirmedPayload{
		Action: string(action),
	}))
	if other, ok := r.clients[slot.Other()]; ok {
		other.SendMessage(protocol.MustNewMessage(protocol.MsgOpponentChose, nil))
	}

	if !r.state.BothPending() {
		return
	}

	// 双方到齐，结算
	r.phase = PhaseResolving
	a1 := r.state.Player(game.Slot1).PendingChoice
	a2 := r.state.Player(game.Slot2).PendingChoice

	newState, result := game.Resolve(r.state, a1, a2)
	r.state = newState
	if result.GameOver {
		r.phase = PhaseFinished
	} else {
		r.phase = PhaseActive
	}

	r.broadcastLocked(protocol.MustNewMessage(protocol.MsgRoundResult, protocol.RoundResultPayload{
		Round:         result.Round,
		Player1Action: string(result.Player1Action),
		Player2Action: string(result.Player2Action),
		Player1Energy: result.Player1Energy,
		Player2Energy: result.Player2Energy,
		Message:       result.Message,
		GameOver:      result.GameOver,
		Winner:        int(result.Winner),
	}))
	r.broadcastLocked(protocol.MustNewMessage(protocol.MsgGameState, r.snapshotLocked()))

	log.Printf("⚔️ 房间 %s 第 %d 回合: %s vs %s → %s", r.ID, result.Round, a1, a2, result.Message)

	if result.GameOver && r.manager.stats != nil {
		// 统计写入不阻塞对局
		roomID, winner, rounds := r.ID, result.Winner, result.Round
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := r.manager.stats.RecordResult(ctx, roomID, winner, rounds); err != nil {
				log.Printf("统计写入失败: %v", err)
			}
		}()
	}
}

// HandleRestart 处理重新开始
// 不做权限校验：任何报出房间号的连接都可以重置对局（与原始行为一致）
func (r *Room) HandleRestart() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = game.NewState()
	if len(r.clients) == 2 {
		r.phase = PhaseActive
	} else {
		r.phase = PhaseWaiting
	}

	r.broadcastLocked(protocol.MustNewMessage(protocol.MsgGameRestarted, protocol.GameRestartedPayload{
		State: r.snapshotLocked(),
	}))

	log.Printf("🔄 房间 %s 对局已重置", r.ID)
}

// handleDisconnect 解绑该连接占用的座位并通知剩余玩家
// 对局状态不动：进行中的回合保持挂起（已知缺口，见 DESIGN.md）
// 返回是否有座位被解绑
func (r *Room) handleDisconnect(c ClientInterface) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for slot, cl := range r.clients {
		if cl != c {
			continue
		}
		delete(r.clients, slot)
		removed = true

		r.broadcastLocked(protocol.MustNewMessage(protocol.MsgPlayerDisconnected, protocol.PlayerDisconnectedPayload{
			PlayerID: int(slot),
		}))
		log.Printf("📴 玩家 %d 离开房间 %s (%d/2)", slot, r.ID, len(r.clients))
	}

	if removed && r.phase != PhaseFinished {
		r.phase = PhaseWaiting
	}
	return removed
}

// Snapshot 返回当前对局快照
func (r *Room) Snapshot() protocol.GameStateInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Phase 返回当前房间状态
func (r *Room) Phase() RoomPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// PlayerCount 返回在座人数
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// snapshotLocked 构造对局快照，调用方必须持有 r.mu
func (r *Room) snapshotLocked() protocol.GameStateInfo {
	players := make([]protocol.PlayerStateInfo, 0, 2)
	for _, slot := range []game.Slot{game.Slot1, game.Slot2} {
		p := r.state.Player(slot)
		players = append(players, protocol.PlayerStateInfo{
			PlayerID:            int(slot),
			Energy:              p.Energy,
			HasPendingChoice:    p.PendingChoice != game.ActionNone,
			ShieldUsedLastRound: p.ShieldUsedLastRound,
		})
	}
	return protocol.GameStateInfo{
		Round:    r.state.Round,
		GameOver: r.state.GameOver,
		Winner:   int(r.state.Winner),
		Players:  players,
	}
}

// broadcastLocked 广播消息给房间内所有连接，调用方必须持有 r.mu
func (r *Room) broadcastLocked(msg *protocol.Message) {
	for _, c := range r.clients {
		c.SendMessage(msg)
	}
}
