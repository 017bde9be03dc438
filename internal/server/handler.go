package server

import (
	"context"
	"log"
	"runtime/debug"
	"time"

	"github.com/palemoky/bubble-duel/internal/game"
	"github.com/palemoky/bubble-duel/internal/protocol"
)

// Handler 消息处理器
type Handler struct {
	roomManager *RoomManager
	stats       StatsRecorder
}

// NewHandler 创建处理器
func NewHandler(rm *RoomManager, stats StatsRecorder) *Handler {
	return &Handler{roomManager: rm, stats: stats}
}

// Handle 处理消息
// 单个事件的 panic 只影响该事件，不影响其他房间
func (h *Handler) Handle(client ClientInterface, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC] 处理消息 %s 时崩溃: %v\n%s", msg.Type, r, debug.Stack())
			client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		}
	}()

	switch msg.Type {
	// 连接操作
	case protocol.MsgPing:
		h.handlePing(client, msg)

	// 对局操作
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)
	case protocol.MsgChooseAction:
		h.handleChooseAction(client, msg)
	case protocol.MsgRestartGame:
		h.handleRestartGame(client, msg)
	case protocol.MsgStats:
		h.handleStats(client)

	default:
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleJoinRoom 处理加入房间
// 房间不存在时静默丢弃，不回错误（软失败策略，与原始行为一致）
func (h *Handler) handleJoinRoom(client ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if !game.ValidSlot(payload.PlayerID) {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidSlot))
		return
	}

	room := h.roomManager.GetRoom(payload.RoomID)
	if room == nil {
		log.Printf("加入请求指向不存在的房间 %s，已忽略", payload.RoomID)
		return
	}

	if err := room.HandleJoin(client, game.Slot(payload.PlayerID)); err != nil {
		if roomErr, ok := err.(*RoomError); ok {
			client.SendMessage(protocol.NewErrorMessage(roomErr.Code))
		} else {
			client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
		}
	}
}

// handleChooseAction 处理行动提交
func (h *Handler) handleChooseAction(client ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ChooseActionPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if !game.ValidSlot(payload.PlayerID) {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidSlot))
		return
	}

	action, ok := game.ParseAction(payload.Action)
	if !ok {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgInvalidAction, protocol.InvalidActionPayload{
			Message: game.ErrUnknownAction.Error(),
		}))
		return
	}

	room := h.roomManager.GetRoom(payload.RoomID)
	if room == nil {
		log.Printf("行动请求指向不存在的房间 %s，已忽略", payload.RoomID)
		return
	}

	room.HandleChoose(client, game.Slot(payload.PlayerID), action)
}

// handleRestartGame 处理重新开始
func (h *Handler) handleRestartGame(client ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RestartGamePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	room := h.roomManager.GetRoom(payload.RoomID)
	if room == nil {
		log.Printf("重置请求指向不存在的房间 %s，已忽略", payload.RoomID)
		return
	}

	room.HandleRestart()
}

// handleStats 处理统计查询
func (h *Handler) handleStats(client ClientInterface) {
	if h.stats == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeStatsUnavailable))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	stats, err := h.stats.GetStats(ctx)
	if err != nil {
		log.Printf("读取统计失败: %v", err)
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "读取统计失败"))
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgStatsResult, *stats))
}
