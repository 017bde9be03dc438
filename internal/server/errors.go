package server

import "github.com/palemoky/bubble-duel/internal/protocol"

// RoomError 带错误码的房间操作错误
type RoomError struct {
	Code    int
	Message string
}

func (e *RoomError) Error() string {
	return e.Message
}

var (
	ErrSlotTaken = &RoomError{Code: protocol.ErrCodeSlotTaken, Message: "该座位已有玩家连接"}
)
