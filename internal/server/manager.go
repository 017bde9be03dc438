package server

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/palemoky/bubble-duel/internal/config"
	"github.com/palemoky/bubble-duel/internal/game"
	"github.com/palemoky/bubble-duel/internal/protocol"
)

const (
	// 房间号长度
	roomIDLength = 6
	// 房间号字符集
	roomIDChars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// ClientInterface 客户端连接接口，便于测试时注入 mock
type ClientInterface interface {
	GetID() string
	GetRoom() string
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message)
	Close()
}

// StatsRecorder 对局结果记录接口
type StatsRecorder interface {
	RecordResult(ctx context.Context, roomID string, winner game.Slot, rounds int) error
	GetStats(ctx context.Context) (*protocol.StatsResultPayload, error)
}

// RoomManager 房间管理器
// 房间只存在于进程内存中，进程重启即全部丢失
type RoomManager struct {
	joinPolicy  string
	roomTimeout time.Duration
	stats       StatsRecorder

	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewRoomManager 创建房间管理器
// roomTimeout 大于 0 时启动空房间回收协程，默认关闭
func NewRoomManager(cfg *config.Config, stats StatsRecorder) *RoomManager {
	rm := &RoomManager{
		joinPolicy:  cfg.Game.JoinPolicy,
		roomTimeout: cfg.Game.RoomTimeoutDuration(),
		stats:       stats,
		rooms:       make(map[string]*Room),
	}

	if rm.roomTimeout > 0 {
		go rm.cleanupLoop()
	}

	return rm
}

// CreateRoom 创建房间，分配全新对局状态
func (rm *RoomManager) CreateRoom() *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room := &Room{
		ID:        rm.generateRoomID(),
		CreatedAt: time.Now(),
		manager:   rm,
		phase:     PhaseWaiting,
		clients:   make(map[game.Slot]ClientInterface),
		state:     game.NewState(),
	}
	rm.rooms[room.ID] = room

	log.Printf("🏠 房间 %s 已创建", room.ID)
	return room
}

// GetRoom 获取房间，不存在时返回 nil
func (rm *RoomManager) GetRoom(id string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[id]
}

// RoomCount 返回当前房间数量
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// HandleDisconnect 扫描所有房间，解绑该连接占用的座位
func (rm *RoomManager) HandleDisconnect(c ClientInterface) {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	for _, room := range rooms {
		room.handleDisconnect(c)
	}
}

// generateRoomID 生成唯一房间号，调用方必须持有 rm.mu
func (rm *RoomManager) generateRoomID() string {
	for {
		id := make([]byte, roomIDLength)
		for i := range id {
			id[i] = roomIDChars[rand.Intn(len(roomIDChars))]
		}
		idStr := string(id)
		if _, exists := rm.rooms[idStr]; !exists {
			return idStr
		}
	}
}

// cleanupLoop 定期回收长时间无人的房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rm.cleanup()
	}
}

// cleanup 回收空置超时的房间
func (rm *RoomManager) cleanup() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := time.Now()
	for id, room := range rm.rooms {
		room.mu.Lock()
		empty := len(room.clients) == 0
		expired := now.Sub(room.CreatedAt) > rm.roomTimeout
		room.mu.Unlock()

		if empty && expired {
			delete(rm.rooms, id)
			log.Printf("🏠 房间 %s 空置超时已回收", id)
		}
	}
}
