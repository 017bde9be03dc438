package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 对局操作
	MsgJoinRoom     MessageType = "join-room"     // 加入房间
	MsgChooseAction MessageType = "choose-action" // 提交本回合行动
	MsgRestartGame  MessageType = "restart-game"  // 重新开始
	MsgStats        MessageType = "stats"         // 查询对局统计
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgPong MessageType = "pong" // 心跳 pong

	// 房间相关
	MsgGameState          MessageType = "game-state"          // 完整对局快照
	MsgPlayerJoined       MessageType = "player-joined"       // 有玩家加入
	MsgGameStart          MessageType = "game-start"          // 双方到齐，开始对局
	MsgPlayerDisconnected MessageType = "player-disconnected" // 玩家断开

	// 回合流程
	MsgChoiceConfirmed MessageType = "choice-confirmed" // 行动已受理（发给提交者）
	MsgOpponentChose   MessageType = "opponent-chose"   // 对手已行动（不透露内容）
	MsgRoundResult     MessageType = "round-result"     // 回合结算结果
	MsgInvalidAction   MessageType = "invalid-action"   // 行动被拒绝（发给提交者）
	MsgGameRestarted   MessageType = "game-restarted"   // 对局已重置

	// 统计
	MsgStatsResult MessageType = "stats-result" // 对局统计结果

	// 生命周期
	MsgServerShutdown MessageType = "server-shutdown" // 服务器即将关闭

	// 错误
	MsgError MessageType = "error" // 错误消息
)

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID int    `json:"player_id"` // 座位号 1 或 2
}

// ChooseActionPayload 提交行动请求
type ChooseActionPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID int    `json:"player_id"`
	Action   string `json:"action"` // bubble / shield / attack
}

// RestartGamePayload 重新开始请求
type RestartGamePayload struct {
	RoomID string `json:"room_id"`
}

// --- 服务端响应 Payloads ---

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// PlayerStateInfo 单个玩家的对局状态
type PlayerStateInfo struct {
	PlayerID            int  `json:"player_id"`
	Energy              int  `json:"energy"`
	HasPendingChoice    bool `json:"has_pending_choice"`    // 本回合是否已行动（不透露内容）
	ShieldUsedLastRound bool `json:"shield_used_last_round"` // 上回合是否举盾（冷却中）
}

// GameStateInfo 完整对局快照
// 只在回合前或回合后发出，客户端不会看到结算中间态
type GameStateInfo struct {
	Round    int               `json:"round"`
	GameOver bool              `json:"game_over"`
	Winner   int               `json:"winner,omitempty"` // 0 表示尚无胜者
	Players  []PlayerStateInfo `json:"players"`
}

// PlayerJoinedPayload 玩家加入通知
type PlayerJoinedPayload struct {
	PlayerID    int `json:"player_id"`
	PlayerCount int `json:"player_count"`
}

// PlayerDisconnectedPayload 玩家断开通知
type PlayerDisconnectedPayload struct {
	PlayerID int `json:"player_id"`
}

// ChoiceConfirmedPayload 行动受理确认
type ChoiceConfirmedPayload struct {
	Action string `json:"action"`
}

// RoundResultPayload 回合结算结果
type RoundResultPayload struct {
	Round         int    `json:"round"`
	Player1Action string `json:"player1_action"`
	Player2Action string `json:"player2_action"`
	Player1Energy int    `json:"player1_energy"`
	Player2Energy int    `json:"player2_energy"`
	Message       string `json:"message"`
	GameOver      bool   `json:"game_over"`
	Winner        int    `json:"winner,omitempty"`
}

// InvalidActionPayload 行动被拒绝通知
type InvalidActionPayload struct {
	Message string `json:"message"`
}

// GameRestartedPayload 对局重置通知
type GameRestartedPayload struct {
	State GameStateInfo `json:"state"`
}

// StatsResultPayload 对局统计结果
type StatsResultPayload struct {
	TotalGames  int64 `json:"total_games"`
	Player1Wins int64 `json:"player1_wins"` // 1 号位获胜场次
	Player2Wins int64 `json:"player2_wins"` // 2 号位获胜场次
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 错误码定义 ---

const (
	ErrCodeUnknown          = 1000
	ErrCodeInvalidMsg       = 1001
	ErrCodeInvalidSlot      = 2001
	ErrCodeSlotTaken        = 2002
	ErrCodeStatsUnavailable = 4001
)

// ErrorMessages 错误码对应的默认文案
var ErrorMessages = map[int]string{
	ErrCodeUnknown:          "未知错误",
	ErrCodeInvalidMsg:       "无效的消息格式",
	ErrCodeInvalidSlot:      "无效的玩家座位号",
	ErrCodeSlotTaken:        "该座位已被占用",
	ErrCodeStatsUnavailable: "统计功能未启用",
}
