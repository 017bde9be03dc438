package game

import "errors"

// Action 玩家在一个回合内可提交的行动
type Action string

const (
	ActionNone   Action = "none"   // 尚未行动
	ActionBubble Action = "bubble" // 吹泡泡，积攒 1 点能量
	ActionShield Action = "shield" // 举盾，挡住攻击，下回合冷却
	ActionAttack Action = "attack" // 攻击，消耗 1 点能量
)

// ParseAction 解析客户端提交的行动字符串
// none 不是合法的提交值，只作为内部的"未行动"标记
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionBubble, ActionShield, ActionAttack:
		return Action(s), true
	}
	return ActionNone, false
}

// Slot 玩家座位号，固定为 1 或 2
type Slot int

const (
	SlotNone Slot = 0 // 无（用于 Winner 字段）
	Slot1    Slot = 1
	Slot2    Slot = 2
)

// ValidSlot 判断座位号是否合法
func ValidSlot(n int) bool {
	return n == int(Slot1) || n == int(Slot2)
}

// Other 返回对面的座位号
func (s Slot) Other() Slot {
	if s == Slot1 {
		return Slot2
	}
	return Slot1
}

// Player 单个玩家的对局状态
type Player struct {
	Energy              int    // 能量，攻击消耗、吹泡泡积攒
	PendingChoice       Action // 本回合待结算的行动
	ShieldUsedLastRound bool   // 上回合是否举盾（举盾冷却）
}

// State 对局状态，房间独占持有，按值传入结算函数
type State struct {
	Players  [2]Player // 下标 = 座位号 - 1
	Round    int       // 已结算的回合数
	GameOver bool
	Winner   Slot // GameOver 为 true 时必定非零
}

// NewState 创建初始对局状态：能量清零、无待结算行动、无冷却
func NewState() State {
	return State{}
}

// Player 返回指定座位的玩家状态
func (s State) Player(slot Slot) Player {
	return s.Players[slot-1]
}

// SetPending 登记指定座位的待结算行动，重复提交覆盖之前的
func (s *State) SetPending(slot Slot, a Action) {
	s.Players[slot-1].PendingChoice = a
}

// BothPending 双方是否都已提交行动
func (s State) BothPending() bool {
	return s.Players[0].PendingChoice != ActionNone && s.Players[1].PendingChoice != ActionNone
}

// 行动校验错误
var (
	ErrGameOver       = errors.New("游戏已结束，发送 restart-game 重新开始")
	ErrNoEnergy       = errors.New("能量不足，无法攻击，先吹泡泡积攒能量")
	ErrShieldCooldown = errors.New("不能连续两回合举盾")
	ErrUnknownAction  = errors.New("未知的行动类型")
)

// ValidateChoice 校验指定座位提交该行动是否被接受
// 被拒绝的行动不改变任何状态
func (s State) ValidateChoice(slot Slot, a Action) error {
	switch a {
	case ActionBubble, ActionShield, ActionAttack:
	default:
		return ErrUnknownAction
	}
	if s.GameOver {
		return ErrGameOver
	}
	p := s.Player(slot)
	if a == ActionAttack && p.Energy < 1 {
		return ErrNoEnergy
	}
	if a == ActionShield && p.ShieldUsedLastRound {
		return ErrShieldCooldown
	}
	return nil
}
