package game

import "fmt"

// Result 一个回合的结算结果
type Result struct {
	Round         int    // 本次结算后的回合数
	Player1Action Action
	Player2Action Action
	Player1Energy int // 结算后的能量
	Player2Energy int
	Message       string
	GameOver      bool
	Winner        Slot
}

// Resolve 结算一个回合：纯函数，不修改入参
//
// 规则按固定顺序求值（规则之间互斥，顺序只为结果可复现）：
//  1. 攻击方先扣 1 点能量，无论攻击是否命中或被挡
//  2. 泡泡 vs 攻击 → 攻击方立即获胜
//  3. 攻击 vs 攻击 → 无事发生（双方都已付能量）
//  4. 攻击 vs 盾牌 → 攻击被挡住
//  5. 泡泡 vs 泡泡 → 双方各 +1 能量
//  6. 泡泡 vs 盾牌 → 吹泡泡一方 +1 能量
//  7. 盾牌 vs 盾牌 → 无事发生
//
// 结算后：记录双方的举盾冷却、清空双方待结算行动、回合数 +1
func Resolve(s State, a1, a2 Action) (State, Result) {
	// 规则 1：攻击先付能量
	if a1 == ActionAttack {
		s.Players[0].Energy--
	}
	if a2 == ActionAttack {
		s.Players[1].Energy--
	}

	var msg string
	switch {
	// 规则 2：泡泡撞上攻击，攻击方获胜
	case a1 == ActionBubble && a2 == ActionAttack:
		s.GameOver = true
		s.Winner = Slot2
		msg = "玩家1 吹泡泡时被击中，玩家2 获胜！"
	case a1 == ActionAttack && a2 == ActionBubble:
		s.GameOver = true
		s.Winner = Slot1
		msg = "玩家2 吹泡泡时被击中，玩家1 获胜！"

	// 规则 3：双方对轰
	case a1 == ActionAttack && a2 == ActionAttack:
		msg = "双方同时攻击，互相抵消"

	// 规则 4：攻击被盾牌挡住
	case a1 == ActionAttack && a2 == ActionShield:
		msg = "玩家1 的攻击被盾牌挡住了"
	case a1 == ActionShield && a2 == ActionAttack:
		msg = "玩家2 的攻击被盾牌挡住了"

	// 规则 5：双方吹泡泡
	case a1 == ActionBubble && a2 == ActionBubble:
		s.Players[0].Energy++
		s.Players[1].Energy++
		msg = "双方吹泡泡，各获得 1 点能量"

	// 规则 6：一方吹泡泡，一方举盾
	case a1 == ActionBubble && a2 == ActionShield:
		s.Players[0].Energy++
		msg = "玩家2 举盾观望，玩家1 获得 1 点能量"
	case a1 == ActionShield && a2 == ActionBubble:
		s.Players[1].Energy++
		msg = "玩家1 举盾观望，玩家2 获得 1 点能量"

	// 规则 7：双方举盾
	case a1 == ActionShield && a2 == ActionShield:
		msg = "双方举盾，风平浪静"

	default:
		// 行动在提交时已校验过，这里不应出现
		msg = fmt.Sprintf("未知的行动组合: %s vs %s", a1, a2)
	}

	// 冷却记录与回合推进
	s.Players[0].ShieldUsedLastRound = a1 == ActionShield
	s.Players[1].ShieldUsedLastRound = a2 == ActionShield
	s.Players[0].PendingChoice = ActionNone
	s.Players[1].PendingChoice = ActionNone
	s.Round++

	return s, Result{
		Round:         s.Round,
		Player1Action: a1,
		Player2Action: a2,
		Player1Energy: s.Players[0].Energy,
		Player2Energy: s.Players[1].Energy,
		Message:       msg,
		GameOver:      s.GameOver,
		Winner:        s.Winner,
	}
}
