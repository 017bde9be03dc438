package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/bubble-duel/internal/game"
	"github.com/palemoky/bubble-duel/internal/protocol"
)

const (
	// Redis key 定义
	totalGamesKey = "duel:stats:total"  // 已完成对局总数
	winsKey       = "duel:stats:wins"   // hash: 座位号 → 获胜场次
	recentKey     = "duel:stats:recent" // list: 最近对局结果

	// 最近对局保留条数
	recentLimit = 50
	// 最近对局过期时间
	recentExpiration = 24 * time.Hour
)

// MatchRecord 一场已完成对局的记录
type MatchRecord struct {
	RoomID     string `json:"room_id"`
	Winner     int    `json:"winner"`
	Rounds     int    `json:"rounds"`
	FinishedAt int64  `json:"finished_at"`
}

// StatsStore 对局统计存储
// 只记录聚合统计和最近结果，不保存房间状态，进程重启后房间不恢复
type StatsStore struct {
	client *redis.Client
}

// NewStatsStore 创建统计存储
func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client}
}

// RecordResult 记录一场已完成的对局
func (s *StatsStore) RecordResult(ctx context.Context, roomID string, winner game.Slot, rounds int) error {
	record := MatchRecord{
		RoomID:     roomID,
		Winner:     int(winner),
		Rounds:     rounds,
		FinishedAt: time.Now().Unix(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化对局记录失败: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, totalGamesKey)
		pipe.HIncrBy(ctx, winsKey, fmt.Sprintf("%d", winner), 1)
		pipe.LPush(ctx, recentKey, data)
		pipe.LTrim(ctx, recentKey, 0, recentLimit-1)
		pipe.Expire(ctx, recentKey, recentExpiration)
		return nil
	})
	if err != nil {
		return fmt.Errorf("写入对局统计失败: %w", err)
	}
	return nil
}

// GetStats 读取聚合统计
func (s *StatsStore) GetStats(ctx context.Context) (*protocol.StatsResultPayload, error) {
	total, err := s.client.Get(ctx, totalGamesKey).Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	wins, err := s.client.HGetAll(ctx, winsKey).Result()
	if err != nil {
		return nil, err
	}

	result := &protocol.StatsResultPayload{TotalGames: total}
	for slot, count := range wins {
		var n int64
		if _, err := fmt.Sscanf(count, "%d", &n); err != nil {
			continue
		}
		switch slot {
		case "1":
			result.Player1Wins = n
		case "2":
			result.Player2Wins = n
		}
	}
	return result, nil
}

// GetRecentMatches 读取最近的对局记录
func (s *StatsStore) GetRecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}

	items, err := s.client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]MatchRecord, 0, len(items))
	for _, item := range items {
		var r MatchRecord
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}
