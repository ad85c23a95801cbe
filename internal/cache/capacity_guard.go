package cache

import (
	"context"
	"errors"
	"fmt"

	apperrors "event-lifecycle/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// CapacityGuard 免費活動搶票時的 Redis 前哨：先在 Redis 原子扣名額擋掉大部分
// 超量請求，資料庫的條件式 UPDATE 仍是最終裁決。未預熱的活動直接放行走 DB。
type CapacityGuard interface {
	// 預熱：活動發佈時把名額載入 Redis
	WarmUp(ctx context.Context, eventID int, capacity int) error
	// 保留：原子扣一個名額 (使用Lua腳本確保原子性)；未預熱回傳 warmed=false
	Reserve(ctx context.Context, eventID int) (ok bool, warmed bool, err error)
	// 歸還：DB 寫入失敗或取消報名時回補名額
	Release(ctx context.Context, eventID int) error
}

type RedisCapacityGuardImpl struct {
	client *redis.Client
}

func NewRedisCapacityGuard(client *redis.Client) CapacityGuard {
	return &RedisCapacityGuardImpl{
		client: client,
	}
}

func (g *RedisCapacityGuardImpl) key(eventID int) string {
	return fmt.Sprintf("event:%d:capacity", eventID)
}

func (g *RedisCapacityGuardImpl) WarmUp(ctx context.Context, eventID int, capacity int) error {
	return g.client.Set(ctx, g.key(eventID), capacity, 0).Err()
}

func (g *RedisCapacityGuardImpl) Reserve(ctx context.Context, eventID int) (bool, bool, error) {
	script := `
		-- 1. 取得剩餘名額
		local remaining = redis.call('GET', KEYS[1])

		-- 2. 未預熱：放行，讓資料庫做決定
		if not remaining then
			return -2
		end

		-- 3. 檢查並扣減
		if tonumber(remaining) <= 0 then
			return -1
		end
		redis.call('DECR', KEYS[1])
		return 1
	`

	result, err := g.client.Eval(ctx, script, []string{g.key(eventID)}).Result()
	if err != nil {
		return false, false, err
	}

	code, ok := result.(int64)
	if !ok {
		return false, false, errors.New("unexpected result")
	}

	switch code {
	case 1:
		return true, true, nil
	case -1:
		return false, true, apperrors.ErrCapacityExceeded
	case -2:
		return false, false, nil
	default:
		return false, false, errors.New("unexpected result")
	}
}

func (g *RedisCapacityGuardImpl) Release(ctx context.Context, eventID int) error {
	// 只有 key 存在才回補，避免把未預熱活動養出幽靈名額
	script := `
		if redis.call('EXISTS', KEYS[1]) == 1 then
			redis.call('INCR', KEYS[1])
		end
		return "OK"
	`
	_, err := g.client.Eval(ctx, script, []string{g.key(eventID)}).Result()
	return err
}
