package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func cooldownKey(communityID int64) string {
	return fmt.Sprintf("search_cooldown:community:%d", communityID)
}

// CheckAndSetCooldown reports whether a search for the community may start now
// and, if so, blocks further searches for limit. A nil client always allows.
func CheckAndSetCooldown(ctx context.Context, rdb *redis.Client, communityID int64, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, cooldownKey(communityID), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check search cooldown in redis: %w", err)
	}

	return wasSet, nil
}

func GetCooldownTTL(ctx context.Context, rdb *redis.Client, communityID int64) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, cooldownKey(communityID)).Result()
}

func ClearCooldown(ctx context.Context, rdb *redis.Client, communityID int64) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, cooldownKey(communityID)).Result()
	return err
}
