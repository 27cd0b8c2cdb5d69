package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// LeaderboardCache stores family leaderboards using Redis Sorted Sets.
//
// Layout:
//   - Sorted Set "chorehub:leaderboard:rank:{family}" stores childID -> composite score
//   - Hash "chorehub:leaderboard:info:{family}" stores childID -> Standing JSON
//
// Both keys share one TTL, so a leaderboard is either fully cached or missing.
type LeaderboardCache struct {
	cache *Cache
}

const (
	keyLeaderboardRank = PrefixLeaderboard + "rank:"
	keyLeaderboardInfo = PrefixLeaderboard + "info:"
)

var _ family.LeaderboardCache = (*LeaderboardCache)(nil)

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// Score packs the ranking keys into one sorted-set score. Approved count and
// XP are clamped to six digits each, which keeps the value exact in a float64.
func Score(s family.Standing) float64 {
	const span = 1_000_000
	approved := clamp(s.ApprovedCount, span-1)
	xp := clamp(s.LearningXP, span-1)
	return float64(s.ChoreLevel)*span*span + float64(approved)*span + float64(xp)
}

func clamp(v, limit int) int {
	switch {
	case v < 0:
		return 0
	case v > limit:
		return limit
	}
	return v
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Set replaces the family's leaderboard.
func (l *LeaderboardCache) Set(ctx context.Context, fam shared.FamilyID, standings []family.Standing, ttl time.Duration) error {
	if !fam.IsValid() {
		return ErrCacheKeyEmpty
	}
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}

	rankKey := keyLeaderboardRank + fam.String()
	infoKey := keyLeaderboardInfo + fam.String()

	members := make([]redis.Z, 0, len(standings))
	info := make(map[string]interface{}, len(standings))
	for _, s := range standings {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		id := s.ChildID.String()
		members = append(members, redis.Z{Score: Score(s), Member: id})
		info[id] = data
	}

	_, err := l.cache.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rankKey, infoKey)
		if len(members) == 0 {
			return nil
		}
		pipe.ZAdd(ctx, rankKey, members...)
		pipe.HSet(ctx, infoKey, info)
		pipe.Expire(ctx, rankKey, ttl)
		pipe.Expire(ctx, infoKey, ttl)
		return nil
	})
	return err
}

// Invalidate removes the cached leaderboard of a family.
func (l *LeaderboardCache) Invalidate(ctx context.Context, fam shared.FamilyID) error {
	return l.cache.Delete(ctx, keyLeaderboardRank+fam.String(), keyLeaderboardInfo+fam.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Get returns the cached leaderboard with ranks recomputed from the entries.
func (l *LeaderboardCache) Get(ctx context.Context, fam shared.FamilyID) ([]family.Standing, bool, error) {
	ids, err := l.cache.Client().ZRevRange(ctx, keyLeaderboardRank+fam.String(), 0, -1).Result()
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, false, nil
	}

	values, err := l.cache.Client().HMGet(ctx, keyLeaderboardInfo+fam.String(), ids...).Result()
	if err != nil {
		return nil, false, err
	}

	standings := make([]family.Standing, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// The hash expired between the two reads.
			return nil, false, nil
		}
		var s family.Standing
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		standings = append(standings, s)
	}

	return family.Rank(standings), true, nil
}
