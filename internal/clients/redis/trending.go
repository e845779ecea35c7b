package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vibeline/vibeline-backend/internal/logger"
)

// TrendingIndex keeps the incremental like tally per content item in a redis
// sorted set. It is an accelerator over the SQL recompute path: counts in the
// ZSET mirror the reaction table, adjusted on every like transition.
type TrendingIndex interface {
	// Adjust moves a content item's like count by delta (+1 on a transition
	// into liked, -1 out of it).
	Adjust(ctx context.Context, contentID uuid.UUID, delta int64) error
	// TopCandidates returns the top n members by score descending, extended
	// with every member tied at the nth score. Redis breaks score ties
	// lexicographically, so callers re-sort the window with the real
	// tie-break before trusting the order.
	TopCandidates(ctx context.Context, n int64) ([]Candidate, error)
	Close() error
}

type Candidate struct {
	ContentID uuid.UUID
	Likes     int64
}

type trendingIndex struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

func NewTrendingIndex(log *logger.Logger) (TrendingIndex, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	key := strings.TrimSpace(os.Getenv("REDIS_TRENDING_KEY"))
	if key == "" {
		key = "trending:likes"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &trendingIndex{
		log: log.With("service", "RedisTrendingIndex"),
		rdb: rdb,
		key: key,
	}, nil
}

func (t *trendingIndex) Adjust(ctx context.Context, contentID uuid.UUID, delta int64) error {
	if t == nil || t.rdb == nil {
		return fmt.Errorf("trending index not initialized")
	}
	if contentID == uuid.Nil || delta == 0 {
		return nil
	}
	return t.rdb.ZIncrBy(ctx, t.key, float64(delta), contentID.String()).Err()
}

func (t *trendingIndex) TopCandidates(ctx context.Context, n int64) ([]Candidate, error) {
	if t == nil || t.rdb == nil {
		return nil, fmt.Errorf("trending index not initialized")
	}
	if n <= 0 {
		return nil, nil
	}
	zs, err := t.rdb.ZRevRangeWithScores(ctx, t.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	// A full window may have cut through a group of equal scores, which redis
	// orders lexicographically. Pull every member tied with the edge score so
	// the caller's recency re-sort chooses among the whole group.
	if int64(len(zs)) == n {
		edge := strconv.FormatFloat(zs[len(zs)-1].Score, 'f', -1, 64)
		tied, err := t.rdb.ZRangeByScoreWithScores(ctx, t.key, &goredis.ZRangeBy{
			Min: edge,
			Max: edge,
		}).Result()
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(zs))
		for _, z := range zs {
			if m, ok := z.Member.(string); ok {
				seen[m] = true
			}
		}
		for _, z := range tied {
			if m, ok := z.Member.(string); ok && !seen[m] {
				zs = append(zs, z)
			}
		}
	}
	out := make([]Candidate, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := uuid.Parse(member)
		if err != nil {
			t.log.Warn("skipping malformed trending member", "member", member)
			continue
		}
		if z.Score <= 0 {
			continue
		}
		out = append(out, Candidate{ContentID: id, Likes: int64(z.Score)})
	}
	return out, nil
}

func (t *trendingIndex) Close() error {
	if t == nil || t.rdb == nil {
		return nil
	}
	return t.rdb.Close()
}
