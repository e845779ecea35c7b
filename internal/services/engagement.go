package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	redisclient "github.com/vibeline/vibeline-backend/internal/clients/redis"
	"github.com/vibeline/vibeline-backend/internal/events"
	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

// Extra members pulled from the redis window so the created_at tie-break has
// room to reorder equal counts. The index also returns the full tie group at
// the window edge, so the re-sort sees every candidate the SQL path would.
const trendingCandidateSlack = 2

type EngagementService interface {
	// SetReaction upserts the caller's single vote on a content item and
	// returns it. The reaction notification fires only on the transition into
	// a like, never on re-confirmation.
	SetReaction(ctx context.Context, userID, contentID uuid.UUID, isLike bool) (*types.Reaction, error)
	// ComputeTrending ranks content by positive reactions, newest first on
	// ties. Results may trail concurrent writers; trending is advisory.
	ComputeTrending(ctx context.Context, limit int) ([]*types.ContentItem, error)
	QueryByTag(ctx context.Context, tag string) ([]*types.ContentItem, error)
}

type engagementService struct {
	db        *gorm.DB
	log       *logger.Logger
	reactions repos.ReactionRepo
	content   repos.ContentItemRepo
	trending  redisclient.TrendingIndex // nil when redis is not configured
	dispatch  events.Dispatcher
	sf        singleflight.Group
}

func NewEngagementService(db *gorm.DB, baseLog *logger.Logger, reactions repos.ReactionRepo, content repos.ContentItemRepo, trending redisclient.TrendingIndex, dispatch events.Dispatcher) EngagementService {
	return &engagementService{
		db:        db,
		log:       baseLog.With("service", "EngagementService"),
		reactions: reactions,
		content:   content,
		trending:  trending,
		dispatch:  dispatch,
	}
}

func (s *engagementService) SetReaction(ctx context.Context, userID, contentID uuid.UUID, isLike bool) (*types.Reaction, error) {
	if userID == uuid.Nil || contentID == uuid.Nil {
		return nil, apierr.NewValidation("missing_ids", fmt.Errorf("user and content ids are required"))
	}
	item, err := s.content.GetByID(ctx, nil, contentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apierr.NewNotFound("content_not_found", fmt.Errorf("content %s not found", contentID))
	}

	// The transition is derived from RowsAffected of guarded statements, never
	// from a prior read: racing duplicate calls each see exactly the change
	// they made, so one stored transition yields one delta.
	now := time.Now().UTC()
	var likeDelta int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &types.Reaction{
			ID:        uuid.New(),
			ContentID: contentID,
			UserID:    userID,
			IsLike:    isLike,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created, err := s.reactions.InsertIfAbsent(ctx, tx, row)
		if err != nil {
			return err
		}
		if created {
			if isLike {
				likeDelta = 1
			}
			return nil
		}
		flipped, err := s.reactions.FlipVote(ctx, tx, contentID, userID, isLike, now)
		if err != nil {
			return err
		}
		if flipped {
			if isLike {
				likeDelta = 1
			} else {
				likeDelta = -1
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if likeDelta != 0 {
		s.adjustTrending(ctx, contentID, likeDelta)
	}
	// Notify only when this call flipped the state to liked, and never for
	// the author liking their own content.
	if likeDelta > 0 && userID != item.AuthorID {
		s.dispatch.Emit(ctx, events.NewReactionRecorded(userID, item.AuthorID, contentID))
	}

	// Reload so the caller sees the stored row (original id and created_at
	// survive the upsert).
	current, err := s.reactions.GetByContentAndUser(ctx, nil, contentID, userID)
	if err != nil {
		return nil, err
	}
	return current, nil
}

func (s *engagementService) adjustTrending(ctx context.Context, contentID uuid.UUID, delta int64) {
	if s.trending == nil {
		return
	}
	if err := s.trending.Adjust(ctx, contentID, delta); err != nil {
		// Trending is advisory; the SQL recompute path remains correct.
		s.log.Warn("trending index adjust failed", "content_id", contentID, "error", err)
	}
}

func (s *engagementService) ComputeTrending(ctx context.Context, limit int) ([]*types.ContentItem, error) {
	if limit <= 0 {
		return nil, apierr.NewValidation("bad_limit", fmt.Errorf("limit must be positive"))
	}

	// Concurrent identical recomputes share one result. The flight serves
	// every waiter, so it must not die with the first caller's context.
	flightCtx := context.WithoutCancel(ctx)
	key := fmt.Sprintf("trending:%d", limit)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.computeTrending(flightCtx, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*types.ContentItem), nil
}

func (s *engagementService) computeTrending(ctx context.Context, limit int) ([]*types.ContentItem, error) {
	if s.trending != nil {
		items, err := s.trendingFromIndex(ctx, limit)
		if err == nil {
			return items, nil
		}
		s.log.Warn("trending index read failed, falling back to sql", "error", err)
	}
	return s.trendingFromSQL(ctx, limit)
}

func (s *engagementService) trendingFromIndex(ctx context.Context, limit int) ([]*types.ContentItem, error) {
	candidates, err := s.trending.TopCandidates(ctx, int64(limit*trendingCandidateSlack))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []*types.ContentItem{}, nil
	}
	ids := make([]uuid.UUID, 0, len(candidates))
	likes := make(map[uuid.UUID]int64, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ContentID)
		likes[c.ContentID] = c.Likes
	}
	items, err := s.content.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		li, lj := likes[items[i].ID], likes[items[j].ID]
		if li != lj {
			return li > lj
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *engagementService) trendingFromSQL(ctx context.Context, limit int) ([]*types.ContentItem, error) {
	counts, err := s.reactions.TopLiked(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return []*types.ContentItem{}, nil
	}
	ids := make([]uuid.UUID, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.ContentID)
	}
	items, err := s.content.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.ContentItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]*types.ContentItem, 0, len(counts))
	for _, c := range counts {
		if it, ok := byID[c.ContentID]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

func (s *engagementService) QueryByTag(ctx context.Context, tag string) ([]*types.ContentItem, error) {
	if tag == "" {
		return nil, apierr.NewValidation("missing_tag", fmt.Errorf("tag is required"))
	}
	return s.content.ListByTag(ctx, nil, tag)
}
