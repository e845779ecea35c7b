package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/events"
	"github.com/vibeline/vibeline-backend/internal/gamedefs"
	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

type Progression struct {
	LevelState *types.LevelState       `json:"level_state"`
	Records    []*types.ProgressRecord `json:"records"`
}

type ProgressionService interface {
	// CompleteQuest and CompleteModule are idempotent: the first call stamps
	// the record and awards the definition's xp exactly once; repeats return
	// the stored record untouched. Completion and its xp grant commit
	// together, so a failed award leaves the record uncompleted and
	// retryable.
	CompleteQuest(ctx context.Context, userID, questID uuid.UUID) (*types.ProgressRecord, error)
	CompleteModule(ctx context.Context, userID, moduleID uuid.UUID) (*types.ProgressRecord, error)
	AwardXP(ctx context.Context, userID uuid.UUID, amount int) (*types.LevelState, error)
	IncrementAchievementProgress(ctx context.Context, userID, achievementID uuid.UUID, amount int) (*types.ProgressRecord, error)
	GetProgression(ctx context.Context, userID uuid.UUID) (*Progression, error)
}

type progressionService struct {
	db       *gorm.DB
	log      *logger.Logger
	defs     repos.GameDefRepo
	progress repos.ProgressRecordRepo
	levels   repos.LevelStateRepo
	cfg      gamedefs.Config
	dispatch events.Dispatcher
}

func NewProgressionService(db *gorm.DB, baseLog *logger.Logger, defs repos.GameDefRepo, progress repos.ProgressRecordRepo, levels repos.LevelStateRepo, cfg gamedefs.Config, dispatch events.Dispatcher) ProgressionService {
	return &progressionService{
		db:       db,
		log:      baseLog.With("service", "ProgressionService"),
		defs:     defs,
		progress: progress,
		levels:   levels,
		cfg:      cfg,
		dispatch: dispatch,
	}
}

func (s *progressionService) CompleteQuest(ctx context.Context, userID, questID uuid.UUID) (*types.ProgressRecord, error) {
	def, err := s.defs.GetQuest(ctx, nil, questID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.NewNotFound("quest_not_found", fmt.Errorf("quest %s not found", questID))
	}
	rec, awarded, raisedTo, err := s.completeAndAward(ctx, userID, def.ID, types.TargetQuest, def.XPReward)
	if err != nil {
		return nil, err
	}
	if awarded {
		s.dispatch.Emit(ctx, events.NewQuestCompleted(userID, def.ID, def.Title))
		s.log.Debug("quest completed", "user_id", userID, "quest", def.Slug)
	}
	if raisedTo > 0 {
		s.dispatch.Emit(ctx, events.NewLevelUp(userID, raisedTo))
		s.log.Info("level up", "user_id", userID, "level", raisedTo)
	}
	return rec, nil
}

func (s *progressionService) CompleteModule(ctx context.Context, userID, moduleID uuid.UUID) (*types.ProgressRecord, error) {
	def, err := s.defs.GetModule(ctx, nil, moduleID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.NewNotFound("module_not_found", fmt.Errorf("module %s not found", moduleID))
	}
	rec, awarded, raisedTo, err := s.completeAndAward(ctx, userID, def.ID, types.TargetModule, def.XPReward)
	if err != nil {
		return nil, err
	}
	if awarded {
		s.dispatch.Emit(ctx, events.NewModuleCompleted(userID, def.ID, def.Title))
		s.log.Debug("module completed", "user_id", userID, "module", def.Slug)
	}
	if raisedTo > 0 {
		s.dispatch.Emit(ctx, events.NewLevelUp(userID, raisedTo))
		s.log.Info("level up", "user_id", userID, "level", raisedTo)
	}
	return rec, nil
}

// completeAndAward runs the absent->completed transition and its xp grant in
// one transaction: a failed award rolls the completion back, so the record
// never reads completed with the xp forfeited. Events fire at the callers,
// after commit.
func (s *progressionService) completeAndAward(ctx context.Context, userID, targetID uuid.UUID, target types.ProgressTarget, xpReward int) (*types.ProgressRecord, bool, int, error) {
	if userID == uuid.Nil {
		return nil, false, 0, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	var (
		rec      *types.ProgressRecord
		awarded  bool
		raisedTo int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, awarded, err = s.completeSingleShot(ctx, tx, userID, targetID, target)
		if err != nil {
			return err
		}
		if !awarded {
			return nil
		}
		_, raisedTo, err = s.awardXP(ctx, tx, userID, xpReward)
		return err
	})
	if err != nil {
		return nil, false, 0, err
	}
	return rec, awarded, raisedTo, nil
}

// completeSingleShot performs the completion write for quests and modules.
// The insert-if-absent plus the guarded completion update make the xp grant
// exactly-once under concurrent duplicate calls.
func (s *progressionService) completeSingleShot(ctx context.Context, tx *gorm.DB, userID, targetID uuid.UUID, target types.ProgressTarget) (*types.ProgressRecord, bool, error) {
	now := time.Now().UTC()
	row := &types.ProgressRecord{
		ID:          uuid.New(),
		UserID:      userID,
		TargetID:    targetID,
		TargetType:  target,
		Progress:    0,
		Completed:   true,
		CompletedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	inserted, err := s.progress.InsertIfAbsent(ctx, tx, row)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return row, true, nil
	}
	// A record already existed. If an externally-tracked counter created it
	// uncompleted, this call completes it; the guard keeps the award
	// single-shot either way.
	crossed, err := s.progress.CompleteIfCrossed(ctx, tx, userID, targetID, 0, now)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.progress.GetByUserAndTarget(ctx, tx, userID, targetID)
	if err != nil {
		return nil, false, err
	}
	return existing, crossed, nil
}

func (s *progressionService) AwardXP(ctx context.Context, userID uuid.UUID, amount int) (*types.LevelState, error) {
	if userID == uuid.Nil {
		return nil, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	if amount < 0 {
		return nil, apierr.NewValidation("negative_xp", fmt.Errorf("xp amount must be non-negative"))
	}
	var (
		state    *types.LevelState
		raisedTo int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		state, raisedTo, err = s.awardXP(ctx, tx, userID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	if raisedTo > 0 {
		s.dispatch.Emit(ctx, events.NewLevelUp(userID, raisedTo))
		s.log.Info("level up", "user_id", userID, "level", raisedTo)
	}
	return state, nil
}

// awardXP adds xp and recomputes the level inside the caller's transaction.
// It returns the level it raised the user to, or 0 when the level held.
func (s *progressionService) awardXP(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) (*types.LevelState, int, error) {
	if err := s.levels.EnsureExists(ctx, tx, userID); err != nil {
		return nil, 0, err
	}
	if amount > 0 {
		if err := s.levels.AddXP(ctx, tx, userID, amount); err != nil {
			return nil, 0, err
		}
	}
	state, err := s.levels.GetByUser(ctx, tx, userID)
	if err != nil {
		return nil, 0, err
	}
	if state == nil {
		return nil, 0, fmt.Errorf("level state missing after ensure for user %s", userID)
	}
	newLevel := s.cfg.LevelForXP(state.XP)
	if newLevel <= state.Level {
		return state, 0, nil
	}
	raised, err := s.levels.RaiseLevelTo(ctx, tx, userID, newLevel)
	if err != nil {
		return nil, 0, err
	}
	if !raised {
		return state, 0, nil
	}
	state.Level = newLevel
	return state, newLevel, nil
}

func (s *progressionService) IncrementAchievementProgress(ctx context.Context, userID, achievementID uuid.UUID, amount int) (*types.ProgressRecord, error) {
	if userID == uuid.Nil {
		return nil, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	if amount < 1 {
		return nil, apierr.NewValidation("bad_amount", fmt.Errorf("amount must be at least 1"))
	}
	def, err := s.defs.GetAchievement(ctx, nil, achievementID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.NewNotFound("achievement_not_found", fmt.Errorf("achievement %s not found", achievementID))
	}

	now := time.Now().UTC()
	var (
		rec     *types.ProgressRecord
		crossed bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &types.ProgressRecord{
			ID:         uuid.New(),
			UserID:     userID,
			TargetID:   def.ID,
			TargetType: types.TargetAchievement,
			Progress:   0,
			Completed:  false,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := s.progress.InsertIfAbsent(ctx, tx, row); err != nil {
			return err
		}
		// Clamped add is a no-op once unlocked (guarded on completed = false).
		if err := s.progress.AddProgressClamped(ctx, tx, userID, def.ID, amount, def.RequiredProgress); err != nil {
			return err
		}
		var err error
		crossed, err = s.progress.CompleteIfCrossed(ctx, tx, userID, def.ID, def.RequiredProgress, now)
		if err != nil {
			return err
		}
		rec, err = s.progress.GetByUserAndTarget(ctx, tx, userID, def.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if crossed {
		s.dispatch.Emit(ctx, events.NewAchievementUnlocked(userID, def.ID, def.Title))
		s.log.Info("achievement unlocked", "user_id", userID, "achievement", def.Slug)
	}
	return rec, nil
}

func (s *progressionService) GetProgression(ctx context.Context, userID uuid.UUID) (*Progression, error) {
	if userID == uuid.Nil {
		return nil, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	state, err := s.levels.GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		// Lazily-created state: report the implicit starting point without
		// writing a row.
		state = &types.LevelState{UserID: userID, Level: 1, XP: 0}
	}
	records, err := s.progress.ListForUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return &Progression{LevelState: state, Records: records}, nil
}
