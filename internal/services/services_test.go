package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vibeline/vibeline-backend/internal/events"
	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// Shared in-memory sqlite needs a single connection to stay alive.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&types.User{},
		&types.ContentItem{},
		&types.ContentTag{},
		&types.Connection{},
		&types.Reaction{},
		&types.Notification{},
		&types.QuestDef{},
		&types.ModuleDef{},
		&types.AchievementDef{},
		&types.ProgressRecord{},
		&types.LevelState{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeDispatcher) Emit(_ context.Context, ev events.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeDispatcher) all() []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.Event, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func seedUser(t *testing.T, db *gorm.DB, handle string) uuid.UUID {
	t.Helper()
	row := &types.User{ID: uuid.New(), Handle: handle}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed user %q: %v", handle, err)
	}
	return row.ID
}

func seedContent(t *testing.T, db *gorm.DB, authorID uuid.UUID, createdAt time.Time) *types.ContentItem {
	t.Helper()
	row := &types.ContentItem{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Body:      "vibe",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed content: %v", err)
	}
	return row
}
