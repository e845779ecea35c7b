package gamedefs

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config holds the static gamification catalog: quest/module/achievement
// definitions and the xp thresholds the level curve is derived from.
type Config struct {
	// LevelThresholds[i] is the minimum total xp for level i+2; level 1 is
	// the floor. Must be strictly increasing.
	LevelThresholds []int             `yaml:"level_thresholds"`
	Quests          []QuestSpec       `yaml:"quests"`
	Modules         []ModuleSpec      `yaml:"modules"`
	Achievements    []AchievementSpec `yaml:"achievements"`
}

type QuestSpec struct {
	ID       string `yaml:"id"`
	Slug     string `yaml:"slug"`
	Title    string `yaml:"title"`
	XPReward int    `yaml:"xp_reward"`
}

type ModuleSpec struct {
	ID       string `yaml:"id"`
	Slug     string `yaml:"slug"`
	Title    string `yaml:"title"`
	XPReward int    `yaml:"xp_reward"`
}

type AchievementSpec struct {
	ID               string `yaml:"id"`
	Slug             string `yaml:"slug"`
	Title            string `yaml:"title"`
	RequiredProgress int    `yaml:"required_progress"`
}

// Default returns the compiled-in catalog used when no GAMEDEFS_PATH file is
// supplied.
func Default() Config {
	return Config{
		LevelThresholds: []int{100, 250, 500, 1000, 2000, 3500, 5500, 8000, 11000},
		Quests: []QuestSpec{
			{Slug: "first-vibe", Title: "Post your first vibe", XPReward: 50},
			{Slug: "first-connection", Title: "Make your first connection", XPReward: 50},
			{Slug: "daily-checkin", Title: "Daily check-in", XPReward: 10},
		},
		Modules: []ModuleSpec{
			{Slug: "onboarding", Title: "Getting started", XPReward: 100},
			{Slug: "community-guidelines", Title: "Community guidelines", XPReward: 75},
		},
		Achievements: []AchievementSpec{
			{Slug: "popular", Title: "Collect 10 likes", RequiredProgress: 10},
			{Slug: "connector", Title: "Accept 5 connections", RequiredProgress: 5},
			{Slug: "curator", Title: "Tag 20 vibes", RequiredProgress: 20},
		},
	}
}

// Load reads a YAML override from path, or returns Default when path is
// empty. Loaded configs fully replace the defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read gamedefs: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse gamedefs: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.LevelThresholds) == 0 {
		return fmt.Errorf("gamedefs: level_thresholds is empty")
	}
	prev := 0
	for i, t := range c.LevelThresholds {
		if t <= prev {
			return fmt.Errorf("gamedefs: level_thresholds must be strictly increasing (index %d)", i)
		}
		prev = t
	}
	for _, q := range c.Quests {
		if strings.TrimSpace(q.Slug) == "" || q.XPReward < 0 {
			return fmt.Errorf("gamedefs: invalid quest %q", q.Slug)
		}
	}
	for _, m := range c.Modules {
		if strings.TrimSpace(m.Slug) == "" || m.XPReward < 0 {
			return fmt.Errorf("gamedefs: invalid module %q", m.Slug)
		}
	}
	for _, a := range c.Achievements {
		if strings.TrimSpace(a.Slug) == "" || a.RequiredProgress < 1 {
			return fmt.Errorf("gamedefs: invalid achievement %q", a.Slug)
		}
	}
	return nil
}

// LevelForXP maps total xp onto the level curve. Monotonic non-decreasing in
// xp by construction.
func (c Config) LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	// Thresholds are validated as increasing; sort.SearchInts gives the count
	// of thresholds at or below xp.
	n := sort.SearchInts(c.LevelThresholds, xp+1)
	return 1 + n
}

// SpecID parses the optional fixed id carried by a spec entry, minting a new
// one when absent. Seeding upserts by slug, so a minted id only sticks on
// first insert.
func SpecID(raw string) uuid.UUID {
	if id, err := uuid.Parse(strings.TrimSpace(raw)); err == nil && id != uuid.Nil {
		return id
	}
	return uuid.New()
}
