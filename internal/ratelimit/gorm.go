package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/classifieds-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLimiter keeps counters in the rate_limit_counters table.
type GormLimiter struct {
	db    *gorm.DB
	rules Rules
	now   func() time.Time
}

// NewGormLimiter creates a database-backed Limiter
func NewGormLimiter(db *gorm.DB, rules Rules) *GormLimiter {
	return &GormLimiter{db: db, rules: rules, now: time.Now}
}

func (l *GormLimiter) windowStart(rule Rule) time.Time {
	return l.now().UTC().Truncate(rule.Window)
}

// LimitByAction reports whether the counter of the current window reached the rule's max
func (l *GormLimiter) LimitByAction(ctx context.Context, userID uint64, action Action) (bool, error) {
	rule, ok := l.rules.lookup(action)
	if !ok {
		return false, nil
	}

	var counter models.RateLimitCounter
	err := l.db.WithContext(ctx).
		Where("action = ? AND user_id = ? AND window_start = ?", string(action), userID, l.windowStart(rule)).
		First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	return counter.Count >= rule.Max, nil
}

// TrackLimitByAction increments the counter of the current window
func (l *GormLimiter) TrackLimitByAction(ctx context.Context, userID uint64, action Action) error {
	rule, ok := l.rules.lookup(action)
	if !ok {
		return nil
	}

	counter := models.RateLimitCounter{
		Action:      string(action),
		UserID:      userID,
		WindowStart: l.windowStart(rule),
		Count:       1,
	}

	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "action"}, {Name: "user_id"}, {Name: "window_start"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
		}).
		Create(&counter).Error
	if err != nil {
		return fmt.Errorf("failed to track rate limit: %w", err)
	}

	return nil
}

// Prune deletes counters whose window started before the cutoff
func (l *GormLimiter) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := l.db.WithContext(ctx).
		Where("window_start < ?", before.UTC()).
		Delete(&models.RateLimitCounter{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune rate limit counters: %w", res.Error)
	}
	return res.RowsAffected, nil
}
