package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"plantao/backend/internal/model"
	"plantao/backend/internal/repository"
)

// ConflictChecker reports whether a professional is already booked on a posting's date.
type ConflictChecker interface {
	HasConflict(ctx context.Context, professionalID string, posting *model.Posting) (bool, error)
}

type scheduleConflictChecker struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewConflictChecker creates a ConflictChecker over schedule blocks
func NewConflictChecker(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ConflictChecker {
	return &scheduleConflictChecker{repo: repo, loc: loc, logger: logger}
}

// HasConflict compares the posting's comparison date (immediate date, specific
// date or range start) with every active block, inclusive on both ends.
// A posting without a resolvable date never conflicts.
func (c *scheduleConflictChecker) HasConflict(ctx context.Context, professionalID string, posting *model.Posting) (bool, error) {
	day, ok := posting.ComparisonDate(c.loc)
	if !ok {
		return false, nil
	}

	blocks, err := c.repo.ScheduleBlock.ListActiveByProfessional(ctx, professionalID)
	if err != nil {
		c.logger.Error("falha ao consultar agenda", zap.String("professional_id", professionalID), zap.Error(err))
		return false, err
	}

	for i := range blocks {
		if blocks[i].Covers(day) {
			return true, nil
		}
	}
	return false, nil
}
