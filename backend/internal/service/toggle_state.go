package service

import (
	"time"

	"plantao/backend/internal/model"
)

// ToggleState daily availability-toggle counters of one professional, detached
// from the entity so every gate check starts from a freshly reset copy.
type ToggleState struct {
	Activations   int
	Deactivations int
	ResetDate     string // YYYY-MM-DD in the business timezone
	Tier          int
	LastLimitHit  string
}

func toggleStateOf(p *model.Professional) ToggleState {
	return ToggleState{
		Activations:   p.DailyActivations,
		Deactivations: p.DailyDeactivations,
		ResetDate:     p.CountersResetDate,
		Tier:          p.TogglePenaltyTier,
		LastLimitHit:  p.LastLimitHitDate,
	}
}

// ResetIfNewDay zeroes the counters when they belong to another day.
// The penalty tier is kept.
func (t *ToggleState) ResetIfNewDay(today string) bool {
	if t.ResetDate == today {
		return false
	}
	t.Activations = 0
	t.Deactivations = 0
	t.ResetDate = today
	return true
}

// CanActivate reports whether another activation fits today's cap.
func (t *ToggleState) CanActivate(limit int) bool { return t.Activations < limit }

// CanDeactivate reports whether another deactivation fits today's cap.
func (t *ToggleState) CanDeactivate(limit int) bool { return t.Deactivations < limit }

// Escalate raises the tier for a refused toggle, at most once per day.
func (t *ToggleState) Escalate(today string) bool {
	if t.LastLimitHit == today {
		return false
	}
	t.Tier++
	t.LastLimitHit = today
	return true
}

func (t *ToggleState) applyTo(p *model.Professional) {
	p.DailyActivations = t.Activations
	p.DailyDeactivations = t.Deactivations
	p.CountersResetDate = t.ResetDate
	p.TogglePenaltyTier = t.Tier
	p.LastLimitHitDate = t.LastLimitHit
}

// lockoutDuration base·2^(tier−threshold) capped at max; zero below the threshold.
func lockoutDuration(tier, threshold int, base, max time.Duration) time.Duration {
	if tier < threshold || base <= 0 {
		return 0
	}
	d := base
	for i := threshold; i < tier; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
