package service

import (
	"fmt"
	"math"
	"time"
)

// NoShowPenalty sanction for the n-th no-show of a professional.
type NoShowPenalty struct {
	Ordinal int
	Days    int
	Warning bool
}

// PenaltyFor 1st no-show warns, 2nd suspends 7 days, 3rd and later 30 days.
func PenaltyFor(noShows int) NoShowPenalty {
	switch {
	case noShows <= 0:
		return NoShowPenalty{}
	case noShows == 1:
		return NoShowPenalty{Ordinal: 1, Warning: true}
	case noShows == 2:
		return NoShowPenalty{Ordinal: 2, Days: 7}
	default:
		return NoShowPenalty{Ordinal: noShows, Days: 30}
	}
}

// Until end of the suspension started at now.
func (p NoShowPenalty) Until(now time.Time) time.Time {
	return now.Add(time.Duration(p.Days) * 24 * time.Hour)
}

// Reason human-readable suspension reason.
func (p NoShowPenalty) Reason() string {
	return fmt.Sprintf("%dª ausência não justificada em substituição: suspensão de %d dias", p.Ordinal, p.Days)
}

// attendanceRate completed/(completed+noShows)*100 rounded to two decimals; 100 with no trials.
func attendanceRate(completed, noShows int) float64 {
	total := completed + noShows
	if total == 0 {
		return 100
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}
