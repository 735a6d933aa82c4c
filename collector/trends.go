package collector

import (
	"math"
	"time"

	"camwatch/models"
)

const (
	// HistoryWindow is how many prior daily snapshots feed the math.
	HistoryWindow = 14

	// DefaultActivityThreshold is the minimum daily image delta that
	// counts as significant activity.
	DefaultActivityThreshold = 5

	anomalyDeviationThreshold = 2.5
	anomalySeverityThreshold  = 4.0
	inactivityCapDays         = 14
)

// ImagesAddedToday is the day-over-day image delta, floored at zero so
// an SD card wipe reads as no new images rather than a negative count.
// Missing values on either side yield zero.
func ImagesAddedToday(today *int, history []models.DailySnapshot) int {
	if today == nil || len(history) == 0 {
		return 0
	}
	prev := history[len(history)-1].SDImages
	if prev == nil {
		return 0
	}
	delta := *today - *prev
	if delta < 0 {
		return 0
	}
	return delta
}

// recentDeltas computes clamped day-over-day deltas from the last
// maxDeltas+1 history rows. Pairs with a missing count are skipped.
func recentDeltas(history []models.DailySnapshot, maxDeltas int) []int {
	start := len(history) - (maxDeltas + 1)
	if start < 0 {
		start = 0
	}

	var deltas []int
	for i := start + 1; i < len(history); i++ {
		prev, cur := history[i-1].SDImages, history[i].SDImages
		if prev == nil || cur == nil {
			continue
		}
		d := *cur - *prev
		if d < 0 {
			d = 0
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// SevenDayAverage is the mean of the last up-to-7 daily deltas, rounded
// to one decimal. Returns nil with fewer than two history rows.
func SevenDayAverage(history []models.DailySnapshot) *float64 {
	if len(history) < 2 {
		return nil
	}
	deltas := recentDeltas(history, 7)
	if len(deltas) == 0 {
		return nil
	}

	sum := 0
	for _, d := range deltas {
		sum += d
	}
	avg := math.Round(float64(sum)/float64(len(deltas))*10) / 10
	return &avg
}

// AnomalyResult describes how far today's delta sits from recent norms.
type AnomalyResult struct {
	Detected  bool
	Type      string // spike or drop
	Severity  string // moderate or high
	Deviation float64
}

// DetectAnomaly compares today's delta against the variance of the
// recent delta set. The +1 in the denominator keeps flat histories from
// flagging every nonzero day.
func DetectAnomaly(today *int, added int, avg *float64, history []models.DailySnapshot) AnomalyResult {
	if today == nil || avg == nil || len(history) < 7 {
		return AnomalyResult{}
	}

	deltas := recentDeltas(history, 7)
	if len(deltas) < 3 {
		return AnomalyResult{}
	}

	mean := 0.0
	for _, d := range deltas {
		mean += float64(d)
	}
	mean /= float64(len(deltas))

	variance := 0.0
	for _, d := range deltas {
		diff := float64(d) - mean
		variance += diff * diff
	}
	variance /= float64(len(deltas))
	stdDev := math.Sqrt(variance)

	deviation := math.Abs(float64(added)-*avg) / (stdDev + 1)
	if deviation <= anomalyDeviationThreshold {
		return AnomalyResult{Deviation: deviation}
	}

	result := AnomalyResult{
		Detected:  true,
		Type:      models.AnomalyDrop,
		Severity:  models.SeverityModerate,
		Deviation: deviation,
	}
	if float64(added) > *avg {
		result.Type = models.AnomalySpike
	}
	if deviation > anomalySeverityThreshold {
		result.Severity = models.SeverityHigh
	}
	return result
}

// DaysSinceActivity scans history newest-first for the last day whose
// delta reached threshold and returns the calendar-day distance to
// today, capped at 14. With no qualifying day it returns 14 when a full
// window of evidence exists, nil otherwise.
func DaysSinceActivity(history []models.DailySnapshot, threshold int, today time.Time) *int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ImagesAdded < threshold {
			continue
		}
		days := daysBetween(history[i].SnapshotDate, today)
		if days > inactivityCapDays {
			days = inactivityCapDays
		}
		return &days
	}

	if len(history) >= HistoryWindow {
		capped := inactivityCapDays
		return &capped
	}
	return nil
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// RecentTrendSum adds the signed changes in daily activity (the
// difference between consecutive day-over-day deltas) across the last
// min(maxTransitions, available) transitions. Steady activity sums to
// zero no matter how high the daily rate is; only acceleration or
// deceleration moves it. Deltas here are unclamped, unlike the stored
// ImagesAdded values.
func RecentTrendSum(history []models.DailySnapshot, maxTransitions int) int {
	if len(history) < 3 {
		return 0
	}

	signed := make([]*int, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1].SDImages, history[i].SDImages
		if prev == nil || cur == nil {
			continue
		}
		d := *cur - *prev
		signed[i-1] = &d
	}

	transitions := len(signed) - 1
	if transitions > maxTransitions {
		transitions = maxTransitions
	}

	sum := 0
	for i := len(signed) - transitions; i < len(signed); i++ {
		if i <= 0 || signed[i] == nil || signed[i-1] == nil {
			continue
		}
		sum += *signed[i] - *signed[i-1]
	}
	return sum
}

// ClassifyTrend labels today's activity relative to the weekly norm.
// Rules are evaluated in order; anything that is neither clearly
// directional nor settled is variable.
func ClassifyTrend(today *int, added int, avg *float64, history []models.DailySnapshot) models.ActivityTrend {
	if today == nil || avg == nil || len(history) < 7 {
		return models.TrendInsufficientData
	}

	pctChange := (float64(added) - *avg) / (*avg + 1) * 100
	recentTrend := RecentTrendSum(history, 3)

	switch {
	case pctChange > 50 || (pctChange > 20 && recentTrend > 10):
		return models.TrendStronglyIncreasing
	case pctChange > 15 || (pctChange > 5 && recentTrend > 5):
		return models.TrendIncreasing
	case pctChange < -30 || (pctChange < -15 && recentTrend < -10):
		return models.TrendDecreasing
	case math.Abs(pctChange) <= 15 && recentTrend >= -5 && recentTrend <= 5:
		return models.TrendStable
	default:
		return models.TrendVariable
	}
}

// WeeklyChange is today's count minus the count seven snapshots back;
// nil without a full week of history or with either count missing.
func WeeklyChange(today *int, history []models.DailySnapshot) *int {
	if today == nil || len(history) < 7 {
		return nil
	}
	ref := history[len(history)-7].SDImages
	if ref == nil {
		return nil
	}
	change := *today - *ref
	return &change
}
