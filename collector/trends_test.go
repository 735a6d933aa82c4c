package collector

import (
	"testing"
	"time"

	"camwatch/models"
)

var testDay = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

// historyFromCounts builds consecutive daily snapshots ending the day
// before testDay, one per count. A nil count models a day the portal
// reported no SD figure.
func historyFromCounts(counts []*int) []models.DailySnapshot {
	history := make([]models.DailySnapshot, len(counts))
	for i, c := range counts {
		history[i] = models.DailySnapshot{
			SnapshotDate: testDay.AddDate(0, 0, i-len(counts)),
			SDImages:     c,
		}
	}
	return history
}

func counts(ns ...int) []*int {
	out := make([]*int, len(ns))
	for i, n := range ns {
		out[i] = intPtr(n)
	}
	return out
}

func TestImagesAddedToday(t *testing.T) {
	history := historyFromCounts(counts(100, 120))

	if got := ImagesAddedToday(intPtr(135), history); got != 15 {
		t.Errorf("delta = %d, want 15", got)
	}
	// SD card wipe: count dropped, delta floors at zero
	if got := ImagesAddedToday(intPtr(40), history); got != 0 {
		t.Errorf("delta after wipe = %d, want 0", got)
	}
	if got := ImagesAddedToday(nil, history); got != 0 {
		t.Errorf("delta with nil count = %d, want 0", got)
	}
	if got := ImagesAddedToday(intPtr(135), nil); got != 0 {
		t.Errorf("delta with no history = %d, want 0", got)
	}
	if got := ImagesAddedToday(intPtr(135), historyFromCounts([]*int{nil})); got != 0 {
		t.Errorf("delta with nil previous count = %d, want 0", got)
	}
}

func TestSevenDayAverage(t *testing.T) {
	if got := SevenDayAverage(historyFromCounts(counts(100))); got != nil {
		t.Errorf("average with one row = %v, want nil", *got)
	}

	got := SevenDayAverage(historyFromCounts(counts(100, 110, 120)))
	if got == nil || *got != 10.0 {
		t.Errorf("average = %v, want 10.0", fmtFloatPtr(got))
	}

	// 1+1+2 over three deltas rounds to one decimal
	got = SevenDayAverage(historyFromCounts(counts(100, 101, 102, 104)))
	if got == nil || *got != 1.3 {
		t.Errorf("rounded average = %v, want 1.3", fmtFloatPtr(got))
	}

	// Only the last 7 deltas count: the early 1000-image jump is outside the window
	got = SevenDayAverage(historyFromCounts(counts(0, 1000, 1010, 1020, 1030, 1040, 1050, 1060, 1070)))
	if got == nil || *got != 10.0 {
		t.Errorf("windowed average = %v, want 10.0", fmtFloatPtr(got))
	}

	// A pair with a missing count is skipped, not treated as zero
	got = SevenDayAverage(historyFromCounts([]*int{intPtr(100), nil, intPtr(120), intPtr(130)}))
	if got == nil || *got != 10.0 {
		t.Errorf("average with gap = %v, want 10.0", fmtFloatPtr(got))
	}
}

func TestDetectAnomaly(t *testing.T) {
	// Steady +10/day for a week: stdDev 0, so deviation is |added - 10|
	history := historyFromCounts(counts(100, 110, 120, 130, 140, 150, 160, 170))
	avg := SevenDayAverage(history)
	if avg == nil || *avg != 10.0 {
		t.Fatalf("average = %v, want 10.0", fmtFloatPtr(avg))
	}

	if r := DetectAnomaly(intPtr(182), 12, avg, history); r.Detected {
		t.Errorf("deviation 2.0 flagged as anomaly: %+v", r)
	}

	r := DetectAnomaly(intPtr(183), 13, avg, history)
	if !r.Detected || r.Type != models.AnomalySpike || r.Severity != models.SeverityModerate {
		t.Errorf("deviation 3.0 = %+v, want moderate spike", r)
	}

	r = DetectAnomaly(intPtr(270), 100, avg, history)
	if !r.Detected || r.Type != models.AnomalySpike || r.Severity != models.SeverityHigh {
		t.Errorf("deviation 90.0 = %+v, want high spike", r)
	}

	r = DetectAnomaly(intPtr(170), 0, avg, history)
	if !r.Detected || r.Type != models.AnomalyDrop || r.Severity != models.SeverityHigh {
		t.Errorf("deviation 10.0 = %+v, want high drop", r)
	}

	// Too little history never flags
	short := historyFromCounts(counts(100, 110, 120))
	if r := DetectAnomaly(intPtr(500), 380, SevenDayAverage(short), short); r.Detected {
		t.Errorf("anomaly flagged with 3 rows of history: %+v", r)
	}
	if r := DetectAnomaly(nil, 0, avg, history); r.Detected {
		t.Errorf("anomaly flagged with nil count: %+v", r)
	}
}

func TestDaysSinceActivity(t *testing.T) {
	active := func(date time.Time, added int) models.DailySnapshot {
		return models.DailySnapshot{SnapshotDate: date, ImagesAdded: added}
	}

	history := []models.DailySnapshot{
		active(testDay.AddDate(0, 0, -5), 0),
		active(testDay.AddDate(0, 0, -4), 2),
		active(testDay.AddDate(0, 0, -3), 6),
		active(testDay.AddDate(0, 0, -2), 0),
		active(testDay.AddDate(0, 0, -1), 1),
	}
	got := DaysSinceActivity(history, 5, testDay)
	if got == nil || *got != 3 {
		t.Errorf("days since activity = %v, want 3", fmtIntPtr(got))
	}

	// No qualifying day and a short history: not enough evidence
	if got := DaysSinceActivity(history, 50, testDay); got != nil {
		t.Errorf("days since activity with short quiet history = %d, want nil", *got)
	}

	// Full window with nothing above threshold caps at 14
	var quiet []models.DailySnapshot
	for i := 14; i >= 1; i-- {
		quiet = append(quiet, active(testDay.AddDate(0, 0, -i), 1))
	}
	got = DaysSinceActivity(quiet, 5, testDay)
	if got == nil || *got != 14 {
		t.Errorf("days since activity for quiet window = %v, want 14", fmtIntPtr(got))
	}

	// Old activity beyond the cap still reads as 14
	old := []models.DailySnapshot{
		active(testDay.AddDate(0, 0, -20), 30),
		active(testDay.AddDate(0, 0, -1), 0),
	}
	got = DaysSinceActivity(old, 5, testDay)
	if got == nil || *got != 14 {
		t.Errorf("days since old activity = %v, want 14", fmtIntPtr(got))
	}
}

func TestRecentTrendSum(t *testing.T) {
	// Deltas -10, +5, +10: activity accelerating by 15 then 5
	history := historyFromCounts(counts(100, 90, 95, 105))
	if got := RecentTrendSum(history, 3); got != 20 {
		t.Errorf("trend sum = %d, want 20", got)
	}

	// Steady +10/day is a flat trend, not a rising one
	if got := RecentTrendSum(historyFromCounts(counts(100, 110, 120, 130, 140)), 3); got != 0 {
		t.Errorf("trend sum for steady activity = %d, want 0", got)
	}

	// Decelerating: deltas 30, 10 change by -20
	if got := RecentTrendSum(historyFromCounts(counts(100, 130, 140)), 3); got != -20 {
		t.Errorf("trend sum for slowing activity = %d, want -20", got)
	}

	// Two rows give one delta and no delta-to-delta change
	if got := RecentTrendSum(historyFromCounts(counts(100, 110)), 3); got != 0 {
		t.Errorf("trend sum over short history = %d, want 0", got)
	}
	if got := RecentTrendSum(nil, 3); got != 0 {
		t.Errorf("trend sum over empty history = %d, want 0", got)
	}

	// A missing count voids the changes on both sides of it
	if got := RecentTrendSum(historyFromCounts([]*int{intPtr(100), intPtr(130), nil, intPtr(140)}), 3); got != 0 {
		t.Errorf("trend sum with gap = %d, want 0", got)
	}
}

// Seven history rows of constant delta 5 must read as settled: 5.0
// average, stable trend, nothing anomalous about another +5 day.
func TestSteadyActivityIsStable(t *testing.T) {
	history := historyFromCounts(counts(100, 105, 110, 115, 120, 125, 130))
	today := intPtr(135)
	added := ImagesAddedToday(today, history)
	if added != 5 {
		t.Fatalf("delta = %d, want 5", added)
	}

	avg := SevenDayAverage(history)
	if avg == nil || *avg != 5.0 {
		t.Fatalf("average = %v, want 5.0", fmtFloatPtr(avg))
	}

	if got := ClassifyTrend(today, added, avg, history); got != models.TrendStable {
		t.Errorf("trend = %s, want stable", got)
	}
	if r := DetectAnomaly(today, added, avg, history); r.Detected {
		t.Errorf("steady day flagged as anomaly: %+v", r)
	}
}

func TestClassifyTrend(t *testing.T) {
	steady := historyFromCounts(counts(100, 110, 120, 130, 140, 150, 160, 170))
	avg := SevenDayAverage(steady) // 10.0
	flat := historyFromCounts(counts(100, 100, 100, 100, 100, 100, 100, 100))
	flatAvg := SevenDayAverage(flat) // 0.0

	tests := []struct {
		name    string
		today   *int
		added   int
		avg     *float64
		history []models.DailySnapshot
		want    models.ActivityTrend
	}{
		{"short history", intPtr(130), 10, SevenDayAverage(historyFromCounts(counts(100, 110, 120))), historyFromCounts(counts(100, 110, 120)), models.TrendInsufficientData},
		{"nil count", nil, 0, avg, steady, models.TrendInsufficientData},
		{"flat and quiet", intPtr(100), 0, flatAvg, flat, models.TrendStable},
		{"burst from quiet", intPtr(110), 10, flatAvg, flat, models.TrendStronglyIncreasing},
		{"above average", intPtr(182), 12, avg, steady, models.TrendIncreasing},
		{"gone quiet", intPtr(170), 0, avg, steady, models.TrendDecreasing},
		{"mixed", intPtr(177), 7, avg, steady, models.TrendVariable},
	}

	for _, tt := range tests {
		if got := ClassifyTrend(tt.today, tt.added, tt.avg, tt.history); got != tt.want {
			t.Errorf("%s: trend = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestWeeklyChange(t *testing.T) {
	history := historyFromCounts(counts(100, 110, 120, 130, 140, 150, 160))
	got := WeeklyChange(intPtr(200), history)
	if got == nil || *got != 100 {
		t.Errorf("weekly change = %v, want 100", fmtIntPtr(got))
	}

	if got := WeeklyChange(intPtr(200), historyFromCounts(counts(100, 110))); got != nil {
		t.Errorf("weekly change with short history = %d, want nil", *got)
	}
	if got := WeeklyChange(nil, history); got != nil {
		t.Errorf("weekly change with nil count = %d, want nil", *got)
	}
}

func fmtFloatPtr(p *float64) interface{} {
	if p == nil {
		return "<nil>"
	}
	return *p
}
