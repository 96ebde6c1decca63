package fetch_test

import (
	"testing"
	"time"

	"github.com/septivank/garmin-health-worker/internal/fetch"
)

func TestClassifySport(t *testing.T) {
	cases := []struct {
		activityType string
		want         fetch.SportFamily
	}{
		{"lap_swimming", fetch.FamilySwimming},
		{"open_water_swimming", fetch.FamilySwimming},
		{"open_water", fetch.FamilySwimming},
		{"cycling", fetch.FamilyCycling},
		{"road_cycling", fetch.FamilyCycling},
		{"CYCLING", fetch.FamilyCycling},
		{"indoor_rowing", fetch.FamilyRowing},
		{"rowing_v2", fetch.FamilyRowing},
		{"running", fetch.FamilyNone},
		{"strength_training", fetch.FamilyNone},
		{"", fetch.FamilyNone},
	}

	for _, c := range cases {
		if got := fetch.ClassifySport(c.activityType); got != c.want {
			t.Errorf("ClassifySport(%q) = %q, want %q", c.activityType, got, c.want)
		}
	}
}

func TestActivitySummary_FullEntry(t *testing.T) {
	entry := map[string]interface{}{
		"activityId":     12345678901.0,
		"activityType":   map[string]interface{}{"typeKey": "running"},
		"startTimeLocal": "2025-08-30 07:15:00",
		"duration":       3600.5,
		"distance":       10000.0,
		"averageHR":      150.0,
		"maxHR":          175.0,
		"calories":       650.0,
		"averageSpeed":   2.77,
		"maxSpeed":       3.5,
		"elevationGain":  120.0,
		"elevationLoss":  118.0,
	}

	rec, ok := fetch.ActivitySummary(entry)
	if !ok {
		t.Fatal("Expected summary to parse")
	}

	if rec.ActivityID != "12345678901" {
		t.Errorf("Expected activity id '12345678901', got '%s'", rec.ActivityID)
	}
	if rec.ActivityType != "running" {
		t.Errorf("Expected type 'running', got '%s'", rec.ActivityType)
	}
	if rec.StartTime == nil {
		t.Fatal("Expected start time to parse")
	}
	want := time.Date(2025, 8, 30, 7, 15, 0, 0, time.Local)
	if !rec.StartTime.Equal(want) {
		t.Errorf("Expected start time %v, got %v", want, rec.StartTime)
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 3600.5 {
		t.Errorf("Expected duration 3600.5, got %v", rec.DurationSeconds)
	}
	if rec.AverageHR == nil || *rec.AverageHR != 150.0 {
		t.Errorf("Expected average HR 150, got %v", rec.AverageHR)
	}
}

func TestActivitySummary_MissingFieldsStayUnknown(t *testing.T) {
	entry := map[string]interface{}{
		"activityId": 42.0,
	}

	rec, ok := fetch.ActivitySummary(entry)
	if !ok {
		t.Fatal("Expected summary with only an id to parse")
	}
	if rec.ActivityType != "unknown" {
		t.Errorf("Expected type 'unknown', got '%s'", rec.ActivityType)
	}
	if rec.StartTime != nil || rec.DistanceMeters != nil || rec.Calories != nil {
		t.Error("Expected missing fields to stay nil")
	}
}

func TestActivitySummary_NoID(t *testing.T) {
	if _, ok := fetch.ActivitySummary(map[string]interface{}{"duration": 10.0}); ok {
		t.Error("Expected entry without activityId to be rejected")
	}
}

func TestSportMetrics_Cycling(t *testing.T) {
	detail := map[string]interface{}{
		"averageBikingCadenceInRevPerMinute": 85.0,
		"maxBikingCadenceInRevPerMinute":     110.0,
		"avgPower":                           220.0,
	}

	metrics := fetch.SportMetrics(fetch.FamilyCycling, detail)
	if len(metrics) != 3 {
		t.Fatalf("Expected 3 cycling metrics, got %d", len(metrics))
	}

	byName := map[string]float64{}
	for _, m := range metrics {
		byName[m.Name] = m.Value
	}
	if byName["avg_cadence"] != 85.0 {
		t.Errorf("Expected avg_cadence 85, got %f", byName["avg_cadence"])
	}
	if byName["avg_power"] != 220.0 {
		t.Errorf("Expected avg_power 220, got %f", byName["avg_power"])
	}
}

func TestSportMetrics_RowingFromSummaryDTO(t *testing.T) {
	// Some response versions nest the measurements under summaryDTO
	detail := map[string]interface{}{
		"summaryDTO": map[string]interface{}{
			"averageStrokeRate": 24.0,
			"maxStrokeRate":     30.0,
		},
	}

	metrics := fetch.SportMetrics(fetch.FamilyRowing, detail)
	if len(metrics) != 2 {
		t.Fatalf("Expected 2 rowing metrics, got %d", len(metrics))
	}

	byName := map[string]float64{}
	for _, m := range metrics {
		byName[m.Name] = m.Value
	}
	if byName["avg_stroke_rate"] != 24.0 {
		t.Errorf("Expected avg_stroke_rate 24, got %f", byName["avg_stroke_rate"])
	}
	if byName["max_stroke_rate"] != 30.0 {
		t.Errorf("Expected max_stroke_rate 30, got %f", byName["max_stroke_rate"])
	}
}

func TestSportMetrics_Swimming(t *testing.T) {
	detail := map[string]interface{}{
		"strokes":           850.0,
		"avgStrokeDistance": 2.1,
		"swolfAverage":      38.0,
	}

	metrics := fetch.SportMetrics(fetch.FamilySwimming, detail)
	if len(metrics) != 3 {
		t.Fatalf("Expected 3 swimming metrics, got %d", len(metrics))
	}
}

func TestSportMetrics_UnknownFamilyYieldsNone(t *testing.T) {
	detail := map[string]interface{}{
		"avgPower":          220.0,
		"averageStrokeRate": 24.0,
	}

	if metrics := fetch.SportMetrics(fetch.FamilyNone, detail); len(metrics) != 0 {
		t.Errorf("Expected no metrics for unclassified activity, got %d", len(metrics))
	}
}

func TestHeartRateSeries_ParsesPairs(t *testing.T) {
	doc := map[string]interface{}{
		"heartRateValues": []interface{}{
			[]interface{}{1725000000000.0, 95.0},
			[]interface{}{1725000001000.0, 98.0},
			[]interface{}{1725000002000.0, nil}, // dropout
			nil,                                 // remote padding
			[]interface{}{1725000003000.0, 101.0},
		},
	}

	samples := fetch.HeartRateSeries(doc)
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples (null entries skipped), got %d", len(samples))
	}

	if samples[0].HeartRate != 95 {
		t.Errorf("Expected first sample 95 bpm, got %d", samples[0].HeartRate)
	}
	want := time.UnixMilli(1725000000000).UTC()
	if !samples[0].Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, samples[0].Timestamp)
	}
	if samples[2].HeartRate != 101 {
		t.Errorf("Expected last sample 101 bpm, got %d", samples[2].HeartRate)
	}
}

func TestHeartRateSeries_AbsentSeries(t *testing.T) {
	if got := fetch.HeartRateSeries(map[string]interface{}{"zones": []interface{}{}}); got != nil {
		t.Errorf("Expected nil for document without heartRateValues, got %v", got)
	}
	if got := fetch.HeartRateSeries(nil); got != nil {
		t.Errorf("Expected nil for nil document, got %v", got)
	}
}
