package db

import (
	"time"
)

// DailyHealthRecord is one row per calendar date. Pointer fields are nil
// when the source did not report the metric — an explicit unknown, distinct
// from a genuine zero.
type DailyHealthRecord struct {
	Date                 time.Time
	Steps                *int64
	DistanceMeters       *float64
	RestingHeartRate     *int64
	MaxHeartRate         *int64
	SleepDurationSeconds *int64
	SleepScore           *int64
	BodyBattery          *int64
	RespirationRate      *float64
	SpO2Avg              *float64
	VO2Max               *float64
}

// ActivityRecord is one row per remote activity identifier.
type ActivityRecord struct {
	ActivityID      string
	ActivityType    string
	StartTime       *time.Time
	DurationSeconds *float64
	DistanceMeters  *float64
	AverageHR       *float64
	MaxHR           *float64
	Calories        *float64
	AverageSpeed    *float64
	MaxSpeed        *float64
	ElevationGain   *float64
	ElevationLoss   *float64
}

// HeartRateSample is one point of an activity's heart-rate time series.
type HeartRateSample struct {
	Timestamp time.Time
	HeartRate int64
}

// SportMetric is a sport-family-specific measurement attached to an
// activity (stroke counts, cadence, stroke rate).
type SportMetric struct {
	Name  string
	Value float64
}
