package fetch

import (
	"strconv"
	"strings"
	"time"

	"github.com/septivank/garmin-health-worker/internal/db"
	"github.com/septivank/garmin-health-worker/internal/garmin"
)

// SportFamily is the coarse activity classification that selects which
// sport-specific metrics get extracted.
type SportFamily string

const (
	FamilySwimming SportFamily = "swimming"
	FamilyCycling  SportFamily = "cycling"
	FamilyRowing   SportFamily = "rowing"
	FamilyNone     SportFamily = ""
)

// ClassifySport maps an activity type string to its sport family by
// case-insensitive substring match. Unknown types yield FamilyNone and no
// sport metrics.
func ClassifySport(activityType string) SportFamily {
	t := strings.ToLower(activityType)
	switch {
	case strings.Contains(t, "swim"), strings.Contains(t, "open_water"):
		return FamilySwimming
	case strings.Contains(t, "cycling"):
		return FamilyCycling
	case strings.Contains(t, "rowing"):
		return FamilyRowing
	default:
		return FamilyNone
	}
}

const startTimeLayout = "2006-01-02 15:04:05"

// ActivitySummary builds an ActivityRecord draft from one entry of the
// remote activity list. Missing numeric fields stay nil.
func ActivitySummary(entry garmin.Document) (*db.ActivityRecord, bool) {
	obj, ok := garmin.AsObject(entry)
	if !ok {
		return nil, false
	}

	// activityId arrives as a JSON number; the natural key is its decimal
	// string form.
	id, ok := garmin.DigNumber(obj, "activityId")
	if !ok {
		return nil, false
	}

	rec := &db.ActivityRecord{
		ActivityID:   formatID(id),
		ActivityType: "unknown",
	}
	if t, ok := garmin.DigString(obj, "activityType", "typeKey"); ok && t != "" {
		rec.ActivityType = t
	}
	if s, ok := garmin.DigString(obj, "startTimeLocal"); ok {
		if ts, err := time.ParseInLocation(startTimeLayout, s, time.Local); err == nil {
			rec.StartTime = &ts
		}
	}
	rec.DurationSeconds = digFloat(obj, "duration")
	rec.DistanceMeters = digFloat(obj, "distance")
	rec.AverageHR = digFloat(obj, "averageHR")
	rec.MaxHR = digFloat(obj, "maxHR")
	rec.Calories = digFloat(obj, "calories")
	rec.AverageSpeed = digFloat(obj, "averageSpeed")
	rec.MaxSpeed = digFloat(obj, "maxSpeed")
	rec.ElevationGain = digFloat(obj, "elevationGain")
	rec.ElevationLoss = digFloat(obj, "elevationLoss")

	return rec, true
}

// SportMetrics extracts the family-specific measurements from an activity
// detail document. An activity outside the known families yields nothing.
func SportMetrics(family SportFamily, detail garmin.Document) []db.SportMetric {
	keys := sportMetricKeys(family)
	if len(keys) == 0 {
		return nil
	}

	var metrics []db.SportMetric
	for name, remoteKey := range keys {
		if v, ok := digDetail(detail, remoteKey); ok {
			metrics = append(metrics, db.SportMetric{Name: name, Value: v})
		}
	}
	return metrics
}

func sportMetricKeys(family SportFamily) map[string]string {
	switch family {
	case FamilySwimming:
		return map[string]string{
			"strokes":             "strokes",
			"avg_stroke_distance": "avgStrokeDistance",
			"swolf":               "swolfAverage",
		}
	case FamilyCycling:
		return map[string]string{
			"avg_cadence": "averageBikingCadenceInRevPerMinute",
			"max_cadence": "maxBikingCadenceInRevPerMinute",
			"avg_power":   "avgPower",
		}
	case FamilyRowing:
		return map[string]string{
			"avg_stroke_rate": "averageStrokeRate",
			"max_stroke_rate": "maxStrokeRate",
		}
	default:
		return nil
	}
}

// digDetail looks a metric up at the top level of the detail document, then
// under summaryDTO where some response versions nest it.
func digDetail(detail garmin.Document, key string) (float64, bool) {
	if v, ok := garmin.DigNumber(detail, key); ok {
		return v, true
	}
	return garmin.DigNumber(detail, "summaryDTO", key)
}

// HeartRateSeries parses the heartRateValues pair list from an activity
// heart-rate document into ordered samples. Entries with a null rate are
// skipped; timestamps are epoch milliseconds.
func HeartRateSeries(doc garmin.Document) []db.HeartRateSample {
	values, ok := garmin.Dig(doc, "heartRateValues")
	if !ok {
		return nil
	}
	list, ok := garmin.AsList(values)
	if !ok {
		return nil
	}

	var samples []db.HeartRateSample
	for _, entry := range list {
		pair, ok := entry.([]interface{})
		if !ok || len(pair) < 2 {
			continue
		}
		ts, tsOK := garmin.Number(pair[0])
		hr, hrOK := garmin.Number(pair[1])
		if !tsOK || !hrOK || hr <= 0 {
			continue
		}
		samples = append(samples, db.HeartRateSample{
			Timestamp: time.UnixMilli(int64(ts)).UTC(),
			HeartRate: int64(hr),
		})
	}
	return samples
}

func digFloat(obj map[string]interface{}, key string) *float64 {
	if v, ok := garmin.DigNumber(obj, key); ok {
		return &v
	}
	return nil
}

func formatID(id float64) string {
	// Remote IDs are integral; avoid scientific notation from %v.
	return strconv.FormatInt(int64(id), 10)
}
