package fetch

// FieldSet is the flat, normalized output of one field fetcher, keyed by
// canonical column name. All daily metrics are numeric; integer columns are
// truncated at merge time. An empty or nil set means absent.
type FieldSet map[string]float64

// Canonical daily field names. These match the daily_health columns.
const (
	FieldSteps           = "steps"
	FieldDistanceMeters  = "distance_meters"
	FieldRestingHR       = "resting_heart_rate"
	FieldMaxHR           = "max_heart_rate"
	FieldSleepDuration   = "sleep_duration_seconds"
	FieldSleepScore      = "sleep_score"
	FieldBodyBattery     = "body_battery"
	FieldRespirationRate = "respiration_rate"
	FieldSpO2Avg         = "spo2_avg"
	FieldVO2Max          = "vo2_max"
)

// Merge folds other into fs, last write wins. Used by the daily aggregator
// to assemble one record from many fetchers; fetchers own disjoint keys so
// order does not matter in practice.
func (fs FieldSet) Merge(other FieldSet) {
	for k, v := range other {
		fs[k] = v
	}
}

// Get returns the value and whether the field was reported.
func (fs FieldSet) Get(name string) (float64, bool) {
	v, ok := fs[name]
	return v, ok
}
