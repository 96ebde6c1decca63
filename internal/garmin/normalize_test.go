package garmin_test

import (
	"testing"

	"github.com/septivank/garmin-health-worker/internal/garmin"
)

func TestAsObject_PlainObject(t *testing.T) {
	obj, ok := garmin.AsObject(map[string]interface{}{"a": 1.0})
	if !ok {
		t.Fatal("Expected object to coerce")
	}
	if obj["a"] != 1.0 {
		t.Errorf("Expected a=1.0, got %v", obj["a"])
	}
}

func TestAsObject_ListTakesFirstElement(t *testing.T) {
	doc := []interface{}{
		map[string]interface{}{"charged": 55.0},
		map[string]interface{}{"charged": 70.0},
	}

	obj, ok := garmin.AsObject(doc)
	if !ok {
		t.Fatal("Expected single-element coercion from list")
	}
	if obj["charged"] != 55.0 {
		t.Errorf("Expected first element's value 55.0, got %v", obj["charged"])
	}
}

func TestAsObject_EmptyIsAbsent(t *testing.T) {
	if _, ok := garmin.AsObject(map[string]interface{}{}); ok {
		t.Error("Expected empty object to be absent")
	}
	if _, ok := garmin.AsObject([]interface{}{}); ok {
		t.Error("Expected empty list to be absent")
	}
	if _, ok := garmin.AsObject(nil); ok {
		t.Error("Expected nil to be absent")
	}
	if _, ok := garmin.AsObject("scalar"); ok {
		t.Error("Expected scalar to be absent")
	}
}

func TestAsList_ObjectBecomesSingleElement(t *testing.T) {
	list, ok := garmin.AsList(map[string]interface{}{"a": 1.0})
	if !ok {
		t.Fatal("Expected object to coerce into a list")
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 element, got %d", len(list))
	}
}

func TestDig_NestedPath(t *testing.T) {
	doc := map[string]interface{}{
		"dailySleepDTO": map[string]interface{}{
			"sleepScores": map[string]interface{}{
				"overall": map[string]interface{}{"value": 82.0},
			},
		},
	}

	v, ok := garmin.DigNumber(doc, "dailySleepDTO", "sleepScores", "overall", "value")
	if !ok {
		t.Fatal("Expected nested dig to succeed")
	}
	if v != 82.0 {
		t.Errorf("Expected 82.0, got %f", v)
	}
}

func TestDig_ListAtIntermediateLevel(t *testing.T) {
	// A list where an object is expected still resolves via its first element
	doc := []interface{}{
		map[string]interface{}{"inner": map[string]interface{}{"value": 3.0}},
	}

	v, ok := garmin.DigNumber(doc, "inner", "value")
	if !ok {
		t.Fatal("Expected dig through list coercion to succeed")
	}
	if v != 3.0 {
		t.Errorf("Expected 3.0, got %f", v)
	}
}

func TestDig_MissingKey(t *testing.T) {
	doc := map[string]interface{}{"a": 1.0}
	if _, ok := garmin.Dig(doc, "b"); ok {
		t.Error("Expected missing key to be absent")
	}
	if _, ok := garmin.Dig(doc, "a", "nested"); ok {
		t.Error("Expected dig through scalar to be absent")
	}
}

func TestNumber_NonNumericAbsent(t *testing.T) {
	if _, ok := garmin.Number("42"); ok {
		t.Error("Expected string not to coerce to number")
	}
	if _, ok := garmin.Number(nil); ok {
		t.Error("Expected nil not to coerce to number")
	}
	if v, ok := garmin.Number(42.5); !ok || v != 42.5 {
		t.Errorf("Expected 42.5, got %v ok=%v", v, ok)
	}
}

func TestDigString(t *testing.T) {
	doc := map[string]interface{}{"activityType": map[string]interface{}{"typeKey": "lap_swimming"}}
	s, ok := garmin.DigString(doc, "activityType", "typeKey")
	if !ok || s != "lap_swimming" {
		t.Errorf("Expected 'lap_swimming', got '%s' ok=%v", s, ok)
	}
}
