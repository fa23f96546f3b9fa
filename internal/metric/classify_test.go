package metric_test

import (
	"testing"
	"time"

	"github.com/nerrad567/statebridge/internal/metric"
)

func newClassifier() *metric.Classifier {
	return metric.NewClassifier(metric.DefaultVocabulary(), nil)
}

func findKeyValue(cls metric.Classification, name string) (float64, bool) {
	for _, kv := range cls.KeyValues {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return 0, false
}

// =============================================================================
// Attribute Coercion Chain
// =============================================================================

func TestClassify_NumericKindsBecomeKeyValues(t *testing.T) {
	instant := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value metric.Value
		want  float64
	}{
		{"float", metric.Number(21.5), 21.5},
		{"integer", metric.Number(42), 42},
		{"bool true", metric.Bool(true), 1},
		{"bool false", metric.Bool(false), 0},
		{"temporal", metric.Temporal(instant), float64(instant.Unix())},
		{"iso string", metric.Text("2023-06-01T12:00:00Z"), float64(instant.UnixMilli())},
	}

	c := newClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(metric.ChangeRecord{
				EntityID:   "sensor.test",
				State:      "1",
				Time:       instant,
				Attributes: map[string]metric.Value{"attr": tt.value},
			})

			got, ok := findKeyValue(cls, "attr")
			if !ok {
				t.Fatalf("Classify() attr not in key_values, tags = %v", cls.Tags)
			}
			if got != tt.want {
				t.Errorf("Classify() attr = %v, want %v", got, tt.want)
			}
			if _, tagged := cls.Tags["attr"]; tagged {
				t.Error("Classify() attr appears in both key_values and tags")
			}
		})
	}
}

func TestClassify_NullAndCompositeDropped(t *testing.T) {
	tests := []struct {
		name  string
		value metric.Value
	}{
		{"null", metric.Null()},
		{"composite", metric.Composite()},
		{"decoded list", metric.DecodeValue([]any{"a", "b"})},
		{"decoded map", metric.DecodeValue(map[string]any{"k": "v"})},
	}

	c := newClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(metric.ChangeRecord{
				EntityID:   "sensor.test",
				State:      "1",
				Attributes: map[string]metric.Value{"attr": tt.value},
			})

			if _, ok := findKeyValue(cls, "attr"); ok {
				t.Error("Classify() dropped kind appeared in key_values")
			}
			if _, ok := cls.Tags["attr"]; ok {
				t.Error("Classify() dropped kind appeared in tags")
			}
		})
	}
}

func TestClassify_TextBecomesSanitizedTag(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(metric.ChangeRecord{
		EntityID: "sensor.test",
		State:    "1",
		Attributes: map[string]metric.Value{
			"friendly_name": metric.Text("Living Room"),
			"mode":          metric.Text("eco;auto"),
		},
	})

	if got := cls.Tags["friendly_name"]; got != "Living_Room" {
		t.Errorf("Classify() friendly_name tag = %q, want %q", got, "Living_Room")
	}
	if got := cls.Tags["mode"]; got != "eco_auto" {
		t.Errorf("Classify() mode tag = %q, want %q", got, "eco_auto")
	}
}

func TestClassify_TagDenyList(t *testing.T) {
	c := metric.NewClassifier(metric.DefaultVocabulary(), []string{"icon"})
	cls := c.Classify(metric.ChangeRecord{
		EntityID: "sensor.test",
		State:    "1",
		Attributes: map[string]metric.Value{
			"icon":          metric.Text("mdi:thermometer"),
			"friendly_name": metric.Text("Hall"),
		},
	})

	if _, ok := cls.Tags["icon"]; ok {
		t.Error("Classify() denied tag was emitted")
	}
	if _, ok := cls.Tags["friendly_name"]; !ok {
		t.Error("Classify() allowed tag was dropped")
	}
}

// =============================================================================
// Primary State
// =============================================================================

func TestClassify_StateAsNumber(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  float64
	}{
		{"float state", "21.5", 21.5},
		{"on literal", "on", 1},
		{"off literal", "off", 0},
		{"on uppercase", "ON", 1},
		{"czech on", "zapnuto", 1},
		{"czech off short", "vyp", 0},
	}

	c := newClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(metric.ChangeRecord{EntityID: "sensor.test", State: tt.state})

			got, ok := findKeyValue(cls, "value")
			if !ok {
				t.Fatalf("Classify() no value key for state %q", tt.state)
			}
			if got != tt.want {
				t.Errorf("Classify() value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_CustomVocabulary(t *testing.T) {
	c := metric.NewClassifier(metric.Vocabulary{
		On:  []string{"open"},
		Off: []string{"closed"},
	}, nil)

	cls := c.Classify(metric.ChangeRecord{EntityID: "cover.gate", State: "open"})
	if got, _ := findKeyValue(cls, "value"); got != 1 {
		t.Errorf("Classify() open = %v, want 1", got)
	}

	cls = c.Classify(metric.ChangeRecord{EntityID: "cover.gate", State: "closed"})
	if got, _ := findKeyValue(cls, "value"); got != 0 {
		t.Errorf("Classify() closed = %v, want 0", got)
	}
}

func TestClassify_FallbackSynthesizesZero(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(metric.ChangeRecord{EntityID: "sensor.status", State: "unknown"})

	if len(cls.KeyValues) != 1 {
		t.Fatalf("Classify() key_values = %v, want exactly one synthetic entry", cls.KeyValues)
	}
	if cls.KeyValues[0].Name != "value" || cls.KeyValues[0].Value != 0 {
		t.Errorf("Classify() synthetic = %+v, want {value 0}", cls.KeyValues[0])
	}
	if got := cls.Tags["value"]; got != "unknown" {
		t.Errorf("Classify() value tag = %q, want raw state %q", got, "unknown")
	}
}

func TestClassify_NoFallbackWhenAttributeIsNumeric(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(metric.ChangeRecord{
		EntityID:   "sensor.status",
		State:      "unknown",
		Attributes: map[string]metric.Value{"battery": metric.Number(80)},
	})

	if _, ok := findKeyValue(cls, "value"); ok {
		t.Error("Classify() synthesized value despite numeric attribute present")
	}
	if got, _ := findKeyValue(cls, "battery"); got != 80 {
		t.Errorf("Classify() battery = %v, want 80", got)
	}
	if _, ok := cls.Tags["value"]; ok {
		t.Error("Classify() state became a tag despite numeric attribute present")
	}
}

// =============================================================================
// End-to-End Entity Examples
// =============================================================================

func TestClassify_TemperatureSensorExample(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(metric.ChangeRecord{
		EntityID: "sensor.temp",
		State:    "21.5",
		Attributes: map[string]metric.Value{
			"unit_of_measurement": metric.Text("°C"),
			"friendly_name":       metric.Text("Living Room"),
		},
	})

	if got, _ := findKeyValue(cls, "value"); got != 21.5 {
		t.Errorf("Classify() value = %v, want 21.5", got)
	}
	if got := cls.Tags["unit_of_measurement"]; got != "°C" {
		t.Errorf("Classify() unit tag = %q, want °C", got)
	}
	if got := cls.Tags["friendly_name"]; got != "Living_Room" {
		t.Errorf("Classify() friendly_name tag = %q, want Living_Room", got)
	}
}

func TestClassify_SwitchExample(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(metric.ChangeRecord{EntityID: "switch.fan", State: "on"})

	if len(cls.KeyValues) != 1 || cls.KeyValues[0].Value != 1 {
		t.Errorf("Classify() key_values = %v, want single value 1", cls.KeyValues)
	}
	if len(cls.Tags) != 0 {
		t.Errorf("Classify() tags = %v, want empty", cls.Tags)
	}
}
