package sensors

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestSensorValidate(t *testing.T) {
	cases := []struct {
		name    string
		sensor  Sensor
		wantErr bool
	}{
		{
			name:   "ValueSensorWithBounds",
			sensor: Sensor{ID: "s1", Name: "Temp", Kind: KindValue, Min: floatPtr(24), Max: floatPtr(27)},
		},
		{
			name:   "ValueSensorUnbounded",
			sensor: Sensor{ID: "s2", Name: "TDS", Kind: KindValue},
		},
		{
			name:   "ValueSensorEqualBounds",
			sensor: Sensor{ID: "s3", Name: "pH", Kind: KindValue, Min: floatPtr(7), Max: floatPtr(7)},
		},
		{
			name:    "MinAboveMax",
			sensor:  Sensor{ID: "s4", Name: "Temp", Kind: KindValue, Min: floatPtr(28), Max: floatPtr(24)},
			wantErr: true,
		},
		{
			name:   "FloatSensor",
			sensor: Sensor{ID: "s5", Name: "Float", Kind: KindFloat, OKValue: 1},
		},
		{
			name:    "FloatSensorBadOKValue",
			sensor:  Sensor{ID: "s6", Name: "Float", Kind: KindFloat, OKValue: 2},
			wantErr: true,
		},
		{
			name:    "MissingName",
			sensor:  Sensor{ID: "s7", Kind: KindValue},
			wantErr: true,
		},
		{
			name:    "MissingID",
			sensor:  Sensor{Name: "Temp", Kind: KindValue},
			wantErr: true,
		},
		{
			name:    "InvalidKind",
			sensor:  Sensor{ID: "s8", Name: "Temp", Kind: "analog"},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sensor.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestSensorNormalize(t *testing.T) {
	floatSensor := Sensor{ID: "s1", Name: "Float", Kind: KindFloat, OKValue: 1}
	if got := floatSensor.Normalize(0.7); got != 1 {
		t.Fatalf("Normalize(0.7) = %v, want 1", got)
	}
	if got := floatSensor.Normalize(-3); got != 1 {
		t.Fatalf("Normalize(-3) = %v, want 1", got)
	}
	if got := floatSensor.Normalize(0); got != 0 {
		t.Fatalf("Normalize(0) = %v, want 0", got)
	}

	valueSensor := Sensor{ID: "s2", Name: "Temp", Kind: KindValue}
	if got := valueSensor.Normalize(25.4); got != 25.4 {
		t.Fatalf("value sensors must pass through, got %v", got)
	}
}

func TestSensorHasBounds(t *testing.T) {
	if (Sensor{Kind: KindValue}).HasBounds() {
		t.Fatal("unbounded value sensor reported bounds")
	}
	if !(Sensor{Kind: KindValue, Min: floatPtr(1)}).HasBounds() {
		t.Fatal("min-only sensor should report bounds")
	}
	if !(Sensor{Kind: KindFloat}).HasBounds() {
		t.Fatal("float sensors always have an ok value to compare")
	}
}
