package watertests

import (
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func TestWaterTestValidate(t *testing.T) {
	takenAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	valid := WaterTest{ID: "wtest-1", TakenAt: takenAt, PH: floatPtr(8.1)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	empty := WaterTest{ID: "wtest-2", TakenAt: takenAt, Notes: "forgot the kit"}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected error for test with no measurements")
	}

	noTime := WaterTest{ID: "wtest-3", PH: floatPtr(8.1)}
	if err := noTime.Validate(); err == nil {
		t.Fatal("expected error for missing taken_at")
	}

	noID := WaterTest{TakenAt: takenAt, PH: floatPtr(8.1)}
	if err := noID.Validate(); err == nil {
		t.Fatal("expected error for missing id")
	}
}
