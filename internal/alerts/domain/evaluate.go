package alerts

import (
	"fmt"

	sensors "aquarium-cloud/internal/sensors/domain"
)

const (
	// StatusOK means the latest reading is inside the configured bounds.
	StatusOK = "ok"
	// StatusLow means the reading is below the configured minimum.
	StatusLow = "low"
	// StatusHigh means the reading is above the configured maximum.
	StatusHigh = "high"
	// StatusAlert means a float switch reads the wrong position.
	StatusAlert = "alert"
	// StatusActive means the sensor has no bounds and is tracked for
	// display only.
	StatusActive = "active"
)

// Evaluation is the outcome of checking a reading against a sensor's
// configured bounds.
type Evaluation struct {
	Alert   bool   `json:"alert"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Evaluate checks a reading value against the sensor configuration.
//
// Float sensors alert whenever the normalized value differs from the
// configured OK value. Value sensors alert when the value falls below
// the minimum or above the maximum; a sensor with no bounds never
// alerts.
func Evaluate(sensor sensors.Sensor, value float64) Evaluation {
	if sensor.Kind == sensors.KindFloat {
		normalized := sensor.Normalize(value)
		if normalized != sensor.OKValue {
			return Evaluation{
				Alert:   true,
				Status:  StatusAlert,
				Message: fmt.Sprintf("%s switch tripped: reading %d, expected %d", sensor.Name, int(normalized), int(sensor.OKValue)),
			}
		}
		return Evaluation{Status: StatusOK}
	}

	if sensor.Min != nil && value < *sensor.Min {
		return Evaluation{
			Alert:   true,
			Status:  StatusLow,
			Message: fmt.Sprintf("%s too low: %s is below the minimum of %s", sensor.Name, formatValue(value, sensor.Unit), formatValue(*sensor.Min, sensor.Unit)),
		}
	}
	if sensor.Max != nil && value > *sensor.Max {
		return Evaluation{
			Alert:   true,
			Status:  StatusHigh,
			Message: fmt.Sprintf("%s too high: %s is above the maximum of %s", sensor.Name, formatValue(value, sensor.Unit), formatValue(*sensor.Max, sensor.Unit)),
		}
	}
	if sensor.Min == nil && sensor.Max == nil {
		return Evaluation{Status: StatusActive}
	}
	return Evaluation{Status: StatusOK}
}

func formatValue(value float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.2f", value)
	}
	return fmt.Sprintf("%.2f %s", value, unit)
}
