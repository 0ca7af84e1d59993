package enums

import "fmt"

// SensorPosition locates a sensor on the vehicle.
type SensorPosition string

const (
	SensorPositionFrontLeft  SensorPosition = "FRONT_LEFT"
	SensorPositionFrontRight SensorPosition = "FRONT_RIGHT"
	SensorPositionRearLeft   SensorPosition = "REAR_LEFT"
	SensorPositionRearRight  SensorPosition = "REAR_RIGHT"
	SensorPositionSpare      SensorPosition = "SPARE"
)

var validSensorPositions = []SensorPosition{
	SensorPositionFrontLeft,
	SensorPositionFrontRight,
	SensorPositionRearLeft,
	SensorPositionRearRight,
	SensorPositionSpare,
}

// String implements fmt.Stringer.
func (p SensorPosition) String() string {
	return string(p)
}

// IsValid reports whether the value is a known SensorPosition.
func (p SensorPosition) IsValid() bool {
	for _, candidate := range validSensorPositions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseSensorPosition converts raw input into a SensorPosition.
func ParseSensorPosition(value string) (SensorPosition, error) {
	for _, candidate := range validSensorPositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sensor position %q", value)
}

// AlertType categorizes a sensor alert.
type AlertType string

const (
	AlertTypeLowPressure AlertType = "LOW_PRESSURE"
	AlertTypeHighTemp    AlertType = "HIGH_TEMPERATURE"
	AlertTypeLowBattery  AlertType = "LOW_BATTERY"
	AlertTypeOffline     AlertType = "SENSOR_OFFLINE"
)

var validAlertTypes = []AlertType{
	AlertTypeLowPressure,
	AlertTypeHighTemp,
	AlertTypeLowBattery,
	AlertTypeOffline,
}

// String implements fmt.Stringer.
func (a AlertType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertType.
func (a AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// AlertSeverity ranks how urgently an alert needs attention.
type AlertSeverity string

const (
	AlertSeverityMedium AlertSeverity = "MEDIUM"
	AlertSeverityHigh   AlertSeverity = "HIGH"
)

// String implements fmt.Stringer.
func (s AlertSeverity) String() string {
	return string(s)
}
