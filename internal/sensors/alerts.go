package sensors

import (
	"fmt"
	"time"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// Alert thresholds. Pressure is in bar, temperature in Celsius, battery in
// percent.
const (
	lowPressureThreshold      = 6.0
	criticalPressureThreshold = 4.0
	highTempThreshold         = 80.0
	criticalTempThreshold     = 100.0
	lowBatteryThreshold       = 20.0
	criticalBatteryThreshold  = 10.0
)

func threshold(v float64) *float64 { return &v }

// deriveAlerts computes the alerts a sensor's latest readings trip. Alerts
// are recomputed on every query rather than stored.
func deriveAlerts(sensor models.TireSensor, now time.Time, offlineAfter time.Duration) []Alert {
	var alerts []Alert

	if sensor.Pressure != nil && *sensor.Pressure < lowPressureThreshold {
		severity := enums.AlertSeverityMedium
		if *sensor.Pressure < criticalPressureThreshold {
			severity = enums.AlertSeverityHigh
		}
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%s-pressure", sensor.ID),
			SensorID:  sensor.ID,
			VehicleID: sensor.VehicleID,
			Type:      enums.AlertTypeLowPressure,
			Severity:  severity,
			Message:   fmt.Sprintf("Low tire pressure: %.1f bar", *sensor.Pressure),
			Value:     sensor.Pressure,
			Threshold: threshold(lowPressureThreshold),
			Timestamp: sensor.LastReading,
		})
	}

	if sensor.Temperature != nil && *sensor.Temperature > highTempThreshold {
		severity := enums.AlertSeverityMedium
		if *sensor.Temperature > criticalTempThreshold {
			severity = enums.AlertSeverityHigh
		}
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%s-temperature", sensor.ID),
			SensorID:  sensor.ID,
			VehicleID: sensor.VehicleID,
			Type:      enums.AlertTypeHighTemp,
			Severity:  severity,
			Message:   fmt.Sprintf("High tire temperature: %.1f C", *sensor.Temperature),
			Value:     sensor.Temperature,
			Threshold: threshold(highTempThreshold),
			Timestamp: sensor.LastReading,
		})
	}

	if sensor.BatteryLevel != nil && *sensor.BatteryLevel < lowBatteryThreshold {
		severity := enums.AlertSeverityMedium
		if *sensor.BatteryLevel < criticalBatteryThreshold {
			severity = enums.AlertSeverityHigh
		}
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%s-battery", sensor.ID),
			SensorID:  sensor.ID,
			VehicleID: sensor.VehicleID,
			Type:      enums.AlertTypeLowBattery,
			Severity:  severity,
			Message:   fmt.Sprintf("Low sensor battery: %.0f%%", *sensor.BatteryLevel),
			Value:     sensor.BatteryLevel,
			Threshold: threshold(lowBatteryThreshold),
			Timestamp: sensor.LastReading,
		})
	}

	if sensor.LastReading == nil || sensor.LastReading.Before(now.Add(-offlineAfter)) {
		alerts = append(alerts, Alert{
			ID:        fmt.Sprintf("%s-offline", sensor.ID),
			SensorID:  sensor.ID,
			VehicleID: sensor.VehicleID,
			Type:      enums.AlertTypeOffline,
			Severity:  enums.AlertSeverityMedium,
			Message:   "Sensor not responding",
			Timestamp: sensor.LastReading,
		})
	}

	return alerts
}

func summarize(alerts []Alert) AlertSummary {
	summary := AlertSummary{Total: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case enums.AlertSeverityHigh:
			summary.High++
		case enums.AlertSeverityMedium:
			summary.Medium++
		}
	}
	return summary
}
