package cron

import (
	"context"
	"fmt"

	"github.com/tiredist/tiredist-backend/pkg/logger"
)

// SensorOfflineJobParams configure the silent sensor deactivation job.
type SensorOfflineJobParams struct {
	Logger  *logger.Logger
	Sensors silentSensorDeactivator
}

type silentSensorDeactivator interface {
	DeactivateSilent(ctx context.Context) (int64, error)
}

// NewSensorOfflineJob builds the job that switches off fleet sensors that
// have not reported past the configured silence window.
func NewSensorOfflineJob(params SensorOfflineJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sensors == nil {
		return nil, fmt.Errorf("sensor service required")
	}
	return &sensorOfflineJob{logg: params.Logger, sensors: params.Sensors}, nil
}

type sensorOfflineJob struct {
	logg    *logger.Logger
	sensors silentSensorDeactivator
}

func (j *sensorOfflineJob) Name() string { return "sensor-offline" }

func (j *sensorOfflineJob) Run(ctx context.Context) error {
	deactivated, err := j.sensors.DeactivateSilent(ctx)
	if err != nil {
		return fmt.Errorf("sensor offline sweep: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "sensors_deactivated", deactivated)
	j.logg.Info(logCtx, "silent sensor sweep complete")
	return nil
}
