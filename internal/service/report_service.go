// Package service ties the phone client and the reporter into one reporting run.
package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// DeviceAPI is the part of the phone client a reporting run needs.
type DeviceAPI interface {
	QueryConfig(ctx context.Context) (*models.ConfigResponse, error)
	QueryBattery(ctx context.Context) (*models.BatteryResponse, error)
}

// ReadingReporter publishes a reading.
type ReadingReporter interface {
	Report(ctx context.Context, reading models.Reading) error
}

// ReportService reads the battery level of one phone and reports it.
type ReportService struct {
	// device is the signed API of the phone
	device DeviceAPI

	// reporter publishes the derived reading
	reporter ReadingReporter

	logger *zap.SugaredLogger
}

// NewReportService creates a ReportService.
func NewReportService(device DeviceAPI, reporter ReadingReporter, logger *zap.SugaredLogger) *ReportService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ReportService{device: device, reporter: reporter, logger: logger}
}

// Run queries the configuration, then the battery, and reports one reading.
// The first failure aborts the run; nothing is reported in that case.
func (rs *ReportService) Run(ctx context.Context) (models.Reading, error) {
	config, err := rs.device.QueryConfig(ctx)
	if err != nil {
		return models.Reading{}, fmt.Errorf("error querying config: %w", err)
	}
	rs.logger.Debugw("config received", "timestamp", config.Timestamp, "code", config.Code)

	battery, err := rs.device.QueryBattery(ctx)
	if err != nil {
		return models.Reading{}, fmt.Errorf("error querying battery: %w", err)
	}
	rs.logger.Debugw("battery received", "timestamp", battery.Timestamp, "code", battery.Code)

	reading, err := ReadingFrom(config, battery)
	if err != nil {
		return models.Reading{}, err
	}
	if err := rs.reporter.Report(ctx, reading); err != nil {
		return models.Reading{}, err
	}
	return reading, nil
}

// ReadingFrom derives the battery reading from the two query responses.
func ReadingFrom(config *models.ConfigResponse, battery *models.BatteryResponse) (models.Reading, error) {
	if config == nil || config.Data == nil {
		return models.Reading{}, fmt.Errorf("config data: %w", internalerrors.ErrMissingField)
	}
	if config.Data.ExtraDeviceMark == nil {
		return models.Reading{}, fmt.Errorf("extra_device_mark: %w", internalerrors.ErrMissingField)
	}
	if battery == nil || battery.Data == nil {
		return models.Reading{}, fmt.Errorf("battery data: %w", internalerrors.ErrMissingField)
	}
	level, err := ParseLevel(battery.Data.Level)
	if err != nil {
		return models.Reading{}, err
	}
	return models.Reading{
		Identifier: *config.Data.ExtraDeviceMark,
		Value:      level,
		Timestamp:  battery.Timestamp,
	}, nil
}

// ParseLevel parses a percentage string such as "42%" into 42.0.
func ParseLevel(level string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimRight(level, "%")), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", internalerrors.ErrInvalidLevel, level)
	}
	return value, nil
}
