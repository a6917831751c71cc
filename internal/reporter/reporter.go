// Package reporter turns readings into metric points and hands them to a sink.
package reporter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// Sink publishes a single named, dimensioned, timestamped numeric point.
type Sink interface {
	Publish(ctx context.Context, point models.Point) error
}

// Reporter publishes battery readings.
type Reporter struct {
	sink      Sink
	namespace string
	logger    *zap.SugaredLogger
}

// New creates a Reporter. An empty namespace falls back to models.DefaultNamespace.
func New(sink Sink, namespace string, logger *zap.SugaredLogger) *Reporter {
	if namespace == "" {
		namespace = models.DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Reporter{sink: sink, namespace: namespace, logger: logger}
}

// Point builds the battery point for a reading.
func (r *Reporter) Point(reading models.Reading) models.Point {
	return models.Point{
		Namespace: r.namespace,
		Name:      models.BatteryMetric,
		Dimensions: []models.Dimension{
			{Name: models.PhoneIDDimension, Value: reading.Identifier},
		},
		Timestamp: models.MillisToTime(reading.Timestamp),
		Value:     reading.Value,
		Unit:      models.UnitPercent,
	}
}

// Report publishes reading. Sink errors are returned as is, wrapped with context.
func (r *Reporter) Report(ctx context.Context, reading models.Reading) error {
	point := r.Point(reading)
	if err := r.sink.Publish(ctx, point); err != nil {
		return fmt.Errorf("error publishing %s metric: %w", point.Name, err)
	}
	r.logger.Infow("metric published",
		"namespace", point.Namespace,
		"metric", point.Name,
		"phone_id", reading.Identifier,
		"value", reading.Value,
		"timestamp", point.Timestamp,
	)
	return nil
}
