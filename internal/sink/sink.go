// Package sink provides the metric stores a reporter can publish to.
//
// Every sink implements reporter.Sink and io.Closer. New picks one by name.
package sink

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Schera-ole/phonemetrics/internal/config"
	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
	"github.com/Schera-ole/phonemetrics/internal/migration"
	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// Sink is a closable metrics store.
type Sink interface {
	Publish(ctx context.Context, point models.Point) error
	io.Closer
}

// New creates the sink selected by cfg.Sink.
func New(ctx context.Context, cfg *config.AgentConfig, logger *zap.SugaredLogger) (Sink, error) {
	logger.Debugw("creating sink", "sink", cfg.Sink)

	switch cfg.Sink {
	case config.SinkCloudWatch:
		return NewCloudWatchSink(ctx, cfg.Region)
	case config.SinkPostgres:
		if err := migration.RunMigrations(ctx, cfg.DatabaseDSN, logger); err != nil {
			return nil, err
		}
		db, err := NewDBSink(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case config.SinkDynamoDB:
		return NewDynamoDBSink(ctx, cfg.Region, cfg.DynamoDBTable)
	case config.SinkKafka:
		return NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.SinkMQTT:
		return NewMQTTSink(cfg.MQTTBroker, cfg.MQTTTopic, cfg.Timeout)
	case config.SinkFile:
		return NewFileSink(cfg.FilePath), nil
	case config.SinkMemory:
		return NewMemSink(), nil
	default:
		return nil, fmt.Errorf("%w: %q", internalerrors.ErrUnknownSink, cfg.Sink)
	}
}
