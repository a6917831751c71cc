package sink

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// PutMetricDataAPI is the part of the CloudWatch client the sink uses.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSink publishes points as CloudWatch custom metrics.
type CloudWatchSink struct {
	Client PutMetricDataAPI
}

// NewCloudWatchSink loads the default AWS configuration for region.
func NewCloudWatchSink(ctx context.Context, region string) (*CloudWatchSink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &CloudWatchSink{Client: cloudwatch.NewFromConfig(cfg)}, nil
}

// metricDatum maps a point onto a CloudWatch datum.
func metricDatum(point models.Point) types.MetricDatum {
	dimensions := make([]types.Dimension, 0, len(point.Dimensions))
	for _, d := range point.Dimensions {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(d.Name),
			Value: aws.String(d.Value),
		})
	}
	return types.MetricDatum{
		MetricName: aws.String(point.Name),
		Dimensions: dimensions,
		Timestamp:  aws.Time(point.Timestamp),
		Value:      aws.Float64(point.Value),
		Unit:       types.StandardUnit(point.Unit),
	}
}

func (s *CloudWatchSink) Publish(ctx context.Context, point models.Point) error {
	_, err := s.Client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(point.Namespace),
		MetricData: []types.MetricDatum{metricDatum(point)},
	})
	if err != nil {
		return fmt.Errorf("failed to put metric data: %w", err)
	}
	return nil
}

func (s *CloudWatchSink) Close() error {
	return nil
}
