package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// retention of points stored in DynamoDB, enforced through the table TTL
const dynamoRetention = 30 * 24 * time.Hour

// PutItemAPI is the part of the DynamoDB client the sink uses.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// dynamoPoint is the stored item. series_id is the partition key and
// timestamp the sort key.
type dynamoPoint struct {
	SeriesID   string            `dynamodbav:"series_id"`
	Timestamp  int64             `dynamodbav:"timestamp"`
	Namespace  string            `dynamodbav:"namespace"`
	Name       string            `dynamodbav:"name"`
	Dimensions map[string]string `dynamodbav:"dimensions"`
	Value      float64           `dynamodbav:"value"`
	Unit       string            `dynamodbav:"unit"`
	ExpiresAt  int64             `dynamodbav:"expires_at"`
}

// DynamoDBSink stores points in a DynamoDB table.
type DynamoDBSink struct {
	Client    PutItemAPI
	TableName string

	now func() time.Time
}

// NewDynamoDBSink loads the default AWS configuration for region.
func NewDynamoDBSink(ctx context.Context, region, table string) (*DynamoDBSink, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb table name is not set")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &DynamoDBSink{Client: dynamodb.NewFromConfig(cfg), TableName: table}, nil
}

// seriesID identifies the series of a point, e.g. "phone/battery/phone_id=dev-1".
func seriesID(point models.Point) string {
	parts := []string{point.Namespace, point.Name}
	for _, d := range point.Dimensions {
		parts = append(parts, d.Name+"="+d.Value)
	}
	return strings.Join(parts, "/")
}

func (s *DynamoDBSink) item(point models.Point) dynamoPoint {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	dimensions := make(map[string]string, len(point.Dimensions))
	for _, d := range point.Dimensions {
		dimensions[d.Name] = d.Value
	}
	return dynamoPoint{
		SeriesID:   seriesID(point),
		Timestamp:  point.Timestamp.UnixMilli(),
		Namespace:  point.Namespace,
		Name:       point.Name,
		Dimensions: dimensions,
		Value:      point.Value,
		Unit:       point.Unit,
		ExpiresAt:  now().Add(dynamoRetention).Unix(),
	}
}

func (s *DynamoDBSink) Publish(ctx context.Context, point models.Point) error {
	item, err := attributevalue.MarshalMap(s.item(point))
	if err != nil {
		return fmt.Errorf("failed to marshal point: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.TableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store point in dynamodb: %w", err)
	}
	return nil
}

func (s *DynamoDBSink) Close() error {
	return nil
}
