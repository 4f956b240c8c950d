// Package dynamodb implements the roadmap store on a DynamoDB single
// table: one partition per user, one item per generated roadmap.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"roadmap-backend/application/ports"
	"roadmap-backend/domain/roadmap"
	apperrors "roadmap-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const roadmapSKPrefix = "ROADMAP#"

// RoadmapRepository implements ports.RoadmapRepository using DynamoDB
type RoadmapRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewRoadmapRepository creates a new RoadmapRepository
func NewRoadmapRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.RoadmapRepository {
	return &RoadmapRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// roadmapItem represents the DynamoDB item structure for a roadmap.
// The sort key embeds the store-assigned timestamp so a descending
// Query returns history newest first.
type roadmapItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	RoadmapID  string `dynamodbav:"RoadmapID"`
	Username   string `dynamodbav:"Username"`
	Skill      string `dynamodbav:"Skill"`
	Roadmap    string `dynamodbav:"Roadmap"`
	Timestamp  string `dynamodbav:"Timestamp"`
}

func userPK(username string) string {
	return fmt.Sprintf("USER#%s", username)
}

func (i roadmapItem) toRecord() (roadmap.Record, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, i.Timestamp)
	if err != nil {
		return roadmap.Record{}, fmt.Errorf("parse roadmap timestamp: %w", err)
	}
	return roadmap.Record{
		ID:        i.RoadmapID,
		Username:  i.Username,
		Skill:     i.Skill,
		Content:   i.Roadmap,
		CreatedAt: createdAt,
	}, nil
}

// Save appends a roadmap item. The timestamp is assigned here, never
// by the caller, and items are never overwritten or updated.
func (r *RoadmapRepository) Save(ctx context.Context, record roadmap.Record) (roadmap.Record, error) {
	record.CreatedAt = time.Now().UTC()

	item := roadmapItem{
		PK:         userPK(record.Username),
		SK:         fmt.Sprintf("%s%s#%s", roadmapSKPrefix, record.CreatedAt.Format(time.RFC3339Nano), record.ID),
		EntityType: "ROADMAP",
		RoadmapID:  record.ID,
		Username:   record.Username,
		Skill:      record.Skill,
		Roadmap:    record.Content,
		Timestamp:  record.CreatedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return roadmap.Record{}, fmt.Errorf("marshal roadmap: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("failed to save roadmap",
			zap.Error(err),
			zap.String("roadmapID", record.ID),
			zap.String("username", record.Username),
		)
		return roadmap.Record{}, fmt.Errorf("save roadmap: %w", err)
	}

	r.logger.Debug("roadmap saved",
		zap.String("roadmapID", record.ID),
		zap.String("PK", item.PK),
		zap.String("SK", item.SK),
	)
	return record, nil
}

// FindByUser returns every roadmap for a user, newest first. The
// descending order falls out of the timestamp-prefixed sort key.
func (r *RoadmapRepository) FindByUser(ctx context.Context, username string) ([]roadmap.Record, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(username))).
		And(expression.Key("SK").BeginsWith(roadmapSKPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	records := make([]roadmap.Record, 0)
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query roadmaps: %w", err)
		}

		var items []roadmapItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal roadmaps: %w", err)
		}
		for _, item := range items {
			record, err := item.toRecord()
			if err != nil {
				r.logger.Warn("skipping malformed roadmap item",
					zap.String("SK", item.SK),
					zap.Error(err),
				)
				continue
			}
			records = append(records, record)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	return records, nil
}

// FindByID returns one roadmap scoped to the user.
func (r *RoadmapRepository) FindByID(ctx context.Context, username, id string) (roadmap.Record, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(username))).
		And(expression.Key("SK").BeginsWith(roadmapSKPrefix))
	filter := expression.Name("RoadmapID").Equal(expression.Value(id))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return roadmap.Record{}, fmt.Errorf("build query expression: %w", err)
	}

	// The filter runs after the key condition, so a page can come back
	// empty while later pages still hold the match.
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return roadmap.Record{}, fmt.Errorf("query roadmap: %w", err)
		}
		if len(out.Items) > 0 {
			var item roadmapItem
			if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
				return roadmap.Record{}, fmt.Errorf("unmarshal roadmap: %w", err)
			}
			return item.toRecord()
		}
		if out.LastEvaluatedKey == nil {
			return roadmap.Record{}, apperrors.NewNotFoundError("roadmap")
		}
		lastKey = out.LastEvaluatedKey
	}
}
