package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MongoUsageRepository struct {
	collection *mongo.Collection
}

func NewMongoUsageRepository(db *mongo.Database) ports.UsageRepository {
	return &MongoUsageRepository{
		collection: db.Collection("usage_records"),
	}
}

type usageDoc struct {
	UserID     string `bson:"user_id"`
	Megabytes  int64  `bson:"megabytes"`
	RecordedAt int64  `bson:"recorded_at"`
}

func (r *MongoUsageRepository) AddUsage(ctx context.Context, record *domain.UsageRecord) error {
	doc := usageDoc{
		UserID:     string(record.UserID),
		Megabytes:  record.Megabytes,
		RecordedAt: record.RecordedAt.Unix(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

func (r *MongoUsageRepository) TotalMegabytes(ctx context.Context, userID domain.UserID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": string(userID)}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$megabytes"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode usage total: %w", err)
		}
	}
	return result.Total, cursor.Err()
}
