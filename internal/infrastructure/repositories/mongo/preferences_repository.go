package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MongoPreferencesRepository struct {
	collection *mongo.Collection
}

func NewMongoPreferencesRepository(db *mongo.Database) ports.PreferencesRepository {
	return &MongoPreferencesRepository{
		collection: db.Collection("preferences"),
	}
}

type preferencesDoc struct {
	UserID         string `bson:"_id"`
	AutoTranscribe bool   `bson:"auto_transcribe"`
	PodcastingMode bool   `bson:"podcasting_mode"`
}

func (r *MongoPreferencesRepository) Get(ctx context.Context, userID domain.UserID) (*domain.Preferences, error) {
	var doc preferencesDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": string(userID)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Missing preferences behave as all-defaults rather than an error
		return &domain.Preferences{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &domain.Preferences{
		UserID:         domain.UserID(doc.UserID),
		AutoTranscribe: doc.AutoTranscribe,
		PodcastingMode: doc.PodcastingMode,
	}, nil
}

func (r *MongoPreferencesRepository) Set(ctx context.Context, prefs *domain.Preferences) error {
	doc := preferencesDoc{
		UserID:         string(prefs.UserID),
		AutoTranscribe: prefs.AutoTranscribe,
		PodcastingMode: prefs.PodcastingMode,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.UserID}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}
