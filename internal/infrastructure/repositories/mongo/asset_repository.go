package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MongoAssetRepository struct {
	collection *mongo.Collection
}

func NewMongoAssetRepository(db *mongo.Database) ports.AssetRepository {
	return &MongoAssetRepository{
		collection: db.Collection("media_assets"),
	}
}

type assetDoc struct {
	ID        string `bson:"_id"`
	OwnerID   string `bson:"owner_id"`
	Name      string `bson:"name"`
	Type      string `bson:"type"`
	URL       string `bson:"url"`
	SizeBytes int64  `bson:"size_bytes"`
	Source    string `bson:"source"`
	CreatedAt int64  `bson:"created_at"`
}

func toAssetDoc(asset *domain.MediaAsset) assetDoc {
	return assetDoc{
		ID:        string(asset.ID),
		OwnerID:   string(asset.OwnerID),
		Name:      asset.Name,
		Type:      asset.Type,
		URL:       asset.URL,
		SizeBytes: asset.SizeBytes,
		Source:    asset.Source,
		CreatedAt: asset.CreatedAt.Unix(),
	}
}

func (d assetDoc) toDomain() *domain.MediaAsset {
	return &domain.MediaAsset{
		ID:        domain.AssetID(d.ID),
		OwnerID:   domain.UserID(d.OwnerID),
		Name:      d.Name,
		Type:      d.Type,
		URL:       d.URL,
		SizeBytes: d.SizeBytes,
		Source:    d.Source,
		CreatedAt: unixTime(d.CreatedAt),
	}
}

func (r *MongoAssetRepository) Create(ctx context.Context, asset *domain.MediaAsset) error {
	if _, err := r.collection.InsertOne(ctx, toAssetDoc(asset)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("asset already exists: %s", asset.ID)
		}
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return nil
}

func (r *MongoAssetRepository) GetByID(ctx context.Context, id domain.AssetID) (*domain.MediaAsset, error) {
	var doc assetDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoAssetRepository) GetByURL(ctx context.Context, url string) (*domain.MediaAsset, error) {
	var doc assetDoc
	err := r.collection.FindOne(ctx, bson.M{"url": url}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset by url: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoAssetRepository) ListByOwner(ctx context.Context, owner domain.UserID) ([]*domain.MediaAsset, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": string(owner)})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer cursor.Close(ctx)

	var assets []*domain.MediaAsset
	for cursor.Next(ctx) {
		var doc assetDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode asset: %w", err)
		}
		assets = append(assets, doc.toDomain())
	}
	return assets, cursor.Err()
}

func (r *MongoAssetRepository) ListAll(ctx context.Context) ([]*domain.MediaAsset, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer cursor.Close(ctx)

	var assets []*domain.MediaAsset
	for cursor.Next(ctx) {
		var doc assetDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode asset: %w", err)
		}
		assets = append(assets, doc.toDomain())
	}
	return assets, cursor.Err()
}
