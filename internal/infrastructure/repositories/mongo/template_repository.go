package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

type MongoTemplateRepository struct {
	collection *mongo.Collection
}

func NewMongoTemplateRepository(db *mongo.Database) ports.TemplateRepository {
	return &MongoTemplateRepository{
		collection: db.Collection("templates"),
	}
}

type templateDoc struct {
	ID          string `bson:"_id"`
	OwnerID     string `bson:"owner_id"`
	Name        string `bson:"name"`
	Description string `bson:"description"`
	CreatedAt   int64  `bson:"created_at"`
}

func (r *MongoTemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	doc := templateDoc{
		ID:          string(template.ID),
		OwnerID:     string(template.OwnerID),
		Name:        template.Name,
		Description: template.Description,
		CreatedAt:   template.CreatedAt.Unix(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("template already exists: %s", template.ID)
		}
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

func (r *MongoTemplateRepository) GetByID(ctx context.Context, id domain.TemplateID) (*domain.Template, error) {
	var doc templateDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoTemplateRepository) ListByOwner(ctx context.Context, owner domain.UserID) ([]*domain.Template, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": string(owner)})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []*domain.Template
	for cursor.Next(ctx) {
		var doc templateDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode template: %w", err)
		}
		templates = append(templates, doc.toDomain())
	}
	return templates, cursor.Err()
}

func (r *MongoTemplateRepository) ListAll(ctx context.Context) ([]*domain.Template, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []*domain.Template
	for cursor.Next(ctx) {
		var doc templateDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode template: %w", err)
		}
		templates = append(templates, doc.toDomain())
	}
	return templates, cursor.Err()
}

func (d templateDoc) toDomain() *domain.Template {
	return &domain.Template{
		ID:          domain.TemplateID(d.ID),
		OwnerID:     domain.UserID(d.OwnerID),
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   unixTime(d.CreatedAt),
	}
}
