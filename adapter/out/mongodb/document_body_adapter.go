package mongodb

import (
	"context"
	"errors"
	"time"

	"lexflow_server/core/domain"
	"lexflow_server/pkg/apperr"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionDocumentBodies = "document_bodies"

// DocumentBodyAdapter implements out.DocumentBodyRepository using MongoDB.
// Each document version is its own record, so older versions stay readable.
type DocumentBodyAdapter struct {
	collection *mongo.Collection
}

func NewDocumentBodyAdapter(db *mongo.Database) *DocumentBodyAdapter {
	return &DocumentBodyAdapter{collection: db.Collection(collectionDocumentBodies)}
}

// EnsureIndexes creates the unique (document_id, version) index.
func (a *DocumentBodyAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "document_id", Value: 1},
				{Key: "version", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type bodyDocument struct {
	DocumentID string    `bson:"document_id"`
	Version    int       `bson:"version"`
	Content    string    `bson:"content"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// Put upserts one version. Re-writing the same version overwrites its content.
func (a *DocumentBodyAdapter) Put(ctx context.Context, body *domain.DocumentBody) error {
	filter := bson.M{
		"document_id": body.DocumentID.String(),
		"version":     body.Version,
	}
	update := bson.M{"$set": bodyDocument{
		DocumentID: body.DocumentID.String(),
		Version:    body.Version,
		Content:    body.Content,
		UpdatedAt:  body.UpdatedAt,
	}}

	_, err := a.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.ServiceUnavailable("document store", err)
	}
	return nil
}

func (a *DocumentBodyAdapter) Get(ctx context.Context, documentID uuid.UUID, version int) (*domain.DocumentBody, error) {
	filter := bson.M{
		"document_id": documentID.String(),
		"version":     version,
	}

	var doc bodyDocument
	if err := a.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("document body")
		}
		return nil, apperr.ServiceUnavailable("document store", err)
	}

	id, err := uuid.Parse(doc.DocumentID)
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}
	return &domain.DocumentBody{
		DocumentID: id,
		Version:    doc.Version,
		Content:    doc.Content,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// Delete removes all versions of a document.
func (a *DocumentBodyAdapter) Delete(ctx context.Context, documentID uuid.UUID) error {
	_, err := a.collection.DeleteMany(ctx, bson.M{"document_id": documentID.String()})
	if err != nil {
		return apperr.ServiceUnavailable("document store", err)
	}
	return nil
}
