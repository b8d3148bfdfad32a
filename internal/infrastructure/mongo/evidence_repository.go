package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// EvidenceRepository implements application.EvidenceRepository using MongoDB.
type EvidenceRepository struct {
	collection *mongo.Collection
}

func NewEvidenceRepository(db *mongo.Database, collectionName string) *EvidenceRepository {
	return &EvidenceRepository{collection: db.Collection(collectionName)}
}

// FindByListing returns the listing's evidence in upload order.
func (r *EvidenceRepository) FindByListing(ctx context.Context, listingID string) ([]domain.Evidence, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"listingId": listingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find evidence for listing %s: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	evidence := make([]domain.Evidence, 0)
	for cursor.Next(ctx) {
		var doc EvidenceDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: evidence for listing %s: %v", domain.ErrMalformedRecord, listingID, err)
		}
		evidence = append(evidence, mapEvidenceDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("find evidence for listing %s: %w", listingID, err)
	}
	return evidence, nil
}

func (r *EvidenceRepository) FindByID(ctx context.Context, id string) (*domain.Evidence, error) {
	var doc EvidenceDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find evidence %s: %w", id, err)
	}
	evidence := mapEvidenceDocument(doc)
	return &evidence, nil
}

// CreateMany inserts the evidence, assigning UUIDs to entries without one.
func (r *EvidenceRepository) CreateMany(ctx context.Context, evidence []domain.Evidence) error {
	if len(evidence) == 0 {
		return nil
	}
	docs := make([]any, 0, len(evidence))
	for i := range evidence {
		if evidence[i].ID == "" {
			evidence[i].ID = uuid.NewString()
		}
		docs = append(docs, toEvidenceDocument(evidence[i]))
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

// SetSummary is the only in-place evidence mutation.
func (r *EvidenceRepository) SetSummary(ctx context.Context, id, summary string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"summary": summary}})
	if err != nil {
		return fmt.Errorf("set evidence summary %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EvidenceRepository) DeleteByListing(ctx context.Context, listingID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"listingId": listingID}); err != nil {
		return fmt.Errorf("delete evidence for listing %s: %w", listingID, err)
	}
	return nil
}
