package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	admindomain "github.com/landlink-ke/land-market/api/internal/admin/domain"
	"github.com/landlink-ke/land-market/api/internal/domain"
)

// AdminListingRepository applies moderation writes to single listings.
type AdminListingRepository struct {
	*ListingRepository
}

func NewAdminListingRepository(listings *ListingRepository) *AdminListingRepository {
	return &AdminListingRepository{ListingRepository: listings}
}

// ApplyChange sets the moderation fields of one listing and returns the
// listing as stored afterwards.
func (r *AdminListingRepository) ApplyChange(ctx context.Context, id string, change admindomain.Change) (*domain.Listing, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	reviewed := NewTimestamp(change.ReviewedAt)
	set := bson.M{
		"adminReviewedAt": reviewed,
		"updatedAt":       reviewed,
	}
	if change.Status != nil {
		set["status"] = change.Status.String()
	}
	if change.Badge != nil {
		set["badge"] = change.Badge.String()
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	raw, err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("moderate listing %s: %w", id, err)
	}
	listing, err := decodeListing(raw)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}
