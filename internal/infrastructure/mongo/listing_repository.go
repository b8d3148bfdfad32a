package mongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/landlink-ke/land-market/api/internal/domain"
	"github.com/landlink-ke/land-market/api/internal/public/application"
)

// ListingRepository implements application.ListingRepository using MongoDB.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *log.Logger
}

// NewListingRepository creates a new Mongo-backed listing repository.
func NewListingRepository(db *mongo.Database, collectionName string, logger *log.Logger) *ListingRepository {
	return &ListingRepository{collection: db.Collection(collectionName), logger: logger}
}

// Scan returns one raw page for the query. Price is the only range
// predicate sent to the store; when it is present the scan is ordered by
// price, otherwise by newest first. Records that fail to decode are counted
// in Fetched and skipped.
func (r *ListingRepository) Scan(ctx context.Context, query application.ListingQuery) (application.ScanResult, error) {
	clauses := listingClauses(query)
	sortKey := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	if query.SortByPrice {
		sortKey = bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	}

	if after, ok := r.resolveCursor(ctx, query.After); ok {
		clauses = append(clauses, startAfter(after, query.SortByPrice))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = application.DefaultPageSize
	}
	opts := options.Find().SetSort(sortKey).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, andFilter(clauses), opts)
	if err != nil {
		return application.ScanResult{}, fmt.Errorf("scan listings: %w", err)
	}
	defer cursor.Close(ctx)

	result := application.ScanResult{Items: make([]domain.Listing, 0, limit)}
	for cursor.Next(ctx) {
		result.Fetched++
		if id, ok := cursor.Current.Lookup("_id").ObjectIDOK(); ok {
			result.LastID = id.Hex()
		}
		listing, err := decodeListing(cursor.Current)
		if err != nil {
			r.logf("listing scan skipped record id=%s err=%v", result.LastID, err)
			continue
		}
		result.Items = append(result.Items, listing)
	}
	if err := cursor.Err(); err != nil {
		return application.ScanResult{}, fmt.Errorf("scan listings: %w", err)
	}
	return result, nil
}

func listingClauses(query application.ListingQuery) []bson.M {
	clauses := make([]bson.M, 0, 5)
	if query.Status != nil {
		clauses = append(clauses, bson.M{"status": query.Status.String()})
	}
	if query.LandType != "" {
		clauses = append(clauses, bson.M{"landType": query.LandType})
	}
	if len(query.Badges) > 0 {
		badges := query.Badges.Strings()
		if query.Badges.Contains(domain.BadgeNone) {
			// Older records have no badge field at all.
			clauses = append(clauses, bson.M{"$or": bson.A{
				bson.M{"badge": bson.M{"$in": badges}},
				bson.M{"badge": bson.M{"$exists": false}},
			}})
		} else {
			clauses = append(clauses, bson.M{"badge": bson.M{"$in": badges}})
		}
	}
	price := bson.M{}
	if query.MinPrice != nil {
		price["$gte"] = *query.MinPrice
	}
	if query.MaxPrice != nil {
		price["$lte"] = *query.MaxPrice
	}
	if len(price) > 0 {
		clauses = append(clauses, bson.M{"price": price})
	}
	return clauses
}

// cursorAnchor is the sort position of the document a cursor refers to.
type cursorAnchor struct {
	id        primitive.ObjectID
	price     bson.RawValue
	createdAt bson.RawValue
}

// resolveCursor looks up the cursor document. Unknown or malformed cursors
// resolve to nothing so the scan restarts from the beginning.
func (r *ListingRepository) resolveCursor(ctx context.Context, after string) (cursorAnchor, bool) {
	if after == "" {
		return cursorAnchor{}, false
	}
	id, err := primitive.ObjectIDFromHex(after)
	if err != nil {
		return cursorAnchor{}, false
	}
	opts := options.FindOne().SetProjection(bson.M{"price": 1, "createdAt": 1})
	raw, err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Raw()
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logf("listing cursor lookup failed id=%s err=%v", after, err)
		}
		return cursorAnchor{}, false
	}
	return cursorAnchor{id: id, price: rawOrNull(raw, "price"), createdAt: rawOrNull(raw, "createdAt")}, true
}

// rawOrNull keeps the stored encoding of a sort key so comparisons stay
// within its BSON type. A missing key compares as null.
func rawOrNull(doc bson.Raw, key string) bson.RawValue {
	v, err := doc.LookupErr(key)
	if err != nil {
		return bson.RawValue{Type: bson.TypeNull}
	}
	return v
}

func startAfter(anchor cursorAnchor, byPrice bool) bson.M {
	if byPrice {
		return bson.M{"$or": bson.A{
			bson.M{"price": bson.M{"$gt": anchor.price}},
			bson.M{"price": anchor.price, "_id": bson.M{"$gt": anchor.id}},
		}}
	}
	or := bson.A{
		bson.M{"createdAt": bson.M{"$lt": anchor.createdAt}},
		bson.M{"createdAt": anchor.createdAt, "_id": bson.M{"$lt": anchor.id}},
	}
	if lower := lowerTypeBrackets(anchor.createdAt.Type); lower != nil {
		or = append(or, lower)
	}
	return bson.M{"$or": or}
}

// lowerTypeBrackets matches createdAt values that sort below the anchor's
// BSON type in a descending scan. Range operators never cross type
// brackets, so without it older records with string or numeric dates
// would be unreachable from a datetime cursor.
func lowerTypeBrackets(t bsontype.Type) bson.M {
	switch t {
	case bson.TypeTimestamp:
		return bson.M{"createdAt": bson.M{"$not": bson.M{"$type": "timestamp"}}}
	case bson.TypeDateTime:
		return bson.M{"createdAt": bson.M{"$not": bson.M{"$type": bson.A{"date", "timestamp"}}}}
	case bson.TypeString, bson.TypeSymbol:
		return bson.M{"$or": bson.A{
			bson.M{"createdAt": bson.M{"$type": bson.A{"number", "null"}}},
			bson.M{"createdAt": bson.M{"$exists": false}},
		}}
	case bson.TypeInt32, bson.TypeInt64, bson.TypeDouble, bson.TypeDecimal128:
		return bson.M{"$or": bson.A{
			bson.M{"createdAt": bson.M{"$type": "null"}},
			bson.M{"createdAt": bson.M{"$exists": false}},
		}}
	}
	return nil
}

func andFilter(clauses []bson.M) bson.M {
	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	}
	return bson.M{"$and": clauses}
}

func decodeListing(raw bson.Raw) (domain.Listing, error) {
	var doc ListingDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return domain.Listing{}, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	return mapListingDocument(doc)
}

// FindByID returns a single listing by its identifier.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	raw, err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find listing %s: %w", id, err)
	}
	listing, err := decodeListing(raw)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindByOwner returns the owner's listings, newest first.
func (r *ListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find listings for owner %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	listings := make([]domain.Listing, 0)
	for cursor.Next(ctx) {
		listing, err := decodeListing(cursor.Current)
		if err != nil {
			r.logf("owner listing skipped owner=%s err=%v", ownerID, err)
			continue
		}
		listings = append(listings, listing)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("find listings for owner %s: %w", ownerID, err)
	}
	return listings, nil
}

// Create inserts the listing and assigns its ID.
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	id := primitive.NewObjectID()
	doc, err := toListingDocument(listing, id)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	listing.ID = id.Hex()
	return nil
}

// UpdateDetails writes the owner-editable fields and the recomputed badge
// suggestion. Moderation fields (badge, review time, image analysis) are
// left to their own writers. resetReview also returns the listing to
// pending. The legacy image field is dropped.
func (r *ListingRepository) UpdateDetails(ctx context.Context, listing *domain.Listing, resetReview bool) (*domain.Listing, error) {
	id, err := primitive.ObjectIDFromHex(listing.ID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	doc, err := toListingDocument(listing, id)
	if err != nil {
		return nil, err
	}
	images := doc.Images
	if images == nil {
		images = []ImageDocument{}
	}
	set := bson.M{
		"title":                 doc.Title,
		"description":           doc.Description,
		"location":              doc.Location,
		"county":                doc.County,
		"price":                 doc.Price,
		"area":                  doc.Area,
		"size":                  doc.Size,
		"landType":              doc.LandType,
		"latitude":              doc.Latitude,
		"longitude":             doc.Longitude,
		"isApproximateLocation": doc.IsApproximateLocation,
		"images":                images,
		"badgeSuggestion":       doc.BadgeSuggestion,
		"updatedAt":             doc.UpdatedAt,
	}
	if resetReview {
		set["status"] = domain.StatusPending.String()
	}
	update := bson.M{"$set": set, "$unset": bson.M{"image": ""}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	raw, err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update listing %s: %w", listing.ID, err)
	}
	stored, err := decodeListing(raw)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) SetImageAnalysis(ctx context.Context, id string, analysis domain.ImageAnalysis) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	update := bson.M{"$set": bson.M{
		"imageAnalysis": ImageAnalysisDocument{IsSuspicious: analysis.IsSuspicious, Reason: analysis.Reason},
		"updatedAt":     NewTimestamp(time.Now()),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("store image analysis for %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
