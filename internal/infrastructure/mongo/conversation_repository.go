package mongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// ConversationRepository implements application.ConversationRepository.
type ConversationRepository struct {
	collection *mongo.Collection
	logger     *log.Logger
}

func NewConversationRepository(db *mongo.Database, collectionName string, logger *log.Logger) *ConversationRepository {
	return &ConversationRepository{collection: db.Collection(collectionName), logger: logger}
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *ConversationRepository) FindByParticipants(ctx context.Context, listingID, buyerID, sellerID string) (*domain.Conversation, error) {
	return r.findOne(ctx, bson.M{"listingId": listingID, "buyerId": buyerID, "sellerId": sellerID})
}

func (r *ConversationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Conversation, error) {
	var doc ConversationDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	conv, err := mapConversationDocument(doc)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Create inserts the conversation. A concurrent Create for the same
// (listing, buyer, seller) loses to the unique index and returns the
// existing conversation instead.
func (r *ConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	id := primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, toConversationDocument(conversation, id))
	if mongo.IsDuplicateKeyError(err) {
		existing, findErr := r.FindByParticipants(ctx, conversation.ListingID, conversation.BuyerID, conversation.SellerID)
		if findErr != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		*conversation = *existing
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	conversation.ID = id.Hex()
	return nil
}

// RecordMessage sets the last-message preview of an open conversation
// and, in the same update, moves it from new to responded when the sender
// did not start it. The stored status decides both, so a concurrent close
// or reply is never overwritten.
func (r *ConversationRepository) RecordMessage(ctx context.Context, id string, last domain.LastMessage) (*domain.Conversation, domain.ConversationStatus, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", domain.ErrNotFound
	}
	ts := last.Timestamp.UTC()
	firstReply := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$status", string(domain.ConversationNew)}}},
		bson.D{{Key: "$ne", Value: bson.A{"$initiatorId", literal(last.SenderID)}}},
	}}}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "lastMessage", Value: bson.D{
			{Key: "text", Value: literal(last.Text)},
			{Key: "senderId", Value: literal(last.SenderID)},
			{Key: "timestamp", Value: ts},
		}},
		{Key: "updatedAt", Value: ts},
		{Key: "respondedAt", Value: bson.D{{Key: "$cond", Value: bson.A{firstReply, ts, "$respondedAt"}}}},
		{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{firstReply, string(domain.ConversationResponded), "$status"}}}},
	}}}}

	filter := bson.M{"_id": objectID, "status": bson.M{"$ne": string(domain.ConversationClosed)}}
	before, ok, err := r.updateOne(ctx, filter, update)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, "", err
		}
		return nil, "", domain.ErrConversationClosed
	}
	previous := before.Status
	if err := before.ApplyMessage(last.SenderID, last.Text, ts); err != nil {
		return nil, "", err
	}
	return before, previous, nil
}

// Close closes the conversation unless it already is.
func (r *ConversationRepository) Close(ctx context.Context, id string, at time.Time) (*domain.Conversation, domain.ConversationStatus, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", domain.ErrNotFound
	}
	at = at.UTC()
	filter := bson.M{"_id": objectID, "status": bson.M{"$ne": string(domain.ConversationClosed)}}
	update := bson.M{"$set": bson.M{"status": string(domain.ConversationClosed), "updatedAt": at}}
	before, ok, err := r.updateOne(ctx, filter, update)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return r.unchanged(ctx, id)
	}
	previous := before.Status
	before.Close(at)
	return before, previous, nil
}

// Reopen returns a closed conversation to responded when a reply was ever
// recorded, otherwise to new.
func (r *ConversationRepository) Reopen(ctx context.Context, id string, at time.Time) (*domain.Conversation, domain.ConversationStatus, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", domain.ErrNotFound
	}
	at = at.UTC()
	hasReply := bson.D{{Key: "$ifNull", Value: bson.A{"$respondedAt", false}}}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
			hasReply, string(domain.ConversationResponded), string(domain.ConversationNew),
		}}}},
		{Key: "updatedAt", Value: at},
	}}}}
	filter := bson.M{"_id": objectID, "status": string(domain.ConversationClosed)}
	before, ok, err := r.updateOne(ctx, filter, update)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return r.unchanged(ctx, id)
	}
	previous := before.Status
	before.Reopen(at)
	return before, previous, nil
}

// updateOne applies update to the conversation matching filter and
// returns it as it was before the write. ok is false when nothing matched.
func (r *ConversationRepository) updateOne(ctx context.Context, filter bson.M, update any) (*domain.Conversation, bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var doc ConversationDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("update conversation: %w", err)
	}
	conv, err := mapConversationDocument(doc)
	if err != nil {
		return nil, false, err
	}
	return &conv, true, nil
}

// unchanged reports the stored conversation when a status write matched
// nothing because it was already in the target state.
func (r *ConversationRepository) unchanged(ctx context.Context, id string) (*domain.Conversation, domain.ConversationStatus, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return current, current.Status, nil
}

// literal keeps user text that starts with "$" from being read as a field
// path inside an update pipeline.
func literal(v string) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

// ListForParticipant returns the participant's conversations, most
// recently active first.
func (r *ConversationRepository) ListForParticipant(ctx context.Context, uid string) ([]domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"participantIds": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := make([]domain.Conversation, 0)
	for cursor.Next(ctx) {
		var doc ConversationDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logf("conversation skipped uid=%s err=%v", uid, err)
			continue
		}
		conv, err := mapConversationDocument(doc)
		if err != nil {
			r.logf("conversation skipped uid=%s err=%v", uid, err)
			continue
		}
		conversations = append(conversations, conv)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

func (r *ConversationRepository) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
