package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

// MessageRepository implements application.MessageRepository.
type MessageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database, collectionName string) *MessageRepository {
	return &MessageRepository{collection: db.Collection(collectionName)}
}

// Append stores the message. Re-sending a client id already stored in the
// conversation loads the stored message into message and reports false.
func (r *MessageRepository) Append(ctx context.Context, message *domain.Message) (bool, error) {
	id := primitive.NewObjectID()
	doc := MessageDocument{
		ID:             id,
		ConversationID: message.ConversationID,
		ClientID:       message.ClientID,
		SenderID:       message.SenderID,
		Text:           message.Text,
		Timestamp:      NewTimestamp(message.Timestamp),
	}
	_, err := r.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		var existing MessageDocument
		filter := bson.M{"conversationId": message.ConversationID, "clientId": message.ClientID}
		if findErr := r.collection.FindOne(ctx, filter).Decode(&existing); findErr != nil {
			return false, fmt.Errorf("append message: %w", err)
		}
		*message = mapMessageDocument(existing)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("append message: %w", err)
	}
	message.ID = id.Hex()
	return true, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns the conversation's messages in send order.
func (r *MessageRepository) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages %s: %w", conversationID, err)
	}
	defer cursor.Close(ctx)

	messages := make([]domain.Message, 0)
	for cursor.Next(ctx) {
		var doc MessageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: message in %s: %v", domain.ErrMalformedRecord, conversationID, err)
		}
		messages = append(messages, mapMessageDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list messages %s: %w", conversationID, err)
	}
	return messages, nil
}
