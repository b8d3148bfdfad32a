package mongo

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collections names the collections the API uses.
type Collections struct {
	Listings      string
	Evidence      string
	Conversations string
	Messages      string
}

// Client wraps mongo.Client and the application database.
type Client struct {
	client      *mongo.Client
	db          *mongo.Database
	collections Collections
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string, collections Collections, timeout time.Duration) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return &Client{client: client, db: client.Database(database), collections: collections}, nil
}

func (c *Client) Database() *mongo.Database {
	return c.db
}

func (c *Client) Collections() Collections {
	return c.collections
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the search and messaging queries rely on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	listingIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "price", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "landType", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := c.db.Collection(c.collections.Listings).Indexes().CreateMany(ctx, listingIndexes); err != nil {
		return fmt.Errorf("create listing indexes: %w", err)
	}

	evidenceIndex := mongo.IndexModel{Keys: bson.D{{Key: "listingId", Value: 1}, {Key: "uploadedAt", Value: 1}}}
	if _, err := c.db.Collection(c.collections.Evidence).Indexes().CreateOne(ctx, evidenceIndex); err != nil {
		return fmt.Errorf("create evidence index: %w", err)
	}

	conversationIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "listingId", Value: 1}, {Key: "buyerId", Value: 1}, {Key: "sellerId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "participantIds", Value: 1}, {Key: "updatedAt", Value: -1}}},
	}
	if _, err := c.db.Collection(c.collections.Conversations).Indexes().CreateMany(ctx, conversationIndexes); err != nil {
		return fmt.Errorf("create conversation indexes: %w", err)
	}

	messageIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "timestamp", Value: 1}}},
		{
			Keys:    bson.D{{Key: "conversationId", Value: 1}, {Key: "clientId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := c.db.Collection(c.collections.Messages).Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	return nil
}

// Repositories bundles the store adapters over one database.
type Repositories struct {
	Listings      *ListingRepository
	AdminListings *AdminListingRepository
	Evidence      *EvidenceRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
}

// Repositories builds the store adapters over the client's database.
func (c *Client) Repositories(logger *log.Logger) Repositories {
	return NewRepositories(c.db, c.collections, logger)
}

func NewRepositories(db *mongo.Database, collections Collections, logger *log.Logger) Repositories {
	listings := NewListingRepository(db, collections.Listings, logger)
	return Repositories{
		Listings:      listings,
		AdminListings: NewAdminListingRepository(listings),
		Evidence:      NewEvidenceRepository(db, collections.Evidence),
		Conversations: NewConversationRepository(db, collections.Conversations, logger),
		Messages:      NewMessageRepository(db, collections.Messages),
	}
}
