package main

import (
	"context"

	"github.com/landlink-ke/land-market/api/internal/config"
	mongodoc "github.com/landlink-ke/land-market/api/internal/infrastructure/mongo"
	"github.com/landlink-ke/land-market/api/internal/server"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := mongodoc.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, mongodoc.Collections{
		Listings:      cfg.ListingCollection,
		Evidence:      cfg.EvidenceCollection,
		Conversations: cfg.ConversationCollection,
		Messages:      cfg.MessageCollection,
	}, cfg.Timeout)
	if err != nil {
		cfg.ServerLog.Fatalf("MongoDB connection failed: %v", err)
	}
	if err := client.CreateIndexes(ctx); err != nil {
		cfg.ServerLog.Printf("index bootstrap failed: %v", err)
	}

	app := server.New(cfg, client)
	if err := app.Run(); err != nil {
		cfg.ServerLog.Fatalf("server stopped: %v", err)
	}
}
