package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/landlink-ke/land-market/api/internal/domain"
	mongodoc "github.com/landlink-ke/land-market/api/internal/infrastructure/mongo"
)

type seedOptions struct {
	envName           string
	listingCount      int
	conversationCount int
	legacyCount       int
	dropCollections   bool
	randomSeed        int64
	tokenTTL          time.Duration
}

type place struct {
	location string
	county   string
}

var (
	places = []place{
		{"Kitengela", "Kajiado"}, {"Isinya", "Kajiado"}, {"Ruiru", "Kiambu"}, {"Juja", "Kiambu"},
		{"Syokimau", "Machakos"}, {"Naivasha", "Nakuru"}, {"Malindi", "Kilifi"}, {"Karen", "Nairobi"},
		{"Eldoret", "Uasin Gishu"}, {"Kisumu", "Kisumu"}, {"Nanyuki", "Laikipia"}, {"Diani", "Kwale"},
	}
	landTypes  = []string{"residential", "agricultural", "commercial", "industrial", "mixed_use"}
	sizes      = []string{"1/8 acre", "1/4 acre", "1/2 acre", "1 acre", "2 acres", "5 acres"}
	areaBySize = map[string]float64{"1/8 acre": 0.125, "1/4 acre": 0.25, "1/2 acre": 0.5, "1 acre": 1, "2 acres": 2, "5 acres": 5}
	features   = []string{"ready title deed", "near tarmac road", "water and electricity on site", "gated community", "red soil", "beacons in place", "borehole nearby", "10 minutes to the highway"}
	openers    = []string{"Is this plot still available?", "Can I arrange a site visit this weekend?", "Is the price negotiable?", "Has the title been searched recently?"}
	replies    = []string{"Yes, it is still available.", "Saturday morning works, meet at the gate.", "There is a little room for negotiation.", "The official search is attached to the listing."}
	statuses   = []domain.ListingStatus{domain.StatusApproved, domain.StatusApproved, domain.StatusApproved, domain.StatusPending, domain.StatusRejected}

	sellers = []domain.Principal{
		{UID: "seller-1", Role: domain.RoleSeller, DisplayName: "Wanjiru Estates"},
		{UID: "seller-2", Role: domain.RoleSeller, DisplayName: "Otieno Land Agency"},
		{UID: "seller-3", Role: domain.RoleSeller, DisplayName: "Coastline Plots"},
	}
	buyers = []domain.Principal{
		{UID: "buyer-1", Role: domain.RoleBuyer, DisplayName: "Achieng"},
		{UID: "buyer-2", Role: domain.RoleBuyer, DisplayName: "Kamau"},
		{UID: "buyer-3", Role: domain.RoleBuyer, DisplayName: "Mutua"},
	}
	admin = domain.Principal{UID: "admin-1", Role: domain.RoleAdmin, DisplayName: "Moderator"}
)

func main() {
	opts := parseFlags()

	if err := loadEnvFiles(opts.envName); err != nil {
		log.Fatalf("env load failed: %v", err)
	}

	collections := mongodoc.Collections{
		Listings:      envOrDefault("LISTING_COLLECTION", "listings"),
		Evidence:      envOrDefault("EVIDENCE_COLLECTION", "evidence"),
		Conversations: envOrDefault("CONVERSATION_COLLECTION", "conversations"),
		Messages:      envOrDefault("MESSAGE_COLLECTION", "messages"),
	}
	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "land-market")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongodoc.Connect(ctx, mongoURI, dbName, collections, 10*time.Second)
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	defer func() {
		_ = client.Close(context.Background())
	}()

	if opts.dropCollections {
		if err := dropCollections(ctx, client); err != nil {
			log.Fatalf("drop collections failed: %v", err)
		}
		log.Printf("dropped existing collections")
	}
	if err := client.CreateIndexes(ctx); err != nil {
		log.Fatalf("index creation failed: %v", err)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags)
	repos := client.Repositories(logger)

	listings, err := seedListings(ctx, repos, rng, opts.listingCount)
	if err != nil {
		log.Fatalf("listing seed failed: %v", err)
	}
	legacy, err := seedLegacyListings(ctx, client, rng, opts.legacyCount)
	if err != nil {
		log.Fatalf("legacy listing seed failed: %v", err)
	}
	conversations, messages, err := seedConversations(ctx, repos, rng, listings, opts.conversationCount)
	if err != nil {
		log.Fatalf("conversation seed failed: %v", err)
	}

	log.Printf("seed complete: listings=%d legacy=%d conversations=%d messages=%d",
		len(listings), legacy, conversations, messages)
	log.Printf("Mongo: %s / %s (env=%s)", mongoURI, dbName, opts.envName)

	if secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); secret != "" {
		printDemoTokens(secret, envOrDefault("AUTH_JWT_ISSUER", "land-market-auth"), os.Getenv("AUTH_JWT_AUDIENCE"), opts.tokenTTL)
	} else {
		log.Printf("AUTH_JWT_SECRET not set; skipping demo tokens")
	}
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envName, "env", "local", "env file name under ../env (e.g. local, staging)")
	flag.IntVar(&opts.listingCount, "listings", 40, "number of listings to create")
	flag.IntVar(&opts.conversationCount, "conversations", 12, "number of conversations to create")
	flag.IntVar(&opts.legacyCount, "legacy", 3, "number of legacy-shaped listing documents to insert")
	flag.BoolVar(&opts.dropCollections, "drop", true, "drop existing collections before seeding")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "random seed for reproducible data")
	flag.DurationVar(&opts.tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the printed demo tokens")
	flag.Parse()

	if opts.listingCount <= 0 {
		log.Fatal("listings must be at least 1")
	}
	if opts.conversationCount < 0 {
		opts.conversationCount = 0
	}
	if opts.legacyCount < 0 {
		opts.legacyCount = 0
	}
	return opts
}

// loadEnvFiles loads shared.env then <env>.env when they exist. Values
// already in the environment win.
func loadEnvFiles(envName string) error {
	base := filepath.Clean(filepath.Join("..", "env"))
	files := []string{
		filepath.Join(base, "shared.env"),
		filepath.Join(base, fmt.Sprintf("%s.env", envName)),
		".env",
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func dropCollections(ctx context.Context, client *mongodoc.Client) error {
	cols := client.Collections()
	for _, name := range []string{cols.Listings, cols.Evidence, cols.Conversations, cols.Messages} {
		if err := client.Database().Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

func seedListings(ctx context.Context, repos mongodoc.Repositories, rng *rand.Rand, count int) ([]domain.Listing, error) {
	now := time.Now().UTC()
	created := make([]domain.Listing, 0, count)
	for i := 0; i < count; i++ {
		seller := sellers[i%len(sellers)]
		p := places[rng.Intn(len(places))]
		size := sizes[rng.Intn(len(sizes))]
		landType := landTypes[rng.Intn(len(landTypes))]
		createdAt := now.Add(-time.Duration(rng.Intn(90*24)) * time.Hour)

		images := generateImages(rng, i)
		evidence := generateEvidence(rng, seller.UID, createdAt)
		suggestion := domain.SuggestBadge(evidence, len(images))

		listing := domain.Listing{
			OwnerID:     seller.UID,
			Title:       fmt.Sprintf("%s %s plot in %s", size, landType, p.location),
			Description: strings.Join(pickUnique(rng, features, 3), ", "),
			Location:    p.location,
			County:      p.county,
			Price:       priceFor(rng, areaBySize[size], p.county),
			Area:        areaBySize[size],
			Size:        size,
			LandType:    landType,
			Images:      images,
			Status:      statuses[rng.Intn(len(statuses))],
			Badge:       domain.BadgeNone,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		listing.BadgeSuggestion = &suggestion
		if listing.Status == domain.StatusApproved && rng.Intn(2) == 0 {
			listing.Badge = suggestion.Badge
			reviewed := createdAt.Add(6 * time.Hour)
			listing.AdminReviewedAt = &reviewed
		}

		if rng.Intn(3) == 0 {
			// seller-supplied pin
			coords := domain.GenerateCoordsFromLocation(p.location + " pin")
			listing.Latitude, listing.Longitude = coords.Latitude, coords.Longitude
		} else {
			coords := domain.GenerateCoordsFromLocation(p.location)
			listing.Latitude, listing.Longitude = coords.Latitude, coords.Longitude
			listing.IsApproximateLocation = true
		}

		if err := repos.Listings.Create(ctx, &listing); err != nil {
			return nil, err
		}
		for j := range evidence {
			evidence[j].ListingID = listing.ID
		}
		if err := repos.Evidence.CreateMany(ctx, evidence); err != nil {
			return nil, err
		}
		listing.Evidence = evidence
		created = append(created, listing)
	}
	return created, nil
}

// seedLegacyListings writes documents in the shapes older records use: a
// single image field, no status or badge, and string timestamps.
func seedLegacyListings(ctx context.Context, client *mongodoc.Client, rng *rand.Rand, count int) (int, error) {
	if count == 0 {
		return 0, nil
	}
	docs := make([]any, 0, count)
	for i := 0; i < count; i++ {
		p := places[rng.Intn(len(places))]
		docs = append(docs, bson.M{
			"_id":       primitive.NewObjectID(),
			"ownerId":   sellers[i%len(sellers)].UID,
			"title":     fmt.Sprintf("Legacy plot in %s", p.location),
			"location":  p.location,
			"county":    p.county,
			"price":     int64(1_000_000 + rng.Intn(4_000_000)),
			"area":      0.25,
			"landType":  "residential",
			"image":     fmt.Sprintf("https://images.example.com/legacy/%d.jpg", i),
			"createdAt": time.Now().UTC().Add(-time.Duration(200+i) * 24 * time.Hour).Format(time.RFC3339),
		})
	}
	if _, err := client.Database().Collection(client.Collections().Listings).InsertMany(ctx, docs); err != nil {
		return 0, fmt.Errorf("insert legacy listings: %w", err)
	}
	return len(docs), nil
}

func seedConversations(ctx context.Context, repos mongodoc.Repositories, rng *rand.Rand, listings []domain.Listing, count int) (int, int, error) {
	approved := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Status == domain.StatusApproved {
			approved = append(approved, l)
		}
	}
	if len(approved) == 0 || count == 0 {
		return 0, 0, nil
	}

	conversations, messages := 0, 0
	for i := 0; i < count; i++ {
		listing := approved[rng.Intn(len(approved))]
		buyer := buyers[i%len(buyers)]
		seller := sellerByID(listing.OwnerID)
		started := listing.CreatedAt.Add(time.Duration(1+rng.Intn(72)) * time.Hour)

		conv := domain.Conversation{
			ListingID:      listing.ID,
			ListingTitle:   listing.Title,
			BuyerID:        buyer.UID,
			SellerID:       seller.UID,
			ParticipantIDs: []string{buyer.UID, seller.UID},
			Participants: map[string]domain.Participant{
				buyer.UID:  {DisplayName: buyer.DisplayName, Role: buyer.Role},
				seller.UID: {DisplayName: seller.DisplayName, Role: seller.Role},
			},
			InitiatorID: buyer.UID,
			Status:      domain.ConversationNew,
			CreatedAt:   started,
			UpdatedAt:   started,
		}
		if err := repos.Conversations.Create(ctx, &conv); err != nil {
			return conversations, messages, err
		}
		conversations++

		turns := []struct {
			sender string
			text   string
		}{{buyer.UID, openers[rng.Intn(len(openers))]}}
		if rng.Intn(3) > 0 {
			turns = append(turns, struct {
				sender string
				text   string
			}{seller.UID, replies[rng.Intn(len(replies))]})
		}

		ts := started
		for _, turn := range turns {
			msg := domain.Message{
				ClientID:       uuid.NewString(),
				ConversationID: conv.ID,
				SenderID:       turn.sender,
				Text:           turn.text,
				Timestamp:      ts,
			}
			if _, err := repos.Messages.Append(ctx, &msg); err != nil {
				return conversations, messages, err
			}
			last := domain.LastMessage{Text: turn.text, SenderID: turn.sender, Timestamp: ts}
			if _, _, err := repos.Conversations.RecordMessage(ctx, conv.ID, last); err != nil {
				return conversations, messages, err
			}
			messages++
			ts = ts.Add(time.Duration(5+rng.Intn(240)) * time.Minute)
		}
		if rng.Intn(5) == 0 {
			if _, _, err := repos.Conversations.Close(ctx, conv.ID, ts); err != nil {
				return conversations, messages, err
			}
		}
	}
	return conversations, messages, nil
}

func printDemoTokens(secret, issuer, audience string, ttl time.Duration) {
	principals := append(append([]domain.Principal{admin}, sellers...), buyers...)
	audience = strings.TrimSpace(audience)
	now := time.Now()
	for _, p := range principals {
		claims := jwt.MapClaims{
			"sub":  p.UID,
			"iss":  issuer,
			"iat":  now.Unix(),
			"exp":  now.Add(ttl).Unix(),
			"role": string(p.Role),
			"name": p.DisplayName,
		}
		if audience != "" {
			claims["aud"] = audience
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			log.Printf("token for %s failed: %v", p.UID, err)
			continue
		}
		fmt.Printf("%-9s %-7s %s\n", p.UID, p.Role, token)
	}
}

func generateImages(rng *rand.Rand, index int) []domain.Image {
	n := rng.Intn(5)
	hints := []string{"road frontage", "beacon", "aerial view", "neighbouring homes", "soil sample"}
	images := make([]domain.Image, 0, n)
	for i := 0; i < n; i++ {
		images = append(images, domain.Image{
			URL:  fmt.Sprintf("https://images.example.com/listings/%d/%d.jpg", index, i),
			Hint: hints[rng.Intn(len(hints))],
		})
	}
	return images
}

func generateEvidence(rng *rand.Rand, ownerID string, uploaded time.Time) []domain.Evidence {
	kinds := []domain.EvidenceType{domain.EvidenceTitleDeed, domain.EvidenceSurveyMap, domain.EvidenceRateClearance, domain.EvidenceOther}
	n := rng.Intn(len(kinds) + 1)
	picked := rng.Perm(len(kinds))[:n]
	evidence := make([]domain.Evidence, 0, n)
	for _, k := range picked {
		kind := kinds[k]
		name := fmt.Sprintf("%s.pdf", kind)
		evidence = append(evidence, domain.Evidence{
			OwnerID:     ownerID,
			Type:        kind,
			Name:        name,
			StoragePath: fmt.Sprintf("evidence/%s/%s/%s", ownerID, uuid.NewString(), name),
			Content:     fmt.Sprintf("Scanned %s issued for parcel reference %d/%d.", strings.ReplaceAll(string(kind), "_", " "), 1000+rng.Intn(9000), rng.Intn(500)),
			Verified:    rng.Intn(2) == 0,
			UploadedAt:  uploaded,
		})
	}
	return evidence
}

// priceFor draws a per-acre price by county tier and scales it by area,
// rounded to the nearest 50,000 KES.
func priceFor(rng *rand.Rand, acres float64, county string) int64 {
	perAcre := 2_000_000 + rng.Intn(4_000_000)
	switch county {
	case "Nairobi":
		perAcre *= 8
	case "Kiambu", "Kajiado", "Machakos":
		perAcre *= 2
	}
	price := int64(float64(perAcre) * acres)
	price = (price + 25_000) / 50_000 * 50_000
	if price < 50_000 {
		price = 50_000
	}
	return price
}

func pickUnique(rng *rand.Rand, source []string, count int) []string {
	if count > len(source) {
		count = len(source)
	}
	result := make([]string, 0, count)
	for _, i := range rng.Perm(len(source))[:count] {
		result = append(result, source[i])
	}
	return result
}

func sellerByID(uid string) domain.Principal {
	for _, s := range sellers {
		if s.UID == uid {
			return s
		}
	}
	return domain.Principal{UID: uid, Role: domain.RoleSeller}
}
