package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                   string
	MongoURI               string
	MongoDatabase          string
	ListingCollection      string
	EvidenceCollection     string
	ConversationCollection string
	MessageCollection      string
	Timeout                time.Duration
	ServerLog              *log.Logger
	JWTConfigs             []JWTConfig
	JWTAudience            string
	AllowedOrigins         []string
	GenAIEndpoint          string
	GenAIAPIKey            string
	GenAIModel             string
	GenAITimeout           time.Duration
	SearchDefaultPageSize  int
	SearchMaxPageSize      int
	MessageRatePerMinute   int
	MessageRateBurst       int
	BulkConcurrency        int
}

// Load reads an optional .env file and the environment and returns a fully
// populated Config. Missing required settings are fatal.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg, err := Parse(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}
	cfg.ServerLog.Printf("loaded config: addr=%q db=%q genaiEndpoint=%q origins=%v", cfg.Addr, cfg.MongoDatabase, cfg.GenAIEndpoint, cfg.AllowedOrigins)
	return cfg
}

// Parse builds a Config from getenv.
func Parse(getenv func(string) string) (Config, error) {
	env := envReader(getenv)

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(getenv("AUTH_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: env.orDefault("AUTH_JWT_ISSUER", "land-market-auth"),
			Secret: []byte(secret),
		})
	}
	// The previous secret keeps tokens minted before a rotation valid.
	if secret := strings.TrimSpace(getenv("AUTH_JWT_PREVIOUS_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: env.orDefault("AUTH_JWT_ISSUER", "land-market-auth"),
			Secret: []byte(secret),
		})
	}
	if len(jwtConfigs) == 0 {
		return Config{}, errors.New("JWT secret not configured: set AUTH_JWT_SECRET")
	}

	cfg := Config{
		Addr:                   env.orDefault("HTTP_ADDR", ":8080"),
		MongoURI:               env.orDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:          env.orDefault("MONGO_DB", "land-market"),
		ListingCollection:      env.orDefault("LISTING_COLLECTION", "listings"),
		EvidenceCollection:     env.orDefault("EVIDENCE_COLLECTION", "evidence"),
		ConversationCollection: env.orDefault("CONVERSATION_COLLECTION", "conversations"),
		MessageCollection:      env.orDefault("MESSAGE_COLLECTION", "messages"),
		Timeout:                env.duration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		ServerLog:              log.New(os.Stdout, "[land-market-api] ", log.LstdFlags|log.Lshortfile),
		JWTConfigs:             jwtConfigs,
		JWTAudience:            strings.TrimSpace(getenv("AUTH_JWT_AUDIENCE")),
		AllowedOrigins:         env.list("API_ALLOWED_ORIGINS", []string{"*"}),
		GenAIEndpoint:          strings.TrimRight(strings.TrimSpace(getenv("GENAI_ENDPOINT")), "/"),
		GenAIAPIKey:            strings.TrimSpace(getenv("GENAI_API_KEY")),
		GenAIModel:             env.orDefault("GENAI_MODEL", "land-assist-1"),
		GenAITimeout:           env.duration("GENAI_TIMEOUT", 30*time.Second),
		SearchDefaultPageSize:  env.positiveInt("SEARCH_DEFAULT_PAGE_SIZE", 12),
		SearchMaxPageSize:      env.positiveInt("SEARCH_MAX_PAGE_SIZE", 100),
		MessageRatePerMinute:   env.positiveInt("MESSAGE_RATE_PER_MINUTE", 30),
		MessageRateBurst:       env.positiveInt("MESSAGE_RATE_BURST", 10),
		BulkConcurrency:        env.positiveInt("BULK_CONCURRENCY", 8),
	}
	return cfg, nil
}

type envReader func(string) string

func (e envReader) orDefault(key, fallback string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return fallback
}

func (e envReader) duration(key string, fallback time.Duration) time.Duration {
	if raw := strings.TrimSpace(e(key)); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func (e envReader) positiveInt(key string, fallback int) int {
	if raw := strings.TrimSpace(e(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func (e envReader) list(key string, fallback []string) []string {
	raw := strings.TrimSpace(e(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
