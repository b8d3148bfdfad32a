package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	adminapp "github.com/landlink-ke/land-market/api/internal/admin/application"
	"github.com/landlink-ke/land-market/api/internal/config"
	"github.com/landlink-ke/land-market/api/internal/domain"
	"github.com/landlink-ke/land-market/api/internal/infrastructure/genai"
	mongodoc "github.com/landlink-ke/land-market/api/internal/infrastructure/mongo"
	"github.com/landlink-ke/land-market/api/internal/infrastructure/realtime"
	adminhttp "github.com/landlink-ke/land-market/api/internal/interfaces/http/admin"
	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
	ratelimit "github.com/landlink-ke/land-market/api/internal/interfaces/http/middleware"
	publichttp "github.com/landlink-ke/land-market/api/internal/interfaces/http/public"
	publicapp "github.com/landlink-ke/land-market/api/internal/public/application"
)

// Store is the part of the database handle the server owns directly.
type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Services are the application services the routes are wired to.
type Services struct {
	Search        publicapp.SearchService
	Listings      publicapp.ListingService
	Conversations publicapp.ConversationService
	Assist        publicapp.AssistService
	Moderation    adminapp.ModerationService
}

// Server is the composition root: it owns the HTTP lifecycle and injects
// application services into the public and admin handlers.
type Server struct {
	logger         *log.Logger
	store          Store
	services       Services
	revisions      *common.Revisions
	limiter        *ratelimit.LimiterStore
	jwtConfigs     []config.JWTConfig
	jwtAudience    string
	addr           string
	allowedOrigins []string
}

// New builds the store adapters, infrastructure clients and services over
// an established MongoDB client.
func New(cfg config.Config, client *mongodoc.Client) *Server {
	repos := client.Repositories(cfg.ServerLog)
	revisions := common.NewRevisions()
	hub := realtime.NewHub(0, cfg.ServerLog)
	assistant := genai.NewClient(genai.Config{
		Endpoint: cfg.GenAIEndpoint,
		APIKey:   cfg.GenAIAPIKey,
		Model:    cfg.GenAIModel,
		Timeout:  cfg.GenAITimeout,
	})

	services := Services{
		Search:        publicapp.NewSearchService(repos.Listings, cfg.SearchDefaultPageSize, cfg.SearchMaxPageSize),
		Listings:      publicapp.NewListingService(repos.Listings, repos.Evidence, revisions),
		Conversations: publicapp.NewConversationService(repos.Conversations, repos.Messages, repos.Listings, hub),
		Assist:        publicapp.NewAssistService(assistant, repos.Listings, repos.Evidence, revisions),
		Moderation:    adminapp.NewModerationService(repos.AdminListings, revisions, cfg.BulkConcurrency),
	}

	return NewWithServices(cfg, client, services, revisions)
}

// NewWithServices assembles a Server around already built services.
func NewWithServices(cfg config.Config, store Store, services Services, revisions *common.Revisions) *Server {
	if revisions == nil {
		revisions = common.NewRevisions()
	}
	logger := cfg.ServerLog
	if logger == nil {
		logger = log.New(os.Stdout, "[land-market-api] ", log.LstdFlags|log.Lshortfile)
	}
	return &Server{
		logger:         logger,
		store:          store,
		services:       services,
		revisions:      revisions,
		limiter:        ratelimit.NewLimiterStore(cfg.MessageRatePerMinute, cfg.MessageRateBurst, time.Minute),
		jwtConfigs:     append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:    cfg.JWTAudience,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}
}

// Handler assembles the router with middleware, public and admin routes.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	router.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		publicHandler := publichttp.NewHandler(publichttp.Config{
			Logger:        s.logger,
			Search:        s.services.Search,
			Listings:      s.services.Listings,
			Conversations: s.services.Conversations,
			Assist:        s.services.Assist,
			Revisions:     s.revisions,
		})
		publicHandler.Register(r, s.requireAuth, ratelimit.RateLimit(s.limiter, s.logger))

		adminHandler := adminhttp.NewHandler(adminhttp.Config{
			Logger:     s.logger,
			Search:     s.services.Search,
			Listings:   s.services.Listings,
			Moderation: s.services.Moderation,
			Revisions:  s.revisions,
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminhttp.RequireAdmin(s.logger))
			adminHandler.Register(r)
		})
	})

	return router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening: http://%s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// withCORS returns a middleware adding CORS headers for allowed origins.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag,Location,Retry-After")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler reports infrastructure health only.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.store.Ping(ctx); err != nil {
			common.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		common.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// authMiddleware resolves the principal from an optional bearer token.
// Requests without Authorization continue as anonymous; a present but
// invalid token is rejected.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			common.WriteMessage(s.logger, w, http.StatusUnauthorized, "bearer token required")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			common.WriteMessage(s.logger, w, http.StatusUnauthorized, "access token is empty")
			return
		}

		principal, err := s.parseAuthToken(tokenString)
		if err != nil {
			common.WriteMessage(s.logger, w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(common.ContextWithPrincipal(r.Context(), principal)))
	})
}

// requireAuth rejects anonymous callers.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if common.PrincipalFromContext(r.Context()).IsAnonymous() {
			common.WriteMessage(s.logger, w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// parseAuthToken tries each configured secret in turn, checking the
// signature, issuer and audience.
func (s *Server) parseAuthToken(tokenString string) (domain.Principal, error) {
	if len(s.jwtConfigs) == 0 {
		return domain.Principal{}, errors.New("authentication is not configured")
	}

	for _, cfg := range s.jwtConfigs {
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return cfg.Secret, nil
		}, jwt.WithLeeway(30*time.Second))

		if err != nil || !token.Valid {
			continue
		}
		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			continue
		}
		if claims.Subject == "" {
			continue
		}
		if s.jwtAudience != "" && !slices.Contains(claims.Audience, s.jwtAudience) {
			continue
		}

		role := domain.RoleBuyer
		if strings.TrimSpace(claims.Role) != "" {
			parsed, err := domain.ParseRole(claims.Role)
			if err != nil {
				return domain.Principal{}, errors.New("access token carries an unknown role")
			}
			role = parsed
		}

		name := strings.TrimSpace(claims.Name)
		if name == "" {
			name = strings.TrimSpace(claims.PreferredUsername)
		}
		return domain.Principal{UID: claims.Subject, Role: role, DisplayName: name}, nil
	}

	return domain.Principal{}, errors.New("access token is invalid")
}

type authClaims struct {
	jwt.RegisteredClaims
	Role              string `json:"role,omitempty"`
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

func (s *Server) shutdown(ctx context.Context) {
	s.limiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.store.Close(shutdownCtx); err != nil {
		s.logger.Printf("MongoDB disconnect failed: %v", err)
	}
}

// waitForShutdown watches ListenAndServe and OS signals and shuts the
// server down gracefully.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("http shutdown failed: %v", err)
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
