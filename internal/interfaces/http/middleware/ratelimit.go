package middleware

import (
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/landlink-ke/land-market/api/internal/interfaces/http/common"
)

const idleLimiterTTL = 10 * time.Minute

// Defaults used when the configured values are not positive.
const (
	DefaultLimitPerMinute = 30
	DefaultBurst          = 10
)

// LimiterStore maintains per-key rate limiters and performs periodic cleanup.
type LimiterStore struct {
	mu              sync.Mutex
	limit           rate.Limit
	burst           int
	clients         map[string]*clientEntry
	cleanupInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiterStore creates a store allowing limitPerMinute events per key
// with the given burst capacity.
func NewLimiterStore(limitPerMinute, burst int, cleanupInterval time.Duration) *LimiterStore {
	if limitPerMinute <= 0 {
		limitPerMinute = DefaultLimitPerMinute
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	s := &LimiterStore{
		limit:           rate.Every(time.Minute / time.Duration(limitPerMinute)),
		burst:           burst,
		clients:         map[string]*clientEntry{},
		cleanupInterval: cleanupInterval,
		stopCh:          make(chan struct{}),
		now:             time.Now,
	}
	go s.cleanupLoop()
	return s
}

func (s *LimiterStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(s.now().Add(-idleLimiterTTL))
		case <-s.stopCh:
			return
		}
	}
}

func (s *LimiterStore) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.clients {
		if v.lastSeen.Before(cutoff) {
			delete(s.clients, k)
		}
	}
}

// Stop stops the cleanup goroutine.
func (s *LimiterStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *LimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.clients[key]; ok {
		e.lastSeen = s.now()
		return e.limiter
	}
	limiter := rate.NewLimiter(s.limit, s.burst)
	s.clients[key] = &clientEntry{limiter: limiter, lastSeen: s.now()}
	return limiter
}

// Reserve consumes one event for key. When the event is not allowed now it
// returns false and the delay until it would be.
func (s *LimiterStore) Reserve(key string) (bool, time.Duration) {
	l := s.getLimiter(key)
	now := s.now()
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, delay
}

// Allow checks whether an event for the given key is permitted.
func (s *LimiterStore) Allow(key string) bool {
	ok, _ := s.Reserve(key)
	return ok
}

// RateLimit limits requests per principal, falling back to the client
// address for anonymous callers. Rejected requests get 429 with
// Retry-After.
func RateLimit(store *LimiterStore, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)
			if ok, wait := store.Reserve(key); !ok {
				seconds := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				if logger != nil {
					logger.Printf("rate limit exceeded key=%s path=%s", key, r.URL.Path)
				}
				common.WriteJSON(logger, w, http.StatusTooManyRequests, common.ErrorResponse{Error: "rate limit exceeded", Retryable: true})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limiterKey(r *http.Request) string {
	if p := common.PrincipalFromContext(r.Context()); !p.IsAnonymous() {
		return "uid:" + p.UID
	}
	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}
